/*
Package observability provides lifecycle hooks for monitoring cedar charts.

It includes Prometheus metrics for dataset queries and renders, structured
logging hooks, and Chain to combine several hook sets into one.
*/
package observability
