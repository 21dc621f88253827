package middleware

import "github.com/aretw0/cedar/pkg/ports"

// Middleware allows wrapping a DefinitionStore to add behavior.
type Middleware func(ports.DefinitionStore) ports.DefinitionStore

// Wrap applies mws to store. The first middleware is the outermost.
func Wrap(store ports.DefinitionStore, mws ...Middleware) ports.DefinitionStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
