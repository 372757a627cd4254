// Package middleware wraps a ports.ResultStore with cross-cutting behavior
// such as PII masking and encryption at rest.
package middleware

import "github.com/aretw0/stepwise/pkg/ports"

// Middleware allows wrapping a ResultStore to add behavior.
type Middleware func(ports.ResultStore) ports.ResultStore

// Chain applies middlewares so that the first one listed sees data first on Save.
func Chain(store ports.ResultStore, mws ...Middleware) ports.ResultStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
