// Package ident generates the opaque install token stored in settings.
package ident

import "github.com/google/uuid"

// Generator produces a short, unique, opaque random string. Injected so
// tests can pin the token.
type Generator func() string

// New returns a fresh random token.
func New() string {
	return uuid.NewString()
}
