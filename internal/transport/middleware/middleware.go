// Package middleware holds the HTTP middleware stack of the operator API.
package middleware

import "net/http"

// Middleware is a function that wraps an http.Handler. It is assignable to
// chi's middleware signature, so values can be passed straight to Use.
type Middleware func(http.Handler) http.Handler
