package server

import (
	"net/http"
	"strings"
)

// Authenticator decides whether the buyer behind a landing request is
// signed in. The landing flow only consumes the verdict; how identity
// is established is the deployment's concern.
type Authenticator interface {
	Authenticated(r *http.Request) bool
}

// HeaderAuthenticator trusts the identity headers set by the fronting
// auth proxy. Any non-empty subject counts as signed in.
type HeaderAuthenticator struct {
	header string
}

func NewHeaderAuthenticator() Authenticator {
	return &HeaderAuthenticator{header: "X-Auth-Subject"}
}

func (a *HeaderAuthenticator) Authenticated(r *http.Request) bool {
	return strings.TrimSpace(r.Header.Get(a.header)) != ""
}
