// Package jwt signs session cookie values as compact JWTs so a forged or edited
// cookie never reaches the session store.
//
// The session identifier is already unguessable; the signature adds tamper
// evidence and issuer binding. Parse returns only the identifier and never the
// session contents, which stay server-side.
package jwt
