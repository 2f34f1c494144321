// Package auth holds the credential and session primitives: bcrypt password
// hashing, signed session tokens (HS256 JWT) with optional revocation, and the
// session cookie codec.
//
// Sessions are stateless. Without a RevocationList a token stays valid until
// it expires, whatever happens to the client that held it.
package auth
