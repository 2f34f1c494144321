// Package common contains shared constants and sentinel errors used across
// gophauth components.
package common

// SessionCookieName is the cookie that carries the signed session token.
const SessionCookieName = "token"
