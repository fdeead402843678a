// Package session owns who is signed in.
//
// A [Session] holds the bearer token, the signed-in user and an IsLoading flag that
// stays true until [Session.Initialize] has read (and optionally validated) the
// persisted token. Register and Login replace the user wholesale; Logout clears
// both token and user. Views read snapshots through [Session.State] or
// [Session.Subscribe] and never mutate the user themselves.
//
// The token lives in a [Store]. [NewTokenSource] exposes that store to the HTTP
// adapter so every request carries whatever token is persisted at that moment.
package session
