// Package session holds the process-wide authentication state.
//
// A Store owns one model.Session value. Every operation replaces the whole
// value, and subscribers are notified after each commit. Operations that race
// are resolved by generation: a write started before a newer committed write
// is dropped, so a slow identity check cannot overwrite a later login.
package session
