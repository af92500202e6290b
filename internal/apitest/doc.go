// Package apitest provides an in-process fake of the analysis service for
// tests. It implements the authentication, analysis, report download and
// history routes with in-memory state and cookie sessions.
package apitest
