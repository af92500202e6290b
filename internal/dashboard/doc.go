// Package dashboard loads the account overview and report history.
package dashboard
