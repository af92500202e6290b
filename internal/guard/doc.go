// Package guard decides which view may be shown for a given session state.
//
// Decide is a pure function of the session's authenticated/loading flags and
// the requested path. While the session is loading no navigation decision is
// made; once settled, signed-out users are sent to the sign-in view and
// signed-in users visiting the sign-in view are sent to the default view.
package guard
