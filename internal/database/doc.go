// Package database provides SQLite-based local state for origincheck.
//
// The StateDB stores:
//   - Session cookies per server, so a sign-in survives between invocations
//   - A journal of submitted analyses with their outcome, scores and any
//     downloaded report, for offline history
//
// SQLite is used through modernc.org/sqlite, a CGO-free driver, so the
// binary cross-compiles without a C toolchain. The database is a single
// file under the XDG data directory.
package database
