// Package log provides slog loggers that keep credentials out of log output.
//
// SecureHandler wraps any slog.Handler and rewrites attributes before they
// are written:
//   - values under credential keys (password, captcha answer, cookies,
//     session identifiers, tokens, Authorization headers) are replaced
//     with MaskValue
//   - values that look like bearer tokens, JWTs or session cookies are
//     replaced regardless of key
//   - e-mail addresses keep their first character and domain
//     ("alice@example.com" becomes "a***@example.com")
//
// # Usage
//
//	logger := log.New(os.Stderr, verbose, cfg.LogFormat)
//	logger.Info("login succeeded", "email", user.Email)
package log
