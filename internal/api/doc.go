// Package api is the HTTP transport for the analysis service.
//
// A Client carries the session credentials (cookies) on every request and
// exposes one method per route of the service:
//
//	GET  /@me                       Me
//	POST /api/auth/login            Login
//	POST /api/auth/register         Register
//	GET  /api/auth/logout           Logout
//	GET  /api/auth/captcha          Captcha
//	POST /analyse                   Analyse (multipart, streamed)
//	GET  /download-report/{name}    DownloadReport
//	GET  /api/dashboard_stats       DashboardStats
//	GET  /api/history               History
//
// Every blocking method takes a context.Context; cancelling it aborts the
// in-flight request, and IsCanceled reports that case. Non-2xx responses are
// returned as *Error, and errors.Is(err, ErrUnauthorized) holds for 401.
//
// Cookies can be persisted across process runs by wrapping the jar with
// NewPersistentJar and a CookieStore (see internal/database).
//
// Traffic can optionally be routed through a SOCKS5 proxy via WithProxy.
package api
