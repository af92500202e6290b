package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 * 1024

var (
	// ErrUnauthorized matches any *Error with status 401.
	ErrUnauthorized = errors.New("authentication required")

	// ErrInvalidServerURL is returned when the server URL is not absolute http(s).
	ErrInvalidServerURL = errors.New("invalid server URL: expected http(s)://host[:port]")

	// ErrInvalidProxyAddress is returned when the proxy address format is invalid.
	// Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrEmptyFilename is returned by DownloadReport for an empty name.
	ErrEmptyFilename = errors.New("report filename is empty")

	// ErrInvalidFilename is returned by DownloadReport for a name that is not
	// a single path element, such as ".." or "a/b.pdf".
	ErrInvalidFilename = errors.New("report filename must be a bare file name")
)

// Error is a non-2xx response from the service.
type Error struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Status is the HTTP status line text, e.g. "404 NOT FOUND".
	Status string

	// Message is the server-provided error text, if any.
	Message string
}

// Error implements error.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Status != "" {
		return "HTTP error! status: " + e.Status
	}
	return "HTTP error! status: " + http.StatusText(e.StatusCode)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// StatusText returns the reason phrase without the numeric code.
func (e *Error) StatusText() string {
	if _, text, ok := strings.Cut(e.Status, " "); ok && text != "" {
		return text
	}
	return http.StatusText(e.StatusCode)
}

// ServerMessage returns the server-provided message carried by err, if any.
func ServerMessage(err error) (string, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message, true
	}
	return "", false
}

// IsCanceled reports whether err came from a cancelled context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// errorFromResponse builds an *Error from a non-2xx response.
// The message is taken from a JSON {"error": "..."} body, or from the
// <title> of an HTML error page.
func errorFromResponse(resp *http.Response) *Error {
	apiErr := &Error{StatusCode: resp.StatusCode, Status: resp.Status}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return apiErr
	}

	contentType := resp.Header.Get("Content-Type")
	switch {
	case strings.Contains(contentType, "json") || looksLikeJSON(body):
		var payload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &payload) == nil {
			apiErr.Message = payload.Error
			if apiErr.Message == "" {
				apiErr.Message = payload.Message
			}
		}
	case strings.Contains(contentType, "html"):
		apiErr.Message = htmlTitle(string(body))
	}
	return apiErr
}

// looksLikeJSON reports whether the body starts like a JSON object.
func looksLikeJSON(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	return strings.HasPrefix(trimmed, "{")
}

// htmlTitle returns the trimmed text of the first <title> element.
func htmlTitle(doc string) string {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" {
			var sb strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					sb.WriteString(c.Data)
				}
			}
			title = strings.Join(strings.Fields(sb.String()), " ")
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(root)
	return title
}
