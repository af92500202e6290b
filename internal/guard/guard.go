package guard

import (
	"errors"
	"strings"

	"github.com/nao1215/origincheck/internal/model"
)

const (
	// SignInPath is the path of the sign-in view.
	SignInPath = "/auth"

	// DefaultPath is where signed-in users land.
	DefaultPath = "/"
)

var (
	// ErrSignInRequired is returned by Decision.Err for RedirectSignIn.
	ErrSignInRequired = errors.New("sign in required")

	// ErrAlreadySignedIn is returned by Decision.Err for RedirectDefault.
	ErrAlreadySignedIn = errors.New("already signed in")

	// ErrSessionLoading is returned by Decision.Err for Wait.
	ErrSessionLoading = errors.New("session status is still loading")
)

// Kind is the outcome of a guard decision.
type Kind int

const (
	// Render shows the requested view.
	Render Kind = iota

	// RedirectSignIn sends the user to the sign-in view.
	RedirectSignIn

	// RedirectDefault sends a signed-in user to the default view.
	RedirectDefault

	// Wait shows a blocking wait state; no navigation happens.
	Wait
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Render:
		return "render"
	case RedirectSignIn:
		return "redirect-sign-in"
	case RedirectDefault:
		return "redirect-default"
	case Wait:
		return "wait"
	default:
		return "unknown"
	}
}

// State is the subset of the session the guard looks at.
type State struct {
	Authenticated bool
	Loading       bool
}

// FromSession extracts the guard state from a session.
func FromSession(s model.Session) State {
	return State{Authenticated: s.Authenticated, Loading: s.Loading}
}

// Decision is the guard's verdict for one evaluation.
type Decision struct {
	Kind Kind

	// Target is the path to render or redirect to. Empty for Wait.
	Target string
}

// String returns "kind target".
func (d Decision) String() string {
	if d.Target == "" {
		return d.Kind.String()
	}
	return d.Kind.String() + " " + d.Target
}

// IsRedirect reports whether the decision navigates away from the request.
func (d Decision) IsRedirect() bool {
	return d.Kind == RedirectSignIn || d.Kind == RedirectDefault
}

// Err maps the decision to a sentinel error, or nil for Render.
func (d Decision) Err() error {
	switch d.Kind {
	case RedirectSignIn:
		return ErrSignInRequired
	case RedirectDefault:
		return ErrAlreadySignedIn
	case Wait:
		return ErrSessionLoading
	default:
		return nil
	}
}

// Decide returns the decision for the requested path.
// Repeated evaluation with the same inputs returns the same decision, and
// following a redirect never produces another redirect.
func Decide(state State, path string) Decision {
	if state.Loading {
		return Decision{Kind: Wait}
	}

	p := Normalize(path)
	switch {
	case !state.Authenticated && p != SignInPath:
		return Decision{Kind: RedirectSignIn, Target: SignInPath}
	case state.Authenticated && p == SignInPath:
		return Decision{Kind: RedirectDefault, Target: DefaultPath}
	default:
		return Decision{Kind: Render, Target: p}
	}
}

// Normalize trims whitespace and trailing slashes, and maps "" to "/".
func Normalize(path string) string {
	p := strings.TrimSpace(path)
	if p == "" {
		return DefaultPath
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}
