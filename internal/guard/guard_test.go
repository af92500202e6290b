package guard

import (
	"errors"
	"testing"

	"github.com/nao1215/origincheck/internal/model"
)

func TestDecide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		state State
		path  string
		want  Decision
	}{
		{
			name:  "signed out on profile redirects to sign in",
			state: State{Authenticated: false},
			path:  "/profile",
			want:  Decision{Kind: RedirectSignIn, Target: "/auth"},
		},
		{
			name:  "signed out on sign in renders",
			state: State{Authenticated: false},
			path:  "/auth",
			want:  Decision{Kind: Render, Target: "/auth"},
		},
		{
			name:  "signed in on sign in redirects to default",
			state: State{Authenticated: true},
			path:  "/auth",
			want:  Decision{Kind: RedirectDefault, Target: "/"},
		},
		{
			name:  "signed in on history renders",
			state: State{Authenticated: true},
			path:  "/history",
			want:  Decision{Kind: Render, Target: "/history"},
		},
		{
			name:  "trailing slash on sign in is normalised",
			state: State{Authenticated: true},
			path:  "/auth/",
			want:  Decision{Kind: RedirectDefault, Target: "/"},
		},
		{
			name:  "empty path is the default view",
			state: State{Authenticated: true},
			path:  "",
			want:  Decision{Kind: Render, Target: "/"},
		},
		{
			name:  "signed out on root redirects",
			state: State{},
			path:  "/",
			want:  Decision{Kind: RedirectSignIn, Target: "/auth"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Decide(tt.state, tt.path); got != tt.want {
				t.Errorf("Decide(%+v, %q) = %v, want %v", tt.state, tt.path, got, tt.want)
			}
		})
	}
}

func TestDecideWhileLoading(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"/", "/auth", "/profile", "/history", ""} {
		for _, authed := range []bool{true, false} {
			got := Decide(State{Authenticated: authed, Loading: true}, path)
			if got.Kind != Wait {
				t.Errorf("Decide(loading, authed=%v, %q) = %v, want wait", authed, path, got)
			}
			if got.IsRedirect() {
				t.Errorf("wait decision must not redirect")
			}
		}
	}
}

func TestDecideIdempotent(t *testing.T) {
	t.Parallel()

	states := []State{{}, {Authenticated: true}, {Loading: true}}
	paths := []string{"/", "/auth", "/profile"}

	for _, s := range states {
		for _, p := range paths {
			first := Decide(s, p)
			for range 5 {
				if again := Decide(s, p); again != first {
					t.Fatalf("Decide(%+v, %q) changed from %v to %v", s, p, first, again)
				}
			}
		}
	}
}

// Following a redirect must land on a Render decision, never another redirect.
func TestDecideNoRedirectLoop(t *testing.T) {
	t.Parallel()

	for _, s := range []State{{}, {Authenticated: true}} {
		for _, p := range []string{"/", "/auth", "/profile", "/dashboard"} {
			d := Decide(s, p)
			if !d.IsRedirect() {
				continue
			}
			next := Decide(s, d.Target)
			if next.Kind != Render {
				t.Errorf("following %v from %q with %+v gave %v", d, p, s, next)
			}
		}
	}
}

func TestDecisionErr(t *testing.T) {
	t.Parallel()

	if err := (Decision{Kind: Render, Target: "/"}).Err(); err != nil {
		t.Errorf("Render.Err() = %v, want nil", err)
	}
	if err := (Decision{Kind: RedirectSignIn}).Err(); !errors.Is(err, ErrSignInRequired) {
		t.Errorf("RedirectSignIn.Err() = %v", err)
	}
	if err := (Decision{Kind: RedirectDefault}).Err(); !errors.Is(err, ErrAlreadySignedIn) {
		t.Errorf("RedirectDefault.Err() = %v", err)
	}
	if err := (Decision{Kind: Wait}).Err(); !errors.Is(err, ErrSessionLoading) {
		t.Errorf("Wait.Err() = %v", err)
	}
}

func TestFromSession(t *testing.T) {
	t.Parallel()

	got := FromSession(model.InitialSession())
	if !got.Loading || got.Authenticated {
		t.Errorf("FromSession(initial) = %+v", got)
	}

	got = FromSession(model.SignedIn(&model.User{Email: "a@example.com"}))
	if got.Loading || !got.Authenticated {
		t.Errorf("FromSession(signed in) = %+v", got)
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":          "/",
		"/":         "/",
		"//":        "/",
		"auth":      "/auth",
		" /auth/ ":  "/auth",
		"/history/": "/history",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
