package model

import "testing"

// TestSessionConstructors tests that every constructor yields a consistent session.
func TestSessionConstructors(t *testing.T) {
	t.Parallel()

	user := &User{ID: "7", Name: "Ada", Email: "ada@example.com"}

	testCases := []struct {
		name              string
		session           Session
		wantAuthenticated bool
		wantLoading       bool
	}{
		{"initial", InitialSession(), false, true},
		{"signed in", SignedIn(user), true, false},
		{"signed in with nil user", SignedIn(nil), false, false},
		{"signed out", SignedOut(), false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if !tc.session.Consistent() {
				t.Errorf("session %+v is not consistent", tc.session)
			}
			if tc.session.Authenticated != tc.wantAuthenticated {
				t.Errorf("Authenticated = %v, expected %v", tc.session.Authenticated, tc.wantAuthenticated)
			}
			if tc.session.Loading != tc.wantLoading {
				t.Errorf("Loading = %v, expected %v", tc.session.Loading, tc.wantLoading)
			}
		})
	}
}

// TestSessionCopies tests that sessions never share the caller's user record.
func TestSessionCopies(t *testing.T) {
	t.Parallel()

	user := &User{Name: "Ada", Email: "ada@example.com"}
	s := SignedIn(user)
	user.Name = "changed"
	if s.User.Name != "Ada" {
		t.Errorf("SignedIn kept a reference to the caller's user")
	}

	clone := s.Clone()
	clone.User.Name = "mutated"
	if s.User.Name != "Ada" {
		t.Errorf("Clone shares the user with the original")
	}

	if got := SignedOut().Clone(); got.User != nil {
		t.Errorf("Clone of signed-out session has user %+v", got.User)
	}
}

// TestConsistent tests detection of a half-updated session.
func TestConsistent(t *testing.T) {
	t.Parallel()

	if (Session{Authenticated: true}).Consistent() {
		t.Error("authenticated without user should be inconsistent")
	}
	if (Session{User: &User{}}).Consistent() {
		t.Error("user without authenticated should be inconsistent")
	}
}

// TestUserDisplayName tests the display name fallback.
func TestUserDisplayName(t *testing.T) {
	t.Parallel()

	var nilUser *User
	if got := nilUser.DisplayName(); got != "" {
		t.Errorf("nil DisplayName() = %q", got)
	}
	if got := (&User{Email: "a@example.com"}).DisplayName(); got != "a@example.com" {
		t.Errorf("DisplayName() = %q, expected e-mail fallback", got)
	}
	if got := (&User{Name: "Ada", Email: "a@example.com"}).DisplayName(); got != "Ada" {
		t.Errorf("DisplayName() = %q, expected Ada", got)
	}
}
