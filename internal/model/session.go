package model

// Session is the client-held record of the current authenticated identity.
//
// A Session value is always replaced as a whole; the three fields are never
// updated independently. Authenticated is true exactly when User is non-nil.
type Session struct {
	// User is the signed-in identity, or nil when signed out.
	User *User `json:"user"`

	// Authenticated reports whether the server accepted the session credentials.
	Authenticated bool `json:"authenticated"`

	// Loading is true while a session operation is in flight.
	Loading bool `json:"loading"`
}

// InitialSession returns the state held before the first status check completes.
func InitialSession() Session {
	return Session{Loading: true}
}

// SignedIn returns a settled session for the given user.
// A nil user yields a signed-out session.
func SignedIn(u *User) Session {
	if u == nil {
		return SignedOut()
	}
	copied := *u
	return Session{User: &copied, Authenticated: true}
}

// SignedOut returns a settled, signed-out session.
func SignedOut() Session {
	return Session{}
}

// Consistent reports whether Authenticated agrees with the presence of User.
func (s Session) Consistent() bool {
	return s.Authenticated == (s.User != nil)
}

// Clone returns a deep copy so callers cannot mutate the owner's record.
func (s Session) Clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
