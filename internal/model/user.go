package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// User is the identity returned by the analysis service for a signed-in account.
type User struct {
	// ID is the server-side account identifier. It may be empty for
	// payloads that omit it (e.g. the login response of older servers).
	ID ID `json:"id,omitempty"`

	// Name is the display name chosen at registration.
	Name string `json:"name"`

	// Email is the account e-mail address used to sign in.
	Email string `json:"email"`

	// ProfilePic is an optional avatar URL.
	ProfilePic string `json:"profile_pic,omitempty"`
}

// DisplayName returns the name if set, falling back to the e-mail address.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// ID is an account or report identifier. The service emits either strings
// or integers depending on the backing store, so both decode to a string.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}
