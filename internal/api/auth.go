package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/nao1215/origincheck/internal/model"
)

// maxCaptchaSize bounds the challenge image download.
const maxCaptchaSize = 2 * 1024 * 1024

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	// CaptchaInput is the user's answer to the session-bound challenge.
	CaptchaInput string `json:"captchaInput"`
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	CaptchaInput string `json:"captchaInput"`
}

// meResponse is the body of GET /@me.
type meResponse struct {
	model.User
	IsAuthenticated bool `json:"is_authenticated"`
}

// authResponse is the body of a successful login or register.
type authResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// Captcha is a challenge image bound to the current session cookie.
type Captcha struct {
	Image       []byte
	ContentType string
}

// Me returns the signed-in user.
// It returns (nil, nil) when the server answers 200 with is_authenticated=false,
// and an error matching ErrUnauthorized on 401.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, nil, "@me")
	if err != nil {
		return nil, err
	}

	var body meResponse
	if err := c.doJSON(req, &body); err != nil {
		return nil, err
	}
	if !body.IsAuthenticated {
		return nil, nil
	}
	user := body.User
	return &user, nil
}

// Login posts credentials and the captcha answer.
// On success the session cookie is stored in the jar and the user returned.
func (c *Client) Login(ctx context.Context, in LoginRequest) (*model.User, error) {
	return c.postAuth(ctx, in, "api", "auth", "login")
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, in RegisterRequest) (*model.User, error) {
	return c.postAuth(ctx, in, "api", "auth", "register")
}

// postAuth sends a JSON credential body and decodes {user}.
func (c *Client) postAuth(ctx context.Context, payload any, elem ...string) (*model.User, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, bytes.NewReader(data), elem...)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var body authResponse
	if err := c.doJSON(req, &body); err != nil {
		return nil, err
	}
	if body.User == nil {
		return nil, fmt.Errorf("%s: response has no user", req.URL.Path)
	}
	return body.User, nil
}

// Logout asks the server to end the session.
func (c *Client) Logout(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, nil, "api", "auth", "logout")
	if err != nil {
		return err
	}
	return c.doJSON(req, nil)
}

// Captcha fetches a new challenge image. The answer is checked against the
// session, so the same jar must be used for the following Login/Register.
func (c *Client) Captcha(ctx context.Context) (*Captcha, error) {
	req, err := c.newRequest(ctx, http.MethodGet, nil, "api", "auth", "captcha")
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	img, err := io.ReadAll(io.LimitReader(resp.Body, maxCaptchaSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read captcha: %w", err)
	}
	return &Captcha{Image: img, ContentType: resp.Header.Get("Content-Type")}, nil
}
