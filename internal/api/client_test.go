package api_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/origincheck/internal/api"
	"github.com/nao1215/origincheck/internal/apitest"
	"github.com/nao1215/origincheck/internal/database"
)

const (
	testEmail    = "ada@example.com"
	testPassword = "correct horse"
	testName     = "Ada"
)

// newClient returns a client for srv with a fresh in-memory jar.
func newClient(t *testing.T, srv *apitest.Server, opts ...api.Option) *api.Client {
	t.Helper()

	client, err := api.NewClient(srv.URL, opts...)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

// signedIn returns a client that has already logged in to srv.
func signedIn(t *testing.T, srv *apitest.Server) *api.Client {
	t.Helper()

	srv.AddUser(testEmail, testPassword, testName)
	client := newClient(t, srv)
	if _, err := client.Login(context.Background(), api.LoginRequest{Email: testEmail, Password: testPassword}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	return client
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		opts    []api.Option
		wantErr error
	}{
		{name: "http", url: "http://127.0.0.1:5000"},
		{name: "https with trailing slash", url: "https://check.example.com/"},
		{name: "missing scheme", url: "127.0.0.1:5000", wantErr: api.ErrInvalidServerURL},
		{name: "unsupported scheme", url: "ftp://example.com", wantErr: api.ErrInvalidServerURL},
		{name: "empty", url: "", wantErr: api.ErrInvalidServerURL},
		{name: "valid proxy", url: "http://localhost", opts: []api.Option{api.WithProxy("127.0.0.1:9050")}},
		{name: "proxy without port", url: "http://localhost", opts: []api.Option{api.WithProxy("127.0.0.1")}, wantErr: api.ErrInvalidProxyAddress},
		{name: "proxy port out of range", url: "http://localhost", opts: []api.Option{api.WithProxy("127.0.0.1:70000")}, wantErr: api.ErrInvalidProxyAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, err := api.NewClient(tt.url, tt.opts...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewClient() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewClient() error = %v", err)
			}
			if strings.HasSuffix(client.BaseURL(), "/") {
				t.Errorf("BaseURL() = %q, want no trailing slash", client.BaseURL())
			}
		})
	}
}

func TestClient_SessionLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv := apitest.NewServer(t)
	srv.AddUser(testEmail, testPassword, testName)
	client := newClient(t, srv)

	if _, err := client.Me(ctx); !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("Me() before login error = %v, want ErrUnauthorized", err)
	}

	user, err := client.Login(ctx, api.LoginRequest{Email: testEmail, Password: testPassword})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.Name != testName {
		t.Errorf("Login() name = %q, want %q", user.Name, testName)
	}

	me, err := client.Me(ctx)
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if me.ID != "1" || me.Email != testEmail {
		t.Errorf("Me() = %+v, want id 1 and %s", me, testEmail)
	}

	if err := client.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if srv.Logouts() != 1 {
		t.Errorf("server saw %d logouts, want 1", srv.Logouts())
	}
	if _, err := client.Me(ctx); !errors.Is(err, api.ErrUnauthorized) {
		t.Errorf("Me() after logout error = %v, want ErrUnauthorized", err)
	}
}

func TestClient_LoginErrors(t *testing.T) {
	t.Parallel()

	srv := apitest.NewServer(t)
	srv.AddUser(testEmail, testPassword, testName)

	tests := []struct {
		name        string
		req         api.LoginRequest
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "missing password",
			req:         api.LoginRequest{Email: testEmail},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Missing email or password",
		},
		{
			name:        "wrong password",
			req:         api.LoginRequest{Email: testEmail, Password: "nope"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid email or password",
		},
		{
			name:        "unknown user",
			req:         api.LoginRequest{Email: "who@example.com", Password: "x"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid email or password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := newClient(t, srv).Login(context.Background(), tt.req)

			var apiErr *api.Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("Login() error = %v, want *api.Error", err)
			}
			if apiErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.wantStatus)
			}
			if msg, ok := api.ServerMessage(err); !ok || msg != tt.wantMessage {
				t.Errorf("ServerMessage() = %q, %v, want %q", msg, ok, tt.wantMessage)
			}
		})
	}
}

func TestClient_Register(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv := apitest.NewServer(t)
	client := newClient(t, srv)

	user, err := client.Register(ctx, api.RegisterRequest{Email: testEmail, Password: testPassword, Name: testName})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Email != testEmail {
		t.Errorf("Register() email = %q, want %q", user.Email, testEmail)
	}
	if _, err := client.Me(ctx); err != nil {
		t.Errorf("Me() after register error = %v, want signed in", err)
	}

	_, err = newClient(t, srv).Register(ctx, api.RegisterRequest{Email: testEmail, Password: "other", Name: "Eve"})
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict {
		t.Errorf("duplicate Register() error = %v, want 409", err)
	}
}

func TestClient_Captcha(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv := apitest.NewServer(t, apitest.WithCaptcha())
	srv.AddUser(testEmail, testPassword, testName)

	t.Run("correct answer signs in", func(t *testing.T) {
		t.Parallel()

		client := newClient(t, srv)
		captcha, err := client.Captcha(ctx)
		if err != nil {
			t.Fatalf("Captcha() error = %v", err)
		}
		if captcha.ContentType != "image/png" || !bytes.HasPrefix(captcha.Image, []byte("\x89PNG")) {
			t.Errorf("Captcha() = %q %q, want a PNG", captcha.ContentType, captcha.Image)
		}

		_, err = client.Login(ctx, api.LoginRequest{Email: testEmail, Password: testPassword, CaptchaInput: apitest.CaptchaAnswer})
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
	})

	t.Run("wrong answer is rejected", func(t *testing.T) {
		t.Parallel()

		client := newClient(t, srv)
		if _, err := client.Captcha(ctx); err != nil {
			t.Fatalf("Captcha() error = %v", err)
		}

		_, err := client.Login(ctx, api.LoginRequest{Email: testEmail, Password: testPassword, CaptchaInput: "WRONG"})
		if msg, _ := api.ServerMessage(err); msg != "Invalid CAPTCHA" {
			t.Errorf("Login() error = %v, want Invalid CAPTCHA", err)
		}
	})

	t.Run("answer is bound to the session", func(t *testing.T) {
		t.Parallel()

		if _, err := newClient(t, srv).Captcha(ctx); err != nil {
			t.Fatalf("Captcha() error = %v", err)
		}
		_, err := newClient(t, srv).Login(ctx, api.LoginRequest{Email: testEmail, Password: testPassword, CaptchaInput: apitest.CaptchaAnswer})
		if msg, _ := api.ServerMessage(err); msg != "Invalid CAPTCHA" {
			t.Errorf("Login() from another jar error = %v, want Invalid CAPTCHA", err)
		}
	})
}

func TestClient_Analyse(t *testing.T) {
	t.Parallel()

	t.Run("sends text and files as multipart", func(t *testing.T) {
		t.Parallel()

		srv := apitest.NewServer(t)
		client := signedIn(t, srv)

		dir := t.TempDir()
		comparison := filepath.Join(dir, "reference.txt")
		if err := os.WriteFile(comparison, []byte("reference text"), 0o600); err != nil {
			t.Fatal(err)
		}
		essay := filepath.Join(dir, "essay.docx")
		if err := os.WriteFile(essay, []byte("docx bytes"), 0o600); err != nil {
			t.Fatal(err)
		}

		result, err := client.Analyse(context.Background(), api.AnalysisInput{
			MainText:       "some essay text",
			MainFile:       essay,
			ComparisonFile: comparison,
		})
		if err != nil {
			t.Fatalf("Analyse() error = %v", err)
		}
		if result.Originality == nil || *result.Originality != 72.5 {
			t.Errorf("Originality = %v, want 72.5", result.Originality)
		}
		if !result.HasReport() {
			t.Error("HasReport() = false, want true")
		}

		subs := srv.Submissions()
		if len(subs) != 1 {
			t.Fatalf("server saw %d submissions, want 1", len(subs))
		}
		got := subs[0]
		if got.RequestID == "" {
			t.Error("X-Request-ID header missing")
		}
		if got.UserAgent != api.DefaultUserAgent {
			t.Errorf("User-Agent = %q, want %q", got.UserAgent, api.DefaultUserAgent)
		}
		got.RequestID, got.UserAgent = "", ""

		want := apitest.Submission{
			MainText: "some essay text",
			MainFile: &apitest.UploadedFile{
				Name:        "essay.docx",
				ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
				Data:        []byte("docx bytes"),
			},
			ComparisonFile: &apitest.UploadedFile{
				Name:        "reference.txt",
				ContentType: "text/plain",
				Data:        []byte("reference text"),
			},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("submission mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("requires main input", func(t *testing.T) {
		t.Parallel()

		srv := apitest.NewServer(t)
		client := signedIn(t, srv)

		_, err := client.Analyse(context.Background(), api.AnalysisInput{ComparisonText: "only a comparison"})
		if !errors.Is(err, api.ErrNoMainInput) {
			t.Fatalf("Analyse() error = %v, want ErrNoMainInput", err)
		}
		if n := len(srv.Submissions()); n != 0 {
			t.Errorf("server saw %d submissions, want 0", n)
		}
	})

	t.Run("missing file fails before sending", func(t *testing.T) {
		t.Parallel()

		srv := apitest.NewServer(t)
		client := signedIn(t, srv)

		_, err := client.Analyse(context.Background(), api.AnalysisInput{MainFile: filepath.Join(t.TempDir(), "missing.pdf")})
		if !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("Analyse() error = %v, want not exist", err)
		}
		if n := len(srv.Submissions()); n != 0 {
			t.Errorf("server saw %d submissions, want 0", n)
		}
	})

	t.Run("signed out", func(t *testing.T) {
		t.Parallel()

		srv := apitest.NewServer(t)
		_, err := newClient(t, srv).Analyse(context.Background(), api.AnalysisInput{MainText: "text"})
		if !errors.Is(err, api.ErrUnauthorized) {
			t.Fatalf("Analyse() error = %v, want ErrUnauthorized", err)
		}
		if msg, _ := api.ServerMessage(err); msg != "Authentication required" {
			t.Errorf("ServerMessage() = %q", msg)
		}
	})

	t.Run("cancel aborts the wait", func(t *testing.T) {
		t.Parallel()

		entered := make(chan struct{})
		srv := apitest.NewServer(t, apitest.WithAnalyse(func(r *http.Request, _ apitest.Submission) (int, any) {
			close(entered)
			<-r.Context().Done()
			return http.StatusServiceUnavailable, map[string]any{"error": "gone"}
		}))
		client := signedIn(t, srv)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			<-entered
			cancel()
		}()

		_, err := client.Analyse(ctx, api.AnalysisInput{MainText: "slow"})
		if !api.IsCanceled(err) {
			t.Fatalf("Analyse() error = %v, want cancelled", err)
		}
	})

	t.Run("server error keeps its message", func(t *testing.T) {
		t.Parallel()

		srv := apitest.NewServer(t, apitest.WithAnalyse(func(*http.Request, apitest.Submission) (int, any) {
			return http.StatusInternalServerError, map[string]any{"error": "Model backend offline"}
		}))
		client := signedIn(t, srv)

		_, err := client.Analyse(context.Background(), api.AnalysisInput{MainText: "x"})
		if err == nil || err.Error() != "Model backend offline" {
			t.Errorf("Analyse() error = %v, want Model backend offline", err)
		}
	})
}

func TestClient_DownloadReport(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv := apitest.NewServer(t)
	client := signedIn(t, srv)
	srv.AddReportFile("plagiarism_report_1.pdf", []byte("%PDF-1.4 body"))

	t.Run("streams the file", func(t *testing.T) {
		t.Parallel()

		body, err := client.DownloadReport(ctx, "plagiarism_report_1.pdf")
		if err != nil {
			t.Fatalf("DownloadReport() error = %v", err)
		}
		defer body.Close()

		data, err := io.ReadAll(body)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "%PDF-1.4 body" {
			t.Errorf("body = %q", data)
		}
	})

	t.Run("unknown file", func(t *testing.T) {
		t.Parallel()

		_, err := client.DownloadReport(ctx, "nope.pdf")
		var apiErr *api.Error
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
			t.Fatalf("DownloadReport() error = %v, want 404", err)
		}
		if apiErr.Message != "File not found" {
			t.Errorf("Message = %q, want File not found", apiErr.Message)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		t.Parallel()

		if _, err := client.DownloadReport(ctx, ""); !errors.Is(err, api.ErrEmptyFilename) {
			t.Errorf("DownloadReport() error = %v, want ErrEmptyFilename", err)
		}
	})

	t.Run("not a bare name", func(t *testing.T) {
		t.Parallel()

		for _, name := range []string{".", "..", "../plagiarism_report_1.pdf", `reports\plagiarism_report_1.pdf`} {
			if _, err := client.DownloadReport(ctx, name); !errors.Is(err, api.ErrInvalidFilename) {
				t.Errorf("DownloadReport(%q) error = %v, want ErrInvalidFilename", name, err)
			}
		}
	})
}

func TestClient_HistoryAndDashboard(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv := apitest.NewServer(t)
	client := signedIn(t, srv)

	stats, err := client.DashboardStats(ctx)
	if err != nil {
		t.Fatalf("DashboardStats() error = %v", err)
	}
	if stats.TotalReports != 0 || stats.LastCheckedDocument != nil {
		t.Errorf("empty DashboardStats() = %+v", stats)
	}
	history, err := client.History(ctx)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if history == nil || len(history) != 0 {
		t.Errorf("empty History() = %#v, want empty non-nil", history)
	}

	older := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)
	srv.AddReport("essay.pdf", older, 91.5, 3, "plagiarism_report_a.pdf")
	srv.AddReport("Text Input", newer, 40, 77.25, "plagiarism_report_b.pdf")

	history, err = client.History(ctx)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("History() len = %d, want 2", len(history))
	}
	if history[0].FileName != "Text Input" || !history[0].SubmissionDate.Equal(newer) {
		t.Errorf("History()[0] = %+v, want newest first", history[0])
	}
	if history[1].PDFFileName != "plagiarism_report_a.pdf" || history[1].OriginalityScore != 91.5 {
		t.Errorf("History()[1] = %+v", history[1])
	}
	if history[0].ID == "" {
		t.Error("History()[0].ID is empty")
	}

	stats, err = client.DashboardStats(ctx)
	if err != nil {
		t.Fatalf("DashboardStats() error = %v", err)
	}
	if stats.TotalReports != 2 || stats.LastCheckedDocument == nil || stats.LastCheckedDocument.FileName != "Text Input" {
		t.Errorf("DashboardStats() = %+v", stats)
	}
}

func TestPersistentJar(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv := apitest.NewServer(t)
	srv.AddUser(testEmail, testPassword, testName)

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	// newRun simulates a fresh process reusing the stored cookies.
	newRun := func() (*api.Client, *api.PersistentJar) {
		t.Helper()
		jar, err := api.NewPersistentJar(ctx, srv.URL, db, nil)
		if err != nil {
			t.Fatalf("NewPersistentJar() error = %v", err)
		}
		return newClient(t, srv, api.WithCookieJar(jar)), jar
	}

	first, _ := newRun()
	if _, err := first.Login(ctx, api.LoginRequest{Email: testEmail, Password: testPassword}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	second, _ := newRun()
	me, err := second.Me(ctx)
	if err != nil {
		t.Fatalf("Me() with restored cookies error = %v", err)
	}
	if me.Email != testEmail {
		t.Errorf("Me() email = %q, want %q", me.Email, testEmail)
	}

	if err := second.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	cookies, err := db.LoadCookies(ctx, srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if len(cookies) != 0 {
		t.Errorf("stored cookies after logout = %+v, want none", cookies)
	}

	third, jar := newRun()
	if _, err := third.Me(ctx); !errors.Is(err, api.ErrUnauthorized) {
		t.Errorf("Me() after logout error = %v, want ErrUnauthorized", err)
	}
	if err := jar.Clear(ctx); err != nil {
		t.Errorf("Clear() error = %v", err)
	}
}
