package apitest

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	// SessionCookie is the name of the session cookie the server sets.
	SessionCookie = "session"

	// CaptchaAnswer is the text shown in every captcha image.
	CaptchaAnswer = "X7K2P"
)

// captchaPNG is a minimal PNG header; clients treat the image as opaque bytes.
var captchaPNG = []byte("\x89PNG\r\n\x1a\n fake captcha")

// UploadedFile is a file part received by POST /analyse.
type UploadedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Submission is what the server received for one analysis.
type Submission struct {
	MainText       string
	ComparisonText string
	MainFile       *UploadedFile
	ComparisonFile *UploadedFile
	RequestID      string
	UserAgent      string
}

// AnalyseFunc produces the status and JSON body for a submission.
type AnalyseFunc func(r *http.Request, sub Submission) (int, any)

// user is an account in the fake.
type user struct {
	id       int
	email    string
	password string
	name     string
}

// report is one history entry.
type report struct {
	ID          string
	FileName    string
	Submitted   time.Time
	Originality float64
	AI          float64
	PDFFileName string
}

// Server is a fake analysis service.
type Server struct {
	*httptest.Server

	mu             sync.Mutex
	users          map[string]*user
	sessions       map[string]string // session id -> email ("" until login)
	captchas       map[string]string // session id -> expected answer
	requireCaptcha bool
	analyse        AnalyseFunc
	reports        []report
	files          map[string][]byte
	submissions    []Submission
	logouts        int
}

// Option configures a Server.
type Option func(*Server)

// WithCaptcha makes login and register check the captcha answer.
func WithCaptcha() Option {
	return func(s *Server) { s.requireCaptcha = true }
}

// WithAnalyse replaces the default analysis handler.
func WithAnalyse(fn AnalyseFunc) Option {
	return func(s *Server) { s.analyse = fn }
}

// NewServer starts a fake service that is closed when the test ends.
func NewServer(t testing.TB, opts ...Option) *Server {
	t.Helper()

	s := &Server{
		users:    make(map[string]*user),
		sessions: make(map[string]string),
		captchas: make(map[string]string),
		files:    make(map[string][]byte),
		analyse:  DefaultAnalyse,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/@me", s.handleMe).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/captcha", s.handleCaptcha).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", s.requireLogin(s.handleLogout)).Methods(http.MethodGet)
	r.HandleFunc("/analyse", s.requireLogin(s.handleAnalyse)).Methods(http.MethodPost)
	r.HandleFunc("/download-report/{filename:.+}", s.requireLogin(s.handleDownload)).Methods(http.MethodGet)
	r.HandleFunc("/api/dashboard_stats", s.requireLogin(s.handleDashboard)).Methods(http.MethodGet)
	r.HandleFunc("/api/history", s.requireLogin(s.handleHistory)).Methods(http.MethodGet)
	return r
}

// AddUser registers an account.
func (s *Server) AddUser(email, password, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addUserLocked(email, password, name)
}

func (s *Server) addUserLocked(email, password, name string) *user {
	u := &user{id: len(s.users) + 1, email: email, password: password, name: name}
	s.users[email] = u
	return u
}

// AddReportFile makes name downloadable.
func (s *Server) AddReportFile(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = data
}

// AddReport appends a history entry.
func (s *Server) AddReport(fileName string, submitted time.Time, originality, ai float64, pdfFileName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report{
		ID:          uuid.NewString(),
		FileName:    fileName,
		Submitted:   submitted,
		Originality: originality,
		AI:          ai,
		PDFFileName: pdfFileName,
	})
}

// ExpireSessions drops every session, as a server restart would.
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]string)
}

// Submissions returns what POST /analyse received so far.
func (s *Server) Submissions() []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Submission(nil), s.submissions...)
}

// Logouts returns how many times logout was called with a valid session.
func (s *Server) Logouts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logouts
}

// DefaultAnalyse returns a fixed successful result.
func DefaultAnalyse(_ *http.Request, _ Submission) (int, any) {
	return http.StatusOK, map[string]any{
		"citations":     []string{"[F88/C0.91] https://example.com/source-a", "[F61/C0.42] https://example.org/b"},
		"originality":   72.5,
		"aiProbability": 18.25,
		"pdfReportPath": "/tmp/plagiarism_report_test.pdf",
	}
}

// session returns the session id of the request and the signed-in email.
func (s *Server) session(r *http.Request) (string, string) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.sessions[c.Value]
	if !ok {
		return "", ""
	}
	return c.Value, email
}

// ensureSession returns the request's session id, creating one if needed.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) string {
	if id, _ := s.session(r); id != "" {
		return id
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = ""
	s.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: id, Path: "/", HttpOnly: true})
	return id
}

func (s *Server) requireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, email := s.session(r); email == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Authentication required"})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	_, email := s.session(r)
	s.mu.Lock()
	u := s.users[email]
	s.mu.Unlock()

	if u == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"is_authenticated": false, "error": "Not authenticated"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":               u.id,
		"name":             u.name,
		"email":            u.email,
		"profile_pic":      nil,
		"is_authenticated": true,
	})
}

func (s *Server) handleCaptcha(w http.ResponseWriter, r *http.Request) {
	id := s.ensureSession(w, r)
	s.mu.Lock()
	s.captchas[id] = CaptchaAnswer
	s.mu.Unlock()

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(captchaPNG)
}

type credentials struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Name         string `json:"name"`
	CaptchaInput string `json:"captchaInput"`
}

// checkCaptcha validates and consumes the session's captcha.
func (s *Server) checkCaptcha(r *http.Request, answer string) bool {
	if !s.requireCaptcha {
		return true
	}
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	want, ok := s.captchas[c.Value]
	delete(s.captchas, c.Value)
	return ok && strings.EqualFold(want, answer)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" || in.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Missing email or password"})
		return
	}
	if !s.checkCaptcha(r, in.CaptchaInput) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid CAPTCHA"})
		return
	}

	s.mu.Lock()
	u := s.users[in.Email]
	s.mu.Unlock()
	if u == nil || u.password != in.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid email or password"})
		return
	}

	s.signIn(w, r, u)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Logged in successfully", "user": userJSON(u)})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" || in.Password == "" || in.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Missing email, password, or name"})
		return
	}
	if !s.checkCaptcha(r, in.CaptchaInput) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid CAPTCHA"})
		return
	}

	s.mu.Lock()
	if _, exists := s.users[in.Email]; exists {
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]any{"error": "User with this email already exists"})
		return
	}
	u := s.addUserLocked(in.Email, in.Password, in.Name)
	s.mu.Unlock()

	s.signIn(w, r, u)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "User registered successfully", "user": userJSON(u)})
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request, u *user) {
	id := s.ensureSession(w, r)
	s.mu.Lock()
	s.sessions[id] = u.email
	s.mu.Unlock()
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	id, _ := s.session(r)
	s.mu.Lock()
	delete(s.sessions, id)
	s.logouts++
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]any{"message": "Logged out successfully"})
}

func (s *Server) handleAnalyse(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "expected multipart form"})
		return
	}

	sub := Submission{
		RequestID: r.Header.Get("X-Request-ID"),
		UserAgent: r.UserAgent(),
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// The client went away mid-upload.
			return
		}
		if err := readPart(part, &sub); err != nil {
			return
		}
	}

	if sub.MainText == "" && sub.MainFile == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "No main text or file provided for analysis"})
		return
	}

	s.mu.Lock()
	s.submissions = append(s.submissions, sub)
	s.mu.Unlock()

	status, body := s.analyse(r, sub)
	if status == http.StatusOK {
		s.recordReport(sub, body)
	}
	writeJSON(w, status, body)
}

func readPart(part *multipart.Part, sub *Submission) error {
	defer part.Close()
	data, err := io.ReadAll(part)
	if err != nil {
		return err
	}
	switch part.FormName() {
	case "main_text":
		sub.MainText = string(data)
	case "comparison_text":
		sub.ComparisonText = string(data)
	case "main_file":
		sub.MainFile = &UploadedFile{Name: part.FileName(), ContentType: part.Header.Get("Content-Type"), Data: data}
	case "comparison_file":
		sub.ComparisonFile = &UploadedFile{Name: part.FileName(), ContentType: part.Header.Get("Content-Type"), Data: data}
	}
	return nil
}

// recordReport adds a successful analysis to the history.
func (s *Server) recordReport(sub Submission, body any) {
	m, ok := body.(map[string]any)
	if !ok {
		return
	}
	name := "Text Input"
	if sub.MainFile != nil {
		name = sub.MainFile.Name
	}
	originality, _ := m["originality"].(float64)
	ai, _ := m["aiProbability"].(float64)
	pdfPath, _ := m["pdfReportPath"].(string)
	s.AddReport(name, time.Now(), originality, ai, path.Base(strings.ReplaceAll(pdfPath, `\`, "/")))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := path.Base(mux.Vars(r)["filename"])
	s.mu.Lock()
	data, ok := s.files[name]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "File not found"})
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="plagiarism_report.pdf"`)
	_, _ = w.Write(data)
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var last any
	if n := len(s.reports); n > 0 {
		last = reportJSON(s.reports[n-1])
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_reports":         len(s.reports),
		"last_checked_document": last,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]any, 0, len(s.reports))
	for i := len(s.reports) - 1; i >= 0; i-- {
		out = append(out, reportJSON(s.reports[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func userJSON(u *user) map[string]any {
	return map[string]any{"id": u.id, "email": u.email, "name": u.name}
}

// reportJSON renders dates the way Flask's jsonify does.
func reportJSON(r report) map[string]any {
	return map[string]any{
		"_id":               r.ID,
		"file_name":         r.FileName,
		"submission_date":   r.Submitted.UTC().Format(http.TimeFormat),
		"originality_score": r.Originality,
		"ai_probability":    r.AI,
		"pdf_file_name":     r.PDFFileName,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
