// Package sdktest runs an in-memory fake of the TotalApp REST API for tests.
package sdktest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/totalapp/tenantfiles/internal/totalsdk"
)

const (
	DefaultPassword = "parola-secreta"
	defaultTokenTTL = time.Hour
)

type staged struct {
	file    totalsdk.StagedFile
	content []byte
}

type stored struct {
	file    totalsdk.CommittedFile
	content []byte
}

// failure makes matching requests fail with status until removed
type failure struct {
	method  string
	path    string
	status  int
	message string
	match   func(*http.Request) bool
}

type Option func(*Server)

func WithPassword(password string) Option {
	return func(s *Server) {
		s.password = password
	}
}

// WithTokenTTL sets the lifetime of issued id tokens
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.tokenTTL = ttl
	}
}

// Server is a fake API. The zero value is not usable; call New.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	password      string
	secret        []byte
	tokenTTL      time.Duration
	generation    int
	refreshTokens map[string]bool
	staged        map[string]*staged
	committed     []*stored
	commits       []CommitCall
	tenants       map[string]*totalsdk.Tenant
	presets       []*totalsdk.EmailPreset
	presetFiles   []totalsdk.EmailFile
	sent          []totalsdk.SentEmail
	failures      []failure
	calls         map[string]int
	nextFileID    int
}

// New starts a fake server that is closed when the test ends
func New(tb testing.TB, opts ...Option) *Server {
	tb.Helper()

	s := &Server{
		password:      DefaultPassword,
		secret:        []byte("sdktest-secret"),
		tokenTTL:      defaultTokenTTL,
		refreshTokens: make(map[string]bool),
		staged:        make(map[string]*staged),
		tenants:       make(map[string]*totalsdk.Tenant),
		calls:         make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Server = httptest.NewServer(s.routes())
	tb.Cleanup(s.Close)
	return s
}

// Fail makes requests to method+path fail with status and message. match may
// be nil to fail every such request.
func (s *Server) Fail(method, path string, status int, message string, match func(*http.Request) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, path: path, status: status, message: message, match: match})
}

func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = nil
}

// Calls counts requests received for method+path (route pattern, e.g. /files/:id)
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// RevokeIDTokens makes every id token issued so far fail with 401
func (s *Server) RevokeIDTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
}

// RevokeRefreshTokens makes every refresh token issued so far unusable
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshTokens = make(map[string]bool)
}

// Tokens logs in directly and returns a valid pair
func (s *Server) Tokens(tb testing.TB) totalsdk.Tokens {
	tb.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	tokens, err := s.issueTokensLocked()
	if err != nil {
		tb.Fatalf("issue tokens: %v", err)
	}
	return tokens
}

// Client returns an SDK client logged in to this server
func (s *Server) Client(tb testing.TB) *totalsdk.Client {
	tb.Helper()
	tokens := s.Tokens(tb)
	c, err := totalsdk.New(&totalsdk.Config{
		BaseURL:      s.URL,
		IDToken:      tokens.IDToken,
		RefreshToken: tokens.RefreshToken,
	})
	if err != nil {
		tb.Fatalf("new client: %v", err)
	}
	tb.Cleanup(c.Close)
	return c
}

// SeedCommitted stores a committed file for owner without going through staging
func (s *Server) SeedCommitted(owner totalsdk.Owner, filename string, content []byte) totalsdk.CommittedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storeLocked(owner, totalsdk.StagedFile{
		Filename:    filename,
		ContentType: "application/octet-stream",
		SizeBytes:   int64(len(content)),
	}, content)
}

// Committed returns the files currently committed to owner
func (s *Server) Committed(owner totalsdk.Owner) []totalsdk.CommittedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(owner)
}

// StagedCount is the number of staged files not yet committed
func (s *Server) StagedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.staged)
}

// SeedTenant stores a tenant directly
func (s *Server) SeedTenant(t totalsdk.Tenant) totalsdk.Tenant {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = tenantID(t.Name)
	}
	s.tenants[t.ID] = &t
	return t
}

func (s *Server) listLocked(owner totalsdk.Owner) []totalsdk.CommittedFile {
	var out []totalsdk.CommittedFile
	for _, f := range s.committed {
		if f.file.OwnerType == owner.Type && f.file.OwnerID == owner.ID {
			out = append(out, f.file)
		}
	}
	return out
}

func tenantID(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
