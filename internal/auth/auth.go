// Package auth guards the badge desk's reprint endpoint. Operators log in
// with the shared desk password under their own name; each session may
// carry a reprint allowance.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	stderrors "errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	CookieName    = "badgegen_session"
	SessionExpiry = 12 * time.Hour

	// DefaultOperator names sessions that logged in without a name
	DefaultOperator = "desk"
	// MaxOperatorLen bounds operator names in runes
	MaxOperatorLen = 32
)

var (
	// ErrNoSession is returned for unknown or expired tokens
	ErrNoSession = stderrors.New("no active session")
	// ErrReprintLimit is returned once a session has used its allowance
	ErrReprintLimit = stderrors.New("reprint limit reached")
)

// Conference-themed words for password generation
var badgeWords = []string{
	"lanyard", "lozenge", "ribbon", "speaker", "sponsor",
	"keynote", "sprint", "wattle", "lorikeet", "badge",
	"hallway", "lightning", "venue", "podium", "schedule",
	"volunteer", "printer", "poster", "session", "workshop",
}

// Session is one logged-in desk operator
type Session struct {
	Operator  string    `json:"operator"`
	Expires   time.Time `json:"expires"`
	Reprints  int       `json:"reprints"`
	Remaining int       `json:"remaining"` // -1 when unlimited
}

type session struct {
	operator string
	expires  time.Time
	reprints int
}

// Auth holds the desk password and the live operator sessions
type Auth struct {
	password   string
	reprintCap int
	now        func() time.Time
	sessions   map[string]*session
	mu         sync.Mutex
}

// Option configures Auth
type Option func(*Auth)

// WithReprintLimit caps reprints per session. Zero or less is unlimited.
func WithReprintLimit(n int) Option {
	return func(a *Auth) {
		if n > 0 {
			a.reprintCap = n
		}
	}
}

// WithClock replaces time.Now (for testing)
func WithClock(now func() time.Time) Option {
	return func(a *Auth) {
		a.now = now
	}
}

// New creates an Auth for password
func New(password string, opts ...Option) *Auth {
	a := &Auth{
		password: password,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GeneratePassword creates a random 3-word password
func GeneratePassword() string {
	words := make([]string, 3)
	for i := range words {
		words[i] = badgeWords[randomInt(len(badgeWords))]
	}
	return strings.Join(words, "-")
}

// NormalizeOperator trims name, falls back to DefaultOperator and cuts it
// to MaxOperatorLen runes
func NormalizeOperator(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return DefaultOperator
	}
	if utf8.RuneCountInString(name) > MaxOperatorLen {
		name = string([]rune(name)[:MaxOperatorLen])
	}
	return name
}

// Login checks the password and opens a session for operator. Expired
// sessions are dropped on the way.
func (a *Auth) Login(password, operator string) (string, bool) {
	if a.password == "" || subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) != 1 {
		return "", false
	}

	token := generateToken()
	now := a.now()

	a.mu.Lock()
	defer a.mu.Unlock()
	for t, s := range a.sessions {
		if now.After(s.expires) {
			delete(a.sessions, t)
		}
	}
	a.sessions[token] = &session{operator: NormalizeOperator(operator), expires: now.Add(SessionExpiry)}
	return token, true
}

// Logout ends a session
func (a *Auth) Logout(token string) {
	a.mu.Lock()
	delete(a.sessions, token)
	a.mu.Unlock()
}

// lookup returns the live session for token. Callers hold mu.
func (a *Auth) lookup(token string) (*session, bool) {
	s, ok := a.sessions[token]
	if !ok {
		return nil, false
	}
	if a.now().After(s.expires) {
		delete(a.sessions, token)
		return nil, false
	}
	return s, true
}

func (a *Auth) snapshot(s *session) Session {
	remaining := -1
	if a.reprintCap > 0 {
		remaining = a.reprintCap - s.reprints
	}
	return Session{Operator: s.operator, Expires: s.expires, Reprints: s.reprints, Remaining: remaining}
}

// Session returns the state of a live session
func (a *Auth) Session(token string) (Session, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.lookup(token)
	if !ok {
		return Session{}, false
	}
	return a.snapshot(s), true
}

// UseReprint charges one reprint to the session
func (a *Auth) UseReprint(token string) (Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.lookup(token)
	if !ok {
		return Session{}, ErrNoSession
	}
	if a.reprintCap > 0 && s.reprints >= a.reprintCap {
		return a.snapshot(s), ErrReprintLimit
	}
	s.reprints++
	return a.snapshot(s), nil
}

// Active lists live sessions ordered by operator
func (a *Auth) Active() []Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Session, 0, len(a.sessions))
	for t := range a.sessions {
		if s, ok := a.lookup(t); ok {
			out = append(out, a.snapshot(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Operator < out[j].Operator })
	return out
}

type tokenKey struct{}

// TokenFromContext returns the session token RequireAuthAPI stored
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok
}

// TokenFromRequest returns the session cookie value, if any
func TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// RequireAuthAPI rejects requests without a live session with 401 and
// passes the token on in the request context
func (a *Auth) RequireAuthAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if _, ok := a.Session(token); ok {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tokenKey{}, token)))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"UNAUTHORIZED","error":"Unauthorized - please log in"}`))
	})
}

// SetSessionCookie sets the session cookie on the response
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionExpiry.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// generateToken creates a random session token
func generateToken() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// randomInt returns a random int in [0, max)
func randomInt(max int) int {
	bytes := make([]byte, 1)
	rand.Read(bytes)
	return int(bytes[0]) % max
}
