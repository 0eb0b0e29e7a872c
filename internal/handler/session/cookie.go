package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const cookieName = "medichat_session"

// Manager issues and validates HMAC-signed session cookies. The cookie value
// is "<uuid>.<base64 signature>"; a bad signature reads as no session.
type Manager struct {
	secret []byte
}

// NewManager builds a manager around the signing secret.
func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

// Read extracts a valid session id from the request cookie.
func (m *Manager) Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return "", false
	}

	id, signature, found := strings.Cut(cookie.Value, ".")
	if !found || id == "" {
		return "", false
	}

	expected := m.sign(id)
	provided, err := base64.RawURLEncoding.DecodeString(signature)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(expected, provided) {
		return "", false
	}

	return id, true
}

// Issue creates a new session id and sets its signed cookie.
func (m *Manager) Issue(w http.ResponseWriter) string {
	id := uuid.NewString()
	signature := base64.RawURLEncoding.EncodeToString(m.sign(id))

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id + "." + signature,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// Ensure returns the request session id, issuing a fresh one when the cookie
// is missing or tampered with.
func (m *Manager) Ensure(w http.ResponseWriter, r *http.Request) string {
	if id, ok := m.Read(r); ok {
		return id
	}
	return m.Issue(w)
}

func (m *Manager) sign(id string) []byte {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(id))
	return mac.Sum(nil)
}
