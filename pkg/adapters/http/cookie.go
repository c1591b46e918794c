package http

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
)

// DefaultCookieName is the session cookie name.
const DefaultCookieName = "loaves.sid"

// CookieConfig controls the session cookie.
type CookieConfig struct {
	// Name of the cookie. Defaults to DefaultCookieName.
	Name string

	// Secret signs cookie values. An empty secret is replaced by a random one,
	// which invalidates every cookie on restart.
	Secret []byte

	// Secure restricts the cookie to HTTPS.
	Secure bool
}

// cookieCodec signs session IDs so clients cannot pick another visitor's ID.
type cookieCodec struct {
	name   string
	secret []byte
	secure bool
}

func newCookieCodec(cfg CookieConfig) (*cookieCodec, bool) {
	c := &cookieCodec{name: cfg.Name, secret: cfg.Secret, secure: cfg.Secure}
	if c.name == "" {
		c.name = DefaultCookieName
	}
	generated := false
	if len(c.secret) == 0 {
		c.secret = make([]byte, 32)
		if _, err := rand.Read(c.secret); err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		generated = true
	}
	return c, generated
}

func (c *cookieCodec) sign(id string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// encode returns "<id>.<signature>".
func (c *cookieCodec) encode(id string) string {
	return id + "." + c.sign(id)
}

// decode returns the session ID of a well-signed value.
func (c *cookieCodec) decode(value string) (string, bool) {
	i := strings.LastIndexByte(value, '.')
	if i <= 0 {
		return "", false
	}
	id, sig := value[:i], value[i+1:]
	if !hmac.Equal([]byte(sig), []byte(c.sign(id))) {
		return "", false
	}
	return id, true
}

// read extracts the session ID from the request cookie. Missing or forged
// cookies yield "".
func (c *cookieCodec) read(r *http.Request) string {
	ck, err := r.Cookie(c.name)
	if err != nil {
		return ""
	}
	id, ok := c.decode(ck.Value)
	if !ok {
		return ""
	}
	return id
}

// write sets a browser-session cookie; the server-side TTL bounds its lifetime.
func (c *cookieCodec) write(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    c.encode(id),
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type sessionKey struct{}

// withSession stores the request's session ID (possibly empty) in the context.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := s.cookies.read(r)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, id)))
	})
}

// sessionID returns the session bound to the request, or "".
func sessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// ensureSession returns the request's session ID, minting one and setting the
// cookie when the visitor has none yet.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) string {
	if id := sessionID(r.Context()); id != "" {
		return id
	}
	id := s.newID()
	s.cookies.write(w, id)
	return id
}
