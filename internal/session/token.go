// Package session implements the stateless session token authority. A
// token is an HMAC-signed, time-boxed payload derived from the operator
// passphrase; there is no server-side session store and no revocation,
// expiry is the only termination mechanism.
package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TTL is how long an issued session token remains valid. It is a fixed
// property of the authority, never caller-supplied.
const TTL = 8 * time.Hour

// CookieName is the HTTP cookie carrying the session token.
const CookieName = "gateway_session"

// keyPrefix domain-separates the signing key from any other use of the
// operator passphrase.
const keyPrefix = "gateway-session-v1:"

type payload struct {
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
	Nonce     string `json:"nonce"`
}

// Authority issues and verifies session tokens. It is safe for concurrent
// use; all state is immutable after construction.
type Authority struct {
	key      []byte
	password string
	ttl      time.Duration
	now      func() time.Time
}

// NewAuthority derives the signing key from the operator passphrase. An
// empty passphrase yields an unconfigured authority that rejects logins.
func NewAuthority(passphrase string) *Authority {
	key := sha256.Sum256([]byte(keyPrefix + passphrase))
	return &Authority{
		key:      key[:],
		password: passphrase,
		ttl:      TTL,
		now:      time.Now,
	}
}

// Configured reports whether an operator passphrase is set.
func (a *Authority) Configured() bool {
	return a.password != ""
}

// CheckPassword compares the supplied password against the configured one
// in constant time. Both sides are hashed first so the comparison length
// never depends on the secret.
func (a *Authority) CheckPassword(supplied string) bool {
	if !a.Configured() {
		return false
	}
	want := sha256.Sum256([]byte(a.password))
	got := sha256.Sum256([]byte(supplied))
	return subtle.ConstantTimeCompare(want[:], got[:]) == 1
}

// Issue creates a signed session token valid for the authority's TTL.
func (a *Authority) Issue() (string, error) {
	now := a.now()
	raw, err := json.Marshal(payload{
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(a.ttl).Unix(),
		Nonce:     uuid.NewString(),
	})
	if err != nil {
		return "", err
	}
	encoded := base64.RawURLEncoding.EncodeToString(raw)
	return encoded + "." + a.sign(encoded), nil
}

// Verify reports whether the token was signed by this authority and has
// not expired. It fails closed: every malformed input returns false, it
// never panics and never returns an error.
func (a *Authority) Verify(token string) bool {
	encoded, signature, found := strings.Cut(token, ".")
	if !found {
		return false
	}
	// hmac.Equal is constant time and rejects length mismatches without
	// short-circuiting on the first differing byte.
	if !hmac.Equal([]byte(signature), []byte(a.sign(encoded))) {
		return false
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return false
	}
	if p.ExpiresAt == 0 {
		return false
	}
	return p.ExpiresAt > a.now().Unix()
}

// Authenticated reports whether the request carries a valid session cookie.
func (a *Authority) Authenticated(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	return err == nil && a.Verify(cookie.Value)
}

func (a *Authority) sign(encoded string) string {
	mac := hmac.New(sha256.New, a.key)
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
