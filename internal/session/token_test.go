package session

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	a := NewAuthority("correct horse battery staple")

	token, err := a.Issue()
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, a.Verify(token))
}

func TestVerify_ExpiredToken(t *testing.T) {
	a := NewAuthority("secret")
	issuedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return issuedAt }

	token, err := a.Issue()
	require.NoError(t, err)
	assert.True(t, a.Verify(token), "valid immediately after issuance")

	a.now = func() time.Time { return issuedAt.Add(TTL - time.Second) }
	assert.True(t, a.Verify(token), "valid just before expiry")

	a.now = func() time.Time { return issuedAt.Add(TTL) }
	assert.False(t, a.Verify(token), "expiry must be strictly in the future")

	a.now = func() time.Time { return issuedAt.Add(TTL + time.Hour) }
	assert.False(t, a.Verify(token))
}

func TestVerify_TamperedSignature(t *testing.T) {
	a := NewAuthority("secret")
	token, err := a.Issue()
	require.NoError(t, err)

	dot := strings.IndexByte(token, '.')
	require.Positive(t, dot)

	// Flipping any single signature character must invalidate the token.
	for i := dot + 1; i < len(token); i++ {
		mutated := []byte(token)
		if mutated[i] == 'A' {
			mutated[i] = 'B'
		} else {
			mutated[i] = 'A'
		}
		assert.False(t, a.Verify(string(mutated)), "flipped signature byte at %d", i)
	}
}

func TestVerify_MalformedInput(t *testing.T) {
	a := NewAuthority("secret")

	for name, token := range map[string]string{
		"empty":                "",
		"no separator":         "abcdef",
		"payload not base64":   "!!!.sig",
		"payload not json":     "bm90LWpzb24.sig",
		"truncated signature":  "",
		"separator only":       ".",
		"trailing garbage dot": "a.b.c",
	} {
		assert.False(t, a.Verify(token), "case %q", name)
	}
}

func TestVerify_ValidSignatureBadPayload(t *testing.T) {
	a := NewAuthority("secret")

	// Correctly signed but undecodable payloads must still fail closed.
	encoded := base64.RawURLEncoding.EncodeToString([]byte("not-json"))
	assert.False(t, a.Verify(encoded+"."+a.sign(encoded)), "payload not JSON")

	encoded = base64.RawURLEncoding.EncodeToString([]byte(`{"iat":1}`))
	assert.False(t, a.Verify(encoded+"."+a.sign(encoded)), "payload missing exp")

	raw := "!!!not-base64!!!"
	assert.False(t, a.Verify(raw+"."+a.sign(raw)), "payload not base64")
}

func TestVerify_WrongPassphrase(t *testing.T) {
	issuer := NewAuthority("secret-one")
	verifier := NewAuthority("secret-two")

	token, err := issuer.Issue()
	require.NoError(t, err)
	assert.False(t, verifier.Verify(token))
}

func TestVerify_SignatureLengthMismatch(t *testing.T) {
	a := NewAuthority("secret")
	token, err := a.Issue()
	require.NoError(t, err)

	encoded, _, found := strings.Cut(token, ".")
	require.True(t, found)
	assert.False(t, a.Verify(encoded+".short"))
}

func TestCheckPassword(t *testing.T) {
	a := NewAuthority("hunter2")

	assert.True(t, a.CheckPassword("hunter2"))
	assert.False(t, a.CheckPassword("hunter3"))
	assert.False(t, a.CheckPassword(""))
	assert.False(t, a.CheckPassword("hunter2 "))
}

func TestCheckPassword_Unconfigured(t *testing.T) {
	a := NewAuthority("")

	assert.False(t, a.Configured())
	// An empty configured password must not match an empty supplied one.
	assert.False(t, a.CheckPassword(""))
}
