package jwtinspect

import (
	"encoding/base64"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holygrail/holygrail-web/internal/util"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func signedToken(t *testing.T, claims gojwt.Claims) string {
	t.Helper()
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func tokenExpiringAt(t *testing.T, exp time.Time) string {
	t.Helper()
	return signedToken(t, gojwt.RegisteredClaims{ExpiresAt: gojwt.NewNumericDate(exp)})
}

func TestInspector_IsExpired(t *testing.T) {
	insp := New(util.NewFixedClock(testNow))

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"past exp", tokenExpiringAt(t, testNow.Add(-time.Second)), true},
		{"far past exp", tokenExpiringAt(t, testNow.Add(-24*time.Hour)), true},
		{"future exp", tokenExpiringAt(t, testNow.Add(time.Hour)), false},
		{"exp equal to now is not expired", tokenExpiringAt(t, testNow), false},
		{"absent token", "", true},
		{"whitespace token", "   ", true},
		{"missing exp claim", signedToken(t, gojwt.RegisteredClaims{Subject: "alice"}), true},
		{"not a jwt", "opaque-session-token", true},
		{
			"non-json payload",
			"eyJhbGciOiJIUzI1NiJ9." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".sig",
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, insp.IsExpired(tt.token))
		})
	}
}

func TestInspector_ClockAdvance(t *testing.T) {
	clock := util.NewFixedClock(testNow)
	insp := New(clock)
	token := tokenExpiringAt(t, testNow.Add(time.Hour))

	assert.False(t, insp.IsExpired(token))

	clock.Advance(time.Hour + time.Second)
	assert.True(t, insp.IsExpired(token))
}

func TestInspector_ExpiresAt(t *testing.T) {
	insp := New(nil)
	exp := testNow.Add(90 * time.Minute)

	got, ok := insp.ExpiresAt(tokenExpiringAt(t, exp))
	require.True(t, ok)
	assert.True(t, got.Equal(exp))

	_, ok = insp.ExpiresAt("garbage")
	assert.False(t, ok)
}

func TestInspector_IgnoresSignature(t *testing.T) {
	insp := New(util.NewFixedClock(testNow))
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.RegisteredClaims{
		ExpiresAt: gojwt.NewNumericDate(testNow.Add(time.Hour)),
	}).SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	assert.False(t, insp.IsExpired(tok))
}
