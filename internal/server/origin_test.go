package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestWithOrigin(t *testing.T, origin string) *http.Request {
	t.Helper()
	r, err := http.NewRequest(http.MethodGet, "http://localhost:8080/ws", http.NoBody)
	require.NoError(t, err)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

func TestNormalizeOrigin(t *testing.T) {
	normalized, ok := normalizeOrigin("HTTPS://Board.Example.COM")
	require.True(t, ok)
	assert.Equal(t, "https://board.example.com", normalized)

	_, ok = normalizeOrigin("not a url")
	assert.False(t, ok)

	_, ok = normalizeOrigin("/relative/path")
	assert.False(t, ok)
}

func TestOriginPolicyAllowsConfiguredOrigins(t *testing.T) {
	p := newOriginPolicy([]string{"http://localhost:8080", "https://board.example.com"}, testLogger())

	assert.True(t, p.checkOrigin(requestWithOrigin(t, "http://localhost:8080")))
	assert.True(t, p.checkOrigin(requestWithOrigin(t, "HTTPS://BOARD.EXAMPLE.COM")))
	assert.False(t, p.checkOrigin(requestWithOrigin(t, "http://evil.example.com")))
}

func TestOriginPolicyRejectsMissingOrigin(t *testing.T) {
	p := newOriginPolicy([]string{"http://localhost:8080"}, testLogger())

	assert.False(t, p.checkOrigin(requestWithOrigin(t, "")))
}

func TestOriginPolicyWildcardAllowsAll(t *testing.T) {
	p := newOriginPolicy([]string{"*"}, testLogger())

	assert.True(t, p.checkOrigin(requestWithOrigin(t, "http://anywhere.example.com")))
	// Even with a wildcard, an unparsable origin header is rejected.
	assert.False(t, p.checkOrigin(requestWithOrigin(t, "garbage")))
}

func TestOriginPolicySkipsInvalidConfigEntries(t *testing.T) {
	p := newOriginPolicy([]string{"", "   ", "::bad::", "http://localhost:8080"}, testLogger())

	assert.True(t, p.checkOrigin(requestWithOrigin(t, "http://localhost:8080")))
	assert.Len(t, p.allowed, 1)
}
