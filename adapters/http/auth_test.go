package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasifvortex/azercell-project3/domain"
)

func newAuthRouter(auth *Auth) http.Handler {
	chat := &fakeChat{resp: &domain.InferenceResponse{Raw: []byte(`{"ok":true}`)}}
	return NewRouter(RouterConfig{Chat: NewHandler(chat, Options{}), Auth: auth})
}

func TestAuthTokenRoundTrip(t *testing.T) {
	router := newAuthRouter(NewAuth("s3cret", "key", "secret"))

	rec := do(t, router, http.MethodPost, "/chat", `{"query":"q"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, router, http.MethodPost, "/auth/token", "", "X-API-Key", "key", "X-API-Secret", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, router, http.MethodPost, "/auth/token", "", "X-API-Key", "key", "X-API-Secret", "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Bearer", body["type"])
	token := body["token"].(string)

	rec = do(t, router, http.MethodPost, "/chat", `{"query":"q"}`, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"ok":true}`, decode(t, rec)["response"])

	rec = do(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRejectsBadTokens(t *testing.T) {
	auth := NewAuth("s3cret", "key", "secret")
	router := newAuthRouter(auth)

	other := NewAuth("another-secret", "key", "secret")
	rec := do(t, newAuthRouter(other), http.MethodPost, "/auth/token", "", "X-API-Key", "key", "X-API-Secret", "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	foreign := decode(t, rec)["token"].(string)

	expired := NewAuth("s3cret", "key", "secret")
	expired.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	rec = do(t, newAuthRouter(expired), http.MethodPost, "/auth/token", "", "X-API-Key", "key", "X-API-Secret", "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	stale := decode(t, rec)["token"].(string)

	tests := map[string]string{
		"wrong scheme":   "Token abc",
		"garbage":        "Bearer abc",
		"foreign secret": "Bearer " + foreign,
		"expired":        "Bearer " + stale,
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/knowledge-base", `{"query":"q"}`, "Authorization", header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
