package relayclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasifvortex/azercell-project3/domain"
)

func TestLoginUsesTokenForChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/token":
			if r.Header.Get("X-API-Key") != "John" || r.Header.Get("X-API-Secret") != "Doe" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
				return
			}
			_, _ = w.Write([]byte(`{"token":"tok","type":"Bearer"}`))
		case "/chat":
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"response":"ok"}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	require.NoError(t, c.Login(context.Background(), "John", "Doe"))

	answer, err := c.Ask(context.Background(), domain.ChatRequest{Query: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", answer)

	err = New(srv.URL).Login(context.Background(), "John", "wrong")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
}
