package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/babysteps/internal/server/auth"
	"github.com/iudanet/babysteps/internal/server/metrics"
	"github.com/iudanet/babysteps/internal/server/session"
	"github.com/iudanet/babysteps/internal/server/storage/sqlite"
	"github.com/iudanet/babysteps/internal/server/token"
)

const testSecret = "test-secret-for-handlers"

type testEnv struct {
	store *sqlite.Storage
	codec *token.Codec
	authn *auth.Authenticator
	auth  *AuthHandler
	now   time.Time
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	env := &testEnv{store: store, now: time.Now()}

	clock := func() time.Time { return env.now }
	env.codec, err = token.NewCodec(testSecret, token.WithClock(clock))
	require.NoError(t, err)

	env.authn = auth.NewAuthenticator(testLogger(), env.codec, store)
	env.auth = NewAuthHandler(testLogger(), store, env.codec, env.authn, session.CookieConfig{}, metrics.Nop{})

	return env
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(dst))
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}
