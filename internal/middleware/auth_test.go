package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dan9191/user-service/internal/auth"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type fakeValidator struct {
	identity *auth.Identity
	err      error
	gotToken string
}

func (f *fakeValidator) Validate(_ context.Context, token string) (*auth.Identity, error) {
	f.gotToken = token
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func runRequest(t *testing.T, validator auth.TokenValidator, header string) (*auth.Identity, bool) {
	t.Helper()

	var identity *auth.Identity
	var ok bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok = auth.FromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/user/1", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}

	AuthMiddleware(validator, testLogger())(next).ServeHTTP(httptest.NewRecorder(), req)
	return identity, ok
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	v := &fakeValidator{identity: &auth.Identity{UserID: 7, Role: "USER", Username: "bob"}}

	identity, ok := runRequest(t, v, "Bearer sometoken")
	require.True(t, ok)
	require.EqualValues(t, 7, identity.UserID)
	require.Equal(t, "sometoken", v.gotToken)
}

func TestAuthMiddlewareInvalidTokenProceedsAnonymous(t *testing.T) {
	v := &fakeValidator{err: auth.ErrInvalidToken}

	_, ok := runRequest(t, v, "Bearer bad")
	require.False(t, ok)
}

func TestAuthMiddlewareNoHeader(t *testing.T) {
	v := &fakeValidator{identity: &auth.Identity{UserID: 7}}

	_, ok := runRequest(t, v, "")
	require.False(t, ok)
	require.Empty(t, v.gotToken) // validator never called
}

func TestAuthMiddlewareNonBearerHeader(t *testing.T) {
	v := &fakeValidator{identity: &auth.Identity{UserID: 7}}

	_, ok := runRequest(t, v, "Basic dXNlcjpwYXNz")
	require.False(t, ok)
	require.Empty(t, v.gotToken)
}
