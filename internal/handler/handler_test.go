package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dan9191/user-service/internal/auth"
	"github.com/Dan9191/user-service/internal/cache"
	"github.com/Dan9191/user-service/internal/cardnum"
	"github.com/Dan9191/user-service/internal/models"
	"github.com/Dan9191/user-service/internal/repository"
	"github.com/Dan9191/user-service/internal/service"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/sirupsen/logrus"
)

type testEnv struct {
	router *mux.Router
	svc    *service.Service
}

func newTestEnv() *testEnv {
	log := logrus.New()
	log.SetOutput(io.Discard)
	repo := repository.NewMemory()
	numbers := cardnum.New(rand.NewPCG(11, 12), log)
	svc := service.NewService(repo, cache.Noop{}, numbers, nil, log)

	h := NewHandler(svc, log)
	r := mux.NewRouter()
	h.Routes(r)
	return &testEnv{router: r, svc: svc}
}

// do performs a request, optionally authenticated as the given identity.
func (e *testEnv) do(t *testing.T, method, path string, body any, identity *auth.Identity) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if identity != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), identity))
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func adminIdentity() *auth.Identity {
	return &auth.Identity{UserID: 1000, Role: auth.RoleAdmin, Username: "admin"}
}

func userIdentity(id int64) *auth.Identity {
	return &auth.Identity{UserID: id, Role: "USER", Username: "user"}
}

func createUserReq(email string) models.CreateUserRequest {
	return models.CreateUserRequest{
		Name: "Test", Surname: "User", BirthDate: "1990-01-15", Email: email,
	}
}

func TestCreateUserEndpoint(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/user/create", createUserReq("t@example.com"), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	user := decode[models.User](t, rec)
	require.NotZero(t, user.ID)
	require.Equal(t, models.StatusInactive, user.Active)
}

func TestCreateUserDuplicateEmailEndpoint(t *testing.T) {
	env := newTestEnv()

	env.do(t, http.MethodPost, "/api/user/create", createUserReq("dup@example.com"), nil)
	rec := env.do(t, http.MethodPost, "/api/user/create", createUserReq("dup@example.com"), nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	body := decode[map[string]any](t, rec)
	require.EqualValues(t, http.StatusConflict, body["status"])
	require.Equal(t, "/api/user/create", body["path"])
	require.Contains(t, body["message"], "dup@example.com")
}

func TestCreateUserBadBody(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodPost, "/api/user/create", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUserEndpoint(t *testing.T) {
	env := newTestEnv()

	created := decode[models.User](t, env.do(t, http.MethodPost, "/api/user/create", createUserReq("g@example.com"), nil))

	rec := env.do(t, http.MethodGet, "/api/user/1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decode[models.User](t, rec)
	require.Equal(t, created.ID, fetched.ID)

	rec = env.do(t, http.MethodGet, "/api/user/999", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/user/abc", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserLifecycleEndpoints(t *testing.T) {
	env := newTestEnv()

	env.do(t, http.MethodPost, "/api/user/create", createUserReq("lc@example.com"), nil)

	rec := env.do(t, http.MethodPut, "/api/user/1/active", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.StatusActive, decode[models.User](t, rec).Active)

	// idempotent
	rec = env.do(t, http.MethodPut, "/api/user/1/active", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.StatusActive, decode[models.User](t, rec).Active)

	rec = env.do(t, http.MethodPut, "/api/user/1/inactive", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.StatusInactive, decode[models.User](t, rec).Active)

	rec = env.do(t, http.MethodDelete, "/api/user/1", nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/user/1", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateCardAuthorization(t *testing.T) {
	env := newTestEnv()
	env.do(t, http.MethodPost, "/api/user/create", createUserReq("c@example.com"), nil)

	// anonymous
	rec := env.do(t, http.MethodPost, "/api/card/create/1", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// a different authenticated user
	rec = env.do(t, http.MethodPost, "/api/card/create/1", nil, userIdentity(2))
	require.Equal(t, http.StatusForbidden, rec.Code)

	// the user itself
	rec = env.do(t, http.MethodPost, "/api/card/create/1", nil, userIdentity(1))
	require.Equal(t, http.StatusCreated, rec.Code)
	card := decode[models.Card](t, rec)
	require.Len(t, card.Number, 16)
	require.Equal(t, "Test User", card.Holder)

	// an administrator for any user
	rec = env.do(t, http.MethodPost, "/api/card/create/1", nil, adminIdentity())
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestGetCardAuthorization(t *testing.T) {
	env := newTestEnv()
	env.do(t, http.MethodPost, "/api/user/create", createUserReq("o@example.com"), nil)
	env.do(t, http.MethodPost, "/api/card/create/1", nil, userIdentity(1))

	rec := env.do(t, http.MethodGet, "/api/card/1", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/card/1", nil, userIdentity(2))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/card/1", nil, userIdentity(1))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/card/1", nil, adminIdentity())
	require.Equal(t, http.StatusOK, rec.Code)

	// a missing card is 404 for an authenticated caller, not 403
	rec = env.do(t, http.MethodGet, "/api/card/999", nil, userIdentity(1))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCardsAdminOnly(t *testing.T) {
	env := newTestEnv()
	env.do(t, http.MethodPost, "/api/user/create", createUserReq("l@example.com"), nil)
	env.do(t, http.MethodPost, "/api/card/create/1", nil, userIdentity(1))

	rec := env.do(t, http.MethodGet, "/api/card/all", nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/card/all", nil, userIdentity(1))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/card/all", nil, adminIdentity())
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[models.Page[*models.Card]](t, rec)
	require.EqualValues(t, 1, page.TotalElements)
}

func TestCardLifecycleEndpoints(t *testing.T) {
	env := newTestEnv()
	env.do(t, http.MethodPost, "/api/user/create", createUserReq("clc@example.com"), nil)
	env.do(t, http.MethodPost, "/api/card/create/1", nil, userIdentity(1))

	rec := env.do(t, http.MethodPut, "/api/card/1/active", nil, userIdentity(1))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.StatusActive, decode[models.Card](t, rec).Active)

	rec = env.do(t, http.MethodPut, "/api/card/1/inactive", nil, userIdentity(1))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.StatusInactive, decode[models.Card](t, rec).Active)

	holder := "Edited Holder"
	rec = env.do(t, http.MethodPut, "/api/card/update/1", models.UpdateCardRequest{Holder: &holder}, userIdentity(1))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, holder, decode[models.Card](t, rec).Holder)

	rec = env.do(t, http.MethodDelete, "/api/card/1/delete", nil, userIdentity(1))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/card/1", nil, adminIdentity())
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCardsByUserEndpoint(t *testing.T) {
	env := newTestEnv()
	env.do(t, http.MethodPost, "/api/user/create", createUserReq("byu@example.com"), nil)
	env.do(t, http.MethodPost, "/api/card/create/1", nil, userIdentity(1))

	rec := env.do(t, http.MethodGet, "/api/card/user/1", nil, userIdentity(2))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/card/user/1", nil, userIdentity(1))
	require.Equal(t, http.StatusOK, rec.Code)
	cards := decode[[]*models.Card](t, rec)
	require.Len(t, cards, 1)
}

func TestCardLimitEndpoint(t *testing.T) {
	env := newTestEnv()
	env.do(t, http.MethodPost, "/api/user/create", createUserReq("full@example.com"), nil)

	for i := 0; i < 5; i++ {
		rec := env.do(t, http.MethodPost, "/api/card/create/1", nil, userIdentity(1))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/api/card/create/1", nil, userIdentity(1))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
