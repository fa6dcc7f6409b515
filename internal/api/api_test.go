package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/api/middleware"
	"github.com/phrazzld/folio-api/internal/api/shared"
	"github.com/phrazzld/folio-api/internal/domain"
	"github.com/phrazzld/folio-api/internal/mocks"
	"github.com/phrazzld/folio-api/internal/service"
	"github.com/stretchr/testify/require"
)

const testPassword = "Str0ng!Pass"

// testAPI is the full route table backed by real services over mock stores.
type testAPI struct {
	router     http.Handler
	users      *mocks.MockUserStore
	posts      *mocks.MockPostStore
	comments   *mocks.MockCommentStore
	categories *mocks.MockCategoryStore
	keys       *mocks.MockAPIKeyStore
	hooks      *mocks.MockWebhookStore
	jwt        *mocks.MockJWTService
	mailer     *mocks.MockMailSender
	storage    *mocks.MockStorage
	emitter    *mocks.RecordingEmitter
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := discardLogger()
	a := &testAPI{
		users:      mocks.NewMockUserStore(),
		posts:      mocks.NewMockPostStore(),
		comments:   mocks.NewMockCommentStore(),
		categories: mocks.NewMockCategoryStore(),
		keys:       mocks.NewMockAPIKeyStore(),
		hooks:      mocks.NewMockWebhookStore(),
		jwt:        &mocks.MockJWTService{},
		mailer:     &mocks.MockMailSender{},
		storage:    mocks.NewMockStorage(),
		emitter:    &mocks.RecordingEmitter{},
	}

	accounts, err := service.NewAccountService(a.users, mocks.PlainHasher{}, a.jwt, a.mailer, a.emitter,
		service.AccountConfig{PublicBaseURL: "https://folio.test"}, log)
	require.NoError(t, err)
	users := service.NewUserService(a.users, nil, mocks.PlainHasher{}, a.storage, log)
	posts := service.NewPostService(a.posts, a.categories, a.emitter, log)
	comments := service.NewCommentService(a.comments, a.posts, a.emitter, log)
	categories := service.NewCategoryService(a.categories, log)
	moderation := service.NewModerationService(a.posts, a.comments, a.users, a.mailer, a.emitter, log)
	keys := service.NewAPIKeyService(a.keys, a.users, mocks.PlainHasher{}, log)
	hooks := service.NewWebhookService(a.hooks, log)

	userHandler := NewUserHandler(users, accounts, log)
	r := chi.NewRouter()
	RegisterRoutes(r, Handlers{
		Health:       NewHealthHandler("test"),
		Auth:         NewAuthHandler(accounts, a.jwt, log),
		Users:        userHandler,
		Admin:        NewAdminHandler(userHandler, moderation, log),
		Posts:        NewPostHandler(posts, log),
		Comments:     NewCommentHandler(comments, log),
		Categories:   NewCategoryHandler(categories, log),
		Integrations: NewIntegrationHandler(keys, hooks, log),
	}, RouteOptions{
		Authenticate: middleware.NewAuthMiddleware(a.jwt, accounts, keys, log).Authenticate,
	})
	a.router = r
	return a
}

// addUser stores a user with testPassword and the given role.
func (a *testAPI) addUser(t *testing.T, username string, role domain.Role) *domain.User {
	t.Helper()
	u, err := domain.NewUser(username+"@example.com", username, "Test", "User", "hashed:"+testPassword)
	require.NoError(t, err)
	u.Role = role
	a.users.Add(u)
	return u
}

// token returns a bearer token the mock JWT service accepts for u.
func token(u *domain.User) string {
	return "access:" + u.ID.String() + ":" + string(u.Role)
}

func (a *testAPI) do(t *testing.T, method, path string, as *domain.User, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+token(as))
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	return decode[shared.ErrorResponse](t, rec)
}

func pathf(prefix string, id uuid.UUID, suffix ...string) string {
	p := prefix + "/" + id.String()
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}
