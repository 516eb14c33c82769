package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/the-llm/backend/internal/api"
	"github.com/the-llm/backend/internal/auth"
	"github.com/the-llm/backend/internal/core"
	"github.com/the-llm/backend/internal/ratelimit"
	"github.com/the-llm/backend/internal/store"
)

const testSecret = "test-secret"

type fakeCompleter struct {
	reply      string
	err        error
	gotMessage string
}

func (f *fakeCompleter) Complete(_ context.Context, message string) (string, error) {
	f.gotMessage = message
	return f.reply, f.err
}

func newTestRouter(t *testing.T, completer core.Completer, limit int) http.Handler {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	dbStore, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { dbStore.Close() })

	handler := api.NewAPIHandler(
		core.NewChatService(dbStore),
		completer,
		auth.NewJWTVerifier(testSecret),
		zap.NewNop(),
	)
	limiter := ratelimit.New(ratelimit.NewMemoryStore(time.Hour), limit)
	return api.NewRouter(handler, limiter, "http://localhost:3000")
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, userID, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t, &fakeCompleter{}, 1000)

	rec := doRequest(router, http.MethodGet, "/api/conversations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/conversations", "Bearer bogus", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "Invalid token", body["error"])
}

func TestConversationLifecycle(t *testing.T) {
	router := newTestRouter(t, &fakeCompleter{}, 1000)
	token := bearerToken(t, "user-1")

	// Create with an empty body: title falls back to the sentinel.
	rec := doRequest(router, http.MethodPost, "/api/conversations", token, map[string]string{})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]string
	decodeBody(t, rec, &created)
	conversationID := created["conversationId"]
	require.NotEmpty(t, conversationID)
	assert.Equal(t, "Conversation created successfully", created["message"])

	rec = doRequest(router, http.MethodGet, "/api/conversations", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var conversations []store.Conversation
	decodeBody(t, rec, &conversations)
	require.Len(t, conversations, 1)
	assert.Equal(t, store.DefaultTitle, conversations[0].Title)
	assert.True(t, conversations[0].CreatedAt.Equal(conversations[0].UpdatedAt))

	// First user message sets the title verbatim (content is under 50 chars).
	content := "Hello there, how is the weather?"
	rec = doRequest(router, http.MethodPost, "/api/conversations/"+conversationID+"/messages", token,
		map[string]string{"role": "user", "content": content})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/conversations", token, nil)
	decodeBody(t, rec, &conversations)
	require.Len(t, conversations, 1)
	assert.Equal(t, content, conversations[0].Title)

	// A second user message leaves the title untouched.
	rec = doRequest(router, http.MethodPost, "/api/conversations/"+conversationID+"/messages", token,
		map[string]string{"role": "user", "content": strings.Repeat("y", 60)})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/conversations", token, nil)
	decodeBody(t, rec, &conversations)
	assert.Equal(t, content, conversations[0].Title)

	// Messages come back in chronological order.
	rec = doRequest(router, http.MethodGet, "/api/conversations/"+conversationID+"/messages", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var messages []store.Message
	decodeBody(t, rec, &messages)
	require.Len(t, messages, 2)
	assert.Equal(t, content, messages[0].Content)
	assert.Equal(t, store.DefaultModel, messages[0].Model)

	// Rename, then delete.
	rec = doRequest(router, http.MethodPut, "/api/conversations/"+conversationID, token,
		map[string]string{"title": "Weather"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(router, http.MethodDelete, "/api/conversations/"+conversationID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The parent is gone, so the message list is NotFound, not empty.
	rec = doRequest(router, http.MethodGet, "/api/conversations/"+conversationID+"/messages", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLongFirstMessageTruncatesTitle(t *testing.T) {
	router := newTestRouter(t, &fakeCompleter{}, 1000)
	token := bearerToken(t, "user-1")

	rec := doRequest(router, http.MethodPost, "/api/conversations", token, map[string]string{})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]string
	decodeBody(t, rec, &created)

	content := strings.Repeat("z", 60)
	rec = doRequest(router, http.MethodPost, "/api/conversations/"+created["conversationId"]+"/messages", token,
		map[string]string{"role": "user", "content": content})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(router, http.MethodGet, "/api/conversations", token, nil)
	var conversations []store.Conversation
	decodeBody(t, rec, &conversations)
	require.Len(t, conversations, 1)
	assert.Equal(t, strings.Repeat("z", 47)+"...", conversations[0].Title)
}

func TestAppendMessageValidation(t *testing.T) {
	router := newTestRouter(t, &fakeCompleter{}, 1000)
	token := bearerToken(t, "user-1")

	rec := doRequest(router, http.MethodPost, "/api/conversations", token, map[string]string{})
	var created map[string]string
	decodeBody(t, rec, &created)
	path := "/api/conversations/" + created["conversationId"] + "/messages"

	rec = doRequest(router, http.MethodPost, path, token, map[string]string{"role": "user"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(router, http.MethodPost, path, token, map[string]string{"role": "system", "content": "hi"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Nothing was written by the rejected requests.
	rec = doRequest(router, http.MethodGet, path, token, nil)
	var messages []store.Message
	decodeBody(t, rec, &messages)
	assert.Empty(t, messages)
}

func TestCrossTenantIsolation(t *testing.T) {
	router := newTestRouter(t, &fakeCompleter{}, 1000)
	owner := bearerToken(t, "user-1")
	intruder := bearerToken(t, "user-2")

	rec := doRequest(router, http.MethodPost, "/api/conversations", owner, map[string]string{"title": "secret plans"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]string
	decodeBody(t, rec, &created)
	conversationID := created["conversationId"]

	rec = doRequest(router, http.MethodGet, "/api/conversations", intruder, nil)
	var conversations []store.Conversation
	decodeBody(t, rec, &conversations)
	assert.Empty(t, conversations)

	// Every scoped operation reports NotFound rather than Forbidden.
	rec = doRequest(router, http.MethodDelete, "/api/conversations/"+conversationID, intruder, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doRequest(router, http.MethodPut, "/api/conversations/"+conversationID, intruder, map[string]string{"title": "mine now"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doRequest(router, http.MethodGet, "/api/conversations/"+conversationID+"/messages", intruder, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The owner's data is untouched.
	rec = doRequest(router, http.MethodGet, "/api/conversations", owner, nil)
	decodeBody(t, rec, &conversations)
	require.Len(t, conversations, 1)
	assert.Equal(t, "secret plans", conversations[0].Title)
}

func TestGroqCompletion(t *testing.T) {
	completer := &fakeCompleter{reply: "The answer is 4."}
	router := newTestRouter(t, completer, 1000)

	rec := doRequest(router, http.MethodPost, "/api/groq-completion", "", map[string]string{"message": "2+2="})
	require.Equal(t, http.StatusOK, rec.Code)

	var reply string
	decodeBody(t, rec, &reply)
	assert.Equal(t, "The answer is 4.", reply)
	assert.Equal(t, "2+2=", completer.gotMessage)
}

func TestGroqCompletionUpstreamFailure(t *testing.T) {
	router := newTestRouter(t, &fakeCompleter{err: errors.New("connection refused")}, 1000)

	rec := doRequest(router, http.MethodPost, "/api/groq-completion", "", map[string]string{"message": "2+2="})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "Failed to get chat completion", body["error"])
}

func TestRateLimiterGuardsAllRoutes(t *testing.T) {
	router := newTestRouter(t, &fakeCompleter{}, 2)

	// httptest requests share one RemoteAddr, so they count against one IP.
	require.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/api/health", "", nil).Code)
	require.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/api/health", "", nil).Code)

	rec := doRequest(router, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, ratelimit.Message, body["error"])

	// The limiter runs ahead of auth, so protected routes are covered too.
	rec = doRequest(router, http.MethodGet, "/api/conversations", bearerToken(t, "user-1"), nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
