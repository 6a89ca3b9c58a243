package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HealthAssist/controllers"
	"HealthAssist/middleware"
	"HealthAssist/models"
	"HealthAssist/pkg/auth"
	"HealthAssist/pkg/database"
	"HealthAssist/pkg/logger"
	"HealthAssist/pkg/services"
	"HealthAssist/pkg/store"
	tokenstore "HealthAssist/pkg/token"
)

type testApp struct {
	router *gin.Engine
	deps   *controllers.Deps
}

func newTestApp(t *testing.T, llmURL string) *testApp {
	t.Helper()
	return newLimitedTestApp(t, llmURL, nil)
}

func newLimitedTestApp(t *testing.T, llmURL string, limiter *middleware.RateLimiter) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name), logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	log := logger.NewNop()
	users := store.NewUserStore(db, log)
	convs := store.NewConversationStore(db, log)
	metrics := store.NewMetricStore(db, log)
	meds := store.NewMedicationStore(db, log)
	issuer := auth.NewIssuer("test-secret", time.Hour)
	llm := services.NewLLMService(services.LLMConfig{Endpoint: llmURL, Model: "gemma2"}, nil, log)

	d := &controllers.Deps{
		Log:           log,
		Users:         users,
		Conversations: convs,
		Metrics:       metrics,
		Medications:   meds,
		Issuer:        issuer,
		Authenticator: auth.NewAuthenticator(issuer, tokenstore.NewMemoryStore(), users),
		Relay:         services.NewChatRelay(convs, llm, 0, log),
		Seeder:        services.NewSeeder(metrics, meds, convs, log),
		RateLimiter:   limiter,
	}
	r := gin.New()
	RegisterRoutes(r, d)
	return &testApp{router: r, deps: d}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// signUp registers and logs in, returning the token and user id.
func (a *testApp) signUp(t *testing.T, email string) (string, string) {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/register", "", gin.H{
		"email": email, "password": "secret123", "confirm_password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, http.MethodPost, "/api/login", "", gin.H{"email": email, "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		AccessToken string `json:"access_token"`
		UserID      string `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out.AccessToken, out.UserID
}

func sseUpstream(t *testing.T, tokens ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, tok := range tokens {
			b, _ := json.Marshal(gin.H{"choices": []gin.H{{"delta": gin.H{"content": tok}}}})
			fmt.Fprintf(w, "data: %s\n\n", b)
			w.(http.Flusher).Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func deadUpstream(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	return srv.URL
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t, deadUpstream(t))
	token, uid := app.signUp(t, "Ann@Example.com")

	w := app.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"ann@example.com"`)
	assert.Contains(t, w.Body.String(), uid)
	assert.NotContains(t, w.Body.String(), "password")

	w = app.do(t, http.MethodPost, "/api/register", "", gin.H{
		"email": "ann@example.com", "password": "secret123", "confirm_password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(t, http.MethodPost, "/api/register", "", gin.H{
		"email": "bob@example.com", "password": "lettersonly", "confirm_password": "lettersonly",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "ann@example.com", "password": "wrong123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, http.MethodPost, "/api/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = app.do(t, http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	app := newTestApp(t, deadUpstream(t))
	for _, r := range []struct{ method, path string }{
		{http.MethodPost, "/api/chat"},
		{http.MethodGet, "/api/metrics/latest"},
		{http.MethodGet, "/api/metrics/weekly"},
		{http.MethodGet, "/api/medications"},
		{http.MethodPost, "/api/medications/toggle"},
		{http.MethodPost, "/api/seed"},
		{http.MethodGet, "/api/conversations"},
	} {
		w := app.do(t, r.method, r.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, r.path)
		assert.Contains(t, w.Body.String(), `"error"`, r.path)
	}
}

func TestChatStreamsPlainText(t *testing.T) {
	app := newTestApp(t, sseUpstream(t, "Hi", " there").URL)
	token, uid := app.signUp(t, "ann@example.com")

	w := app.do(t, http.MethodPost, "/api/chat", token, gin.H{"message": "hello", "userId": uid})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "Hi there", w.Body.String())

	w = app.do(t, http.MethodGet, "/api/conversations", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []models.ConversationMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, "hello", history[0].Content)
	assert.Equal(t, "Hi there", history[1].Content)
	assert.Equal(t, models.RoleAssistant, history[1].Role)
}

func TestChatFallsBackOffline(t *testing.T) {
	app := newTestApp(t, deadUpstream(t))
	token, _ := app.signUp(t, "ann@example.com")

	w := app.do(t, http.MethodPost, "/api/chat", token, gin.H{"message": "hello"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, strings.Join(services.OfflineTokens(), ""), w.Body.String())

	w = app.do(t, http.MethodGet, "/api/conversations?limit=1", token, nil)
	var history []models.ConversationMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, services.OfflineReply, history[0].Content)
}

func TestChatValidation(t *testing.T) {
	app := newTestApp(t, deadUpstream(t))
	token, _ := app.signUp(t, "ann@example.com")

	w := app.do(t, http.MethodPost, "/api/chat", token, gin.H{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodPost, "/api/chat", token, gin.H{"message": "hi", "userId": "someone-else"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLatestMetricsDefaultsAndSeed(t *testing.T) {
	app := newTestApp(t, deadUpstream(t))
	token, _ := app.signUp(t, "ann@example.com")

	w := app.do(t, http.MethodGet, "/api/metrics/latest", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"steps":0,"water_ml":0,"sleep_hours":0,"mood":5}`, w.Body.String())

	for range 2 {
		w = app.do(t, http.MethodPost, "/api/seed", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"message":"Demo data loaded"}`, w.Body.String())
	}

	w = app.do(t, http.MethodGet, "/api/metrics/latest", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var latest models.Metric
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &latest))
	assert.Equal(t, time.Now().UTC().Format(models.DateLayout), latest.Date)
	assert.GreaterOrEqual(t, latest.Steps, 5000)
	assert.Less(t, latest.Steps, 10000)

	w = app.do(t, http.MethodGet, "/api/metrics/weekly", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var week []models.Metric
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &week))
	require.Len(t, week, 7)
	for i := 1; i < len(week); i++ {
		assert.Less(t, week[i-1].Date, week[i].Date)
	}
}

func TestToggleMedication(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t, deadUpstream(t))
	token, uid := app.signUp(t, "ann@example.com")
	_, otherUID := app.signUp(t, "bob@example.com")

	require.NoError(t, app.deps.Medications.ReplaceForUser(ctx, uid, services.DemoMedications()))
	require.NoError(t, app.deps.Medications.ReplaceForUser(ctx, otherUID, services.DemoMedications()))
	mine, err := app.deps.Medications.ListByUser(ctx, uid)
	require.NoError(t, err)
	theirs, err := app.deps.Medications.ListByUser(ctx, otherUID)
	require.NoError(t, err)

	target := mine[0]
	require.False(t, target.Active)
	for range 2 {
		w := app.do(t, http.MethodPost, "/api/medications/toggle", token, gin.H{"id": target.ID, "active": true})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var med models.Medication
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &med))
		assert.True(t, med.Active)
		assert.Equal(t, target.ID, med.ID)
	}

	w := app.do(t, http.MethodPost, "/api/medications/toggle", token, gin.H{"id": theirs[0].ID, "active": true})
	assert.Equal(t, http.StatusNotFound, w.Code)
	after, err := app.deps.Medications.ListByUser(ctx, otherUID)
	require.NoError(t, err)
	assert.False(t, after[0].Active)

	w = app.do(t, http.MethodPost, "/api/medications/toggle", token, gin.H{"id": target.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodGet, "/api/medications", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Medication
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 3)
	assert.True(t, list[0].Active)
}

func TestChatWebSocket(t *testing.T) {
	app := newTestApp(t, sseUpstream(t, "Hi", " there").URL)
	token, _ := app.signUp(t, "ann@example.com")
	srv := httptest.NewServer(app.router)
	defer srv.Close()

	conn, _, err := dialChat(t, srv, token)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(gin.H{"type": "start", "message": "hello"}))

	var text strings.Builder
	for {
		var frame wsFrame
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		require.NoError(t, conn.ReadJSON(&frame))
		if frame.Type == "delta" {
			text.WriteString(frame.Data)
			continue
		}
		require.Equal(t, "done", frame.Type, frame.Error)
		assert.True(t, frame.OK)
		assert.False(t, frame.Offline)
		break
	}
	assert.Equal(t, "Hi there", text.String())
}

type wsFrame struct {
	Type    string `json:"type"`
	Data    string `json:"data"`
	OK      bool   `json:"ok"`
	Offline bool   `json:"offline"`
	Stopped bool   `json:"stopped"`
	Error   string `json:"error"`
}

func dialChat(t *testing.T, srv *httptest.Server, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat?token=" + token
	return websocket.DefaultDialer.Dial(wsURL, nil)
}

func TestChatWebSocketStopKeepsPartialReply(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\n")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
			fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\" late\"}}]}\n\n")
		}
	}))
	defer upstream.Close()

	app := newTestApp(t, upstream.URL)
	token, uid := app.signUp(t, "ann@example.com")
	srv := httptest.NewServer(app.router)
	defer srv.Close()

	conn, _, err := dialChat(t, srv, token)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.WriteJSON(gin.H{"type": "start", "message": "hello"}))

	var frame wsFrame
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, "delta", frame.Type)
	assert.Equal(t, "Hi", frame.Data)

	require.NoError(t, conn.WriteJSON(gin.H{"type": "stop"}))
	for {
		frame = wsFrame{}
		require.NoError(t, conn.ReadJSON(&frame))
		if frame.Type != "delta" {
			break
		}
	}
	require.Equal(t, "done", frame.Type, frame.Error)
	assert.True(t, frame.OK)
	assert.True(t, frame.Stopped)

	history, err := app.deps.Conversations.ListByUser(context.Background(), uid, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.RoleAssistant, history[1].Role)
	assert.Equal(t, "Hi", history[1].Content)
}

func TestChatWebSocketRateLimitsPerUser(t *testing.T) {
	app := newLimitedTestApp(t, sseUpstream(t, "ok").URL, middleware.NewRateLimiter(time.Minute, 1))
	annToken, _ := app.signUp(t, "ann@example.com")
	bobToken, _ := app.signUp(t, "bob@example.com")
	srv := httptest.NewServer(app.router)
	defer srv.Close()

	first, _, err := dialChat(t, srv, annToken)
	require.NoError(t, err)
	defer first.Close()

	// another user on the same address has a bucket of their own
	other, _, err := dialChat(t, srv, bobToken)
	require.NoError(t, err)
	defer other.Close()

	_, resp, err := dialChat(t, srv, annToken)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestChatWebSocketRejectsBadToken(t *testing.T) {
	app := newTestApp(t, deadUpstream(t))
	srv := httptest.NewServer(app.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat?token=nope"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t, deadUpstream(t))
	w := app.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
