package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/dabifac/internal/configstore"
	testutil "github.com/charlesng35/dabifac/internal/database/testutil"
	"github.com/charlesng35/dabifac/internal/realtime"
	"github.com/charlesng35/dabifac/internal/services"
	"github.com/charlesng35/dabifac/pkg/response"
)

var fixedSavedAt = time.Date(2025, 4, 6, 9, 30, 0, 0, time.UTC)

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []realtime.Message
}

func (b *recordingBroadcaster) BroadcastStream(stream string, message realtime.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	message.Stream = stream
	b.messages = append(b.messages, message)
}

func (b *recordingBroadcaster) events() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.messages))
	for _, msg := range b.messages {
		out = append(out, msg.Stream+":"+msg.Event)
	}
	return out
}

type combinationEnv struct {
	router      *gin.Engine
	settings    *services.SettingsService
	broadcaster *recordingBroadcaster
}

func newCombinationEnv(t *testing.T) *combinationEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store, err := configstore.Open(context.Background(), db, configstore.Options{},
		configstore.WithClock(func() time.Time { return fixedSavedAt }))
	require.NoError(t, err)

	combos, err := services.NewCombinationService(store, nil)
	require.NoError(t, err)
	settingsSvc, err := services.NewSettingsService(db, nil)
	require.NoError(t, err)

	broadcaster := &recordingBroadcaster{}
	handler, err := NewCombinationHandler(combos, settingsSvc, configstore.DefaultListLimit,
		WithBroadcaster(broadcaster), WithDisplayLocation(time.UTC))
	require.NoError(t, err)
	settingsHandler, err := NewSettingsHandler(settingsSvc)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/combinations", handler.List)
	router.POST("/combinations", handler.Create)
	router.GET("/combinations/:id", handler.Get)
	router.DELETE("/combinations/:id", handler.Delete)
	router.POST("/combinations/:id/restore", handler.Restore)
	router.GET("/settings", settingsHandler.Get)
	router.PUT("/settings", settingsHandler.Update)

	return &combinationEnv{router: router, settings: settingsSvc, broadcaster: broadcaster}
}

func serve(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) (T, response.Response) {
	t.Helper()

	var envelope response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))

	var data T
	if envelope.Data != nil {
		raw, err := json.Marshal(envelope.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &data))
	}
	return data, envelope
}

func strPtr(v string) *string {
	return &v
}
