package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/fsm/pkg/adapters/memory"
	"github.com/aretw0/fsm/pkg/domain"
	"github.com/aretw0/fsm/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	table := domain.NewTable().
		Set("A", domain.StateDef{Transitions: map[domain.EventID]domain.StateID{"to": "B"}}).
		Set("B", domain.StateDef{Transitions: map[domain.EventID]domain.StateID{"to": "C", "back": "A"}}).
		Set("C", domain.StateDef{})
	mgr, err := session.NewManager(domain.Config{Initial: "A", States: table}, memory.NewStore())
	require.NoError(t, err)

	return NewHandler(mgr)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) HistoryResult {
	t.Helper()
	var v HistoryResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHandler_Lifecycle(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, "GET", "/machines/m1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, "POST", "/machines/m1/trigger", `{"event":"to"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	v := decodeView(t, w)
	assert.Equal(t, "m1", v.ID)
	assert.Equal(t, domain.StateID("B"), v.State)
	assert.Equal(t, []domain.StateID{"A"}, v.History)
	assert.True(t, v.CanUndo)
	assert.False(t, v.CanRedo)
	assert.Equal(t, []domain.EventID{"back", "to"}, v.Events)

	w = do(t, h, "POST", "/machines/m1/undo", "")
	require.Equal(t, http.StatusOK, w.Code)
	v = decodeView(t, w)
	assert.True(t, v.OK)
	assert.Equal(t, domain.StateID("A"), v.State)
	assert.True(t, v.CanRedo)

	w = do(t, h, "POST", "/machines/m1/undo", "")
	require.Equal(t, http.StatusOK, w.Code)
	v = decodeView(t, w)
	assert.False(t, v.OK)
	assert.Equal(t, domain.StateID("A"), v.State)

	w = do(t, h, "POST", "/machines/m1/redo", "")
	v = decodeView(t, w)
	assert.True(t, v.OK)
	assert.Equal(t, domain.StateID("B"), v.State)

	w = do(t, h, "POST", "/machines/m1/state", `{"state":"C"}`)
	require.Equal(t, http.StatusOK, w.Code)
	v = decodeView(t, w)
	assert.Equal(t, domain.StateID("C"), v.State)
	assert.Empty(t, v.Events)

	w = do(t, h, "POST", "/machines/m1/clear-history", "")
	require.Equal(t, http.StatusOK, w.Code)
	v = decodeView(t, w)
	assert.Equal(t, domain.StateID("C"), v.State)
	assert.Empty(t, v.History)

	w = do(t, h, "POST", "/machines/m1/reset", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.StateID("normal"), decodeView(t, w).State)

	w = do(t, h, "GET", "/machines", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"machines":["m1"]}`, w.Body.String())

	w = do(t, h, "DELETE", "/machines/m1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, "GET", "/machines/m1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_ErrorStatus(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"unknown state", "/machines/m/state", `{"state":"Z"}`, http.StatusUnprocessableEntity},
		{"no transition", "/machines/m/trigger", `{"event":"back"}`, http.StatusConflict},
		{"malformed body", "/machines/m/trigger", `{`, http.StatusBadRequest},
		{"missing event", "/machines/m/trigger", `{}`, http.StatusBadRequest},
		{"missing state", "/machines/m/state", `{"state":""}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, "POST", tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	// Rejected operations leave the machine where it was.
	w := do(t, h, "GET", "/machines/m", "")
	require.Equal(t, http.StatusOK, w.Code)
	v := decodeView(t, w)
	assert.Equal(t, domain.StateID("A"), v.State)
	assert.Empty(t, v.History)
}

func TestHandler_StatesAndGraph(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, "GET", "/states", "")
	assert.JSONEq(t, `{"states":["A","B","C"]}`, w.Body.String())

	w = do(t, h, "GET", "/states?event=back", "")
	assert.JSONEq(t, `{"states":["B"]}`, w.Body.String())

	w = do(t, h, "GET", "/states?event=nope", "")
	assert.JSONEq(t, `{"states":[]}`, w.Body.String())

	w = do(t, h, "GET", "/graph", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `A -- "to" --> B`)
	assert.NotContains(t, w.Body.String(), "classDef")

	do(t, h, "POST", "/machines/g/trigger", `{"event":"to"}`)
	w = do(t, h, "GET", "/graph?machine=g", "")
	assert.Contains(t, w.Body.String(), "class B current;")

	w = do(t, h, "GET", "/graph?machine=missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_HealthAndCORS(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, "GET", "/health", "")
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, "OPTIONS", "/machines/m/trigger", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(domain.ErrMachineNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusFor(context.Canceled))
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("m")
	assert.Equal(t, 1, sm.Subscribers("m"))

	sm.Broadcast("m", "one")
	sm.Broadcast("other", "ignored")
	assert.Equal(t, "one", <-ch)

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("m"))
	_, open := <-ch
	assert.False(t, open)
}

func TestSubscribeEvents(t *testing.T) {
	mgr, err := session.NewManager(domain.Config{
		Initial: "A",
		States: domain.NewTable().
			Set("A", domain.StateDef{Transitions: map[domain.EventID]domain.StateID{"to": "B"}}).
			Set("B", domain.StateDef{}),
	}, memory.NewStore())
	require.NoError(t, err)

	h := NewHandler(mgr)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/machines/s1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)

	// The ping is written after subscribing, so the trigger is observed.
	tr, err := http.Post(srv.URL+"/machines/s1/trigger", "application/json", strings.NewReader(`{"event":"to"}`))
	require.NoError(t, err)
	tr.Body.Close()
	require.Equal(t, http.StatusOK, tr.StatusCode)

	var data string
	for data == "" {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: {") {
			data = strings.TrimPrefix(strings.TrimSpace(line), "data: ")
		}
	}

	var v MachineView
	require.NoError(t, json.Unmarshal([]byte(data), &v))
	assert.Equal(t, "s1", v.ID)
	assert.Equal(t, domain.StateID("B"), v.State)
}
