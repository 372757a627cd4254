package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/stepwise"
	httpadapter "github.com/aretw0/stepwise/pkg/adapters/http"
	"github.com/aretw0/stepwise/pkg/adapters/memory"
	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/aretw0/stepwise/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkinFlow() domain.Flow {
	return domain.Flow{
		ID:    "checkin",
		Title: "Check-in",
		Entry: "feel",
		Steps: []domain.Step{
			{
				ID:       "feel",
				Inputs:   []domain.Field{{Name: "mood", Kind: domain.FieldSingle, Options: []string{"calm", "anxious"}}},
				Required: []string{"mood"},
				Next:     "note",
			},
			{
				ID:        "note",
				Inputs:    []domain.Field{{Name: "note", Kind: domain.FieldText, MaxLength: 200}},
				Skippable: true,
			},
		},
		Recommendations: []domain.RuleTable{{
			Name:     "tip",
			Tiers:    []domain.Tier{{Name: "mood", Fields: []string{"mood"}}},
			Rules:    []domain.Rule{{Key: []string{"anxious"}, Text: "Breathe out slowly."}},
			Fallback: "Notice how you feel.",
		}},
	}
}

type fixture struct {
	server  *httptest.Server
	results *memory.ResultStore
	manager *session.Manager
}

func setup(t *testing.T) *fixture {
	t.Helper()

	loader, err := memory.NewLoader(checkinFlow())
	require.NoError(t, err)
	results := memory.NewResultStore()

	engine, err := stepwise.New(stepwise.WithLoader(loader), stepwise.WithResultStore(results))
	require.NoError(t, err)
	manager := session.NewManager(engine)
	t.Cleanup(manager.Close)

	handler := httpadapter.NewHandler(manager, engine,
		httpadapter.WithResultStore(results),
		httpadapter.WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "# metrics\n")
		})),
		httpadapter.WithVersion("9.9.9"),
	)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &fixture{server: srv, results: results, manager: manager}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (f *fixture) open(t *testing.T) domain.View {
	t.Helper()
	resp, data := f.do(t, http.MethodPost, "/wizards", map[string]string{"flow_id": "checkin"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var view domain.View
	require.NoError(t, json.Unmarshal(data, &view))
	return view
}

func TestServer_Meta(t *testing.T) {
	f := setup(t)

	resp, data := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(data))

	resp, data = f.do(t, http.MethodGet, "/info", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var info map[string]string
	require.NoError(t, json.Unmarshal(data, &info))
	assert.Equal(t, "9.9.9", info["version"])
	assert.Equal(t, "1.0.0", info["api_version"])

	resp, data = f.do(t, http.MethodGet, "/openapi.yaml", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "openapi: 3.0.3")

	resp, data = f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "# metrics\n", string(data))
}

func TestServer_Flows(t *testing.T) {
	f := setup(t)

	resp, data := f.do(t, http.MethodGet, "/flows", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []domain.FlowSummary
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Equal(t, []domain.FlowSummary{{ID: "checkin", Title: "Check-in", Steps: 2}}, list)

	resp, data = f.do(t, http.MethodGet, "/flows/checkin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"entry":"feel"`)

	resp, _ = f.do(t, http.MethodGet, "/flows/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_OpenRejectsBadBody(t *testing.T) {
	f := setup(t)

	resp, _ := f.do(t, http.MethodPost, "/wizards", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/wizards", map[string]string{"flow_id": "nope"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_EventsAndValidation(t *testing.T) {
	f := setup(t)
	view := f.open(t)
	path := "/wizards/" + view.SessionID + "/events"

	resp, data := f.do(t, http.MethodPost, path, domain.Command{Event: domain.EventAdvance})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var rejected struct {
		Error string      `json:"error"`
		View  domain.View `json:"view"`
	}
	require.NoError(t, json.Unmarshal(data, &rejected))
	assert.Equal(t, "feel", rejected.View.CurrentStepID)
	assert.Equal(t, []string{"mood"}, rejected.View.Missing)

	resp, data = f.do(t, http.MethodPost, path, domain.Command{Event: domain.EventSelect, Field: "mood", Value: "anxious"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	require.NoError(t, json.Unmarshal(data, &view))
	assert.Equal(t, "Breathe out slowly.", view.Recommendation)
	assert.True(t, view.CanAdvance)

	resp, _ = f.do(t, http.MethodPost, path, domain.Command{Event: "dance"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/wizards/missing/events", domain.Command{Event: domain.EventAdvance})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_CompleteAndFetchResult(t *testing.T) {
	f := setup(t)
	view := f.open(t)
	path := "/wizards/" + view.SessionID

	for _, cmd := range []domain.Command{
		{Event: domain.EventSelect, Field: "mood", Value: "calm"},
		{Event: domain.EventAdvance},
		{Event: domain.EventSkip},
	} {
		resp, data := f.do(t, http.MethodPost, path+"/events", cmd)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	}

	require.Eventually(t, func() bool {
		_, data := f.do(t, http.MethodGet, path, nil)
		var v domain.View
		return json.Unmarshal(data, &v) == nil && v.Status == domain.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	ids, err := f.results.List(context.Background())
	require.NoError(t, err)
	require.Len(t, ids, 1)

	resp, data := f.do(t, http.MethodGet, "/results/"+ids[0], nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result domain.WizardResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "calm", result.Answers.Text("mood"))
	assert.Equal(t, "Notice how you feel.", result.Recommendations["tip"])

	resp, _ = f.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "a completed wizard cannot be cancelled")

	resp, _ = f.do(t, http.MethodGet, "/results/unknown", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Stream(t *testing.T) {
	f := setup(t)
	view := f.open(t)
	path := "/wizards/" + view.SessionID

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.server.URL+path+"/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 32)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			if line := sc.Text(); line != "" {
				lines <- line
			}
		}
	}()

	next := func() string {
		select {
		case l, ok := <-lines:
			if !ok {
				return ""
			}
			return l
		case <-ctx.Done():
			t.Fatal("timed out waiting for SSE data")
			return ""
		}
	}

	assert.Equal(t, "event: ping", next())
	assert.Equal(t, "data: connected", next())
	assert.Contains(t, next(), `"current_step_id":"feel"`, "initial full view")

	resp2, _ := f.do(t, http.MethodPost, path+"/events", domain.Command{Event: domain.EventSelect, Field: "mood", Value: "anxious"})
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	diff := next()
	assert.Contains(t, diff, `"answers":{"mood":"anxious"}`)
	assert.NotContains(t, diff, "current_step_id", "only changes are sent")

	resp2, _ = f.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	assert.Contains(t, next(), `"status":"cancelled"`)
	assert.Equal(t, "event: end", next())
	assert.Equal(t, "data: cancelled", next())
}

func TestServer_StreamUnknownSession(t *testing.T) {
	f := setup(t)
	resp, _ := f.do(t, http.MethodGet, "/wizards/missing/stream", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSpec_DocumentsEveryRoute(t *testing.T) {
	doc, err := httpadapter.Spec()
	require.NoError(t, err)

	s := &httpadapter.Server{Metrics: http.NotFoundHandler()}
	err = chi.Walk(s.Routes(), func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if route == "/swagger" {
			return nil
		}
		if len(route) > 1 {
			route = strings.TrimSuffix(route, "/")
		}
		item := doc.Paths.Value(route)
		if assert.NotNil(t, item, "route %s is not documented", route) {
			assert.NotNil(t, item.GetOperation(method), "%s %s is not documented", method, route)
		}
		return nil
	})
	require.NoError(t, err)
}
