package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"ssh-vanity/internal/config"
	"ssh-vanity/internal/domain"
	"ssh-vanity/internal/export"
	"ssh-vanity/internal/jobs"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeSearcher records calls and returns canned state.
type fakeSearcher struct {
	mu       sync.Mutex
	started  []domain.JobConfig
	startErr error
	stops    int
	resets   int
	run      domain.Run
	events   []jobs.Event
}

func (f *fakeSearcher) Start(cfg domain.JobConfig) (domain.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return domain.Run{}, f.startErr
	}
	f.started = append(f.started, cfg)
	f.run = domain.Run{ID: "run-1", Status: domain.RunStatusRunning, Workers: cfg.WorkerCount}
	return f.run, nil
}

func (f *fakeSearcher) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	f.run.Status = domain.RunStatusStopped
}

func (f *fakeSearcher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	f.run = domain.Run{Status: domain.RunStatusIdle}
}

func (f *fakeSearcher) Snapshot() domain.Run {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.run
}

func (f *fakeSearcher) Stats() domain.Stats { return domain.Stats{KeysGenerated: f.Snapshot().KeysGenerated} }

func (f *fakeSearcher) Events(since int64) []jobs.Event {
	var out []jobs.Event
	for _, ev := range f.events {
		if ev.Seq > since {
			out = append(out, ev)
		}
	}
	return out
}

func (f *fakeSearcher) LastSeq() int64 {
	if len(f.events) == 0 {
		return 0
	}
	return f.events[len(f.events)-1].Seq
}

// fakeSaver records the last save.
type fakeSaver struct {
	dir  string
	pair domain.KeyPair
	err  error
}

func (f *fakeSaver) Save(dir string, pair domain.KeyPair) (export.Result, error) {
	if f.err != nil {
		return export.Result{}, f.err
	}
	f.dir, f.pair = dir, pair
	return export.Result{Dir: dir, PrivateKeyPath: filepath.Join(dir, export.PrivateKeyFile), PublicKeyPath: filepath.Join(dir, export.PublicKeyFile)}, nil
}

type fakeDiagnostics struct{ dir string }

func (f *fakeDiagnostics) Run(dir string) domain.DiagnosticReport {
	f.dir = dir
	return domain.DiagnosticReport{Items: []domain.DiagnosticItem{{ID: "save_dir", Status: domain.DiagnosticStatusPass}}}
}

type testServer struct {
	router *gin.Engine
	search *fakeSearcher
	store  *config.JSONStore
	saver  *fakeSaver
	diag   *fakeDiagnostics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{
		search: &fakeSearcher{run: domain.Run{Status: domain.RunStatusIdle}},
		store:  config.NewJSONStore(filepath.Join(t.TempDir(), "settings.json")),
		saver:  &fakeSaver{},
		diag:   &fakeDiagnostics{},
	}
	s.router = NewRouter(NewHandler(s.search, s.store, s.saver, s.diag), nil)
	return s
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	s.router.ServeHTTP(resp, req)
	return resp
}

func decode(t *testing.T, resp *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(resp.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", resp.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(http.MethodGet, "/health", "")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"ok"`) {
		t.Fatalf("health = %d %s", resp.Code, resp.Body.String())
	}
}

// TestSettingsLifecycle covers load, save and reset of form settings.
func TestSettingsLifecycle(t *testing.T) {
	s := newTestServer(t)

	var got domain.Settings
	resp := s.do(http.MethodGet, "/api/settings", "")
	decode(t, resp, &got)
	if got.WorkersCount != config.DefaultSettings().WorkersCount {
		t.Fatalf("default workers = %q", got.WorkersCount)
	}

	resp = s.do(http.MethodPut, "/api/settings", `{"keywords":"abc","workersCount":"2","fields":["public-key"],"keywordMatching":"any","fieldMatching":"any"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("save = %d %s", resp.Code, resp.Body.String())
	}
	stored, err := s.store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if stored.Keywords != "abc" || stored.WorkersCount != "2" {
		t.Fatalf("stored = %+v", stored)
	}

	resp = s.do(http.MethodDelete, "/api/settings", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("reset = %d", resp.Code)
	}
	stored, err = s.store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if stored.Keywords != "" {
		t.Fatalf("keywords after reset = %q", stored.Keywords)
	}

	if resp := s.do(http.MethodPut, "/api/settings", `{not json`); resp.Code != http.StatusBadRequest {
		t.Fatalf("bad body = %d, want 400", resp.Code)
	}
}

// TestStartSearchFromBody starts with an explicit config.
func TestStartSearchFromBody(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(http.MethodPost, "/api/search/start", `{"keywords":["abc"],"fields":["public-key"],"workerCount":3}`)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("start = %d %s", resp.Code, resp.Body.String())
	}
	if len(s.search.started) != 1 || s.search.started[0].WorkerCount != 3 {
		t.Fatalf("started = %+v", s.search.started)
	}
}

// TestStartSearchFromSettings falls back to stored settings on an empty body.
func TestStartSearchFromSettings(t *testing.T) {
	s := newTestServer(t)
	settings := config.DefaultSettings()
	settings.Keywords = "cafe, beef"
	settings.WorkersCount = "5"
	if err := s.store.Save(settings); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	resp := s.do(http.MethodPost, "/api/search/start", "")
	if resp.Code != http.StatusAccepted {
		t.Fatalf("start = %d %s", resp.Code, resp.Body.String())
	}
	cfg := s.search.started[0]
	if cfg.WorkerCount != 5 || len(cfg.Keywords) != 2 || cfg.Keywords[1] != "beef" {
		t.Fatalf("config = %+v", cfg)
	}
}

// TestStartSearchErrors maps coordinator errors to status codes.
func TestStartSearchErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &domain.ValidationError{Field: "keywords", Message: "enter at least one keyword"}, http.StatusBadRequest},
		{"running", jobs.ErrAlreadyRunning, http.StatusConflict},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t)
			s.search.startErr = tc.err
			resp := s.do(http.MethodPost, "/api/search/start", `{"keywords":["x"],"fields":["public-key"]}`)
			if resp.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", resp.Code, tc.want, resp.Body.String())
			}
		})
	}
}

func TestStopAndReset(t *testing.T) {
	s := newTestServer(t)

	var run domain.Run
	decode(t, s.do(http.MethodPost, "/api/search/stop", ""), &run)
	if s.search.stops != 1 {
		t.Fatalf("stops = %d", s.search.stops)
	}

	decode(t, s.do(http.MethodPost, "/api/search/reset", ""), &run)
	if s.search.resets != 1 || run.Status != domain.RunStatusIdle {
		t.Fatalf("reset run = %+v", run)
	}
}

// TestRunEventsSince filters by sequence and validates the query.
func TestRunEventsSince(t *testing.T) {
	s := newTestServer(t)
	s.search.events = []jobs.Event{{Seq: 1, Type: jobs.EventTypeStatus}, {Seq: 2, Type: jobs.EventTypeStats}}

	var body struct {
		Events []jobs.Event `json:"events"`
	}
	decode(t, s.do(http.MethodGet, "/api/search/events?since=1", ""), &body)
	if len(body.Events) != 1 || body.Events[0].Seq != 2 {
		t.Fatalf("events = %+v", body.Events)
	}

	if resp := s.do(http.MethodGet, "/api/search/events?since=abc", ""); resp.Code != http.StatusBadRequest {
		t.Fatalf("bad since = %d, want 400", resp.Code)
	}

	var view RunView
	decode(t, s.do(http.MethodGet, "/api/search", ""), &view)
	if view.LastSeq != 2 || view.Elapsed != "00:00:00" {
		t.Fatalf("view = %+v", view)
	}
}

// TestSaveKeys requires a result and defaults to the configured folder.
func TestSaveKeys(t *testing.T) {
	s := newTestServer(t)

	if resp := s.do(http.MethodPost, "/api/search/save", ""); resp.Code != http.StatusConflict {
		t.Fatalf("save without result = %d, want 409", resp.Code)
	}

	s.search.run = domain.Run{Status: domain.RunStatusFound, Result: &domain.KeyPair{PublicKey: "pub", PrivateKey: "priv"}}
	resp := s.do(http.MethodPost, "/api/search/save", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("save = %d %s", resp.Code, resp.Body.String())
	}
	if s.saver.dir != config.DefaultSaveTo || s.saver.pair.PublicKey != "pub" {
		t.Fatalf("saved to %q: %+v", s.saver.dir, s.saver.pair)
	}

	resp = s.do(http.MethodPost, "/api/search/save", `{"dir":"/tmp/elsewhere"}`)
	if resp.Code != http.StatusOK || s.saver.dir != "/tmp/elsewhere" {
		t.Fatalf("save with dir = %d, dir %q", resp.Code, s.saver.dir)
	}
}

func TestDiagnosticsUsesSaveFolder(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(http.MethodGet, "/api/diagnostics", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("diagnostics = %d", resp.Code)
	}
	if s.diag.dir != config.DefaultSaveTo {
		t.Fatalf("diagnostics dir = %q", s.diag.dir)
	}
}
