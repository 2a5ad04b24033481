package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/sortvis/internal/engine"
	"github.com/thruflo/sortvis/internal/history"
	"github.com/thruflo/sortvis/internal/stream"
	"github.com/thruflo/sortvis/internal/testutil"
)

type testServer struct {
	*Server
	engine *engine.Engine
	http   *httptest.Server
}

// newTestServer starts s behind httptest. configure may adjust the config
// before the server is created.
func newTestServer(t *testing.T, opts engine.Options, configure ...func(*Config)) *testServer {
	t.Helper()

	e := engine.New(opts)
	cfg := &Config{Engine: e}
	for _, fn := range configure {
		fn(cfg)
	}

	s, err := NewServer(cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Close()
		ts.Close()
	})
	return &testServer{Server: s, engine: e, http: ts}
}

func withHistory(t *testing.T) func(*Config) {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return func(cfg *Config) { cfg.History = store }
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.http.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.http.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (ts *testServer) state(t *testing.T) stream.SnapshotEvent {
	t.Helper()
	resp, body := ts.do(t, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap stream.SnapshotEvent
	require.NoError(t, json.Unmarshal(body, &snap))
	return snap
}

func TestNewServerValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{name: "nil config", cfg: nil, wantErr: "config is required"},
		{name: "missing engine", cfg: &Config{}, wantErr: "engine is required"},
		{name: "unknown data set", cfg: &Config{Engine: engine.New(engine.Options{}), DataSet: "huge"}, wantErr: "huge"},
		{name: "valid", cfg: &Config{Engine: engine.New(engine.Options{}), DataSet: "small", Port: 8080}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, err := NewServer(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer s.Close()
			assert.Equal(t, 8080, s.Port())
			assert.NotNil(t, s.Events())
		})
	}
}

func TestServerStartStop(t *testing.T) {
	t.Parallel()

	s, err := NewServer(&Config{Engine: engine.New(engine.Options{})})
	require.NoError(t, err)
	assert.Empty(t, s.ListenAddr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	testutil.Eventually(t, func() bool { return s.ListenAddr() != "" })
	assert.Error(t, s.Start(ctx), "second start must fail")

	addr := s.ListenAddr()
	port := addr[strings.LastIndex(addr, ":")+1:]
	resp, err := http.Get("http://127.0.0.1:" + port + "/api/algorithms")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(testutil.DefaultRunTimeout):
		t.Fatal("server did not stop")
	}
	assert.NoError(t, s.Stop(), "stop after shutdown is a no-op")
}
