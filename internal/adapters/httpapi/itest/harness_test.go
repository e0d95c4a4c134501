package itest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	memclock "github.com/wecare-ems/wecare-api/internal/adapters/memory/clock"
	"github.com/wecare-ems/wecare-api/internal/adapters/sqlstore/sqltest"
	"github.com/wecare-ems/wecare-api/internal/bootstrap"
	"github.com/wecare-ems/wecare-api/internal/platform/config"
	"github.com/wecare-ems/wecare-api/internal/platform/logger"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendSQLite   backend = "sqlite"
	backendPostgres backend = "postgres"
)

// backendsFromEnv reads ITEST_BACKEND. The default covers the two backends that need no
// external service.
func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "":
		return []backend{backendMemory, backendSQLite}
	case "memory":
		return []backend{backendMemory}
	case "sqlite":
		return []backend{backendSQLite}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendSQLite, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|sqlite|postgres|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
	clk     *memclock.ManualClock
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	var be *bootstrap.Backend
	switch b {
	case backendMemory:
		be = bootstrap.NewMemoryBackend()
	case backendSQLite:
		be = bootstrap.NewSQLBackend(sqltest.OpenSQLite(t))
	case backendPostgres:
		be = bootstrap.NewSQLBackend(sqltest.OpenPostgres(t))
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	cfg := config.Config{
		ServiceName:          "wecare-itest",
		AppEnv:               config.EnvDevelopment,
		AuthMode:             "jwt",
		StorageBackend:       string(b),
		JWTSecret:            "itest-secret",
		JWTIssuer:            "wecare-itest",
		JWTTTL:               time.Hour,
		EnableDevDBReset:     true,
		EnableDevDBSeed:      true,
		ResetDBConfirmPhrase: "CONFIRM_RESET_DB",
		RideConflictWindow:   time.Hour,
		DuplicateWindow:      5 * time.Second,
		LockoutMaxAttempts:   5,
		LockoutDuration:      15 * time.Minute,
		LockoutWindow:        15 * time.Minute,
		LoginRateLimit:       50,
	}
	clk := memclock.NewManualClock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	app, err := bootstrap.New(cfg, be, clk, logger.NewNop())
	if err != nil {
		t.Fatalf("bootstrap.New: %v", err)
	}
	if _, err := app.Seed(context.Background()); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	srv := httptest.NewServer(app.Handler)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.RunBackground(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("RunBackground: %v", err)
		}
	})

	return &testServer{baseURL: srv.URL, client: srv.Client(), clk: clk}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) doJSON(t *testing.T, method string, path string, token string, body any) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type session struct {
	Token string
	Role  string
	// DriverID is set for accounts linked to a driver profile.
	DriverID string
}

func (s *testServer) login(t *testing.T, email, password string) session {
	t.Helper()
	status, body, _ := s.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	requireStatus(t, status, body, http.StatusOK)
	got := mustUnmarshal[struct {
		Token string `json:"token"`
		User  struct {
			Role     string  `json:"role"`
			DriverID *string `json:"driverId"`
		} `json:"user"`
	}](t, body)
	out := session{Token: got.Token, Role: got.User.Role}
	if got.User.DriverID != nil {
		out.DriverID = *got.User.DriverID
	}
	return out
}

func (s *testServer) dialWS(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.baseURL, "http") + "/api/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if m := readWS(t, conn); m.Type != "authenticated" {
		t.Fatalf("first websocket message type=%q, want authenticated", m.Type)
	}
	return conn
}

type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func readWS(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var m wsMessage
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("read websocket: %v", err)
	}
	return m
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireStatus(t *testing.T, status int, body []byte, want int) {
	t.Helper()
	if status != want {
		t.Fatalf("status=%d want=%d body=%s", status, want, string(body))
	}
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	requireStatus(t, status, body, wantStatus)
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
}
