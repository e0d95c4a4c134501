package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	memclock "github.com/wecare-ems/wecare-api/internal/adapters/memory/clock"
	"github.com/wecare-ems/wecare-api/internal/bootstrap"
	"github.com/wecare-ems/wecare-api/internal/platform/config"
	"github.com/wecare-ems/wecare-api/internal/platform/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var epoch = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

const testOrigin = "http://localhost:5173"

const (
	adminEmail     = "admin@wecare.ems"
	developerEmail = "developer@wecare.ems"
	officerEmail   = "office1@wecare.ems"
	radioEmail     = "radio1@wecare.ems"
	executiveEmail = "executive1@wecare.ems"
	driverEmail    = "driver1@wecare.ems"
	communityEmail = "community1@wecare.ems"
)

type testAPI struct {
	app *bootstrap.App
	clk *memclock.ManualClock
}

func testConfig() config.Config {
	return config.Config{
		ServiceName:          "wecare-test",
		AppEnv:               config.EnvDevelopment,
		AuthMode:             "jwt",
		StorageBackend:       "memory",
		JWTSecret:            "test-secret",
		JWTIssuer:            "wecare-test",
		JWTTTL:               time.Hour,
		AllowedOrigins:       []string{testOrigin},
		EnableDevDBReset:     true,
		EnableDevDBSeed:      true,
		ResetDBConfirmPhrase: "CONFIRM_RESET_DB",
		RideConflictWindow:   time.Hour,
		DuplicateWindow:      5 * time.Second,
		LockoutMaxAttempts:   5,
		LockoutDuration:      15 * time.Minute,
		LockoutWindow:        15 * time.Minute,
		LoginRateLimit:       5,
	}
}

// newTestAPI wires the full router over a seeded in-memory backend.
func newTestAPI(t *testing.T, mutate ...func(*config.Config)) *testAPI {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	clk := memclock.NewManualClock(epoch)
	app, err := bootstrap.New(cfg, bootstrap.NewMemoryBackend(), clk, logger.NewNop())
	if err != nil {
		t.Fatalf("bootstrap.New: %v", err)
	}
	if _, err := app.Seed(context.Background()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return &testAPI{app: app, clk: clk}
}

func (a *testAPI) token(t *testing.T, email string) string {
	t.Helper()
	sess, err := a.app.Auth.IssueToken(context.Background(), email)
	if err != nil {
		t.Fatalf("IssueToken(%s): %v", email, err)
	}
	return sess.Token
}

func newRequest(t *testing.T, method, path, token string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (a *testAPI) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.app.Handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return a.serve(newRequest(t, method, path, token, body))
}

type errorEnvelope struct {
	Error struct {
		Code      string         `json:"code"`
		Message   string         `json:"message"`
		Details   map[string]any `json:"details"`
		RequestID *string        `json:"requestId"`
	} `json:"error"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, rec.Body.String())
	}
	return out
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status=%d want=%d body=%s", rec.Code, want, rec.Body.String())
	}
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) errorEnvelope {
	t.Helper()
	requireStatus(t, rec, status)
	got := decode[errorEnvelope](t, rec)
	if got.Error.Code != code {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, code, rec.Body.String())
	}
	return got
}

func TestRouter_Healthz(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/healthz", "", nil)
	requireStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "ok" {
		t.Fatalf("body=%q", rec.Body.String())
	}
}

func TestRouter_MissingTokenIsUnauthorized(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/api/auth/me", "", nil)
	got := requireError(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
	if got.Error.RequestID == nil || *got.Error.RequestID == "" {
		t.Fatalf("expected requestId in error body: %s", rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") != *got.Error.RequestID {
		t.Fatalf("X-Request-ID=%q, body requestId=%q", rec.Header().Get("X-Request-ID"), *got.Error.RequestID)
	}
}

func TestRouter_InvalidTokenIsRejected(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
	requireError(t, rec, http.StatusUnauthorized, "INVALID_TOKEN")
}

func TestRouter_RoleMatrix(t *testing.T) {
	api := newTestAPI(t)
	tokens := map[string]string{}
	for _, email := range []string{adminEmail, developerEmail, officerEmail, radioEmail, executiveEmail, driverEmail, communityEmail} {
		tokens[email] = api.token(t, email)
	}

	cases := []struct {
		path  string
		email string
		want  int
	}{
		{"/api/users", adminEmail, http.StatusOK},
		{"/api/users", developerEmail, http.StatusOK},
		{"/api/users", officerEmail, http.StatusForbidden},
		{"/api/users", executiveEmail, http.StatusForbidden},

		{"/api/patients", communityEmail, http.StatusOK},
		{"/api/patients", executiveEmail, http.StatusOK},
		{"/api/patients", driverEmail, http.StatusForbidden},
		{"/api/office/patients", radioEmail, http.StatusOK},
		{"/api/office/patients", communityEmail, http.StatusForbidden},
		{"/api/community/patients", communityEmail, http.StatusOK},
		{"/api/community/patients", adminEmail, http.StatusForbidden},

		{"/api/rides", driverEmail, http.StatusOK},
		{"/api/rides", communityEmail, http.StatusOK},
		{"/api/rides", executiveEmail, http.StatusOK},
		{"/api/community/rides", officerEmail, http.StatusForbidden},

		{"/api/drivers", driverEmail, http.StatusOK},
		{"/api/drivers", communityEmail, http.StatusForbidden},
		{"/api/drivers/me", driverEmail, http.StatusOK},
		{"/api/drivers/me", officerEmail, http.StatusForbidden},

		{"/api/vehicles", radioEmail, http.StatusOK},
		{"/api/vehicles", executiveEmail, http.StatusForbidden},
		{"/api/vehicle-types", officerEmail, http.StatusOK},
		{"/api/teams", executiveEmail, http.StatusOK},
		{"/api/teams", driverEmail, http.StatusForbidden},

		{"/api/dashboard", executiveEmail, http.StatusOK},
		{"/api/dashboard", driverEmail, http.StatusForbidden},
		{"/api/dashboard/executive", officerEmail, http.StatusForbidden},
		{"/api/executive/reports", executiveEmail, http.StatusOK},
		{"/api/office/reports", officerEmail, http.StatusOK},
		{"/api/map-data", radioEmail, http.StatusOK},
		{"/api/map-data", executiveEmail, http.StatusForbidden},
		{"/api/map-data/live", radioEmail, http.StatusOK},
		{"/api/map-data/live", executiveEmail, http.StatusForbidden},
		{"/api/facilities", communityEmail, http.StatusOK},
		{"/api/facilities", executiveEmail, http.StatusOK},
		{"/api/facilities", driverEmail, http.StatusOK},

		{"/api/audit-logs", executiveEmail, http.StatusOK},
		{"/api/audit-logs", officerEmail, http.StatusForbidden},
		{"/api/audit-logs/integrity", developerEmail, http.StatusOK},

		{"/api/driver-locations", driverEmail, http.StatusOK},
		{"/api/driver-locations", communityEmail, http.StatusForbidden},
		{"/api/ride-events", officerEmail, http.StatusOK},
		{"/api/ride-events", executiveEmail, http.StatusForbidden},

		{"/api/lockout/stats", adminEmail, http.StatusOK},
		{"/api/lockout/stats", executiveEmail, http.StatusForbidden},
		{"/api/admin/system/health", developerEmail, http.StatusOK},
		{"/api/admin/system/logs", officerEmail, http.StatusForbidden},
		{"/api/settings", adminEmail, http.StatusOK},
		{"/api/settings", officerEmail, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.path+" as "+tc.email, func(t *testing.T) {
			rec := api.do(t, http.MethodGet, tc.path, tokens[tc.email], nil)
			if rec.Code != tc.want {
				t.Fatalf("status=%d want=%d body=%s", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestRouter_ForbiddenCarriesRoleDetails(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/api/users", api.token(t, officerEmail), nil)
	got := requireError(t, rec, http.StatusForbidden, "FORBIDDEN")

	want := map[string]any{
		"userRole":      "OFFICER",
		"requiredRoles": []any{"admin", "DEVELOPER"},
	}
	if diff := cmp.Diff(want, got.Error.Details); diff != "" {
		t.Fatalf("details mismatch (-want +got):\n%s", diff)
	}
}

func TestRouter_LoginMeLogout(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "Driver1@WeCare.ems",
		"password": "Driver@Wecare9",
	})
	requireStatus(t, rec, http.StatusOK)
	sess := decode[struct {
		Token string `json:"token"`
		User  struct {
			Email    string  `json:"email"`
			Role     string  `json:"role"`
			DriverID *string `json:"driverId"`
		} `json:"user"`
	}](t, rec)
	if sess.Token == "" || sess.User.Email != driverEmail || sess.User.Role != "driver" {
		t.Fatalf("unexpected session: %s", rec.Body.String())
	}
	if sess.User.DriverID == nil {
		t.Fatalf("expected linked driverId: %s", rec.Body.String())
	}

	rec = api.do(t, http.MethodGet, "/api/auth/me", sess.Token, nil)
	requireStatus(t, rec, http.StatusOK)

	rec = api.do(t, http.MethodPost, "/api/auth/logout", sess.Token, nil)
	requireStatus(t, rec, http.StatusOK)

	rec = api.do(t, http.MethodGet, "/api/auth/me", sess.Token, nil)
	requireError(t, rec, http.StatusUnauthorized, "INVALID_TOKEN")
}

func TestRouter_LoginWrongPassword(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    officerEmail,
		"password": "wrong-password",
	})
	requireError(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestRouter_LoginRateLimit(t *testing.T) {
	api := newTestAPI(t, func(c *config.Config) { c.LoginRateLimit = 2 })
	body := map[string]string{"email": officerEmail, "password": "wrong-password"}

	for i := 0; i < 2; i++ {
		rec := api.do(t, http.MethodPost, "/api/auth/login", "", body)
		requireStatus(t, rec, http.StatusUnauthorized)
	}
	rec := api.do(t, http.MethodPost, "/api/auth/login", "", body)
	got := requireError(t, rec, http.StatusTooManyRequests, "RATE_LIMITED")
	if rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After=%q, want 60", rec.Header().Get("Retry-After"))
	}
	if got.Error.Details["retryAfter"] != float64(60) {
		t.Fatalf("details=%v", got.Error.Details)
	}

	// Another client is counted separately.
	req := newRequest(t, http.MethodPost, "/api/auth/login", "", body)
	req.RemoteAddr = "198.51.100.7:4000"
	requireStatus(t, api.serve(req), http.StatusUnauthorized)

	// The window resets.
	api.clk.Advance(time.Minute)
	requireStatus(t, api.do(t, http.MethodPost, "/api/auth/login", "", body), http.StatusUnauthorized)
}

func TestRouter_CORS(t *testing.T) {
	api := newTestAPI(t)

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/patients", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		return api.serve(req)
	}

	rec := preflight(testOrigin)
	requireStatus(t, rec, http.StatusNoContent)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != testOrigin {
		t.Fatalf("Access-Control-Allow-Origin=%q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("expected credentials to be allowed")
	}

	rec = preflight("https://evil.example")
	requireStatus(t, rec, http.StatusForbidden)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("disallowed origin must not be echoed")
	}

	req := newRequest(t, http.MethodGet, "/api/settings/public", "", nil)
	req.Header.Set("Origin", testOrigin)
	rec = api.serve(req)
	requireStatus(t, rec, http.StatusOK)
	if rec.Header().Get("Access-Control-Allow-Origin") != testOrigin {
		t.Fatalf("allowed origin not echoed on a simple request")
	}
}

func TestRouter_IdempotentCreate(t *testing.T) {
	api := newTestAPI(t)
	tok := api.token(t, officerEmail)

	create := func(key string, body map[string]any) *httptest.ResponseRecorder {
		req := newRequest(t, http.MethodPost, "/api/patients", tok, body)
		req.Header.Set("Idempotency-Key", key)
		return api.serve(req)
	}

	body := map[string]any{"fullName": "Somchai Jaidee", "age": 71}
	first := create("create-patient-1", body)
	requireStatus(t, first, http.StatusCreated)

	second := create("create-patient-1", body)
	requireStatus(t, second, http.StatusCreated)
	if second.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("expected replayed response")
	}
	if diff := cmp.Diff(first.Body.String(), second.Body.String()); diff != "" {
		t.Fatalf("replayed body differs (-first +second):\n%s", diff)
	}

	conflict := create("create-patient-1", map[string]any{"fullName": "Someone Else"})
	requireError(t, conflict, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE")

	invalid := create("bad", body)
	requireError(t, invalid, http.StatusBadRequest, "IDEMPOTENCY_KEY_INVALID")

	rec := api.do(t, http.MethodGet, "/api/patients", tok, nil)
	requireStatus(t, rec, http.StatusOK)
	page := decode[struct {
		Data       []map[string]any `json:"data"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}](t, rec)
	if page.Pagination.Total != 1 || len(page.Data) != 1 {
		t.Fatalf("expected exactly one patient, got %s", rec.Body.String())
	}
}

func TestRouter_AcceptsSnakeAndCamelBodies(t *testing.T) {
	api := newTestAPI(t)
	tok := api.token(t, officerEmail)

	for _, body := range []map[string]any{
		{"full_name": "Snake Case", "contact_phone": "0811111111"},
		{"fullName": "Camel Case", "contactPhone": "0822222222"},
	} {
		rec := api.do(t, http.MethodPost, "/api/patients", tok, body)
		requireStatus(t, rec, http.StatusCreated)
		got := decode[struct {
			Data struct {
				FullName     string  `json:"fullName"`
				ContactPhone *string `json:"contactPhone"`
			} `json:"data"`
		}](t, rec)
		if got.Data.ContactPhone == nil || got.Data.FullName == "" {
			t.Fatalf("field dropped: %s", rec.Body.String())
		}
	}
}

func TestRouter_MalformedBody(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/patients", bytes.NewBufferString(`{"fullName":`))
	req.Header.Set("Authorization", "Bearer "+api.token(t, officerEmail))
	requireError(t, api.serve(req), http.StatusBadRequest, "BAD_REQUEST")
}

func TestRouter_ExportReport(t *testing.T) {
	api := newTestAPI(t)
	tok := api.token(t, executiveEmail)

	rec := api.do(t, http.MethodGet, "/api/executive/reports/export?type=drivers&format=csv", tok, nil)
	requireStatus(t, rec, http.StatusOK)
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="wecare-drivers-20250301.csv"` {
		t.Fatalf("Content-Disposition=%q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/csv; charset=utf-8" {
		t.Fatalf("Content-Type=%q", got)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("Somsak Driver")) {
		t.Fatalf("seeded driver missing from export:\n%s", rec.Body.String())
	}

	rec = api.do(t, http.MethodGet, "/api/executive/reports/export?type=nope", tok, nil)
	requireError(t, rec, http.StatusBadRequest, "BAD_REQUEST")
}

func TestRouter_FacilitiesCRUD(t *testing.T) {
	api := newTestAPI(t)
	officer := api.token(t, officerEmail)
	community := api.token(t, communityEmail)

	body := map[string]any{"name": "Provincial Hospital", "lat": 13.7563, "lng": 100.5018, "facilityType": "hospital"}
	requireError(t, api.do(t, http.MethodPost, "/api/facilities", community, body), http.StatusForbidden, "FORBIDDEN")

	rec := api.do(t, http.MethodPost, "/api/facilities", officer, body)
	requireStatus(t, rec, http.StatusCreated)
	created := decode[struct {
		Data struct {
			ID           string  `json:"id"`
			FacilityType *string `json:"facilityType"`
			IsActive     bool    `json:"isActive"`
		} `json:"data"`
	}](t, rec).Data
	if created.ID == "" || !created.IsActive || created.FacilityType == nil || *created.FacilityType != "hospital" {
		t.Fatalf("unexpected facility: %s", rec.Body.String())
	}

	rec = api.do(t, http.MethodPut, "/api/facilities/"+created.ID, officer, map[string]any{"facility_type": nil})
	requireStatus(t, rec, http.StatusOK)
	if got := decode[struct {
		Data struct {
			FacilityType *string `json:"facilityType"`
		} `json:"data"`
	}](t, rec).Data; got.FacilityType != nil {
		t.Fatalf("facilityType not cleared: %s", rec.Body.String())
	}

	requireStatus(t, api.do(t, http.MethodDelete, "/api/facilities/"+created.ID, officer, nil), http.StatusNoContent)
	requireError(t, api.do(t, http.MethodGet, "/api/facilities/"+created.ID, community, nil), http.StatusNotFound, "NOT_FOUND")
	requireStatus(t, api.do(t, http.MethodGet, "/api/facilities/"+created.ID, officer, nil), http.StatusOK)
}

func TestRouter_MapShapesCRUD(t *testing.T) {
	api := newTestAPI(t)
	radio := api.token(t, radioEmail)

	rec := api.do(t, http.MethodPost, "/api/map-data", radio, map[string]any{
		"type":        "marker",
		"name":        "Staging point",
		"coordinates": map[string]float64{"lat": 13.75, "lng": 100.5},
		"properties":  map[string]any{"iconColor": "red"},
	})
	requireStatus(t, rec, http.StatusCreated)
	marker := decode[struct {
		Data struct {
			ID          string          `json:"id"`
			Coordinates json.RawMessage `json:"coordinates"`
			Properties  map[string]any  `json:"properties"`
		} `json:"data"`
	}](t, rec).Data
	if marker.ID == "" || marker.Properties["iconColor"] != "red" || !bytes.HasPrefix(marker.Coordinates, []byte("{")) {
		t.Fatalf("unexpected marker: %s", rec.Body.String())
	}

	rec = api.do(t, http.MethodPost, "/api/map-data", radio, map[string]any{
		"type":        "polygon",
		"coordinates": []map[string]float64{{"lat": 13.7, "lng": 100.4}, {"lat": 13.8, "lng": 100.4}},
	})
	requireError(t, rec, http.StatusUnprocessableEntity, "VALIDATION_ERROR")

	rec = api.do(t, http.MethodPut, "/api/map-data/"+marker.ID, radio, map[string]any{
		"coordinates": []map[string]float64{{"lat": 13.76, "lng": 100.51}},
		"description": "moved north",
	})
	requireStatus(t, rec, http.StatusOK)

	rec = api.do(t, http.MethodGet, "/api/map-data?type=marker", radio, nil)
	requireStatus(t, rec, http.StatusOK)
	list := decode[struct {
		Data []struct {
			ID          string `json:"id"`
			Description string `json:"description"`
		} `json:"data"`
	}](t, rec).Data
	if len(list) != 1 || list[0].ID != marker.ID || list[0].Description != "moved north" {
		t.Fatalf("unexpected list: %s", rec.Body.String())
	}

	requireStatus(t, api.do(t, http.MethodDelete, "/api/map-data/"+marker.ID, radio, nil), http.StatusNoContent)
	requireError(t, api.do(t, http.MethodGet, "/api/map-data/"+marker.ID, radio, nil), http.StatusNotFound, "NOT_FOUND")
}

func TestRouter_PublicEndpoints(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/settings/public", "", nil)
	requireStatus(t, rec, http.StatusOK)
	pub := decode[struct {
		Data struct {
			AppName string `json:"appName"`
		} `json:"data"`
	}](t, rec)
	if pub.Data.AppName != "WeCare" {
		t.Fatalf("appName=%q", pub.Data.AppName)
	}

	requireStatus(t, api.do(t, http.MethodGet, "/api/news", "", nil), http.StatusOK)

	rec = api.do(t, http.MethodGet, "/api/csrf-token", "", nil)
	requireStatus(t, rec, http.StatusOK)
	csrf := decode[struct {
		Token string `json:"csrfToken"`
	}](t, rec)
	if csrf.Token == "" {
		t.Fatalf("empty csrf token")
	}
}

func TestRouter_ResetDatabaseRequiresPhrase(t *testing.T) {
	api := newTestAPI(t)
	tok := api.token(t, adminEmail)

	rec := api.do(t, http.MethodPost, "/api/admin/system/reset-db", tok, map[string]string{"confirm": "yes"})
	requireStatus(t, rec, http.StatusBadRequest)

	rec = api.do(t, http.MethodPost, "/api/admin/system/reset-db", tok, map[string]string{
		"confirm": "CONFIRM_RESET_DB",
		"reason":  "clean slate for the next test",
	})
	requireStatus(t, rec, http.StatusOK)
	got := decode[struct {
		Seeded struct {
			Users struct {
				Created int `json:"created"`
			} `json:"users"`
		} `json:"seeded"`
	}](t, rec)
	if got.Seeded.Users.Created != 7 {
		t.Fatalf("expected the 7 fixture users to be re-seeded: %s", rec.Body.String())
	}
}
