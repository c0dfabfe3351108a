//go:build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/adapter/ils/dummy"
	mappingrepo "github.com/openlibraryenvironment/dcb-service-sub001/internal/adapter/postgres/mapping"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/adapter/postgres/testhelper"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/app"
	authpkg "github.com/openlibraryenvironment/dcb-service-sub001/internal/auth"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/config"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/ils"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/service/mapping"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/transport/middleware"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/transport/rest"
)

// ---------------------------------------------------------------------------
// testServer wraps the full-stack HTTP server for E2E tests. Three dummy
// host systems take part: HOME (the patron's), SUP (supplier) and PICK.
// ---------------------------------------------------------------------------

type testServer struct {
	URL    string
	Client *http.Client
	Pool   *pgxpool.Pool
	jwt    *authpkg.JWTManager

	home, sup, pick *dummy.Client
	homePickup      domain.Location
	pickPickup      domain.Location
	cluster         domain.BibCluster
	bib             domain.BibRecord
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// ---------------------------------------------------------------------------
// setupTestServer seeds reference data and bootstraps the application stack
// through app.Build against the shared PostgreSQL container.
// ---------------------------------------------------------------------------

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	// 1. Database and reference data.
	dsn := testhelper.DSN(t)
	pool := testhelper.SetupTestDB(t)

	homeHost := testhelper.SeedHostLms(t, pool)
	supHost := testhelper.SeedHostLms(t, pool)
	pickHost := testhelper.SeedHostLms(t, pool)
	homeAgency := testhelper.SeedAgency(t, pool, homeHost.Code, 5)
	supAgency := testhelper.SeedAgency(t, pool, supHost.Code, 1)
	pickAgency := testhelper.SeedAgency(t, pool, pickHost.Code, 5)

	ts := &testServer{
		Pool:       pool,
		homePickup: testhelper.SeedLocation(t, pool, homeHost.Code, &homeAgency.Code),
		pickPickup: testhelper.SeedLocation(t, pool, pickHost.Code, &pickAgency.Code),
	}
	var bibs []domain.BibRecord
	ts.cluster, bibs = testhelper.SeedCluster(t, pool, supHost.Code)
	ts.bib = bibs[0]

	// 2. Mappings.
	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, &slog.HandlerOptions{Level: slog.LevelWarn}))
	mapper := mapping.NewService(logger, mappingrepo.New(pool))
	require.NoError(t, mapper.AddNumericRange(ctx, domain.NumericRangeMapping{
		Context: homeHost.Code, Domain: domain.CategoryPatronType, LowerBound: 10, UpperBound: 19, MappedValue: "ADULT",
	}))
	for _, m := range []domain.ReferenceValueMapping{
		{FromCategory: domain.CategoryPatronType, FromContext: domain.CanonicalContext, FromValue: "ADULT", ToCategory: domain.CategoryPatronType, ToContext: supHost.Code, ToValue: "20"},
		{FromCategory: domain.CategoryPatronType, FromContext: domain.CanonicalContext, FromValue: "ADULT", ToCategory: domain.CategoryPatronType, ToContext: pickHost.Code, ToValue: "30"},
		{FromCategory: domain.CategoryLocation, FromContext: homeHost.Code, FromValue: "MAIN", ToCategory: domain.CategoryAgency, ToContext: domain.CanonicalContext, ToValue: homeAgency.Code},
		{FromCategory: domain.CategoryLocation, FromContext: homeHost.Code, FromValue: "STACKS", ToCategory: domain.CategoryAgency, ToContext: domain.CanonicalContext, ToValue: homeAgency.Code},
		{FromCategory: domain.CategoryLocation, FromContext: supHost.Code, FromValue: "SHELF", ToCategory: domain.CategoryAgency, ToContext: domain.CanonicalContext, ToValue: supAgency.Code},
		{FromCategory: domain.CategoryItemType, FromContext: homeHost.Code, FromValue: "BOOK", ToCategory: domain.CategoryItemType, ToContext: domain.CanonicalContext, ToValue: "CIRC"},
		{FromCategory: domain.CategoryItemType, FromContext: supHost.Code, FromValue: "BOOK", ToCategory: domain.CategoryItemType, ToContext: domain.CanonicalContext, ToValue: "CIRC"},
	} {
		require.NoError(t, mapper.AddReferenceValue(ctx, m))
	}

	// 3. Application container.
	cfg := &config.Config{
		Database: config.DatabaseConfig{DSN: dsn, MaxConns: 5, MinConns: 1, MaxConnLifetime: time.Hour, MaxConnIdleTime: time.Minute},
		Auth:     config.AuthConfig{JWTSecret: "test-secret-at-least-32-chars-long!!", JWTIssuer: "test-issuer", AccessTokenTTL: 15 * time.Minute},
		Tracking: config.TrackingConfig{
			LockName:    "e2e-" + uuid.NewString()[:8],
			LockTTL:     time.Minute,
			LockBackend: config.LockBackendPostgres,
			MaxSteps:    20,
			Concurrency: 2,
			PageSize:    50,
		},
		Preflight: config.PreflightConfig{
			PickupLocation:         true,
			PickupLocationToAgency: true,
			DuplicateRequest:       true,
			DuplicateWindow:        15 * time.Minute,
			Patron:                 true,
			ResolutionDryRun:       true,
		},
		Features: config.FeaturesConfig{MaxMessageLength: 255},
		ILS:      config.ILSConfig{Timeout: 5 * time.Second, RequestsPerSecond: 50, Burst: 10, BreakerFailures: 5, BreakerOpenTimeout: time.Second},
	}

	c, err := app.Build(ctx, cfg, logger)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	ts.home = dummyClient(t, c.Registry, homeHost.Code)
	ts.sup = dummyClient(t, c.Registry, supHost.Code)
	ts.pick = dummyClient(t, c.Registry, pickHost.Code)
	ts.home.AddPatron(ils.Patron{LocalID: "p1", LocalPatronType: "15", LocalBarcode: "BC-P1", LocalHomeLibraryCode: "MAIN"})

	// 4. Router.
	ts.jwt = authpkg.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
	handler := rest.NewRouter(rest.RouterConfig{
		Logger:   logger,
		Health:   rest.NewHealthHandler("test-version", rest.Component{Name: "database", Pinger: c.Pool}),
		Requests: rest.NewPatronRequestHandler(c.Requests, logger),
		Tracking: rest.NewTrackingHandler(c.Tracking, logger),
		Admin:    rest.NewAdminHandler(c.Requests, logger),
		Auth:     middleware.Auth(ts.jwt),
	})

	// 5. httptest server.
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	ts.URL = srv.URL
	ts.Client = srv.Client()

	return ts
}

func dummyClient(t *testing.T, registry *ils.Registry, code string) *dummy.Client {
	t.Helper()
	client, err := registry.Lookup(code)
	require.NoError(t, err)
	d, ok := client.(*dummy.Client)
	require.True(t, ok, "host %s is not a dummy client", code)
	return d
}

// ---------------------------------------------------------------------------
// Request helpers
// ---------------------------------------------------------------------------

func (ts *testServer) token(t *testing.T, role string) string {
	t.Helper()
	tok, err := ts.jwt.GenerateAccessToken(uuid.New(), role)
	require.NoError(t, err)
	return tok
}

// restRequest sends a JSON request and returns the status and raw body.
func (ts *testServer) restRequest(t *testing.T, method, path string, body any, token string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decodeJSON[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), "response body %s", raw)
	return v
}

// placeBody is the place payload for patron p1 at HOME.
func (ts *testServer) placeBody(pickup domain.Location) map[string]any {
	return map[string]any{
		"requestor": map[string]any{
			"localId":         "p1",
			"localSystemCode": ts.home.HostLms().Code,
			"homeLibraryCode": "MAIN",
		},
		"citation": map[string]any{
			"bibClusterId": ts.cluster.ID.String(),
		},
		"pickupLocation": map[string]any{
			"code":    pickup.Code,
			"context": pickup.HostLmsCode,
		},
	}
}

func (ts *testServer) addSupplierItem(status string) {
	ts.sup.AddItem(ts.bib.SourceRecordID, ils.Item{
		LocalID: "i-1", Barcode: "BC-I1", LocationCode: "SHELF", LocalItemType: "BOOK", Status: status,
	})
}

// place submits a request and returns its decoded body.
func (ts *testServer) place(t *testing.T, token string, pickup domain.Location) map[string]any {
	t.Helper()
	status, raw := ts.restRequest(t, http.MethodPost, "/patrons/requests/place", ts.placeBody(pickup), token)
	require.Equal(t, http.StatusOK, status, "place: %s", raw)
	return decodeJSON[map[string]any](t, raw)
}

func (ts *testServer) get(t *testing.T, token, id string) map[string]any {
	t.Helper()
	status, raw := ts.restRequest(t, http.MethodGet, fmt.Sprintf("/patrons/requests/%s", id), nil, token)
	require.Equal(t, http.StatusOK, status, "get: %s", raw)
	return decodeJSON[map[string]any](t, raw)
}
