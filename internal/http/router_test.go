package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/rentald/internal/config"
	"github.com/tbourn/rentald/internal/datecache"
	"github.com/tbourn/rentald/internal/http/handlers"
	"github.com/tbourn/rentald/internal/http/middleware"
	"github.com/tbourn/rentald/internal/repo"
	"github.com/tbourn/rentald/internal/services"
)

const (
	testContract = "0x00000000000000000000000000000000000c0a7c"
	testOwner    = "0x00000000000000000000000000000000000000aa"
	testOracle   = "0x0000000000000000000000000000000000000aac"
	testToken    = "0x00000000000000000000000000000000000001c4"
	testJob      = "0x3864393964306461373930323461363062663532393236656466343135346339"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) *services.RentalService {
	t.Helper()
	cache, err := datecache.New(db, 0)
	if err != nil {
		t.Fatalf("datecache: %v", err)
	}
	t.Cleanup(cache.Close)
	svc, err := services.NewRentalService(context.Background(), db, cache, nil, nil, services.Options{
		Address:     testContract,
		Owner:       testOwner,
		FeeToken:    testToken,
		Oracle:      testOracle,
		Responders:  []string{testOracle},
		JobID:       testJob,
		Fee:         decimal.New(1, 17),
		RequestTTL:  time.Minute,
		InitialRent: decimal.New(1, 16),
	})
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return svc
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath: "/api/v1",
		RateRPS:     100,
		RateBurst:   10,
		LogRedact:   true,
		OTEL:        config.OTELConfig{ServiceName: "rentald-test"},
	}
}

// serve runs one request through h and returns the recorder.
func serve(h http.Handler, method, path string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_Surface(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newTestService(t, newTestDB(t)), testConfig())

	cases := []struct {
		name, method, path string
		want               int
	}{
		{"health", http.MethodGet, "/health", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK},
		{"unknown route", http.MethodGet, "/api/v1/leases", http.StatusNotFound},
		{"wrong method", http.MethodDelete, "/api/v1/rent", http.StatusMethodNotAllowed},
		{"rent", http.MethodGet, "/api/v1/rent", http.StatusOK},
		{"unknown request", http.MethodGet, "/api/v1/requests/0x" + strings.Repeat("0", 64), http.StatusNotFound},
	}
	for _, tc := range cases {
		w := serve(r, tc.method, tc.path, nil, nil)
		if w.Code != tc.want {
			t.Errorf("%s: %s %s = %d, want %d", tc.name, tc.method, tc.path, w.Code, tc.want)
		}
		if tc.path == "/health" && w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("allow-all CORS missing on /health")
		}
		if w.Header().Get("X-Request-ID") == "" {
			t.Errorf("%s: no request id", tc.name)
		}
		// /metrics is mounted ahead of the API middleware
		if tc.path != "/metrics" && w.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("%s: security headers missing: %v", tc.name, w.Header())
		}
	}

	if cc := serve(r, http.MethodGet, "/api/v1/rent", nil, nil).Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("rent Cache-Control = %q", cc)
	}
	if cc := serve(r, http.MethodGet, "/api/v1/events", nil, nil).Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("events Cache-Control = %q", cc)
	}
}

func TestRegisterRoutes_CORSAllowList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.APIBasePath = "/api/v2"
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"https://tenant.example"}}
	r := gin.New()
	RegisterRoutes(r, newTestService(t, newTestDB(t)), cfg)

	w := serve(r, http.MethodGet, "/api/v2/rent", nil, map[string]string{"Origin": "https://tenant.example"})
	if w.Code != http.StatusOK || w.Header().Get("Access-Control-Allow-Origin") != "https://tenant.example" {
		t.Fatalf("allowed origin: %d %v", w.Code, w.Header())
	}
	if !strings.Contains(w.Header().Get("Access-Control-Expose-Headers"), "Rent-Payment") {
		t.Fatalf("contract headers not exposed: %q", w.Header().Get("Access-Control-Expose-Headers"))
	}
	w = serve(r, http.MethodGet, "/api/v2/rent", nil, map[string]string{"Origin": "https://evil.example"})
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("foreign origin echoed: %v", w.Header())
	}
}

func TestLimitBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(16))
	r.POST("/funding", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusNoContent)
	})

	if w := serve(r, http.MethodPost, "/funding", strings.NewReader(`{"asset":"ETH"}`), nil); w.Code != http.StatusNoContent {
		t.Fatalf("small body = %d", w.Code)
	}
	if w := serve(r, http.MethodPost, "/funding", strings.NewReader(`{"asset":"ETH","amount":"1"}`), nil); w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("large body = %d", w.Code)
	}
}

func TestGroupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for prefix, path := range map[string]string{"": "/rent", "/": "/rent", "/api/v1": "/api/v1/rent"} {
		r := gin.New()
		groupWithPrefix(r, prefix).GET("/rent", func(c *gin.Context) { c.Status(http.StatusOK) })
		if w := serve(r, http.MethodGet, path, nil, nil); w.Code != http.StatusOK {
			t.Errorf("prefix %q: GET %s = %d", prefix, path, w.Code)
		}
	}
}

func TestRegisterRoutes_HSTSAndPlainLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.LogRedact = false
	cfg.Security = config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: time.Hour}
	r := gin.New()
	RegisterRoutes(r, newTestService(t, newTestDB(t)), cfg)

	w := serve(r, http.MethodGet, "/health", nil, map[string]string{"X-Forwarded-Proto": "https"})
	if w.Code != http.StatusOK || w.Header().Get("Strict-Transport-Security") != "max-age=3600; includeSubDomains; preload" {
		t.Fatalf("HSTS over https: %d %v", w.Code, w.Header())
	}
	if w := serve(r, http.MethodGet, "/health", nil, nil); w.Header().Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS over http: %v", w.Header())
	}
}

func TestRegisterRoutes_ContractFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newTestService(t, newTestDB(t)), testConfig())

	send := func(method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
		h := map[string]string{"Content-Type": "application/json"}
		for k, v := range hdr {
			h[k] = v
		}
		return serve(r, method, path, strings.NewReader(body), h)
	}
	owner := map[string]string{middleware.HeaderAccount: testOwner}

	for _, body := range []string{`{"asset":"ETH","amount":"1000000000000000000"}`, `{"asset":"LINK","amount":"1000000000000000000"}`} {
		if w := send(http.MethodPost, "/api/v1/funding", body, owner); w.Code != http.StatusNoContent {
			t.Fatalf("funding = %d %s", w.Code, w.Body.String())
		}
	}

	// the rent is owner-gated
	if w := send(http.MethodPut, "/api/v1/rent", `{"amount":"2000000"}`, map[string]string{middleware.HeaderAccount: testOracle}); w.Code != http.StatusForbidden {
		t.Fatalf("non-owner PUT /rent = %d", w.Code)
	}
	if w := send(http.MethodPut, "/api/v1/rent", `{"amount":"2000000"}`, owner); w.Code != http.StatusNoContent {
		t.Fatalf("owner PUT /rent = %d", w.Code)
	}
	w := send(http.MethodGet, "/api/v1/rent", "", nil)
	var rent handlers.RentResponse
	if err := json.Unmarshal(w.Body.Bytes(), &rent); err != nil || rent.Amount != "2000000" {
		t.Fatalf("GET /rent = %s (%v)", w.Body.String(), err)
	}

	// malformed account header is rejected before reaching handlers
	if w := send(http.MethodGet, "/api/v1/rent", "", map[string]string{middleware.HeaderAccount: "bob"}); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed account = %d", w.Code)
	}

	// idempotent check: same key, one fee
	idem := map[string]string{middleware.HeaderAccount: testOwner, middleware.HeaderIdempotencyKey: "chk-1"}
	w1 := send(http.MethodPost, "/api/v1/checks", `{"date":"2019-01-02","region":"AU-QLD"}`, idem)
	w2 := send(http.MethodPost, "/api/v1/checks", `{"date":"2019-01-02","region":"AU-QLD"}`, idem)
	if w1.Code != http.StatusAccepted || w2.Code != http.StatusAccepted {
		t.Fatalf("checks = %d / %d", w1.Code, w2.Code)
	}
	if w2.Header().Get("Idempotency-Replayed") != "true" || w1.Body.String() != w2.Body.String() {
		t.Fatalf("replay mismatch: %q vs %q", w1.Body.String(), w2.Body.String())
	}
	var chk handlers.RequestDateCheckResponse
	if err := json.Unmarshal(w1.Body.Bytes(), &chk); err != nil {
		t.Fatal(err)
	}

	w = send(http.MethodPost, "/api/v1/oracle/fulfillments",
		fmt.Sprintf(`{"request_id":%q,"data":"1"}`, chk.RequestID),
		map[string]string{middleware.HeaderAccount: testOracle})
	if w.Code != http.StatusNoContent || w.Header().Get("Rent-Payment") != "paid" {
		t.Fatalf("fulfill = %d %q %s", w.Code, w.Header().Get("Rent-Payment"), w.Body.String())
	}

	w = send(http.MethodGet, "/api/v1/balances", "", nil)
	var bals handlers.BalancesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &bals); err != nil {
		t.Fatal(err)
	}
	got := map[string]string{}
	for _, b := range bals.Balances {
		got[string(b.Asset)] = b.Amount.String()
	}
	// one fee spent despite the retried check, and 2000000 wei of rent
	if got["LINK"] != "900000000000000000" || got["ETH"] != "999999999998000000" {
		t.Fatalf("balances = %v", got)
	}

	// events ETag round trip
	w = send(http.MethodGet, "/api/v1/events", "", nil)
	etag := w.Header().Get("ETag")
	if w.Code != http.StatusOK || etag == "" {
		t.Fatalf("events = %d etag=%q", w.Code, etag)
	}
	if w := send(http.MethodGet, "/api/v1/events", "", map[string]string{"If-None-Match": etag}); w.Code != http.StatusNotModified {
		t.Fatalf("events 304 = %d", w.Code)
	}
}

func TestRegisterRoutes_SwaggerAndGzip(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	cfg.SwaggerEnabled = true
	r := gin.New()
	RegisterRoutes(r, newTestService(t, newTestDB(t)), cfg)

	w := serve(r, http.MethodGet, "/swagger/index.html", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("swagger enabled = %d", w.Code)
	}

	w = serve(r, http.MethodGet, "/health", nil, map[string]string{"Accept-Encoding": "gzip"})
	if got := w.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("Content-Encoding = %q", got)
	}

	off := gin.New()
	RegisterRoutes(off, newTestService(t, newTestDB(t)), testConfig())
	w = serve(off, http.MethodGet, "/swagger/index.html", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("swagger disabled = %d", w.Code)
	}
}
