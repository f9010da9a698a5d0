package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/canebill/internal/auth"
	"github.com/mamadbah2/canebill/internal/repository/memory"
	"github.com/mamadbah2/canebill/internal/server/handlers"
	"github.com/mamadbah2/canebill/internal/server/middleware"
	"github.com/mamadbah2/canebill/internal/service/activity"
	"github.com/mamadbah2/canebill/internal/service/billing"
	"github.com/mamadbah2/canebill/internal/service/farmers"
	"github.com/mamadbah2/canebill/internal/service/pricing"
	"github.com/mamadbah2/canebill/internal/service/reporting"
	"github.com/mamadbah2/canebill/internal/service/settings"
	"github.com/mamadbah2/canebill/internal/service/sharing"
	"github.com/mamadbah2/canebill/internal/service/users"
)

type testServer struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, handlers.RegisterValidators())

	store := memory.NewStore()
	tokens := auth.NewTokenManager("test-secret", "canebill", time.Hour)
	audit := activity.NewService(store.Activity, 72*time.Hour, nil)
	userSvc := users.NewService(store.Users, tokens, users.SeedConfig{
		AdminPassword:     "admin-pw",
		RootPassword:      "root-pw",
		SuperRootUsername: "Phat",
		SuperRootPassword: "phat-pw",
	}, audit, nil)
	require.NoError(t, userSvc.EnsureSuperRoot(context.Background()))

	priceSvc := pricing.NewService(store.Prices, store.Settings, nil, audit, nil)
	farmerSvc := farmers.NewService(store.Farmers, audit, nil)
	billSvc := billing.NewService(store.Bills, priceSvc.Resolver(), farmerSvc, nil, audit, nil)

	metrics, err := middleware.NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	engine := New(Handlers{
		Auth:     handlers.NewAuthHandler(userSvc, nil),
		Users:    handlers.NewUserHandler(userSvc, nil),
		Bills:    handlers.NewBillHandler(billSvc, nil),
		Farmers:  handlers.NewFarmerHandler(farmerSvc, nil),
		Prices:   handlers.NewPriceHandler(priceSvc, nil),
		Settings: handlers.NewSettingsHandler(settings.NewService(store.Settings, priceSvc, audit, nil), nil),
		Shares:   handlers.NewShareHandler(sharing.NewService(store.Shares, billSvc, audit, nil), nil),
		Activity: handlers.NewActivityHandler(audit, nil),
		Reports:  handlers.NewReportHandler(reporting.NewService(billSvc, reporting.Options{}, nil), nil),
	}, tokens, Options{Metrics: metrics}, nil)

	return testServer{t: t, engine: engine}
}

func (s testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s testServer) login(username, password string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": username, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &session))
	return session.Token
}

func (s testServer) seed() {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/seed", "", nil)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

var sampleBill = gin.H{
	"billNumber":    "1001",
	"ownerName":     "Somchai",
	"licensePlate":  "80-1234",
	"date":          "2024-07-01",
	"sugarcaneType": 2,
	"weight":        10,
	"fuelCost":      50,
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "canebill_http_requests_total")
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	s.seed()

	w := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	token := s.login("admin", "admin-pw")
	w = s.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[map[string]any](t, w)
	assert.Equal(t, "admin", me["username"])
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBillLifecycle(t *testing.T) {
	s := newTestServer(t)
	s.seed()
	admin := s.login("admin", "admin-pw")
	root := s.login("root", "root-pw")

	w := s.do(http.MethodPost, "/api/bills", admin, sampleBill)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	bill := decode[map[string]any](t, w)
	assert.Equal(t, 1000.0, bill["pricePerUnit"])
	assert.Equal(t, 9950.0, bill["netAmount"])
	id := bill["id"].(string)

	w = s.do(http.MethodPost, "/api/bills", admin, sampleBill)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/api/bills/check-duplicate/1001", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"exists":true}`, w.Body.String())

	w = s.do(http.MethodPut, "/api/bills/"+id, admin, gin.H{"weight": 20})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"forbidden","code":"ERR_FORBIDDEN"}`, w.Body.String())

	w = s.do(http.MethodPut, "/api/bills/"+id, root, gin.H{"weight": 20})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 19950.0, decode[map[string]any](t, w)["netAmount"])

	w = s.do(http.MethodGet, "/api/bills?owner=Somchai&from=2024-07-01&to=2024-07-01", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = s.do(http.MethodGet, "/api/farmers", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "80-1234")

	w = s.do(http.MethodDelete, "/api/bills/"+id, root, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodDelete, "/api/bills/"+id, root, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(http.MethodDelete, "/api/bills/not-an-id", root, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateBillValidation(t *testing.T) {
	s := newTestServer(t)
	s.seed()
	admin := s.login("admin", "admin-pw")

	cases := map[string]func(gin.H){
		"unknown type":   func(b gin.H) { b["sugarcaneType"] = 9 },
		"missing weight": func(b gin.H) { delete(b, "weight") },
		"negative fuel":  func(b gin.H) { b["fuelCost"] = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			body := gin.H{}
			for k, v := range sampleBill {
				body[k] = v
			}
			mutate(body)
			w := s.do(http.MethodPost, "/api/bills", admin, body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	w := s.do(http.MethodGet, "/api/bills", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]map[string]any](t, w))
}

func TestPricesAndSettings(t *testing.T) {
	s := newTestServer(t)
	s.seed()
	admin := s.login("admin", "admin-pw")
	root := s.login("root", "root-pw")

	entry := gin.H{"effectiveDate": "2024-01-01", "freshPrice": 1300, "burntPrice": 1100, "longTopPrice": 1200}
	w := s.do(http.MethodPost, "/api/prices", admin, entry)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[map[string]any](t, w)["id"].(string)

	entry["freshPrice"] = 1350
	w = s.do(http.MethodPost, "/api/prices", admin, entry)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/price-check?date=2024-03-01", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	check := decode[map[string]any](t, w)
	assert.Equal(t, 1350.0, check["entry"].(map[string]any)["freshPrice"])

	w = s.do(http.MethodPut, "/api/settings", admin, gin.H{"quotas": []string{"Q1", "Q2"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(http.MethodGet, "/api/settings", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Q2")

	w = s.do(http.MethodDelete, "/api/prices/"+id, admin, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(http.MethodDelete, "/api/prices/"+id, root, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestShareLinks(t *testing.T) {
	s := newTestServer(t)
	s.seed()
	admin := s.login("admin", "admin-pw")
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/bills", admin, sampleBill).Code)

	w := s.do(http.MethodPost, "/api/share", "", gin.H{"duration": "24"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/share", admin, gin.H{"duration": "soon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/share", admin, gin.H{"duration": "forever"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token := decode[map[string]any](t, w)["token"].(string)

	w = s.do(http.MethodGet, "/api/share/"+token, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid":true}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/share/"+token+"/bills", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = s.do(http.MethodGet, "/api/share/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"valid":false,"error":"Link not found"}`, w.Body.String())
}

func TestExportsAndStats(t *testing.T) {
	s := newTestServer(t)
	s.seed()
	admin := s.login("admin", "admin-pw")
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/bills", admin, sampleBill).Code)

	w := s.do(http.MethodGet, "/api/stats", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[map[string]any](t, w)
	assert.Equal(t, 1.0, stats["billCount"])
	assert.Equal(t, 1.0, stats["burntCount"])

	w = s.do(http.MethodGet, "/api/bills/export.csv", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	assert.Contains(t, w.Body.String(), "1001")

	w = s.do(http.MethodGet, "/api/bills/export.pdf", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF-"))
}

func TestUsersAndActivity(t *testing.T) {
	s := newTestServer(t)
	s.seed()
	admin := s.login("admin", "admin-pw")
	root := s.login("root", "root-pw")
	phat := s.login("Phat", "phat-pw")

	w := s.do(http.MethodGet, "/api/users", admin, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/users", root, gin.H{"username": "clerk", "password": "pw", "role": "admin"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	clerkID := decode[map[string]any](t, w)["id"].(string)

	w = s.do(http.MethodPost, "/api/users", root, gin.H{"username": "boss", "password": "pw", "role": "root"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/users", phat, gin.H{"username": "boss", "password": "pw", "role": "root"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = s.do(http.MethodPost, "/api/users", root, gin.H{"username": "x", "password": "pw", "role": "owner"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/api/users/"+clerkID, root, gin.H{"username": "clerk2"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "clerk2", decode[map[string]any](t, w)["username"])

	w = s.do(http.MethodDelete, "/api/users/"+clerkID, root, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/activity-logs?search=clerk", root, nil)
	require.Equal(t, http.StatusOK, w.Code)
	logs := decode[[]map[string]any](t, w)
	assert.NotEmpty(t, logs)

	w = s.do(http.MethodDelete, "/api/activity-logs/prune", root, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"removed":0}`, w.Body.String())
}
