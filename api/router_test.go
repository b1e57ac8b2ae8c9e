package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/api/health"
	"storefront/api/order"
	"storefront/api/payment"
	"storefront/api/response"
	apiuser "storefront/api/user"
	orderapp "storefront/application/order"
	paymentapp "storefront/application/payment"
	userapp "storefront/application/user"
	"storefront/config"
	"storefront/domain/catalog"
	paymentdomain "storefront/domain/payment"
	"storefront/domain/shared"
	"storefront/domain/user"
	"storefront/infrastructure/persistence/memory"
	"storefront/infrastructure/persistence/retry"
	apperrors "storefront/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	jwtSecret     = "test-jwt-secret"
	paymentSecret = "test-razorpay-secret"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	engine   *gin.Engine
	verifier *paymentdomain.SignatureVerifier
	catalog  *memory.Catalog
}

func newTestServer(t *testing.T, ping health.Pinger) *testServer {
	t.Helper()

	cfg := &config.Config{
		App:      config.AppConfig{Name: "storefront", Version: "test", Env: "test"},
		Database: config.DatabaseConfig{Type: "memory"},
		Auth:     config.AuthConfig{JWTSecret: jwtSecret},
		CORS: config.CORSConfig{
			AllowOrigins: []string{"http://localhost:3000"},
			AllowMethods: []string{"GET", "POST", "PUT"},
			AllowHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:       600,
		},
	}

	verifier, err := paymentdomain.NewSignatureVerifier(paymentSecret)
	require.NoError(t, err)

	products := memory.NewCatalog(catalog.Product{ID: "prod-tshirt", Name: "T-Shirt", Price: *shared.NewMoney(49900, "INR"), Stock: 5})
	orders := memory.NewOrderRepository()
	users := memory.NewUserRepository()
	uow := memory.NewUnitOfWorkFactory(memory.NewOutboxStore(), retry.Config{})
	access := user.NewAccessPolicy(users)

	orderService := orderapp.NewApplicationService(orderapp.Dependencies{
		Orders:     orders,
		Catalog:    products,
		UnitOfWork: uow,
		Access:     access,
		Verifier:   verifier,
		Currency:   "INR",
	})
	paymentService := paymentapp.NewApplicationService(nil, verifier, orders, uow, "", "INR")

	userService := userapp.NewApplicationService(users, access, uow)

	router := NewRouter(cfg,
		health.NewController(cfg, health.Database(ping)),
		order.NewController(orderService),
		payment.NewController(paymentService),
		apiuser.NewController(userService),
	)
	router.SetupRoutes()
	return &testServer{engine: router.GetEngine(), verifier: verifier, catalog: products}
}

func token(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return signed
}

func bearer(t *testing.T, id, role string) string {
	claims := jwt.MapClaims{"id": id, "exp": time.Now().Add(time.Hour).Unix()}
	if role != "" {
		claims["role"] = role
	}
	return "Bearer " + token(t, claims)
}

type envelope struct {
	response.Response
	Data json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path, auth string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	return rec.Code, env
}

func orderBody() map[string]any {
	return map[string]any{
		"items": []map[string]any{{"product": "prod-tshirt", "quantity": 2}},
		"shippingAddress": map[string]any{
			"fullName": "Asha Rao", "address": "12 MG Road", "city": "Bengaluru", "postalCode": "560001", "country": "IN",
		},
		"shipping":      map[string]any{"method": "standard", "shippingCost": 40},
		"paymentMethod": "cod",
	}
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t, nil)

	wrongKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "u1"}).SignedString([]byte("other"))
	require.NoError(t, err)
	expired := token(t, jwt.MapClaims{"id": "u1", "exp": time.Now().Add(-time.Hour).Unix()})

	tests := []struct {
		name    string
		header  string
		message string
	}{
		{"missing header", "", "No auth token, access denied"},
		{"wrong scheme", "Basic abc", "Invalid authorization header format"},
		{"empty token", "Bearer ", "Invalid authorization header format"},
		{"garbage", "Bearer not-a-jwt", "Token verification failed, access denied"},
		{"wrong key", "Bearer " + wrongKey, "Token verification failed, access denied"},
		{"expired", "Bearer " + expired, "Token verification failed, access denied"},
		{"no id", "Bearer " + token(t, jwt.MapClaims{"role": "admin"}), "User ID not found in token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do(t, http.MethodGet, "/api/v1/orders/user", tt.header, nil)
			assert.Equal(t, http.StatusUnauthorized, code)
			assert.False(t, env.Success)
			assert.Equal(t, "UNAUTHORIZED", env.Error)
			assert.Equal(t, tt.message, env.Message)
		})
	}

	code, env := s.do(t, http.MethodGet, "/api/v1/orders/user", bearer(t, "u1", ""), nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	owner := bearer(t, "user-1", "user")
	admin := bearer(t, "admin-1", "admin")

	code, env := s.do(t, http.MethodPost, "/api/v1/orders", owner, orderBody())
	require.Equal(t, http.StatusCreated, code, env.Message)
	assert.Equal(t, "Order created successfully", env.Message)

	var created orderapp.OrderResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "1038", created.GrandTotal.String())
	base := "/api/v1/orders/" + created.ID

	code, env = s.do(t, http.MethodPut, base+"/status", owner, map[string]any{"status": "shipped"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", env.Error)

	code, env = s.do(t, http.MethodPut, base+"/status", admin, map[string]any{"status": "teleported"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error)

	code, _ = s.do(t, http.MethodPut, base+"/status", admin, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodPut, base+"/status", admin, map[string]any{"status": "delivered", "note": "signed by guard"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Order status updated successfully", env.Message)

	code, env = s.do(t, http.MethodPost, base+"/cancel", owner, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "INVALID_ORDER_STATE", env.Error)

	code, env = s.do(t, http.MethodGet, base+"/history", owner, nil)
	require.Equal(t, http.StatusOK, code)
	var history []orderapp.HistoryEntry
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 2)
	assert.Equal(t, "Delivered", history[0].Title)
	assert.Equal(t, "signed by guard", history[0].Description)

	code, _ = s.do(t, http.MethodGet, base+"/tracking", bearer(t, "user-2", ""), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(t, http.MethodPost, base+"/return", owner, map[string]any{"reason": "wrong size"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Return request submitted successfully", env.Message)

	code, env = s.do(t, http.MethodPut, base+"/refund", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Refund processed successfully", env.Message)

	code, env = s.do(t, http.MethodPut, base+"/refund", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "NO_PENDING_REFUND", env.Error)

	code, env = s.do(t, http.MethodGet, "/api/v1/orders?page=1&limit=5", admin, nil)
	require.Equal(t, http.StatusOK, code)
	var listing orderapp.ListOrdersResponse
	require.NoError(t, json.Unmarshal(env.Data, &listing))
	assert.EqualValues(t, 1, listing.Pagination.TotalOrders)
}

func TestOrderErrorsOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	owner := bearer(t, "user-1", "")

	body := orderBody()
	body["items"] = []map[string]any{{"product": "prod-tshirt", "quantity": 6}}
	code, env := s.do(t, http.MethodPost, "/api/v1/orders", owner, body)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "OUT_OF_STOCK", env.Error)
	assert.Equal(t, "Insufficient stock for T-Shirt", env.Message)

	body["items"] = []map[string]any{{"product": "prod-missing", "quantity": 1}}
	code, env = s.do(t, http.MethodPost, "/api/v1/orders", owner, body)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "PRODUCT_NOT_FOUND", env.Error)

	body["items"] = []map[string]any{}
	code, env = s.do(t, http.MethodPost, "/api/v1/orders", owner, body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "BAD_REQUEST", env.Error)
	assert.Equal(t, []apperrors.FieldError{{Field: "items", Reason: "min=1"}}, env.Details)

	code, env = s.do(t, http.MethodGet, "/api/v1/orders/does-not-exist/tracking", owner, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "ORDER_NOT_FOUND", env.Error)

	code, _ = s.do(t, http.MethodGet, "/api/v1/orders/user?userId=someone-else", owner, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/orders", owner, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestPaymentRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	auth := bearer(t, "user-1", "")

	code, env := s.do(t, http.MethodPost, "/api/v1/payment/verify-signature", auth, map[string]any{
		"razorpay_order_id":   "order_1",
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  s.verifier.Sign("order_1", "pay_1"),
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Payment verified successfully", env.Message)

	code, env = s.do(t, http.MethodPost, "/api/v1/payment/verify-signature", auth, map[string]any{
		"razorpay_order_id":   "order_1",
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  "deadbeef",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "SIGNATURE_INVALID", env.Error)

	// no gateway key configured
	code, env = s.do(t, http.MethodPost, "/api/v1/payment/create-order", auth, map[string]any{"amount": 499})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", env.Error)
}

func TestUserProfileRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	customer := bearer(t, "user-1", "")
	admin := bearer(t, "admin-1", "admin")

	code, env := s.do(t, http.MethodGet, "/api/v1/users/me", customer, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", env.Error)

	code, env = s.do(t, http.MethodPut, "/api/v1/users/me", customer, map[string]any{"name": "Asha Rao", "email": "asha@example.com"})
	require.Equal(t, http.StatusOK, code, env.Message)
	var profile userapp.ProfileResponse
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "user-1", profile.ID)
	assert.Equal(t, "user", profile.Role)
	assert.True(t, profile.IsActive)

	code, env = s.do(t, http.MethodGet, "/api/v1/users/me", customer, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "asha@example.com", profile.Email)

	code, env = s.do(t, http.MethodPut, "/api/v1/users/me", bearer(t, "user-2", ""), map[string]any{"name": "Ravi", "email": "asha@example.com"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "CONFLICT", env.Error)

	code, env = s.do(t, http.MethodPut, "/api/v1/users/me", customer, map[string]any{"name": "Asha", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "BAD_REQUEST", env.Error)
	assert.Equal(t, []apperrors.FieldError{{Field: "email", Reason: "email"}}, env.Details)

	// 非管理员不能授权
	code, _ = s.do(t, http.MethodPut, "/api/v1/users/user-1/admin", customer, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(t, http.MethodPut, "/api/v1/users/user-1/admin", admin, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "admin", profile.Role)

	// stored role grants admin listings even with a customer token
	code, _ = s.do(t, http.MethodGet, "/api/v1/orders", customer, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodPut, "/api/v1/users/user-1/status", admin, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodPut, "/api/v1/users/user-1/status", admin, map[string]any{"active": false})
	require.Equal(t, http.StatusOK, code, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.False(t, profile.IsActive)

	code, _ = s.do(t, http.MethodGet, "/api/v1/orders", customer, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(t, http.MethodPut, "/api/v1/users/nobody/admin", admin, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", env.Error)
}

func TestHealthRoutes(t *testing.T) {
	healthy := newTestServer(t, func(context.Context) error { return nil })
	code, _ := healthy.do(t, http.MethodGet, "/api/v1/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, code)

	rec := httptest.NewRecorder()
	healthy.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var report health.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "healthy", report.Status)
	assert.Equal(t, "memory", report.Backend)
	assert.Equal(t, "healthy", report.Checks["database"].Status)
	assert.Nil(t, report.System)

	down := newTestServer(t, func(context.Context) error { return errors.New("dial tcp: refused") })
	rec = httptest.NewRecorder()
	down.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "refused")

	code, _ = down.do(t, http.MethodGet, "/api/v1/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/orders", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/orders", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoutesUseEnvelope(t *testing.T) {
	s := newTestServer(t, nil)

	code, env := s.do(t, http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", env.Error)
	assert.NotEmpty(t, env.RequestID)

	code, env = s.do(t, http.MethodDelete, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, code)
	assert.False(t, env.Success)
}
