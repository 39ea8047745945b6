package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/magicgame/topup-store/internal/app/handlers"
	"github.com/magicgame/topup-store/internal/domain/models"
	"github.com/magicgame/topup-store/internal/presence"
	"github.com/magicgame/topup-store/internal/security/jwtmiddleware"
	"github.com/magicgame/topup-store/internal/service"
	"github.com/magicgame/topup-store/internal/storage"
	"github.com/stretchr/testify/assert"
)

// fakeAuthService — фиктивная реализация для тестирования.
type fakeAuthService struct {
	token string
	err   error
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (string, error) {
	return f.token, f.err
}

// fakeOrderService — фиктивная реализация интерфейса OrderService
type fakeOrderService struct {
	createID  int64
	createErr error
	orders    []*models.Order
	listErr   error
	updateErr error
	deleteErr error
	audit     []*models.AuditEntry
	auditErr  error
}

func (f *fakeOrderService) Create(ctx context.Context, order *models.Order) (int64, error) {
	return f.createID, f.createErr
}

func (f *fakeOrderService) ListAll(ctx context.Context) ([]*models.Order, error) {
	return f.orders, f.listErr
}

func (f *fakeOrderService) ListByPubgID(ctx context.Context, pubgID string) ([]*models.Order, error) {
	return f.orders, f.listErr
}

func (f *fakeOrderService) UpdateStatus(ctx context.Context, id int64, newStatus, adminEmail string) error {
	return f.updateErr
}

func (f *fakeOrderService) Delete(ctx context.Context, id int64, adminEmail string) error {
	return f.deleteErr
}

func (f *fakeOrderService) AuditLog(ctx context.Context) ([]*models.AuditEntry, error) {
	return f.audit, f.auditErr
}

type fakeStatsService struct {
	resp *service.StatsResponse
	err  error
}

func (f *fakeStatsService) ComputeStats(ctx context.Context) (*service.StatsResponse, error) {
	return f.resp, f.err
}

type fakeBackupService struct {
	orders     []*models.Order
	exportErr  error
	info       *service.BackupInfo
	backupErr  error
	restored   []*models.Order
	restoreErr error
}

func (f *fakeBackupService) Export(ctx context.Context) ([]*models.Order, error) {
	return f.orders, f.exportErr
}

func (f *fakeBackupService) CreateBackup(ctx context.Context) (*service.BackupInfo, error) {
	return f.info, f.backupErr
}

func (f *fakeBackupService) Restore(ctx context.Context, orders []*models.Order) error {
	f.restored = orders
	return f.restoreErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// withAdmin кладёт принципала-администратора в контекст запроса,
// как это делает JWT middleware.
func withAdmin(req *http.Request) *http.Request {
	principal := jwtmiddleware.Principal{ID: 1, Email: "admin@magicgame.store", Role: models.RoleAdmin}
	return req.WithContext(context.WithValue(req.Context(), jwtmiddleware.PrincipalKey, principal))
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) string {
	var resp struct {
		Error string `json:"error"`
	}
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err)
	return resp.Error
}

func TestLoginHandler_Success(t *testing.T) {
	fakeSvc := &fakeAuthService{token: "test-token", err: nil}
	handler := handlers.LoginHandler(testLogger(), fakeSvc)

	reqBody := `{"email": "admin@magicgame.store", "password": "password123"}`
	req := httptest.NewRequest("POST", "/api/login", bytes.NewBufferString(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, "Expected status 200 OK")

	var resp struct {
		Token string `json:"token"`
	}
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err)
	assert.Equal(t, "test-token", resp.Token)
}

func TestLoginHandler_InvalidJSON(t *testing.T) {
	handler := handlers.LoginHandler(testLogger(), &fakeAuthService{})

	reqBody := `{"email": "admin@magicgame.store", "password":`
	req := httptest.NewRequest("POST", "/api/login", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Expected status 400 for invalid JSON")
}

func TestLoginHandler_ValidationError(t *testing.T) {
	handler := handlers.LoginHandler(testLogger(), &fakeAuthService{})

	reqBody := `{"email": "not-an-email", "password": "password123"}`
	req := httptest.NewRequest("POST", "/api/login", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Expected status 400 for validation error")
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	handler := handlers.LoginHandler(testLogger(), &fakeAuthService{err: service.ErrInvalidCredentials})

	reqBody := `{"email": "admin@magicgame.store", "password": "wrong"}`
	req := httptest.NewRequest("POST", "/api/login", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "Expected status 401 for bad credentials")
	assert.Equal(t, service.ErrInvalidCredentials.Error(), errorBody(t, rr))
}

func TestCreateOrderHandler_Success(t *testing.T) {
	handler := handlers.CreateOrderHandler(testLogger(), &fakeOrderService{createID: 1717243200000})

	reqBody := `{"pubgId":"12345678901","pseudo":"Zoro","pack":"660 UC","price":"8,000 Ar","paymentMethod":"MVola","reference":"MG123"}`
	req := httptest.NewRequest("POST", "/api/order", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusCreated, rr.Code, "Expected status 201 Created")

	var resp handlers.CreateOrderResponse
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, int64(1717243200000), resp.OrderID)
}

func TestCreateOrderHandler_MissingField(t *testing.T) {
	handler := handlers.CreateOrderHandler(testLogger(), &fakeOrderService{})

	// нет reference
	reqBody := `{"pubgId":"12345678901","pseudo":"Zoro","pack":"660 UC","price":"8,000 Ar"}`
	req := httptest.NewRequest("POST", "/api/order", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateOrderHandler_InvalidPubgID(t *testing.T) {
	handler := handlers.CreateOrderHandler(testLogger(), &fakeOrderService{createErr: service.ErrInvalidPubgID})

	reqBody := `{"pubgId":"12345","pseudo":"Zoro","pack":"660 UC","price":"8,000 Ar","reference":"MG123"}`
	req := httptest.NewRequest("POST", "/api/order", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUserOrdersHandler_EmptyOnStorageError(t *testing.T) {
	handler := handlers.UserOrdersHandler(testLogger(), &fakeOrderService{listErr: assert.AnError})

	router := chi.NewRouter()
	router.Get("/api/orders/user/{pubgId}", handler)

	req := httptest.NewRequest("GET", "/api/orders/user/12345678901", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	// История покупателя деградирует в пустой список, а не в 500
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestListOrdersHandler_Success(t *testing.T) {
	orders := []*models.Order{{
		ID: 1, Date: time.Now(), PubgID: "12345678901", Pseudo: "Zoro",
		Pack: "660 UC", Price: "8000 Ar", PaymentMethod: "MVola",
		Reference: "MG123", Status: models.StatusPending,
	}}
	handler := handlers.ListOrdersHandler(testLogger(), &fakeOrderService{orders: orders})

	req := httptest.NewRequest("GET", "/api/admin/orders", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got []*models.Order
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Len(t, got, 1)
	assert.Equal(t, "Zoro", got[0].Pseudo)
}

func updateStatusRequest(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := chi.NewRouter()
	router.Put("/api/admin/orders/{id}", handler)

	req := httptest.NewRequest("PUT", "/api/admin/orders/42", bytes.NewBufferString(body))
	req = withAdmin(req)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestUpdateStatusHandler_Success(t *testing.T) {
	handler := handlers.UpdateStatusHandler(testLogger(), &fakeOrderService{})
	rr := updateStatusRequest(t, handler, `{"status":"livré"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUpdateStatusHandler_NotFound(t *testing.T) {
	handler := handlers.UpdateStatusHandler(testLogger(), &fakeOrderService{updateErr: storage.ErrOrderNotFound})
	rr := updateStatusRequest(t, handler, `{"status":"livré"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdateStatusHandler_TerminalConflict(t *testing.T) {
	handler := handlers.UpdateStatusHandler(testLogger(), &fakeOrderService{updateErr: service.ErrOrderFinalized})
	rr := updateStatusRequest(t, handler, `{"status":"annulé"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestUpdateStatusHandler_UnknownStatus(t *testing.T) {
	handler := handlers.UpdateStatusHandler(testLogger(), &fakeOrderService{updateErr: service.ErrInvalidStatus})
	rr := updateStatusRequest(t, handler, `{"status":"shipped"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteOrderHandler_NotFound(t *testing.T) {
	handler := handlers.DeleteOrderHandler(testLogger(), &fakeOrderService{deleteErr: storage.ErrOrderNotFound})

	router := chi.NewRouter()
	router.Delete("/api/admin/orders/{id}", handler)

	req := withAdmin(httptest.NewRequest("DELETE", "/api/admin/orders/99", nil))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStatsHandler_Success(t *testing.T) {
	resp := &service.StatsResponse{
		TotalOrders:  1,
		TotalRevenue: 8000,
		StatusCount: map[string]int{
			models.StatusPending:   0,
			models.StatusDelivered: 1,
			models.StatusCancelled: 0,
		},
		LastOrders: []*models.Order{},
	}
	handler := handlers.StatsHandler(testLogger(), &fakeStatsService{resp: resp})

	req := httptest.NewRequest("GET", "/api/admin/stats", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got service.StatsResponse
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, 8000, got.TotalRevenue)
	assert.Equal(t, 1, got.StatusCount[models.StatusDelivered])
}

func TestPresenceHandlers(t *testing.T) {
	tracker := presence.NewTracker(5 * time.Minute)

	// Свежий процесс всегда offline
	rr := httptest.NewRecorder()
	handlers.GetPresenceHandler(tracker).ServeHTTP(rr, httptest.NewRequest("GET", "/api/admin/status", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"online": false}`, rr.Body.String())

	// Администратор включает флаг
	req := withAdmin(httptest.NewRequest("POST", "/api/admin/status", bytes.NewBufferString(`{"online": true}`)))
	rr = httptest.NewRecorder()
	handlers.SetPresenceHandler(testLogger(), tracker).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success": true, "online": true}`, rr.Body.String())

	rr = httptest.NewRecorder()
	handlers.GetPresenceHandler(tracker).ServeHTTP(rr, httptest.NewRequest("GET", "/api/admin/status", nil))
	assert.JSONEq(t, `{"online": true}`, rr.Body.String())
}

func TestSetPresenceHandler_MissingFlag(t *testing.T) {
	tracker := presence.NewTracker(0)
	req := withAdmin(httptest.NewRequest("POST", "/api/admin/status", bytes.NewBufferString(`{}`)))
	rr := httptest.NewRecorder()
	handlers.SetPresenceHandler(testLogger(), tracker).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestExportHandler_AttachmentHeader(t *testing.T) {
	handler := handlers.ExportHandler(testLogger(), &fakeBackupService{orders: []*models.Order{}})

	req := httptest.NewRequest("GET", "/api/admin/export", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "attachment; filename=orders-")
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestBackupHandler_Success(t *testing.T) {
	info := &service.BackupInfo{Timestamp: time.Now(), Count: 3, File: "backup-1717243200000.json"}
	handler := handlers.BackupHandler(testLogger(), &fakeBackupService{info: info})

	req := httptest.NewRequest("GET", "/api/admin/backup", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp handlers.BackupResponse
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "backup-1717243200000.json", resp.File)
	assert.Equal(t, 3, resp.Count)
}

func TestRestoreHandler_BareArray(t *testing.T) {
	fakeSvc := &fakeBackupService{}
	handler := handlers.RestoreHandler(testLogger(), fakeSvc)

	body := `[{"id":1,"date":"2025-06-01T12:00:00Z","pubgId":"12345678901","pseudo":"Zoro","pack":"660 UC","price":"8000 Ar","paymentMethod":"MVola","reference":"MG123","status":"en attente"}]`
	req := httptest.NewRequest("POST", "/api/admin/restore", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, fakeSvc.restored, 1)
}

func TestRestoreHandler_BackupEnvelope(t *testing.T) {
	fakeSvc := &fakeBackupService{}
	handler := handlers.RestoreHandler(testLogger(), fakeSvc)

	body := `{"backupData":{"timestamp":"2025-06-01T12:00:00Z","count":1,"orders":[{"id":1,"date":"2025-06-01T12:00:00Z","pubgId":"12345678901","pseudo":"Zoro","pack":"660 UC","price":"8000 Ar","paymentMethod":"MVola","reference":"MG123","status":"en attente"}]}}`
	req := httptest.NewRequest("POST", "/api/admin/restore", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, fakeSvc.restored, 1)
}

func TestRestoreHandler_InvalidPayload(t *testing.T) {
	handler := handlers.RestoreHandler(testLogger(), &fakeBackupService{})

	req := httptest.NewRequest("POST", "/api/admin/restore", bytes.NewBufferString(`{"foo": "bar"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuditLogHandler_Empty(t *testing.T) {
	handler := handlers.AuditLogHandler(testLogger(), &fakeOrderService{})

	req := httptest.NewRequest("GET", "/api/admin/debug/orders-log", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"logs": []}`, rr.Body.String())
}
