package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gestorapp/gestor/internal/auth"
	"github.com/gestorapp/gestor/internal/models"
	"github.com/gestorapp/gestor/internal/services"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Brand{}, &models.Category{}, &models.Product{},
		&models.Client{}, &models.Supplier{},
		&models.Order{}, &models.OrderItem{}, &models.AuditLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// seed minimal user/client/product for order flows
func seedOrderFixtures(t *testing.T, db *gorm.DB) (models.User, models.Client, models.Product) {
	t.Helper()
	user := models.User{Email: "orders@test", Password: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	client := models.Client{FirstName: "Juan", LastName: "Perez", Active: true}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("client: %v", err)
	}
	product := models.Product{
		Code:      "TEC01",
		Name:      "Teclado",
		UnitPrice: decimal.RequireFromString("100.00"),
		TaxRate:   decimal.RequireFromString("21.00"),
		Stock:     10,
		Active:    true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("product: %v", err)
	}
	return user, client, product
}

func authedJSONRequest(t *testing.T, method, target, body string, userID uint) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

func TestOrderCreateAddItemConfirmJSON(t *testing.T) {
	db := setupHandlerTestDB(t)
	user, client, product := seedOrderFixtures(t, db)
	h := NewOrderHandler(db, services.NewOrderService(db))

	// Create sale order
	body := `{"kind":"sale","client_id":` + strconv.Itoa(int(client.ID)) + `,"payment_method":"card"}`
	w := httptest.NewRecorder()
	h.Create(w, authedJSONRequest(t, http.MethodPost, "/orders", body, user.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var created models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Status != models.StatusPending || created.Reference == "" {
		t.Fatalf("unexpected order: %#v", created)
	}

	// Attach an item
	itemBody := `{"order_id":` + strconv.Itoa(int(created.ID)) + `,"product_id":` + strconv.Itoa(int(product.ID)) + `,"quantity":4}`
	w = httptest.NewRecorder()
	h.AddItem(w, authedJSONRequest(t, http.MethodPost, "/orders/items", itemBody, user.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var item models.OrderItem
	if err := json.Unmarshal(w.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	if !item.GrossAmount.Equal(decimal.RequireFromString("484.00")) {
		t.Fatalf("expected gross 484.00 got %s", item.GrossAmount)
	}

	// Confirm
	w = httptest.NewRecorder()
	h.Confirm(w, authedJSONRequest(t, http.MethodPost, "/orders/confirm?id="+strconv.Itoa(int(created.ID)), "", user.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var confirmed models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &confirmed); err != nil {
		t.Fatalf("decode confirmed: %v", err)
	}
	if confirmed.Status != models.StatusConfirmed {
		t.Fatalf("expected confirmed got %s", confirmed.Status)
	}
	var p models.Product
	if err := db.First(&p, product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if p.Stock != 6 {
		t.Fatalf("expected stock 6 got %d", p.Stock)
	}

	// Second confirm conflicts
	w = httptest.NewRecorder()
	h.Confirm(w, authedJSONRequest(t, http.MethodPost, "/orders/confirm?id="+strconv.Itoa(int(created.ID)), "", user.ID))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "invalid_transition") {
		t.Fatalf("expected invalid_transition error, got %s", w.Body.String())
	}
}

func TestOrderAddItemInsufficientStockJSON(t *testing.T) {
	db := setupHandlerTestDB(t)
	user, client, product := seedOrderFixtures(t, db)
	h := NewOrderHandler(db, services.NewOrderService(db))

	body := `{"kind":"sale","client_id":` + strconv.Itoa(int(client.ID)) + `}`
	w := httptest.NewRecorder()
	h.Create(w, authedJSONRequest(t, http.MethodPost, "/orders", body, user.ID))
	var created models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	itemBody := `{"order_id":` + strconv.Itoa(int(created.ID)) + `,"product_id":` + strconv.Itoa(int(product.ID)) + `,"quantity":11}`
	w = httptest.NewRecorder()
	h.AddItem(w, authedJSONRequest(t, http.MethodPost, "/orders/items", itemBody, user.ID))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Error   string `json:"error"`
		Details struct {
			Product   string `json:"product"`
			Requested int    `json:"requested"`
			Available int    `json:"available"`
		} `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error resp: %v", err)
	}
	if resp.Error != "insufficient_stock" || resp.Details.Requested != 11 || resp.Details.Available != 10 || resp.Details.Product != "Teclado" {
		t.Fatalf("unexpected error payload: %s", w.Body.String())
	}
}

func TestOrderCreateValidation(t *testing.T) {
	db := setupHandlerTestDB(t)
	user, _, _ := seedOrderFixtures(t, db)
	h := NewOrderHandler(db, services.NewOrderService(db))

	cases := []string{
		`{"kind":"donation"}`,
		`{"kind":"sale"}`,                       // missing client
		`{"kind":"purchase"}`,                   // missing supplier
		`{"kind":"sale","client_id":1,"payment_method":"bitcoin"}`,
	}
	for _, body := range cases {
		w := httptest.NewRecorder()
		h.Create(w, authedJSONRequest(t, http.MethodPost, "/orders", body, user.ID))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400 got %d", body, w.Code)
		}
	}

	// Unauthenticated create is refused.
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"kind":"sale","client_id":1}`))
	w := httptest.NewRecorder()
	h.Create(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w.Code)
	}
}

func TestOrderItemQuantityValidatedAtBoundary(t *testing.T) {
	db := setupHandlerTestDB(t)
	user, client, product := seedOrderFixtures(t, db)
	h := NewOrderHandler(db, services.NewOrderService(db))

	body := `{"kind":"sale","client_id":` + strconv.Itoa(int(client.ID)) + `}`
	w := httptest.NewRecorder()
	h.Create(w, authedJSONRequest(t, http.MethodPost, "/orders", body, user.ID))
	var created models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	for _, qty := range []int{0, -2} {
		itemBody := `{"order_id":` + strconv.Itoa(int(created.ID)) + `,"product_id":` + strconv.Itoa(int(product.ID)) + `,"quantity":` + strconv.Itoa(qty) + `}`
		w = httptest.NewRecorder()
		h.AddItem(w, authedJSONRequest(t, http.MethodPost, "/orders/items", itemBody, user.ID))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("qty %d: expected 400 got %d body=%s", qty, w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), "must_be_positive") {
			t.Fatalf("qty %d: expected quantity violation, got %s", qty, w.Body.String())
		}
	}

	// Same guard on quantity updates.
	itemBody := `{"order_id":` + strconv.Itoa(int(created.ID)) + `,"product_id":` + strconv.Itoa(int(product.ID)) + `,"quantity":1}`
	w = httptest.NewRecorder()
	h.AddItem(w, authedJSONRequest(t, http.MethodPost, "/orders/items", itemBody, user.ID))
	var item models.OrderItem
	if err := json.Unmarshal(w.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	w = httptest.NewRecorder()
	h.UpdateItem(w, authedJSONRequest(t, http.MethodPost, "/orders/items/update?id="+strconv.Itoa(int(item.ID)), `{"quantity":0}`, user.ID))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestOrderCancelJSON(t *testing.T) {
	db := setupHandlerTestDB(t)
	user, client, product := seedOrderFixtures(t, db)
	h := NewOrderHandler(db, services.NewOrderService(db))

	body := `{"kind":"sale","client_id":` + strconv.Itoa(int(client.ID)) + `}`
	w := httptest.NewRecorder()
	h.Create(w, authedJSONRequest(t, http.MethodPost, "/orders", body, user.ID))
	var created models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	itemBody := `{"order_id":` + strconv.Itoa(int(created.ID)) + `,"product_id":` + strconv.Itoa(int(product.ID)) + `,"quantity":2}`
	w = httptest.NewRecorder()
	h.AddItem(w, authedJSONRequest(t, http.MethodPost, "/orders/items", itemBody, user.ID))

	w = httptest.NewRecorder()
	h.Cancel(w, authedJSONRequest(t, http.MethodPost, "/orders/cancel?id="+strconv.Itoa(int(created.ID)), `{"reason":"cliente se arrepintió"}`, user.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var cancelled models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &cancelled); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cancelled.Status != models.StatusCancelled {
		t.Fatalf("expected cancelled got %s", cancelled.Status)
	}
	// Stock untouched for a pending cancellation.
	var p models.Product
	if err := db.First(&p, product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if p.Stock != 10 {
		t.Fatalf("expected stock 10 got %d", p.Stock)
	}
}

func TestOrderGetAndListJSON(t *testing.T) {
	db := setupHandlerTestDB(t)
	user, client, product := seedOrderFixtures(t, db)
	h := NewOrderHandler(db, services.NewOrderService(db))

	body := `{"kind":"sale","client_id":` + strconv.Itoa(int(client.ID)) + `}`
	w := httptest.NewRecorder()
	h.Create(w, authedJSONRequest(t, http.MethodPost, "/orders", body, user.ID))
	var created models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	itemBody := `{"order_id":` + strconv.Itoa(int(created.ID)) + `,"product_id":` + strconv.Itoa(int(product.ID)) + `,"quantity":1}`
	w = httptest.NewRecorder()
	h.AddItem(w, authedJSONRequest(t, http.MethodPost, "/orders/items", itemBody, user.ID))

	w = httptest.NewRecorder()
	h.Get(w, authedJSONRequest(t, http.MethodGet, "/orders/get?id="+strconv.Itoa(int(created.ID)), "", user.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	var got models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Items) != 1 {
		t.Fatalf("expected preloaded items, got %#v", got.Items)
	}

	w = httptest.NewRecorder()
	h.Get(w, authedJSONRequest(t, http.MethodGet, "/orders/get?id=9999", "", user.ID))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.List(w, authedJSONRequest(t, http.MethodGet, "/orders?kind=sale&status=pending", "", user.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	var list struct {
		Items []models.Order `json:"items"`
		Total int64          `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 1 || len(list.Items) != 1 {
		t.Fatalf("unexpected list: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	h.List(w, authedJSONRequest(t, http.MethodGet, "/orders?kind=trade", "", user.ID))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad kind got %d", w.Code)
	}
}
