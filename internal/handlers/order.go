package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gestorapp/gestor/internal/auth"
	"github.com/gestorapp/gestor/internal/httpx"
	"github.com/gestorapp/gestor/internal/models"
	"github.com/gestorapp/gestor/internal/services"
	"github.com/gestorapp/gestor/internal/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderHandler exposes the order/inventory core over JSON. It translates the
// service's typed errors into status codes and user-facing details; the
// service itself never renders output.
type OrderHandler struct {
	DB  *gorm.DB
	Svc *services.OrderService
}

func NewOrderHandler(db *gorm.DB, svc *services.OrderService) *OrderHandler {
	return &OrderHandler{DB: db, Svc: svc}
}

// writeServiceError maps core errors onto HTTP responses.
func writeServiceError(w http.ResponseWriter, err error) {
	var stockErr *services.InsufficientStockError
	var trErr *services.InvalidTransitionError
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.JSONError(w, http.StatusNotFound, "order_not_found", nil)
	case errors.Is(err, services.ErrProductNotFound):
		httpx.JSONError(w, http.StatusNotFound, "product_not_found", nil)
	case errors.Is(err, services.ErrItemNotFound):
		httpx.JSONError(w, http.StatusNotFound, "item_not_found", nil)
	case errors.Is(err, services.ErrInvalidQuantity):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_quantity", nil)
	case errors.Is(err, services.ErrOrderNotEditable):
		httpx.JSONError(w, http.StatusConflict, "order_not_editable", nil)
	case errors.As(err, &stockErr):
		httpx.JSONError(w, http.StatusConflict, "insufficient_stock", map[string]any{
			"product_id": stockErr.ProductID,
			"product":    stockErr.ProductName,
			"requested":  stockErr.Requested,
			"available":  stockErr.Available,
		})
	case errors.As(err, &trErr):
		httpx.JSONError(w, http.StatusConflict, "invalid_transition", map[string]any{
			"current_status": trErr.Current,
			"attempted":      trErr.Attempted,
		})
	case errors.Is(err, services.ErrConcurrentModification):
		httpx.JSONError(w, http.StatusConflict, "concurrent_modification", nil)
	case errors.Is(err, gorm.ErrRecordNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// Create: POST /orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	type createReq struct {
		Kind          string `json:"kind"`
		ClientID      uint   `json:"client_id"`
		SupplierID    uint   `json:"supplier_id"`
		PaymentMethod string `json:"payment_method"`
		Notes         string `json:"notes"`
	}
	var req createReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	kind, err := models.ParseOrderKind(req.Kind)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"kind": "invalid_choice"})
		return
	}
	method, err := models.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"payment_method": "invalid_choice"})
		return
	}
	if kind == models.KindSale && req.ClientID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"client_id": "required"})
		return
	}
	if kind == models.KindPurchase && req.SupplierID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"supplier_id": "required"})
		return
	}
	order, err := h.Svc.Create(services.CreateOrderInput{
		Kind:          kind,
		ClientID:      req.ClientID,
		SupplierID:    req.SupplierID,
		UserID:        actor,
		PaymentMethod: method,
		Notes:         req.Notes,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "counterparty_not_found", nil)
			return
		}
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

// List: GET /orders?kind=&status=
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	f := services.ListFilter{}
	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind, err := models.ParseOrderKind(raw)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"kind": "invalid_choice"})
			return
		}
		f.Kind = kind
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := models.ParseOrderStatus(raw)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"status": "invalid_choice"})
			return
		}
		f.Status = status
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Limit = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			limit := f.Limit
			if limit <= 0 {
				limit = 50
			}
			f.Offset = (n - 1) * limit
		}
	}
	orders, total, err := h.Svc.List(f)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_orders", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": orders, "total": total})
}

// Get: GET /orders/get?id=N
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	order, err := h.Svc.Get(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

// AddItem: POST /orders/items
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	type itemReq struct {
		OrderID   uint             `json:"order_id"`
		ProductID uint             `json:"product_id"`
		Quantity  int              `json:"quantity"`
		UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
		TaxRate   *decimal.Decimal `json:"tax_rate,omitempty"`
		Note      string           `json:"note"`
	}
	var req itemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	if req.OrderID == 0 {
		v["order_id"] = "required"
	}
	if req.ProductID == 0 {
		v["product_id"] = "required"
	}
	validation.PositiveInt("quantity", req.Quantity, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	item, err := h.Svc.AddItem(services.AddItemInput{
		OrderID:   req.OrderID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		TaxRate:   req.TaxRate,
		Note:      req.Note,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

// UpdateItem: POST /orders/items/update?id=N
func (h *OrderHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	type updateReq struct {
		Quantity int `json:"quantity"`
	}
	var req updateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.PositiveInt("quantity", req.Quantity, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	item, err := h.Svc.UpdateItemQuantity(id, req.Quantity)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

// DeleteItem: POST /orders/items/delete?id=N
func (h *OrderHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Svc.RemoveItem(id); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// Confirm: POST /orders/confirm?id=N
func (h *OrderHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	order, err := h.Svc.Confirm(id, actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

// Cancel: POST /orders/cancel?id=N
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	type cancelReq struct {
		Reason string `json:"reason"`
	}
	var req cancelReq
	// Body is optional for cancellation.
	_ = json.NewDecoder(r.Body).Decode(&req)
	order, err := h.Svc.Cancel(id, actor, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}
