package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gestorapp/gestor/internal/httpx"
	"github.com/gestorapp/gestor/internal/models"
	"github.com/gestorapp/gestor/internal/validation"
	"gorm.io/gorm"
)

type SupplierHandler struct {
	DB *gorm.DB
}

func NewSupplierHandler(db *gorm.DB) *SupplierHandler { return &SupplierHandler{DB: db} }

type supplierReq struct {
	Name        string `json:"name"`
	CompanyName string `json:"company_name"`
	TaxID       string `json:"tax_id"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Active      *bool  `json:"active"`
}

func (r supplierReq) validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", r.Name, v)
	validation.MaxLen("name", r.Name, 100, v)
	validation.MaxLen("tax_id", r.TaxID, 13, v)
	return v
}

// List: GET /suppliers
func (h *SupplierHandler) List(w http.ResponseWriter, r *http.Request) {
	dbq := h.DB.Model(&models.Supplier{})
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		dbq = dbq.Where("lower(name) LIKE ? OR lower(company_name) LIKE ?", like, like)
	}
	var suppliers []models.Supplier
	if err := dbq.Order("name").Find(&suppliers).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_suppliers", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": suppliers, "total": len(suppliers)})
}

// Create: POST /suppliers
func (h *SupplierHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req supplierReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	s := models.Supplier{
		Name:        req.Name,
		CompanyName: req.CompanyName,
		TaxID:       req.TaxID,
		Address:     req.Address,
		Phone:       req.Phone,
		Email:       req.Email,
		Active:      true,
	}
	if req.Active != nil {
		s.Active = *req.Active
	}
	if err := h.DB.Create(&s).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_supplier", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, s)
}

// Update: POST /suppliers/update?id=N
func (h *SupplierHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var s models.Supplier
	if err := h.DB.First(&s, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "supplier_not_found", nil)
		return
	}
	var req supplierReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	s.Name = req.Name
	s.CompanyName = req.CompanyName
	s.TaxID = req.TaxID
	s.Address = req.Address
	s.Phone = req.Phone
	s.Email = req.Email
	if req.Active != nil {
		s.Active = *req.Active
	}
	if err := h.DB.Save(&s).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_supplier", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

// Delete: POST /suppliers/delete?id=N – refused while orders reference the supplier.
func (h *SupplierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var s models.Supplier
	if err := h.DB.First(&s, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "supplier_not_found", nil)
		return
	}
	var refs int64
	if err := h.DB.Model(&models.Order{}).Where("supplier_id = ?", s.ID).Count(&refs).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_supplier", nil)
		return
	}
	if refs > 0 {
		httpx.JSONError(w, http.StatusConflict, "supplier_in_use", map[string]any{"references": refs})
		return
	}
	if err := h.DB.Delete(&s).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_supplier", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": s.ID})
}
