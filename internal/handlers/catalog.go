package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gestorapp/gestor/internal/httpx"
	"github.com/gestorapp/gestor/internal/models"
	"github.com/gestorapp/gestor/internal/validation"
	"gorm.io/gorm"
)

// CatalogHandler serves the brand and category lookup tables products
// reference.
type CatalogHandler struct {
	DB *gorm.DB
}

func NewCatalogHandler(db *gorm.DB) *CatalogHandler { return &CatalogHandler{DB: db} }

// ListBrands: GET /brands
func (h *CatalogHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	var brands []models.Brand
	if err := h.DB.Order("name").Find(&brands).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_brands", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": brands, "total": len(brands)})
}

// CreateBrand: POST /brands
func (h *CatalogHandler) CreateBrand(w http.ResponseWriter, r *http.Request) {
	type brandReq struct {
		Name string `json:"name"`
	}
	var req brandReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	validation.MaxLen("name", req.Name, 25, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	var count int64
	h.DB.Model(&models.Brand{}).Where("name = ?", req.Name).Count(&count)
	if count > 0 {
		httpx.JSONError(w, http.StatusConflict, "brand_exists", nil)
		return
	}
	b := models.Brand{Name: req.Name}
	if err := h.DB.Create(&b).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_brand", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, b)
}

// ListCategories: GET /categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	var categories []models.Category
	if err := h.DB.Order("description").Find(&categories).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_categories", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": categories, "total": len(categories)})
}

// CreateCategory: POST /categories
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	type categoryReq struct {
		Description string `json:"description"`
	}
	var req categoryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("description", req.Description, v)
	validation.MaxLen("description", req.Description, 50, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	var count int64
	h.DB.Model(&models.Category{}).Where("description = ?", req.Description).Count(&count)
	if count > 0 {
		httpx.JSONError(w, http.StatusConflict, "category_exists", nil)
		return
	}
	c := models.Category{Description: req.Description}
	if err := h.DB.Create(&c).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_category", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}
