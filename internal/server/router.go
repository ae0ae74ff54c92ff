package server

import (
	"context"
	"net/http"

	"github.com/gestorapp/gestor/internal/auth"
	"github.com/gestorapp/gestor/internal/handlers"
	"github.com/gestorapp/gestor/internal/httpx"
	"github.com/gestorapp/gestor/internal/models"
	"github.com/gestorapp/gestor/internal/services"
	"gorm.io/gorm"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB) http.Handler {
	mux := http.NewServeMux()

	// Configure a user verifier so RequireAuth can ensure the user still exists.
	auth.SetUserVerifier(func(_ context.Context, uid uint) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	// --- Health endpoints ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		// Lightweight DB check (SELECT 1) – ignore detailed errors in body
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSONError(w, http.StatusServiceUnavailable, "degraded", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth endpoints
	authHandler := handlers.NewAuthHandler(db)
	authHandler.Register(mux)

	protect := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(auth.RequireAuth(h))
	}
	listCreate := func(list, create http.HandlerFunc) http.Handler {
		return protect(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				list(w, r)
			case http.MethodPost:
				create(w, r)
			default:
				w.Header().Set("Allow", "GET,POST")
				httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
			}
		})
	}
	postOnly := func(h http.HandlerFunc) http.Handler {
		return protect(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				w.Header().Set("Allow", "POST")
				httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
				return
			}
			h(w, r)
		})
	}

	// Catalog endpoints
	cat := handlers.NewCatalogHandler(db)
	mux.Handle("/brands", listCreate(cat.ListBrands, cat.CreateBrand))
	mux.Handle("/categories", listCreate(cat.ListCategories, cat.CreateCategory))

	ph := handlers.NewProductHandler(db)
	mux.Handle("/products", listCreate(ph.List, ph.Create))
	mux.Handle("/products/update", postOnly(ph.Update))
	mux.Handle("/products/delete", postOnly(ph.Delete))

	ch := handlers.NewClientHandler(db)
	mux.Handle("/clients", listCreate(ch.List, ch.Create))
	mux.Handle("/clients/update", postOnly(ch.Update))
	mux.Handle("/clients/delete", postOnly(ch.Delete))

	sh := handlers.NewSupplierHandler(db)
	mux.Handle("/suppliers", listCreate(sh.List, sh.Create))
	mux.Handle("/suppliers/update", postOnly(sh.Update))
	mux.Handle("/suppliers/delete", postOnly(sh.Delete))

	// Order endpoints
	orderSvc := services.NewOrderService(db)
	oh := handlers.NewOrderHandler(db, orderSvc)
	mux.Handle("/orders", listCreate(oh.List, oh.Create))
	mux.Handle("/orders/get", protect(oh.Get))
	mux.Handle("/orders/items", postOnly(oh.AddItem))
	mux.Handle("/orders/items/update", postOnly(oh.UpdateItem))
	mux.Handle("/orders/items/delete", postOnly(oh.DeleteItem))
	mux.Handle("/orders/confirm", postOnly(oh.Confirm))
	mux.Handle("/orders/cancel", postOnly(oh.Cancel))

	// Report endpoints
	reportSvc := services.NewReportService(db)
	rh := handlers.NewReportHandler(reportSvc)
	mux.Handle("/reports/summary", protect(rh.Summary))
	mux.Handle("/reports/monthly", protect(rh.Monthly))
	mux.Handle("/reports/top-products", protect(rh.TopProducts))
	mux.Handle("/reports/top-clients", protect(rh.TopClients))
	mux.Handle("/reports/top-suppliers", protect(rh.TopSuppliers))

	return mux
}
