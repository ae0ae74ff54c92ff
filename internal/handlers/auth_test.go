package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gestorapp/gestor/internal/auth"
	"github.com/gestorapp/gestor/internal/models"
)

func TestRegisterLoginLogoutFlow(t *testing.T) {
	db := setupHandlerTestDB(t)
	h := NewAuthHandler(db)

	body := `{"email":"Ana@Tienda.com","password":"secreto123","first_name":"Ana"}`
	w := httptest.NewRecorder()
	h.RegisterUser(w, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	if len(w.Result().Cookies()) == 0 {
		t.Fatal("expected a session cookie on register")
	}
	if strings.Contains(w.Body.String(), "secreto123") {
		t.Fatal("password must never appear in responses")
	}

	// Email is stored lowercased and hashed.
	var user models.User
	if err := db.Where("email = ?", "ana@tienda.com").First(&user).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.Password == "secreto123" || !auth.CheckPassword(user.Password, "secreto123") {
		t.Fatalf("password not hashed correctly")
	}

	// Duplicate registration is refused.
	w = httptest.NewRecorder()
	h.RegisterUser(w, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", w.Code)
	}

	// Login with the right password.
	w = httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ana@tienda.com","password":"secreto123"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	// Wrong password.
	w = httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ana@tienda.com","password":"wrong"}`)))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w.Code)
	}

	// Logout clears the cookie.
	w = httptest.NewRecorder()
	h.Logout(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected an expired session cookie on logout")
	}
}

func TestRegisterValidation(t *testing.T) {
	db := setupHandlerTestDB(t)
	h := NewAuthHandler(db)

	cases := []string{
		`{"password":"secreto123"}`,
		`{"email":"a@b.com"}`,
		`{"email":"a@b.com","password":"corta"}`,
	}
	for _, body := range cases {
		w := httptest.NewRecorder()
		h.RegisterUser(w, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400 got %d", body, w.Code)
		}
	}
}
