package handlers

import (
	"net/http"
	"testing"
)

func TestLogin(t *testing.T) {
	app, db, _ := newTestApp(t)
	seedUser(t, db, "admin@tours.mx", "supersecreta1")

	// sin campos
	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("login vacío: status %d", resp.StatusCode)
	}

	// password incorrecta
	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "admin@tours.mx", "password": "otra",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("password mala: status %d", resp.StatusCode)
	}

	// usuario desconocido
	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "nadie@tours.mx", "password": "supersecreta1",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("usuario desconocido: status %d", resp.StatusCode)
	}

	// credenciales válidas
	resp, out := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "admin@tours.mx", "password": "supersecreta1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login válido: status %d", resp.StatusCode)
	}
	if tok, _ := out["token"].(string); tok == "" {
		t.Error("login válido sin token")
	}
	user, _ := out["user"].(map[string]any)
	if user["email"] != "admin@tours.mx" {
		t.Errorf("user.email = %v", user["email"])
	}
}

func TestLoginInactiveUser(t *testing.T) {
	app, db, _ := newTestApp(t)
	u := seedUser(t, db, "baja@tours.mx", "supersecreta1")
	if err := db.Model(&u).Update("is_active", false).Error; err != nil {
		t.Fatal(err)
	}

	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "baja@tours.mx", "password": "supersecreta1",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("usuario inactivo: status %d", resp.StatusCode)
	}
}

func TestMe(t *testing.T) {
	app, db, _ := newTestApp(t)
	u := seedUser(t, db, "admin@tours.mx", "supersecreta1")
	token := adminToken(t, u)

	// sin token
	resp, _ := doJSON(t, app, http.MethodGet, "/api/auth/me", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("sin token: status %d", resp.StatusCode)
	}

	resp, out := doJSON(t, app, http.MethodGet, "/api/auth/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("con token: status %d", resp.StatusCode)
	}
	if out["email"] != "admin@tours.mx" {
		t.Errorf("email = %v", out["email"])
	}
	if _, hasPassword := out["password"]; hasPassword {
		t.Error("la respuesta expone el hash de password")
	}
}

func TestUpdatePassword(t *testing.T) {
	app, db, _ := newTestApp(t)
	seedUser(t, db, "admin@tours.mx", "vieja12345")

	// corta
	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/update-password", "", map[string]any{
		"email": "admin@tours.mx", "password": "corta", "password_confirmation": "corta",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("password corta: status %d", resp.StatusCode)
	}

	// no coinciden
	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/update-password", "", map[string]any{
		"email": "admin@tours.mx", "password": "nueva12345", "password_confirmation": "otra12345",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("sin match: status %d", resp.StatusCode)
	}

	// email desconocido
	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/update-password", "", map[string]any{
		"email": "nadie@tours.mx", "password": "nueva12345", "password_confirmation": "nueva12345",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("email desconocido: status %d", resp.StatusCode)
	}

	// ok, y el login funciona con la nueva
	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/update-password", "", map[string]any{
		"email": "admin@tours.mx", "password": "nueva12345", "password_confirmation": "nueva12345",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cambio válido: status %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "admin@tours.mx", "password": "nueva12345",
	})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("login con password nueva: status %d", resp.StatusCode)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/tours", "", map[string]any{"title": "x"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("POST /api/tours sin token: status %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/tours/1", "token-falso", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("token inválido: status %d", resp.StatusCode)
	}
}
