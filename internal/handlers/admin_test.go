package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/parleychat/parley/internal/api/middleware"
	"github.com/parleychat/parley/internal/models"
)

func (e *testEnv) adminRouter(admin *models.User) *chi.Mux {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), admin)))
		})
	})
	h := e.handler
	r.Post("/admin/users", h.AdminCreateUser)
	r.Put("/admin/users/{id}", h.AdminUpdateUser)
	r.Delete("/admin/users/{id}", h.AdminDeleteUser)
	r.Post("/upload", h.Upload)
	return r
}

func TestAdminUserCRUD(t *testing.T) {
	e := newTestEnv(t)
	admin := registerUser(t, e, "root")
	admin.Role = models.RoleAdmin
	router := e.adminRouter(admin)

	rec := doJSON(t, router, "POST", "/admin/users", map[string]string{
		"username": "bob", "password": "secret123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var created models.PublicUser
	json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doJSON(t, router, "PUT", "/admin/users/"+created.ID, map[string]string{
		"username": "robert", "role": "admin",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var updated models.PublicUser
	json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.Username != "robert" || updated.Role != models.RoleAdmin {
		t.Fatalf("update not applied: %+v", updated)
	}

	rec = doJSON(t, router, "DELETE", "/admin/users/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
}

func TestAdminCannotDeleteSelf(t *testing.T) {
	e := newTestEnv(t)
	admin := registerUser(t, e, "root")
	admin.Role = models.RoleAdmin

	rec := doJSON(t, e.adminRouter(admin), "DELETE", "/admin/users/"+admin.ID, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUploadEndpoint(t *testing.T) {
	e := newTestEnv(t)
	user := registerUser(t, e, "alice")
	router := e.adminRouter(user)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "photo.png")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("not really a png"))
	mw.Close()

	req := httptest.NewRequest("POST", "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["fileName"] != "photo.png" {
		t.Fatalf("unexpected response %v", resp)
	}
	if resp["url"] == "" {
		t.Fatal("expected a stored url")
	}
}
