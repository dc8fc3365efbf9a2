package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jpcervantes/tours-api/internal/cache"
	"github.com/jpcervantes/tours-api/internal/config"
	"github.com/jpcervantes/tours-api/internal/middleware"
	"github.com/jpcervantes/tours-api/internal/models"
	"github.com/jpcervantes/tours-api/internal/services/media"
	"github.com/jpcervantes/tours-api/internal/utils"
)

const testSecret = "secreto-de-test"

var testS3 = config.S3Config{Bucket: "fotos", Region: "us-east-1", Environment: "test"}

type fakeStore struct {
	failAt  int
	uploads []string
	deletes []string
}

func (f *fakeStore) Upload(_ context.Context, folder string, _ []byte, _ string, id string) (string, error) {
	if f.failAt >= 0 && len(f.uploads) == f.failAt {
		return "", errors.New("s3: connection reset")
	}
	key := "/test/" + folder + "/" + id
	f.uploads = append(f.uploads, key)
	return key, nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.deletes = append(f.deletes, key)
	return nil
}

// newTestApp arma la app con las mismas rutas que cmd/api/main.go,
// contra SQLite en memoria y un storage fake.
func newTestApp(t *testing.T) (*fiber.App, *gorm.DB, *fakeStore) {
	t.Helper()
	return newTestAppCache(t, nil)
}

func newTestAppCache(t *testing.T, rdc *cache.Cache) (*fiber.App, *gorm.DB, *fakeStore) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Tour{}, &models.TourMedia{}); err != nil {
		t.Fatal(err)
	}

	store := &fakeStore{failAt: -1}
	mediaSvc := media.NewService(db, store, testS3)

	authH := &AuthHandler{DB: db, JWTSecret: testSecret, Expires: 60}
	tourH := NewTourHandler(db, mediaSvc, rdc, true)
	mediaH := NewMediaHandler(mediaSvc, rdc)

	app := fiber.New(fiber.Config{BodyLimit: 90 * 1024 * 1024})
	api := app.Group("/api")

	api.Post("/auth/login", authH.Login)
	api.Post("/auth/update-password", authH.UpdatePassword)

	api.Get("/tours", tourH.List)
	api.Get("/tours/latest", tourH.Latest)
	api.Get("/tours/slug/:slug", tourH.GetBySlug)
	api.Get("/tours/:id", tourH.GetByID)

	jwtMW := middleware.JWTFromHeader(testSecret)
	localsMW := middleware.AttachJWTLocals()
	adminMW := middleware.RequireRoles("admin")

	api.Get("/auth/me", jwtMW, localsMW, authH.Me)

	api.Post("/tours", jwtMW, localsMW, adminMW, tourH.Create)
	api.Put("/tours/:id", jwtMW, localsMW, adminMW, tourH.Update)
	api.Delete("/tours/:id", jwtMW, localsMW, adminMW, tourH.Delete)
	api.Post("/tours/media/:id", jwtMW, localsMW, adminMW, mediaH.Upload)
	api.Delete("/tours/:tourId/media/:mediaId", jwtMW, localsMW, adminMW, mediaH.Delete)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"msg": "Ruta no encontrada",
		})
	})

	return app, db, store
}

func seedUser(t *testing.T, db *gorm.DB, email, password string) models.User {
	t.Helper()
	hashed, err := utils.HashPassword(password)
	if err != nil {
		t.Fatal(err)
	}
	u := models.User{
		Name:     "Admin",
		Email:    email,
		Password: hashed,
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatal(err)
	}
	return u
}

func adminToken(t *testing.T, u models.User) string {
	t.Helper()
	token, err := utils.SignJWT(testSecret, u.ID.String(), string(u.Role), 60)
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}

	var out map[string]any
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("respuesta no es JSON: %v\n%s", err, raw)
		}
	}
	return resp, out
}

// multipartUpload manda n imágenes al endpoint de media del tour.
func multipartUpload(t *testing.T, app *fiber.App, token string, tourID uint, n int, coverIndex string) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for i := 0; i < n; i++ {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="foto%d.jpg"`, i))
		h.Set("Content-Type", "image/jpeg")
		pw, err := w.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := pw.Write([]byte{0xFF, 0xD8, byte(i)}); err != nil {
			t.Fatal(err)
		}
	}
	if coverIndex != "" {
		if err := w.WriteField("cover_index", coverIndex); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/tours/media/%d", tourID), &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}

	var out map[string]any
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("respuesta no es JSON: %v\n%s", err, raw)
		}
	}
	return resp, out
}

func seedPublishedTour(t *testing.T, db *gorm.DB, title, slug string, price float64) models.Tour {
	t.Helper()
	tour := models.Tour{
		Title:        title,
		Slug:         slug,
		Description:  "desc",
		Location:     "Trosten",
		Price:        price,
		WhatsappLink: "https://wa.me/5215555555555",
		Status:       models.TourStatusPublished,
	}
	if err := db.Create(&tour).Error; err != nil {
		t.Fatal(err)
	}
	return tour
}
