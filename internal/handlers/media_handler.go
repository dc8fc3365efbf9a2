package handlers

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jpcervantes/tours-api/internal/cache"
	"github.com/jpcervantes/tours-api/internal/services/media"
)

const maxImageSize = 20 * 1024 * 1024 // 20 MB por imagen

type MediaHandler struct {
	Media *media.Service
	Cache *cache.Cache
}

func NewMediaHandler(mediaSvc *media.Service, c *cache.Cache) *MediaHandler {
	return &MediaHandler{Media: mediaSvc, Cache: c}
}

// Upload maneja POST /api/tours/media/:id: multipart con campo "files"
// (hasta 4 imágenes) y "cover_index" opcional (default 0) que elige
// cuál del lote queda como portada.
func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	tourID, err := c.ParamsInt("id")
	if err != nil || tourID < 1 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"code": "not_found",
			"msg":  "Tour no encontrado",
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code": "bad_request",
			"msg":  "Debe subir al menos una imagen",
		})
	}
	fileHeaders := form.File["files"]

	coverIndex := 0
	if v := c.FormValue("cover_index"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			coverIndex = n
		}
	}

	files := make([]media.File, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		if fh.Size > maxImageSize {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
				"code": "payload_too_large",
				"msg":  "Cada imagen debe pesar máximo 20MB",
			})
		}
		contentType := fh.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"code": "bad_request",
				"msg":  "Solo se permiten archivos de imagen",
			})
		}

		f, err := fh.Open()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"code": "internal",
				"msg":  "Error al agregar multimedia",
			})
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"code": "internal",
				"msg":  "Error al agregar multimedia",
			})
		}
		files = append(files, media.File{Data: data, ContentType: contentType})
	}

	created, err := h.Media.AttachBatch(c.Context(), uint(tourID), files, coverIndex)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrTourNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"code": "not_found",
				"msg":  "Tour no encontrado",
			})
		case errors.Is(err, media.ErrNoFiles):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"code": "bad_request",
				"msg":  "Debe subir al menos una imagen",
			})
		case errors.Is(err, media.ErrTooManyFiles):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"code": "bad_request",
				"msg":  "Máximo 4 imágenes permitidas",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"code": "internal",
				"msg":  "Error al subir imagen a S3",
			})
		}
	}

	h.Cache.InvalidateLatest(c.Context())
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"msg":   "Imágenes agregadas correctamente",
		"media": created,
	})
}

// Delete maneja DELETE /api/tours/:tourId/media/:mediaId.
func (h *MediaHandler) Delete(c *fiber.Ctx) error {
	tourID, err1 := c.ParamsInt("tourId")
	mediaID, err2 := c.ParamsInt("mediaId")
	if err1 != nil || err2 != nil || tourID < 1 || mediaID < 1 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"code": "not_found",
			"msg":  "Media no encontrada",
		})
	}

	if err := h.Media.Delete(c.Context(), uint(tourID), uint(mediaID)); err != nil {
		if errors.Is(err, media.ErrMediaNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"code": "not_found",
				"msg":  "Media no encontrada",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code": "internal",
			"msg":  "Error al eliminar multimedia",
		})
	}

	h.Cache.InvalidateLatest(c.Context())
	return c.JSON(fiber.Map{"msg": "Media eliminada correctamente"})
}
