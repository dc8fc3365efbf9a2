package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jpcervantes/tours-api/internal/cache"
	"github.com/jpcervantes/tours-api/internal/models"
	"github.com/jpcervantes/tours-api/internal/services/media"
	"github.com/jpcervantes/tours-api/internal/utils"
)

const latestLimit = 5

type TourHandler struct {
	DB    *gorm.DB
	Media *media.Service
	Cache *cache.Cache

	// filtro defensivo de order en el detalle por slug
	OrderFilter bool
}

func NewTourHandler(db *gorm.DB, mediaSvc *media.Service, c *cache.Cache, orderFilter bool) *TourHandler {
	return &TourHandler{DB: db, Media: mediaSvc, Cache: c, OrderFilter: orderFilter}
}

// ==== REQUEST / RESPONSE ====

type TourReq struct {
	Title            string   `json:"title"`
	Slug             string   `json:"slug"`
	ShortDescription string   `json:"short_description"`
	Description      string   `json:"description"`
	Price            float64  `json:"price"`
	Duration         string   `json:"duration"`
	Location         string   `json:"location"`
	Category         string   `json:"category"`
	Tags             []string `json:"tags"`
	WhatsappLink     string   `json:"whatsapp_link"`
	Status           string   `json:"status"`
}

// TourUpdateReq usa punteros para distinguir "no vino" de "vino vacío".
type TourUpdateReq struct {
	Title            *string   `json:"title"`
	Slug             *string   `json:"slug"`
	ShortDescription *string   `json:"short_description"`
	Description      *string   `json:"description"`
	Price            *float64  `json:"price"`
	Duration         *string   `json:"duration"`
	Location         *string   `json:"location"`
	Category         *string   `json:"category"`
	Tags             *[]string `json:"tags"`
	WhatsappLink     *string   `json:"whatsapp_link"`
	Status           *string   `json:"status"`
}

// TourResponse agrega la media normalizada y la portada resuelta. El
// campo Media de afuera pisa al embebido en el JSON.
type TourResponse struct {
	models.Tour
	Media      []media.View `json:"media"`
	CoverImage *string      `json:"cover_image"`
}

func (h *TourHandler) toResponse(t models.Tour) TourResponse {
	views, cover := h.Media.Normalize(t.Media)
	return TourResponse{Tour: t, Media: views, CoverImage: cover}
}

// preload con el contrato de orden de los listados: portada primero,
// después order ascendente, empates por orden de inserción
func preloadMedia(db *gorm.DB) *gorm.DB {
	return db.Order(`is_cover DESC, "order" ASC, id ASC`)
}

// ==== PUBLIC ====

func (h *TourHandler) List(c *fiber.Ctx) error {
	search := c.Query("search")
	location := c.Query("location")
	category := c.Query("category")
	minPrice := c.Query("min_price")
	maxPrice := c.Query("max_price")

	order := strings.ToLower(c.Query("order", "desc"))
	if order != "asc" {
		order = "desc"
	}
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 10)
	if limit < 1 {
		limit = 10
	}

	filters := func(db *gorm.DB) *gorm.DB {
		q := db.Where("status = ?", models.TourStatusPublished)
		if search != "" {
			like := "%" + strings.ToLower(search) + "%"
			q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(location) LIKE ?", like, like, like)
		}
		if location != "" {
			q = q.Where("location = ?", location)
		}
		if category != "" {
			q = q.Where("category = ?", category)
		}
		if minPrice != "" {
			if v, err := strconv.ParseFloat(minPrice, 64); err == nil {
				q = q.Where("price >= ?", v)
			}
		}
		if maxPrice != "" {
			if v, err := strconv.ParseFloat(maxPrice, 64); err == nil {
				q = q.Where("price <= ?", v)
			}
		}
		return q
	}

	var total int64
	if err := h.DB.Model(&models.Tour{}).Scopes(filters).Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code": "internal",
			"msg":  "Error al obtener tours",
		})
	}

	var tours []models.Tour
	if err := h.DB.Scopes(filters).
		Preload("Media", preloadMedia).
		Order("created_at " + order).
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&tours).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code": "internal",
			"msg":  "Error al obtener tours",
		})
	}

	out := make([]TourResponse, 0, len(tours))
	for _, t := range tours {
		out = append(out, h.toResponse(t))
	}

	return c.JSON(fiber.Map{
		"total": total,
		"page":  page,
		"pages": int(math.Ceil(float64(total) / float64(limit))),
		"tours": out,
	})
}

func (h *TourHandler) Latest(c *fiber.Ctx) error {
	if payload, ok := h.Cache.GetLatest(c.Context()); ok {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(payload)
	}

	var total int64
	if err := h.DB.Model(&models.Tour{}).
		Where("status = ?", models.TourStatusPublished).
		Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code": "internal",
			"msg":  "Error al obtener los últimos tours",
		})
	}

	var tours []models.Tour
	if err := h.DB.Where("status = ?", models.TourStatusPublished).
		Preload("Media", preloadMedia).
		Order("created_at DESC").
		Limit(latestLimit).
		Find(&tours).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code": "internal",
			"msg":  "Error al obtener los últimos tours",
		})
	}

	out := make([]TourResponse, 0, len(tours))
	for _, t := range tours {
		out = append(out, h.toResponse(t))
	}

	payload, err := json.Marshal(fiber.Map{
		"total": total,
		"limit": latestLimit,
		"tours": out,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code": "internal",
			"msg":  "Error al obtener los últimos tours",
		})
	}

	h.Cache.SetLatest(c.Context(), payload)
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(payload)
}

func (h *TourHandler) GetBySlug(c *fiber.Ctx) error {
	slug := c.Params("slug")

	var tour models.Tour
	err := h.DB.Where("slug = ? AND status = ?", slug, models.TourStatusPublished).
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order(`"order" ASC, id ASC`) // orden real de los slots
		}).
		First(&tour).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"code": "not_found",
			"msg":  "Tour no encontrado",
		})
	}

	if h.OrderFilter {
		tour.Media = media.FilterOrderRange(tour.Media)
	}

	return c.JSON(h.toResponse(tour))
}

func (h *TourHandler) GetByID(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"code": "not_found",
			"msg":  "Tour no encontrado",
		})
	}

	var tour models.Tour
	err = h.DB.Where("id = ? AND status = ?", id, models.TourStatusPublished).
		Preload("Media", preloadMedia).
		First(&tour).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"code": "not_found",
			"msg":  "Tour no encontrado",
		})
	}

	return c.JSON(h.toResponse(tour))
}

// ==== ADMIN ====

func (h *TourHandler) Create(c *fiber.Ctx) error {
	var req TourReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":    "bad_request",
			"message": "Body request inválido",
		})
	}

	errs := map[string]string{}
	if strings.TrimSpace(req.Title) == "" {
		errs["title"] = "El título es requerido"
	}
	if strings.TrimSpace(req.Description) == "" {
		errs["description"] = "La descripción es requerida"
	}
	if strings.TrimSpace(req.Location) == "" {
		errs["location"] = "La ubicación es requerida"
	}
	if strings.TrimSpace(req.WhatsappLink) == "" {
		errs["whatsapp_link"] = "El link de WhatsApp es requerido"
	}
	if req.Price < 0 {
		errs["price"] = "El precio no puede ser negativo"
	}
	status := req.Status
	if status == "" {
		status = models.TourStatusDraft
	}
	if status != models.TourStatusDraft && status != models.TourStatusPublished {
		errs["status"] = "Status inválido"
	}
	if len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":    "bad_request",
			"message": "Datos inválidos",
			"errors":  errs,
		})
	}

	tour := models.Tour{
		Title:            strings.TrimSpace(req.Title),
		ShortDescription: req.ShortDescription,
		Description:      req.Description,
		Price:            req.Price,
		Duration:         req.Duration,
		Location:         strings.TrimSpace(req.Location),
		Category:         req.Category,
		WhatsappLink:     req.WhatsappLink,
		Status:           status,
	}
	if req.Tags != nil {
		b, _ := json.Marshal(req.Tags)
		tour.Tags = datatypes.JSON(b)
	}

	base := strings.TrimSpace(req.Slug)
	derived := base == ""
	if derived {
		base = utils.Slugify(tour.Title)
		if base == "" {
			base = "tour"
		}
	}

	// insert con reintento: el constraint unique manda, no el pre-chequeo
	for attempt := 0; attempt < 5; attempt++ {
		slug := base
		if derived {
			var err error
			slug, err = utils.UniqueSlug(h.DB, base)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"code":    "internal",
					"message": "Error interno al crear el tour",
				})
			}
		}
		tour.Slug = slug

		err := h.DB.Create(&tour).Error
		if err == nil {
			h.Cache.InvalidateLatest(c.Context())
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{
				"message": "Tour creado correctamente",
				"tour":    tour,
			})
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if derived {
				continue // otra creación ganó la carrera, se reprueba
			}
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"code":    "conflict",
				"message": "El tour ya existe",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code":    "internal",
			"message": "Error interno al crear el tour",
		})
	}

	return c.Status(fiber.StatusConflict).JSON(fiber.Map{
		"code":    "conflict",
		"message": "El tour ya existe",
	})
}

func (h *TourHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"code": "not_found",
			"msg":  "Tour no encontrado",
		})
	}

	var tour models.Tour
	if err := h.DB.First(&tour, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"code": "not_found",
			"msg":  "Tour no encontrado",
		})
	}

	var req TourUpdateReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":    "bad_request",
			"message": "Body request inválido",
		})
	}

	if req.Title != nil {
		tour.Title = strings.TrimSpace(*req.Title)
	}
	if req.ShortDescription != nil {
		tour.ShortDescription = *req.ShortDescription
	}
	if req.Description != nil {
		tour.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"code":    "bad_request",
				"message": "El precio no puede ser negativo",
			})
		}
		tour.Price = *req.Price
	}
	if req.Duration != nil {
		tour.Duration = *req.Duration
	}
	if req.Location != nil {
		tour.Location = strings.TrimSpace(*req.Location)
	}
	if req.Category != nil {
		tour.Category = *req.Category
	}
	if req.Tags != nil {
		b, _ := json.Marshal(*req.Tags)
		tour.Tags = datatypes.JSON(b)
	}
	if req.WhatsappLink != nil {
		tour.WhatsappLink = *req.WhatsappLink
	}
	if req.Status != nil {
		if *req.Status != models.TourStatusDraft && *req.Status != models.TourStatusPublished {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"code":    "bad_request",
				"message": "Status inválido",
			})
		}
		tour.Status = *req.Status
	}
	// el slug solo se regenera si lo mandan vacío a propósito
	if req.Slug != nil {
		if *req.Slug == "" {
			base := utils.Slugify(tour.Title)
			if base == "" {
				base = "tour"
			}
			slug, err := utils.UniqueSlug(h.DB, base)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"code": "internal",
					"msg":  "Error al actualizar el tour",
				})
			}
			tour.Slug = slug
		} else {
			tour.Slug = strings.TrimSpace(*req.Slug)
		}
	}

	if err := h.DB.Save(&tour).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"code":    "conflict",
				"message": "El slug ya está en uso",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code": "internal",
			"msg":  "Error al actualizar el tour",
		})
	}

	h.Cache.InvalidateLatest(c.Context())
	return c.JSON(tour)
}

func (h *TourHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"code": "not_found",
			"msg":  "Tour no encontrado",
		})
	}

	var tour models.Tour
	if err := h.DB.First(&tour, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"code": "not_found",
			"msg":  "Tour no encontrado",
		})
	}

	// la media cae en cascada por el FK
	if err := h.DB.Delete(&tour).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"code": "internal",
			"msg":  "Error al eliminar el tour",
		})
	}

	h.Cache.InvalidateLatest(c.Context())
	return c.JSON(fiber.Map{"msg": "Tour eliminado correctamente"})
}
