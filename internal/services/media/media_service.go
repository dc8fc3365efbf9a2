package media

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jpcervantes/tours-api/internal/config"
	"github.com/jpcervantes/tours-api/internal/models"
	"github.com/jpcervantes/tours-api/internal/storage"
)

const MaxFilesPerBatch = 4

var (
	ErrTourNotFound  = errors.New("tour no encontrado")
	ErrMediaNotFound = errors.New("media no encontrada")
	ErrNoFiles       = errors.New("debe subir al menos una imagen")
	ErrTooManyFiles  = errors.New("máximo 4 imágenes permitidas")
)

// ObjectStorage es lo que el servicio necesita del almacenamiento de
// objetos. *storage.S3Storage lo implementa; los tests usan un fake.
type ObjectStorage interface {
	Upload(ctx context.Context, folder string, file []byte, contentType, id string) (string, error)
	Delete(ctx context.Context, key string) error
}

// File es un archivo ya leído del multipart, listo para subir.
type File struct {
	Data        []byte
	ContentType string
}

type Service struct {
	DB    *gorm.DB
	Store ObjectStorage
	S3    config.S3Config
}

func NewService(db *gorm.DB, store ObjectStorage, s3 config.S3Config) *Service {
	return &Service{DB: db, Store: store, S3: s3}
}

// AttachBatch agrega un lote de 1 a 4 imágenes a un tour.
//
// Todo el lote corre dentro de una transacción que primero toma un
// lock FOR UPDATE sobre la fila del tour, así dos lotes concurrentes
// sobre el mismo tour no pueden pisarse el apagado de portadas. Las
// portadas de lotes anteriores quedan en false; la única portada nueva
// es la del índice cover_index (si cae fuera del lote, el lote queda
// sin portada, igual que siempre se comportó la API).
//
// Cada fila se crea primero con una URL provisoria para poder usar su
// propio id en la clave del objeto (<tour_id>/<media_id>), se sube el
// binario y recién ahí se escribe la clave real. Si una subida falla,
// la transacción entera se revierte (ninguna fila del lote sobrevive)
// y los objetos ya subidos del lote se borran best-effort.
func (s *Service) AttachBatch(ctx context.Context, tourID uint, files []File, coverIndex int) ([]models.TourMedia, error) {
	// existencia primero: un tour inexistente es 404 aunque el lote
	// venga vacío o pasado de tamaño
	var exists int64
	if err := s.DB.WithContext(ctx).Model(&models.Tour{}).Where("id = ?", tourID).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrTourNotFound
	}

	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if len(files) > MaxFilesPerBatch {
		return nil, ErrTooManyFiles
	}

	var created []models.TourMedia
	var uploaded []string

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// punto de serialización por tour: dos lotes concurrentes no
		// pueden intercalar el apagado de portadas. SQLite (tests) no
		// soporta FOR UPDATE pero serializa escrituras solo.
		q := tx
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var tour models.Tour
		if err := q.First(&tour, tourID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTourNotFound
			}
			return err
		}

		// demote de todas las portadas previas, no se borran
		if err := tx.Model(&models.TourMedia{}).
			Where("tour_id = ?", tourID).
			Update("is_cover", false).Error; err != nil {
			return err
		}

		for i, f := range files {
			m := models.TourMedia{
				TourID:  tourID,
				Type:    models.MediaTypeImage,
				URL:     "media", // provisoria, se pisa tras la subida
				IsCover: i == coverIndex,
				Order:   i,
			}
			if err := tx.Create(&m).Error; err != nil {
				return err
			}

			key, err := s.Store.Upload(ctx, "tours", f.Data, f.ContentType, fmt.Sprintf("%d/%d", tourID, m.ID))
			if err != nil {
				return fmt.Errorf("subida de imagen %d: %w", i, err)
			}
			uploaded = append(uploaded, key)

			if err := tx.Model(&m).Update("url", key).Error; err != nil {
				return err
			}
			m.URL = key
			created = append(created, m)
		}
		return nil
	})

	if err != nil {
		// las filas ya se revirtieron; los objetos subidos se limpian
		// best-effort fuera de la transacción
		for _, key := range uploaded {
			if derr := s.Store.Delete(context.Background(), key); derr != nil {
				log.Printf("compensación: no se pudo borrar %s: %v", key, derr)
			}
		}
		return nil, err
	}

	return created, nil
}

// Delete borra una media buscándola por el par (mediaId, tourId); el
// scope evita borrar media de otro tour adivinando ids. No renumera
// orders ni elige portada nueva: si se borró la portada, el tour queda
// sin portada hasta el próximo lote.
func (s *Service) Delete(ctx context.Context, tourID, mediaID uint) error {
	var m models.TourMedia
	err := s.DB.WithContext(ctx).
		Where("id = ? AND tour_id = ?", mediaID, tourID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMediaNotFound
		}
		return err
	}
	return s.DB.WithContext(ctx).Delete(&m).Error
}

// View es la forma de salida de una media: mismos campos que la fila
// pero con la URL ya resuelta (nil si la clave está vacía).
type View struct {
	ID        uint      `json:"id"`
	TourID    uint      `json:"tour_id"`
	Type      string    `json:"type"`
	URL       *string   `json:"url"`
	IsCover   bool      `json:"is_cover"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Normalize materializa las URLs públicas y elige la portada para
// mostrar: la fila con is_cover, si no la primera en el orden que
// llegó, si no hay filas la portada es nil.
func (s *Service) Normalize(rows []models.TourMedia) ([]View, *string) {
	views := make([]View, 0, len(rows))
	for _, m := range rows {
		views = append(views, View{
			ID:        m.ID,
			TourID:    m.TourID,
			Type:      m.Type,
			URL:       storage.PublicURL(s.S3, m.URL),
			IsCover:   m.IsCover,
			Order:     m.Order,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		})
	}

	var cover *string
	for _, v := range views {
		if v.IsCover {
			cover = v.URL
			break
		}
	}
	if cover == nil && len(views) > 0 {
		cover = views[0].URL
	}
	return views, cover
}

// FilterOrderRange descarta filas con order fuera de [0,3] sin
// renumerar el resto. Solo lo usa el detalle por slug y está detrás
// del toggle MEDIA_ORDER_FILTER.
func FilterOrderRange(rows []models.TourMedia) []models.TourMedia {
	out := make([]models.TourMedia, 0, len(rows))
	for _, m := range rows {
		if m.Order >= 0 && m.Order <= 3 {
			out = append(out, m)
		}
	}
	return out
}
