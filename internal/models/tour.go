package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	TourStatusDraft     = "draft"
	TourStatusPublished = "published"
)

type Tour struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Title string `gorm:"type:varchar(150);not null" json:"title"`
	// Una vez asignado no se regenera, salvo que venga vacío.
	Slug string `gorm:"type:varchar(160);uniqueIndex;not null" json:"slug"`

	ShortDescription string  `gorm:"type:varchar(255)" json:"short_description"`
	Description      string  `gorm:"type:text;not null" json:"description"`
	Price            float64 `gorm:"type:decimal(10,2);not null;default:0" json:"price"`

	Duration string `gorm:"type:varchar(50)" json:"duration"` // ej: "3 horas", "1 día"
	Location string `gorm:"type:varchar(120);not null" json:"location"`
	Category string `gorm:"type:varchar(80)" json:"category"` // aventura, cultural, naturaleza

	Tags         datatypes.JSON `json:"tags"` // ej: ["familia", "fotografía"]
	WhatsappLink string         `gorm:"not null" json:"whatsapp_link"`

	Status string `gorm:"type:varchar(20);default:'draft'" json:"status"` // draft | published

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Media []TourMedia `gorm:"foreignKey:TourID;constraint:OnDelete:CASCADE" json:"media,omitempty"`
}

const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// TourMedia guarda la clave relativa del objeto en URL, nunca la URL
// pública; esa se materializa solo al leer.
type TourMedia struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	TourID uint `gorm:"not null;index" json:"tour_id"`

	Type    string `gorm:"type:varchar(10);not null" json:"type"` // image | video
	URL     string `gorm:"not null" json:"url"`
	IsCover bool   `gorm:"default:false" json:"is_cover"`
	Order   int    `gorm:"column:order;default:0" json:"order"` // 0..3 dentro del lote

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TourMedia) TableName() string { return "tour_media" }
