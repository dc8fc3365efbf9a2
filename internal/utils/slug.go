package utils

import (
	"fmt"
	"strings"
	"unicode"

	"gorm.io/gorm"
)

// acentos y ñ que aparecen en títulos en español
var slugReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
	"ü", "u", "ñ", "n",
)

// Slugify normaliza un título a slug: minúsculas, acentos fuera,
// todo lo que no sea alfanumérico ASCII se vuelve "-", sin dobles
// guiones ni guiones en los extremos.
func Slugify(s string) string {
	s = slugReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))

	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case r < 128 && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// UniqueSlug prueba base, base-1, base-2... contra la tabla tours y
// devuelve el primer candidato libre. El handler de creación combina
// esto con un reintento sobre gorm.ErrDuplicatedKey para cubrir la
// carrera entre el chequeo y el insert.
func UniqueSlug(db *gorm.DB, base string) (string, error) {
	candidate := base
	for i := 0; ; i++ {
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}
		var count int64
		if err := db.Table("tours").Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
	}
}
