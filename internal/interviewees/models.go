package interviewees

import (
	"strings"
	"time"

	"github.com/JustinTDCT/OralVault/internal/apperr"
	"github.com/JustinTDCT/OralVault/internal/gateway"
)

type Interviewee struct {
	ID            int64     `json:"id"`
	Code          string    `json:"codigo"`
	InstitutionID int64     `json:"id_institucion"`
	Name          *string   `json:"nombre"`
	Gender        *string   `json:"genero"`
	BirthYear     *int64    `json:"anio_nacimiento"`
	Notes         *string   `json:"notas"`
	CreatedAt     time.Time `json:"created_at"`
}

type Input struct {
	Code          string  `json:"codigo"`
	InstitutionID int64   `json:"id_institucion"`
	Name          *string `json:"nombre"`
	Gender        *string `json:"genero"`
	BirthYear     *int64  `json:"anio_nacimiento"`
	Notes         *string `json:"notas"`
}

func (in Input) row() (gateway.Row, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return nil, apperr.Invalid("codigo is required")
	}
	if in.InstitutionID <= 0 {
		return nil, apperr.Invalid("id_institucion is required")
	}
	if in.BirthYear != nil && (*in.BirthYear < 1850 || *in.BirthYear > int64(time.Now().Year())) {
		return nil, apperr.Invalid("anio_nacimiento %d is out of range", *in.BirthYear)
	}
	return gateway.Row{
		"codigo":          code,
		"id_institucion":  in.InstitutionID,
		"nombre":          gateway.OptionalString(in.Name),
		"genero":          gateway.OptionalString(in.Gender),
		"anio_nacimiento": in.BirthYear,
		"notas":           gateway.OptionalString(in.Notes),
	}, nil
}

func fromRow(r gateway.Row) Interviewee {
	return Interviewee{
		ID:            r.Int64("id"),
		Code:          r.String("codigo"),
		InstitutionID: r.Int64("id_institucion"),
		Name:          r.StringPtr("nombre"),
		Gender:        r.StringPtr("genero"),
		BirthYear:     r.Int64Ptr("anio_nacimiento"),
		Notes:         r.StringPtr("notas"),
		CreatedAt:     r.Time("created_at"),
	}
}
