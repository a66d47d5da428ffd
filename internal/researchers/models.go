package researchers

import (
	"net/mail"
	"strings"
	"time"

	"github.com/JustinTDCT/OralVault/internal/apperr"
	"github.com/JustinTDCT/OralVault/internal/gateway"
)

type Researcher struct {
	ID            int64     `json:"id"`
	Code          string    `json:"codigo"`
	Name          string    `json:"nombre"`
	Email         *string   `json:"email"`
	InstitutionID *int64    `json:"id_institucion"`
	CreatedAt     time.Time `json:"created_at"`
}

type Input struct {
	Code          string  `json:"codigo"`
	Name          string  `json:"nombre"`
	Email         *string `json:"email"`
	InstitutionID *int64  `json:"id_institucion"`
}

func (in Input) row() (gateway.Row, error) {
	code := strings.TrimSpace(in.Code)
	name := strings.TrimSpace(in.Name)
	if code == "" || name == "" {
		return nil, apperr.Invalid("codigo and nombre are required")
	}
	email := gateway.OptionalString(in.Email)
	if email != nil {
		if _, err := mail.ParseAddress(*email); err != nil {
			return nil, apperr.Invalid("email %q is not valid", *email)
		}
		lower := strings.ToLower(*email)
		email = &lower
	}
	return gateway.Row{
		"codigo":         code,
		"nombre":         name,
		"email":          email,
		"id_institucion": in.InstitutionID,
	}, nil
}

func fromRow(r gateway.Row) Researcher {
	return Researcher{
		ID:            r.Int64("id"),
		Code:          r.String("codigo"),
		Name:          r.String("nombre"),
		Email:         r.StringPtr("email"),
		InstitutionID: r.Int64Ptr("id_institucion"),
		CreatedAt:     r.Time("created_at"),
	}
}
