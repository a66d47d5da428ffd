package institutions

import (
	"strings"
	"time"

	"github.com/JustinTDCT/OralVault/internal/apperr"
	"github.com/JustinTDCT/OralVault/internal/gateway"
)

type Institution struct {
	ID        int64     `json:"id"`
	Code      string    `json:"codigo"`
	Name      string    `json:"nombre"`
	Country   *string   `json:"pais"`
	City      *string   `json:"ciudad"`
	CreatedAt time.Time `json:"created_at"`
}

type Input struct {
	Code    string  `json:"codigo"`
	Name    string  `json:"nombre"`
	Country *string `json:"pais"`
	City    *string `json:"ciudad"`
}

func (in Input) row() (gateway.Row, error) {
	code := strings.TrimSpace(in.Code)
	name := strings.TrimSpace(in.Name)
	if code == "" || name == "" {
		return nil, apperr.Invalid("codigo and nombre are required")
	}
	return gateway.Row{
		"codigo": code,
		"nombre": name,
		"pais":   gateway.OptionalString(in.Country),
		"ciudad": gateway.OptionalString(in.City),
	}, nil
}

func fromRow(r gateway.Row) Institution {
	return Institution{
		ID:        r.Int64("id"),
		Code:      r.String("codigo"),
		Name:      r.String("nombre"),
		Country:   r.StringPtr("pais"),
		City:      r.StringPtr("ciudad"),
		CreatedAt: r.Time("created_at"),
	}
}
