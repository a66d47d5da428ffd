package interviews

import (
	"time"

	"github.com/JustinTDCT/OralVault/internal/gateway"
)

type Interview struct {
	ID            int64     `json:"id"`
	Code          string    `json:"codigo"`
	InstitutionID int64     `json:"id_institucion"`
	IntervieweeID int64     `json:"id_entrevistado"`
	ResearcherID  *int64    `json:"id_investigador"`
	Number        int       `json:"numero_entrevista"`
	Date          *string   `json:"fecha"`
	Duration      *string   `json:"duracion"`
	Notes         *string   `json:"notas"`
	Language      *string   `json:"idioma"`
	CreatedAt     time.Time `json:"created_at"`
}

// WithCount is an interview together with the number of its transcription segments.
type WithCount struct {
	Interview
	SegmentCount int64 `json:"segment_count"`
}

// Input creates or replaces an interview. Code and Number are derived when omitted.
type Input struct {
	Code          *string `json:"codigo"`
	InstitutionID int64   `json:"id_institucion"`
	IntervieweeID int64   `json:"id_entrevistado"`
	ResearcherID  *int64  `json:"id_investigador"`
	Number        *int    `json:"numero_entrevista"`
	Date          *string `json:"fecha"`
	Duration      *string `json:"duracion"`
	Notes         *string `json:"notas"`
	Language      *string `json:"idioma"`
}

type ListFilter struct {
	InstitutionID *int64
	IntervieweeID *int64
}

func fromRow(r gateway.Row) Interview {
	return Interview{
		ID:            r.Int64("id"),
		Code:          r.String("codigo"),
		InstitutionID: r.Int64("id_institucion"),
		IntervieweeID: r.Int64("id_entrevistado"),
		ResearcherID:  r.Int64Ptr("id_investigador"),
		Number:        r.Int("numero_entrevista"),
		Date:          r.DatePtr("fecha"),
		Duration:      r.StringPtr("duracion"),
		Notes:         r.StringPtr("notas"),
		Language:      r.StringPtr("idioma"),
		CreatedAt:     r.Time("created_at"),
	}
}
