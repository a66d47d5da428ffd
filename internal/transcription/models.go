package transcription

import (
	"time"

	"github.com/JustinTDCT/OralVault/internal/gateway"
)

const (
	segmentsTable   = "segmentos"
	interviewsTable = "entrevistas"
)

// Conventional speaker roles. Other values are stored as given.
const (
	RoleInterviewer = "I"
	RoleInterviewee = "E"
	RoleSystem      = "S"
)

type Segment struct {
	ID             int64     `json:"id,omitempty"`
	InterviewID    int64     `json:"id_entrevista"`
	SegmentID      int       `json:"id_segmento"`
	Timestamp      *string   `json:"timestamp"`
	Role           string    `json:"rol"`
	OriginalText   string    `json:"texto_original"`
	NormalizedText string    `json:"texto_normalizado"`
	Confidence     int       `json:"nivel_confianza"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}

// ImportSummary is the result of a successful bulk load.
type ImportSummary struct {
	InterviewID  int64    `json:"interview_id"`
	Count        int      `json:"count"`
	BatchID      string   `json:"batch_id"`
	UnknownRoles []string `json:"unknown_roles,omitempty"`
}

func (s Segment) row() gateway.Row {
	return gateway.Row{
		"id_entrevista":     s.InterviewID,
		"id_segmento":       s.SegmentID,
		"timestamp":         s.Timestamp,
		"rol":               s.Role,
		"texto_original":    s.OriginalText,
		"texto_normalizado": s.NormalizedText,
		"nivel_confianza":   s.Confidence,
	}
}

func segmentFromRow(r gateway.Row) Segment {
	return Segment{
		ID:             r.Int64("id"),
		InterviewID:    r.Int64("id_entrevista"),
		SegmentID:      r.Int("id_segmento"),
		Timestamp:      r.StringPtr("timestamp"),
		Role:           r.String("rol"),
		OriginalText:   r.String("texto_original"),
		NormalizedText: r.String("texto_normalizado"),
		Confidence:     r.Int("nivel_confianza"),
		CreatedAt:      r.Time("created_at"),
	}
}

func knownRole(role string) bool {
	switch role {
	case RoleInterviewer, RoleInterviewee, RoleSystem:
		return true
	}
	return false
}
