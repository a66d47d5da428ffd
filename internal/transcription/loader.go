package transcription

import (
	"context"

	"github.com/JustinTDCT/OralVault/internal/apperr"
	"github.com/JustinTDCT/OralVault/internal/gateway"
)

// Loader persists mapped segments. It trusts the caller to have checked that the interview
// exists.
type Loader struct {
	gw gateway.Gateway
}

func NewLoader(gw gateway.Gateway) *Loader {
	return &Loader{gw: gw}
}

// Load stamps interviewID on every segment and stores them with one bulk insert, so either
// all of them are committed or none is.
func (l *Loader) Load(ctx context.Context, interviewID int64, segs []Segment) (int, error) {
	if len(segs) == 0 {
		return 0, apperr.New(apperr.KindEmptyInput, "no segments to load")
	}
	rows := make([]gateway.Row, len(segs))
	for i, s := range segs {
		s.InterviewID = interviewID
		rows[i] = s.row()
	}
	inserted, err := l.gw.Insert(ctx, segmentsTable, rows...)
	if err != nil {
		return 0, apperr.Persistence(err, "insert %d segments for interview %d", len(rows), interviewID)
	}
	return len(inserted), nil
}
