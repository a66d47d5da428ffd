package transcription

import (
	"strconv"
	"strings"

	"github.com/JustinTDCT/OralVault/internal/apperr"
)

// MapRows turns parsed rows into segment candidates, in input order. Text columns are
// copied as-is.
func MapRows(rows []Row) ([]Segment, error) {
	segs := make([]Segment, 0, len(rows))
	for _, r := range rows {
		id, err := parseInt(r, ColID)
		if err != nil {
			return nil, err
		}
		conf, err := parseInt(r, ColConfidence)
		if err != nil {
			return nil, err
		}
		var ts *string
		if v := r.Get(ColTimestamp); v != "" {
			ts = &v
		}
		segs = append(segs, Segment{
			SegmentID:      id,
			Timestamp:      ts,
			Role:           r.Get(ColRole),
			OriginalText:   r.Get(ColOriginalText),
			NormalizedText: r.Get(ColNormalizedText),
			Confidence:     conf,
		})
	}
	return segs, nil
}

func parseInt(r Row, col string) (int, error) {
	raw := r.Get(col)
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, apperr.Wrap(apperr.KindMalformedRow, err, "line %d: %s %q is not an integer", r.Line, col, raw)
	}
	return n, nil
}
