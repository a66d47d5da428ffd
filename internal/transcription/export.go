package transcription

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteCSV writes segments in the import format, so the output can be loaded again.
func WriteCSV(w io.Writer, segs []Segment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, s := range segs {
		ts := ""
		if s.Timestamp != nil {
			ts = *s.Timestamp
		}
		rec := []string{
			strconv.Itoa(s.SegmentID),
			ts,
			s.Role,
			s.OriginalText,
			s.NormalizedText,
			strconv.Itoa(s.Confidence),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
