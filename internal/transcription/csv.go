package transcription

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/JustinTDCT/OralVault/internal/apperr"
)

// Column names of a transcription CSV, in the order they are exported.
const (
	ColID             = "ID"
	ColTimestamp      = "Timestamp"
	ColRole           = "Rol"
	ColOriginalText   = "Texto_Original"
	ColNormalizedText = "Texto_Normalizado"
	ColConfidence     = "Nivel_de_Confianza"
)

var Columns = []string{ColID, ColTimestamp, ColRole, ColOriginalText, ColNormalizedText, ColConfidence}

// Row is one data line keyed by header name. Line is the 1-based line it started on.
type Row struct {
	Line   int
	Values map[string]string
}

func (r Row) Get(col string) string {
	return r.Values[col]
}

// ParseCSV reads a header line followed by data lines. The header must name every column
// in Columns exactly once, in any order. Blank lines are skipped. Any syntax error fails
// the whole parse.
func ParseCSV(text string) ([]Row, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	rd := csv.NewReader(strings.NewReader(text))
	rd.FieldsPerRecord = -1

	header, err := rd.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperr.New(apperr.KindParse, "missing header line")
	}
	if err != nil {
		return nil, parseError(err)
	}
	index, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	var rows []Row
	for {
		rec, err := rd.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, parseError(err)
		}
		line, _ := rd.FieldPos(0)
		if blank(rec) {
			continue
		}
		if len(rec) != len(header) {
			return nil, apperr.New(apperr.KindParse, "line %d: expected %d fields, got %d", line, len(header), len(rec))
		}
		values := make(map[string]string, len(index))
		for col, i := range index {
			values[col] = rec[i]
		}
		rows = append(rows, Row{Line: line, Values: values})
	}
	return rows, nil
}

func headerIndex(header []string) (map[string]int, error) {
	want := make(map[string]bool, len(Columns))
	for _, c := range Columns {
		want[c] = true
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if !want[name] {
			return nil, apperr.New(apperr.KindParse, "unexpected column %q in header", name)
		}
		if _, dup := index[name]; dup {
			return nil, apperr.New(apperr.KindParse, "column %q appears twice in header", name)
		}
		index[name] = i
	}
	for _, c := range Columns {
		if _, ok := index[c]; !ok {
			return nil, apperr.New(apperr.KindParse, "missing column %q in header", c)
		}
	}
	return index, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return apperr.Wrap(apperr.KindParse, err, "line %d: %v", pe.StartLine, pe.Err)
	}
	return apperr.Wrap(apperr.KindParse, err, "read csv")
}
