package transcription

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinTDCT/OralVault/internal/apperr"
)

func row(line int, id, ts, role, orig, norm, conf string) Row {
	return Row{Line: line, Values: map[string]string{
		ColID: id, ColTimestamp: ts, ColRole: role,
		ColOriginalText: orig, ColNormalizedText: norm, ColConfidence: conf,
	}}
}

func TestMapRows(t *testing.T) {
	segs, err := MapRows([]Row{
		row(2, "10", "00:01", "I", " Hola ", "hola", "5"),
		row(3, " 11 ", "", "X", "Adiós", "adios", "2"),
	})
	require.NoError(t, err)
	require.Len(t, segs, 2)

	assert.Equal(t, 10, segs[0].SegmentID)
	require.NotNil(t, segs[0].Timestamp)
	assert.Equal(t, "00:01", *segs[0].Timestamp)
	assert.Equal(t, " Hola ", segs[0].OriginalText, "text is copied verbatim")
	assert.Equal(t, 5, segs[0].Confidence)

	assert.Equal(t, 11, segs[1].SegmentID)
	assert.Nil(t, segs[1].Timestamp)
	assert.Equal(t, "X", segs[1].Role, "unknown roles are kept")
	assert.Zero(t, segs[1].InterviewID)
}

func TestMapRows_Malformed(t *testing.T) {
	tests := []struct {
		name string
		row  Row
		msg  string
	}{
		{"id", row(4, "uno", "", "I", "a", "a", "3"), `line 4: ID "uno" is not an integer`},
		{"empty id", row(5, "", "", "I", "a", "a", "3"), `line 5: ID "" is not an integer`},
		{"confidence", row(6, "1", "", "I", "a", "a", "alta"), `line 6: Nivel_de_Confianza "alta" is not an integer`},
		{"decimal confidence", row(7, "1", "", "I", "a", "a", "4.5"), `Nivel_de_Confianza "4.5"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs, err := MapRows([]Row{row(2, "1", "", "I", "ok", "ok", "1"), tt.row})
			assert.Nil(t, segs)
			assert.ErrorIs(t, err, apperr.ErrMalformedRow)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
