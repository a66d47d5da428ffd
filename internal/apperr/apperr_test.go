package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_MessageFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"message only", New(KindInvalid, "codigo is required"), "codigo is required"},
		{"message and cause", Wrap(KindPersistence, errors.New("connection refused"), "insert segmentos"), "insert segmentos: connection refused"},
		{"cause only", &Error{Kind: KindUpstream, Err: errors.New("boom")}, "boom"},
		{"bare kind", &Error{Kind: KindConflict}, "conflict"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_IsMatchesKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("create institution: %w", New(KindDuplicateKey, "codigo %q already exists", "AB"))

	assert.True(t, errors.Is(err, ErrDuplicateKey))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, KindDuplicateKey, KindOf(err))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("interview", 7)))
}

func TestWrap_UnwrapsToCause(t *testing.T) {
	cause := errors.New("unique violation")
	err := Persistence(cause, "insert %s", "entrevistas")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "insert entrevistas: unique violation", Message(err))
}
