// Package settings stores runtime overrides in the ajustes table. The server reads them once
// at startup on top of the file and environment configuration.
package settings

import (
	"github.com/spf13/cast"

	"github.com/JustinTDCT/OralVault/internal/apperr"
	"github.com/JustinTDCT/OralVault/internal/gateway"
)

const Table = "ajustes"

const (
	KeyTranslateModel    = "translate_model"
	KeyTranslateTarget   = "translate_target"
	KeyTranslateRate     = "translate_rate"
	KeyTranslateMaxChars = "translate_max_chars"
	KeyCacheTTL          = "cache_ttl"
)

type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Validate rejects unknown keys and values the server could not apply.
func Validate(key, value string) error {
	switch key {
	case KeyTranslateModel, KeyTranslateTarget:
		if value == "" {
			return apperr.Invalid("%s must not be empty", key)
		}
	case KeyTranslateRate:
		if v, err := cast.ToFloat64E(value); err != nil || v <= 0 {
			return apperr.Invalid("%s must be a positive number, got %q", key, value)
		}
	case KeyTranslateMaxChars:
		if v, err := cast.ToIntE(value); err != nil || v <= 0 {
			return apperr.Invalid("%s must be a positive integer, got %q", key, value)
		}
	case KeyCacheTTL:
		if v, err := cast.ToDurationE(value); err != nil || v < 0 {
			return apperr.Invalid("%s must be a duration such as 5m, got %q", key, value)
		}
	default:
		return apperr.Invalid("unknown setting %q", key)
	}
	return nil
}

func fromRow(r gateway.Row) Setting {
	return Setting{Key: r.String("key"), Value: r.String("value")}
}
