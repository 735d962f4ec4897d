// Package identifier generates unique record identifiers in one of
// several interchangeable formats. The format is fixed at construction
// so a misconfigured value fails at startup, not on first use.
package identifier

import (
	"strings"

	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"

	apperrors "github.com/entrhq/chronos/pkg/errors"
)

// Format selects the identifier encoding.
type Format string

const (
	// FormatUUID produces 36-character canonical random UUIDs.
	FormatUUID Format = "uuid"
	// FormatShort produces 22-character base57-encoded UUIDs.
	FormatShort Format = "short"
	// FormatCustom produces 12-character identifiers over an alphabet
	// without lookalike characters, for manual transcription into
	// task-tracking documents.
	FormatCustom Format = "custom"
)

// customAlphabet omits 0/O/1/I/L to keep hand-copied ids unambiguous.
const (
	customAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"
	customLength   = 12
)

// ParseFormat validates and normalizes an identifier format string.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatUUID:
		return FormatUUID, nil
	case FormatShort:
		return FormatShort, nil
	case FormatCustom:
		return FormatCustom, nil
	default:
		return "", apperrors.NewValidationError(
			"unsupported ID format %q: must be 'uuid', 'short' or 'custom'", s)
	}
}

// Generator produces identifiers in a single configured format.
type Generator struct {
	format Format
}

// NewGenerator returns a generator for the given format, or a
// validation error for an unrecognized one.
func NewGenerator(format string) (*Generator, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return &Generator{format: f}, nil
}

// Format returns the configured format.
func (g *Generator) Format() Format {
	return g.format
}

// NewID generates a fresh identifier.
func (g *Generator) NewID() string {
	switch g.format {
	case FormatShort:
		return shortuuid.New()
	case FormatCustom:
		id := shortuuid.NewWithAlphabet(customAlphabet)
		if len(id) > customLength {
			id = id[:customLength]
		}
		return id
	default:
		return uuid.NewString()
	}
}
