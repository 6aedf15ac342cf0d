package types

import (
	"fmt"
	"strings"

	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// DefaultVenue is the simulated venue instruments are registered on when none is given.
const DefaultVenue = "SIM"

// Instrument identifies a tradable symbol on a venue. It is a comparable value
// type and is used directly as a map key.
type Instrument struct {
	Symbol string `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Venue  string `yaml:"venue" json:"venue" csv:"venue" validate:"required"`
}

// NewInstrument builds an instrument, defaulting the venue to DefaultVenue.
func NewInstrument(symbol, venue string) Instrument {
	if venue == "" {
		venue = DefaultVenue
	}

	return Instrument{
		Symbol: strings.ToUpper(strings.TrimSpace(symbol)),
		Venue:  strings.ToUpper(strings.TrimSpace(venue)),
	}
}

// ParseInstrument parses the SYMBOL.VENUE form produced by String.
// A bare symbol is placed on DefaultVenue.
func ParseInstrument(value string) (Instrument, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Instrument{}, errors.New(errors.ErrCodeInvalidInstrument, "instrument is empty")
	}

	idx := strings.LastIndex(value, ".")
	if idx < 0 {
		return NewInstrument(value, DefaultVenue), nil
	}

	symbol, venue := value[:idx], value[idx+1:]
	if symbol == "" || venue == "" {
		return Instrument{}, errors.Newf(errors.ErrCodeInvalidInstrument, "invalid instrument %q", value)
	}

	return NewInstrument(symbol, venue), nil
}

// IsZero reports whether the instrument was never set.
func (i Instrument) IsZero() bool {
	return i.Symbol == "" && i.Venue == ""
}

func (i Instrument) String() string {
	return fmt.Sprintf("%s.%s", i.Symbol, i.Venue)
}
