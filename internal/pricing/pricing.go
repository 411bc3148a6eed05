package pricing

import (
	"fmt"

	"github.com/BerylCAtieno/translation-checkout-api/internal/utils"
)

// Rates are per-page amounts in whole currency units.
type Rates struct {
	Standard               int64
	Notarized              int64
	BankStatementSurcharge int64
}

var DefaultRates = Rates{
	Standard:               15,
	Notarized:              20,
	BankStatementSurcharge: 10,
}

type Engine struct {
	rates Rates
}

func New(rates Rates) *Engine {
	return &Engine{rates: rates}
}

func Default() *Engine {
	return New(DefaultRates)
}

func (e *Engine) Rates() Rates {
	return e.rates
}

// Price returns pages * (base + surcharge).
func (e *Engine) Price(pages int, isNotarized, isBankStatement bool) (int64, error) {
	if pages < 1 {
		return 0, fmt.Errorf("pages must be at least 1, got %d: %w", pages, utils.ErrInvalidInput)
	}

	base := e.rates.Standard
	if isNotarized {
		base = e.rates.Notarized
	}

	var surcharge int64
	if isBankStatement {
		surcharge = e.rates.BankStatementSurcharge
	}

	return int64(pages) * (base + surcharge), nil
}
