package pricing

import (
	"errors"
	"testing"

	"github.com/BerylCAtieno/translation-checkout-api/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrice_Rates(t *testing.T) {
	e := Default()

	for pages := 1; pages <= 50; pages++ {
		std, err := e.Price(pages, false, false)
		require.NoError(t, err)
		assert.Equal(t, int64(pages*15), std)

		notarized, err := e.Price(pages, true, false)
		require.NoError(t, err)
		assert.Equal(t, int64(pages*20), notarized)

		both, err := e.Price(pages, true, true)
		require.NoError(t, err)
		assert.Equal(t, int64(pages*30), both)

		bank, err := e.Price(pages, false, true)
		require.NoError(t, err)
		assert.Equal(t, int64(pages*25), bank)
	}
}

func TestPrice_RejectsNonPositivePages(t *testing.T) {
	for _, pages := range []int{0, -1, -100} {
		_, err := Default().Price(pages, false, false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, utils.ErrInvalidInput))
	}
}

func TestPrice_CustomRates(t *testing.T) {
	e := New(Rates{Standard: 18, Notarized: 25, BankStatementSurcharge: 12})

	got, err := e.Price(2, true, true)
	require.NoError(t, err)
	assert.Equal(t, int64(74), got)
	assert.Equal(t, int64(18), e.Rates().Standard)
}
