package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAddress(t *testing.T) {
	// friendly form: 48 url-safe base64 characters
	assert.NoError(t, ValidateAddress("EQ"+strings.Repeat("a", 46)))
	assert.NoError(t, ValidateAddress("UQ"+strings.Repeat("_", 23)+strings.Repeat("-", 23)))

	// raw form: workchain:hex
	assert.NoError(t, ValidateAddress("0:"+strings.Repeat("ab", 32)))
	assert.NoError(t, ValidateAddress("-1:"+strings.Repeat("0", 64)))

	assert.Error(t, ValidateAddress(""))
	assert.Error(t, ValidateAddress("too-short"))
	assert.Error(t, ValidateAddress("EQ"+strings.Repeat("a", 47)))
	assert.Error(t, ValidateAddress("0:nothex"))
}

func TestValidateTxHash(t *testing.T) {
	assert.NoError(t, ValidateTxHash(strings.Repeat("ab", 32)))
	assert.NoError(t, ValidateTxHash(strings.Repeat("AB", 32)))
	// base64 form, 44 chars
	assert.NoError(t, ValidateTxHash(strings.Repeat("a", 43)+"="))

	assert.Error(t, ValidateTxHash(""))
	assert.Error(t, ValidateTxHash("zz"))
	assert.Error(t, ValidateTxHash(strings.Repeat("g", 64))) // not hex, not 44 chars
}

func TestValidatePositiveAmount(t *testing.T) {
	assert.NoError(t, ValidatePositiveAmount(1))
	assert.Error(t, ValidatePositiveAmount(0))
	assert.Error(t, ValidatePositiveAmount(-5))
}

func TestValidateCurrency(t *testing.T) {
	assert.NoError(t, ValidateCurrency(CurrencyTON))
	assert.NoError(t, ValidateCurrency(CurrencyUSDT))
	assert.Error(t, ValidateCurrency(Currency("BTC")))
	assert.Error(t, ValidateCurrency(Currency("")))
}

func TestValidateNumbers(t *testing.T) {
	assert.NoError(t, ValidateNumbers([]int32{1, 5, 12, 23, 36}, 5, 36))

	// wrong count
	assert.Error(t, ValidateNumbers([]int32{1, 2, 3, 4}, 5, 36))
	// out of range
	assert.Error(t, ValidateNumbers([]int32{0, 2, 3, 4, 5}, 5, 36))
	assert.Error(t, ValidateNumbers([]int32{1, 2, 3, 4, 37}, 5, 36))
	// duplicate
	assert.Error(t, ValidateNumbers([]int32{1, 2, 3, 4, 4}, 5, 36))
}

func TestPayoutConfigValidate(t *testing.T) {
	valid := PayoutConfig{
		PlatformBP: 3000, PrizeBP: 7000,
		JackpotBP: 2000, PayoutBP: 8000,
		Match4BP: 4000, Match3BP: 3500, Match2BP: 2500,
		ReserveBP: 5000, IncomeBP: 5000,
	}
	assert.NoError(t, valid.Validate())

	broken := valid
	broken.PrizeBP = 6999
	assert.Error(t, broken.Validate())

	broken = valid
	broken.Match2BP = 2501
	assert.Error(t, broken.Validate())

	broken = valid
	broken.Match1Fixed = -1
	assert.Error(t, broken.Validate())
}
