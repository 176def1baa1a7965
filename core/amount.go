package core

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// NanogrinPerGrin is the number of base units in one grin. All wire amounts
// are integer nanogrin; ledger amounts are decimals with 9 fractional digits.
const NanogrinPerGrin = 1_000_000_000

var (
	// MinTransferAmount is the smallest deposit or withdrawal accepted.
	MinTransferAmount = decimal.RequireFromString("0.1")

	// MaxTransferAmount is the largest single transfer accepted; the wallet
	// contract API carries amounts as signed nanogrin.
	MaxTransferAmount = decimal.New(math.MaxInt64, -9)

	// MaxBalanceAmount bounds amount and locked_amount on every balance.
	MaxBalanceAmount = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 64), 0)
)

// FromNanogrin converts an on-wire integer amount to a ledger decimal.
func FromNanogrin(n uint64) decimal.Decimal {
	return decimal.NewFromUint64(n).Shift(-9)
}

// ToNanogrin converts a ledger decimal to an on-wire integer amount. Amounts
// carry at most 9 fractional digits, so the conversion is exact.
func ToNanogrin(d decimal.Decimal) uint64 {
	return d.Shift(9).BigInt().Uint64()
}
