package ledger

import (
	"math/big"

	"github.com/shopspring/decimal"
)

const etherDecimals = 18

// WeiToEther converts a wei amount into ether.
func WeiToEther(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -etherDecimals)
}

// EtherToWei converts ether into wei, truncating anything below one wei.
func EtherToWei(ether decimal.Decimal) *big.Int {
	return ether.Shift(etherDecimals).BigInt()
}

// decimalOf marks a price read from the ledger as present.
func decimalOf(wei *big.Int) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: WeiToEther(wei), Valid: wei != nil}
}
