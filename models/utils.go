package models

import (
	"math/big"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
)

// IsAddress reports whether s is a base58-encoded 32-byte public key
func IsAddress(s string) bool {
	if len(s) < 32 || len(s) > 44 {
		return false
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return len(raw) == 32
}

// UIAmount converts a raw token amount to a human-readable decimal string
func UIAmount(amount uint64, decimals uint8) string {
	d := decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals))
	return d.String()
}
