package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Asset names a balance kept by the funding ledger.
type Asset string

const (
	// AssetNative is the value the contract escrows and pays rent from.
	AssetNative Asset = "ETH"
	// AssetFeeToken is the token consumed as the oracle request fee.
	AssetFeeToken Asset = "LINK"
)

// ErrUnknownAsset is returned by ParseAsset for anything but ETH or LINK.
var ErrUnknownAsset = errors.New("unknown asset")

// ErrBadAmount is returned for amounts that are not whole base units.
var ErrBadAmount = errors.New("amount must be a non-negative integer of base units")

// BaseUnitsPerToken is 10^18, the base units in one ether or one LINK.
var BaseUnitsPerToken = decimal.New(1, 18)

// ParseAsset accepts an asset symbol case-insensitively.
func ParseAsset(s string) (Asset, error) {
	switch Asset(strings.ToUpper(strings.TrimSpace(s))) {
	case AssetNative:
		return AssetNative, nil
	case AssetFeeToken:
		return AssetFeeToken, nil
	}
	return "", ErrUnknownAsset
}

// ParseAmount parses a base-unit amount ("10000000000000000").
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() || !d.IsInteger() {
		return decimal.Zero, ErrBadAmount
	}
	return d, nil
}

// ToTokens converts base units to whole-token units, e.g. wei to ether.
func ToTokens(baseUnits decimal.Decimal) decimal.Decimal {
	return baseUnits.Div(BaseUnitsPerToken)
}
