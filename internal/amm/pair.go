package amm

import (
	"strings"
)

// AssetSymbol identifies a token. It carries no behavior beyond identity.
type AssetSymbol string

// PairID is the canonical, order-independent identifier for a trading pair.
// Base is always the lexicographically smaller symbol, so ETH-USDC and
// USDC-ETH resolve to the same pool.
type PairID struct {
	Base  AssetSymbol
	Quote AssetSymbol
}

// NewPairID canonicalizes two symbols into a PairID. Symbols are upper-cased
// and trimmed; empty or identical symbols are rejected.
func NewPairID(a, b AssetSymbol) (PairID, error) {
	first := normalizeSymbol(a)
	second := normalizeSymbol(b)

	if first == "" || second == "" {
		return PairID{}, ErrInvalidPair.Wrap("asset symbol cannot be empty")
	}
	if first == second {
		return PairID{}, ErrInvalidPair.Wrapf("pair requires two distinct assets, got %s twice", first)
	}

	if first > second {
		first, second = second, first
	}
	return PairID{Base: first, Quote: second}, nil
}

// ParsePairID parses the canonical "BASE-QUOTE" form. Order in the input does
// not matter; the result is always canonical.
func ParsePairID(s string) (PairID, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return PairID{}, ErrInvalidPair.Wrapf("expected BASE-QUOTE, got %q", s)
	}
	return NewPairID(AssetSymbol(parts[0]), AssetSymbol(parts[1]))
}

func normalizeSymbol(a AssetSymbol) AssetSymbol {
	return AssetSymbol(strings.ToUpper(strings.TrimSpace(string(a))))
}

// String returns the canonical "BASE-QUOTE" form.
func (p PairID) String() string {
	return string(p.Base) + "-" + string(p.Quote)
}

// Side expresses a trade direction relative to the pair's base asset.
type Side string

const (
	// SideBuy spends the quote asset and receives the base asset.
	SideBuy Side = "buy"
	// SideSell spends the base asset and receives the quote asset.
	SideSell Side = "sell"
)

// ParseSide validates a direction string.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	default:
		return "", ErrInvalidDirection.Wrapf("unknown trade direction %q", s)
	}
}
