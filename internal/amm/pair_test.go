package amm

import (
	"testing"
)

func TestNewPairIDCanonical(t *testing.T) {
	a, err := NewPairID("ETH", "USDC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := NewPairID("usdc", " eth ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a != b {
		t.Fatalf("pair ids differ: %v != %v", a, b)
	}
	if a.String() != "ETH-USDC" {
		t.Fatalf("canonical form mismatch: %s", a)
	}
}

func TestNewPairIDRejectsInvalid(t *testing.T) {
	if _, err := NewPairID("", "USDC"); err == nil {
		t.Fatal("expected error for empty symbol")
	}
	if _, err := NewPairID("ETH", "eth"); err == nil {
		t.Fatal("expected error for identical symbols")
	}
}

func TestParsePairID(t *testing.T) {
	pair, err := ParsePairID("USDC-ETH")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.String() != "ETH-USDC" {
		t.Fatalf("canonical form mismatch: %s", pair)
	}

	if _, err := ParsePairID("ETHUSDC"); err == nil {
		t.Fatal("expected error for missing separator")
	}
}

func TestParseSide(t *testing.T) {
	if side, err := ParseSide(" Buy "); err != nil || side != SideBuy {
		t.Fatalf("buy parse failed: %v %v", side, err)
	}
	if side, err := ParseSide("sell"); err != nil || side != SideSell {
		t.Fatalf("sell parse failed: %v %v", side, err)
	}
	if _, err := ParseSide("short"); err == nil {
		t.Fatal("expected error for unknown direction")
	}
}
