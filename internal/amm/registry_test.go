package amm

import (
	"errors"
	"testing"

	"cosmossdk.io/math"
)

func mustPair(t *testing.T, a, b AssetSymbol) PairID {
	t.Helper()
	pair, err := NewPairID(a, b)
	if err != nil {
		t.Fatalf("pair %s/%s: %v", a, b, err)
	}
	return pair
}

func TestRegistryCreateAndGet(t *testing.T) {
	reg := NewRegistry(nil)
	pair := mustPair(t, "ETH", "USDC")

	pool, err := reg.CreatePool(pair, Units(1000), Units(2_000_000), 30, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := reg.Get(pair)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != pool {
		t.Fatal("get returned a different pool")
	}

	view := got.View()
	if view.Status != StatusActive {
		t.Fatalf("new pool status %s, want active", view.Status)
	}
	if !view.TotalShares.Equal(got.Position("alice")) {
		t.Fatalf("creator position %s != total shares %s", got.Position("alice"), view.TotalShares)
	}
}

func TestRegistryRejectsDuplicate(t *testing.T) {
	reg := NewRegistry(nil)
	pair := mustPair(t, "ETH", "USDC")

	if _, err := reg.CreatePool(pair, Units(1), Units(1), 30, "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same pool regardless of symbol order.
	flipped := mustPair(t, "USDC", "ETH")
	_, err := reg.CreatePool(flipped, Units(1), Units(1), 30, "bob")
	if !errors.Is(err, ErrPoolAlreadyExists) {
		t.Fatalf("expected ErrPoolAlreadyExists, got %v", err)
	}
}

func TestRegistryRejectsBadCreation(t *testing.T) {
	reg := NewRegistry(nil)
	pair := mustPair(t, "ETH", "USDC")

	if _, err := reg.CreatePool(pair, math.ZeroInt(), Units(1), 30, "alice"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := reg.CreatePool(pair, Units(1), Units(1), 10_000, "alice"); !errors.Is(err, ErrInvalidFee) {
		t.Fatalf("expected ErrInvalidFee, got %v", err)
	}
	if _, err := reg.Get(pair); !errors.Is(err, ErrPoolNotFound) {
		t.Fatalf("expected ErrPoolNotFound, got %v", err)
	}
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry(nil)

	pairs := []PairID{
		mustPair(t, "ETH", "USDC"),
		mustPair(t, "BTC", "USDC"),
		mustPair(t, "ATOM", "ETH"),
	}
	for _, pair := range pairs {
		if _, err := reg.CreatePool(pair, Units(10), Units(10), 30, "alice"); err != nil {
			t.Fatalf("create %s: %v", pair, err)
		}
	}

	views := reg.List()
	if len(views) != len(pairs) {
		t.Fatalf("list length %d, want %d", len(views), len(pairs))
	}
	for i := 1; i < len(views); i++ {
		if views[i-1].Pair.String() >= views[i].Pair.String() {
			t.Fatalf("list not sorted: %s before %s", views[i-1].Pair, views[i].Pair)
		}
	}
}
