package market

import (
	"errors"
	"math/big"
	"testing"

	"sftmarket/native/common"
)

func TestListValidations(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	seller := newTestAddress(0x01)
	state.setHolding(seller, 1, 5)

	cases := []struct {
		name     string
		itemID   uint64
		price    int64
		quantity int64
		wantErr  error
	}{
		{"ok", 1, 10, 2, nil},
		{"zero price", 1, 0, 2, ErrInvalidAmount},
		{"zero quantity", 1, 10, 0, ErrInvalidAmount},
		{"zero item", 0, 10, 2, ErrInvalidAmount},
		{"not enough held", 1, 10, 50, ErrInsufficientBalance},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := engine.List(seller, tc.itemID, big.NewInt(tc.price), big.NewInt(tc.quantity))
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestListEscrowsAssets(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	emitter := &capturingEmitter{}
	engine.SetEmitter(emitter)
	seller := newTestAddress(0x02)
	state.setHolding(seller, 7, 4)

	if err := engine.List(seller, 7, big.NewInt(10), big.NewInt(3)); err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := state.holding(seller, 7); got != "1" {
		t.Fatalf("expected seller holding 1, got %s", got)
	}
	if got := state.holding(VaultAddress(), 7); got != "3" {
		t.Fatalf("expected vault holding 3, got %s", got)
	}
	if emitter.lastType() != EventTypeListed {
		t.Fatalf("expected listed event, got %s", emitter.lastType())
	}
}

func TestListReplacementReleasesPreviousEscrow(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	first := newTestAddress(0x03)
	second := newTestAddress(0x04)
	state.setHolding(first, 9, 5)
	state.setHolding(second, 9, 2)

	if err := engine.List(first, 9, big.NewInt(10), big.NewInt(5)); err != nil {
		t.Fatalf("first list: %v", err)
	}
	if err := engine.List(second, 9, big.NewInt(20), big.NewInt(2)); err != nil {
		t.Fatalf("replacement list: %v", err)
	}
	if got := state.holding(first, 9); got != "5" {
		t.Fatalf("expected first seller refunded escrow, got %s", got)
	}
	if got := state.holding(VaultAddress(), 9); got != "2" {
		t.Fatalf("expected vault to hold only the new escrow, got %s", got)
	}
	listing, ok := state.ListingGet(9)
	if !ok || listing.Seller != second || listing.UnitPrice.String() != "20" {
		t.Fatalf("expected replacement listing, got %+v", listing)
	}
}

func TestPurchasePartialThenFullDeletesListing(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	emitter := &capturingEmitter{}
	engine.SetEmitter(emitter)
	seller := newTestAddress(0x05)
	buyer := newTestAddress(0x06)
	state.setHolding(seller, 1, 2)
	state.setFunds(buyer, 100)

	if err := engine.List(seller, 1, big.NewInt(10), big.NewInt(2)); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := engine.Purchase(buyer, 1, big.NewInt(1), big.NewInt(10)); err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	listing, ok := state.ListingGet(1)
	if !ok {
		t.Fatalf("listing must survive a partial purchase")
	}
	if listing.Quantity.String() != "1" {
		t.Fatalf("expected remaining quantity 1, got %s", listing.Quantity)
	}
	if err := engine.Purchase(buyer, 1, big.NewInt(1), big.NewInt(10)); err != nil {
		t.Fatalf("second purchase: %v", err)
	}
	if _, ok := state.ListingGet(1); ok {
		t.Fatalf("listing must be deleted after the full quantity sells")
	}
	if got := state.funds(seller); got != "20" {
		t.Fatalf("expected seller proceeds 20, got %s", got)
	}
	if got := state.funds(buyer); got != "80" {
		t.Fatalf("expected buyer balance 80, got %s", got)
	}
	if got := state.holding(buyer, 1); got != "2" {
		t.Fatalf("expected buyer holding 2, got %s", got)
	}
	if got := state.holding(VaultAddress(), 1); got != "0" {
		t.Fatalf("expected empty vault, got %s", got)
	}
	if emitter.lastType() != EventTypePurchased {
		t.Fatalf("expected purchased event, got %s", emitter.lastType())
	}
}

func TestPurchaseRejections(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	seller := newTestAddress(0x07)
	buyer := newTestAddress(0x08)
	state.setHolding(seller, 3, 2)
	state.setFunds(buyer, 15)

	if err := engine.Purchase(buyer, 3, big.NewInt(1), big.NewInt(10)); !errors.Is(err, ErrNotListed) {
		t.Fatalf("expected not listed, got %v", err)
	}
	if err := engine.List(seller, 3, big.NewInt(10), big.NewInt(2)); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := engine.Purchase(buyer, 3, big.NewInt(3), big.NewInt(30)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if err := engine.Purchase(buyer, 3, big.NewInt(0), big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount for zero quantity, got %v", err)
	}
	if err := engine.Purchase(buyer, 3, big.NewInt(1), big.NewInt(9)); !errors.Is(err, ErrIncorrectPayment) {
		t.Fatalf("expected incorrect payment, got %v", err)
	}
	if err := engine.Purchase(buyer, 3, big.NewInt(2), big.NewInt(20)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	// Nothing moved on any failed path.
	if got := state.funds(buyer); got != "15" {
		t.Fatalf("expected untouched buyer funds, got %s", got)
	}
	if got := state.holding(VaultAddress(), 3); got != "2" {
		t.Fatalf("expected escrow intact, got %s", got)
	}
}

func TestCancelReleasesEscrowToSeller(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	emitter := &capturingEmitter{}
	engine.SetEmitter(emitter)
	seller := newTestAddress(0x09)
	stranger := newTestAddress(0x0A)
	state.setHolding(seller, 4, 3)

	if err := engine.List(seller, 4, big.NewInt(5), big.NewInt(3)); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := engine.Cancel(stranger, 4); !errors.Is(err, ErrNotSeller) {
		t.Fatalf("expected not seller, got %v", err)
	}
	if err := engine.Cancel(seller, 4); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, ok := state.ListingGet(4); ok {
		t.Fatalf("expected listing deleted")
	}
	if got := state.holding(seller, 4); got != "3" {
		t.Fatalf("expected escrow returned to seller, got %s", got)
	}
	if got := state.holding(VaultAddress(), 4); got != "0" {
		t.Fatalf("expected empty vault, got %s", got)
	}
	if emitter.lastType() != EventTypeListingRemoved {
		t.Fatalf("expected removal event, got %s", emitter.lastType())
	}
	if err := engine.Cancel(seller, 4); !errors.Is(err, ErrNotListed) {
		t.Fatalf("expected not listed after cancel, got %v", err)
	}
}

func TestListingGuardLayer(t *testing.T) {
	state := newMockState()
	engine := newTestEngine(state)
	seller := newTestAddress(0x0B)
	buyer := newTestAddress(0x0C)
	state.setHolding(seller, 2, 1)
	state.setFunds(buyer, 10)

	guards := &stubGuards{paused: map[string]bool{common.ModuleMarket: true}}
	engine.SetPauses(guards)
	if err := engine.List(seller, 2, big.NewInt(10), big.NewInt(1)); !errors.Is(err, common.ErrModulePaused) {
		t.Fatalf("expected pause rejection, got %v", err)
	}
	guards.paused[common.ModuleMarket] = false
	engine.SetBlacklist(&stubGuards{blacklisted: map[[20]byte]bool{buyer: true}})
	if err := engine.List(seller, 2, big.NewInt(10), big.NewInt(1)); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := engine.Purchase(buyer, 2, big.NewInt(1), big.NewInt(10)); !errors.Is(err, common.ErrBlacklisted) {
		t.Fatalf("expected blacklist rejection, got %v", err)
	}
	// A failed guard leaves the escrow and the buyer untouched.
	if got := state.funds(buyer); got != "10" {
		t.Fatalf("expected untouched buyer funds, got %s", got)
	}
	if got := state.holding(VaultAddress(), 2); got != "1" {
		t.Fatalf("expected escrow intact, got %s", got)
	}
}
