package market

import (
	"bytes"
	"fmt"
	"math/big"
	"testing"

	"sftmarket/core/events"
	"sftmarket/core/types"
)

type mockState struct {
	listings  map[uint64]*Listing
	auctions  map[uint64]*Auction
	auctionID uint64
	tokens    map[[20]byte]map[uint64]*big.Int
	accounts  map[[20]byte]*types.Account
}

func newMockState() *mockState {
	return &mockState{
		listings: make(map[uint64]*Listing),
		auctions: make(map[uint64]*Auction),
		tokens:   make(map[[20]byte]map[uint64]*big.Int),
		accounts: make(map[[20]byte]*types.Account),
	}
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

func (m *mockState) ListingPut(l *Listing) error {
	sanitized, err := SanitizeListing(l)
	if err != nil {
		return err
	}
	m.listings[sanitized.ItemID] = sanitized.Clone()
	return nil
}

func (m *mockState) ListingGet(itemID uint64) (*Listing, bool) {
	listing, ok := m.listings[itemID]
	if !ok {
		return nil, false
	}
	return listing.Clone(), true
}

func (m *mockState) ListingDelete(itemID uint64) error {
	delete(m.listings, itemID)
	return nil
}

func (m *mockState) AuctionPut(a *Auction) error {
	sanitized, err := SanitizeAuction(a)
	if err != nil {
		return err
	}
	m.auctions[sanitized.ID] = sanitized.Clone()
	return nil
}

func (m *mockState) AuctionGet(id uint64) (*Auction, bool) {
	auction, ok := m.auctions[id]
	if !ok {
		return nil, false
	}
	return auction.Clone(), true
}

func (m *mockState) NextAuctionID() (uint64, error) {
	m.auctionID++
	return m.auctionID, nil
}

func (m *mockState) TokenBalance(addr [20]byte, itemID uint64) (*big.Int, error) {
	if holdings, ok := m.tokens[addr]; ok {
		if balance, ok := holdings[itemID]; ok && balance != nil {
			return new(big.Int).Set(balance), nil
		}
	}
	return big.NewInt(0), nil
}

func (m *mockState) TokenSetBalance(addr [20]byte, itemID uint64, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("negative balance")
	}
	if _, ok := m.tokens[addr]; !ok {
		m.tokens[addr] = make(map[uint64]*big.Int)
	}
	m.tokens[addr][itemID] = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) GetAccount(addr []byte) (*types.Account, error) {
	var key [20]byte
	copy(key[:], addr)
	if acc, ok := m.accounts[key]; ok {
		return acc.Clone(), nil
	}
	return &types.Account{Balance: big.NewInt(0)}, nil
}

func (m *mockState) PutAccount(addr []byte, account *types.Account) error {
	var key [20]byte
	copy(key[:], addr)
	m.accounts[key] = account.Clone()
	return nil
}

func (m *mockState) setFunds(addr [20]byte, amount int64) {
	m.accounts[addr] = &types.Account{Balance: big.NewInt(amount)}
}

func (m *mockState) funds(addr [20]byte) string {
	if acc, ok := m.accounts[addr]; ok && acc.Balance != nil {
		return acc.Balance.String()
	}
	return "0"
}

func (m *mockState) setHolding(addr [20]byte, itemID uint64, amount int64) {
	if _, ok := m.tokens[addr]; !ok {
		m.tokens[addr] = make(map[uint64]*big.Int)
	}
	m.tokens[addr][itemID] = big.NewInt(amount)
}

func (m *mockState) holding(addr [20]byte, itemID uint64) string {
	if holdings, ok := m.tokens[addr]; ok {
		if balance, ok := holdings[itemID]; ok && balance != nil {
			return balance.String()
		}
	}
	return "0"
}

type stubGuards struct {
	paused      map[string]bool
	blacklisted map[[20]byte]bool
}

func (s *stubGuards) IsPaused(module string) bool { return s != nil && s.paused[module] }

func (s *stubGuards) IsBlacklisted(addr [20]byte) bool { return s != nil && s.blacklisted[addr] }

type capturingEmitter struct {
	events []events.Event
}

func (c *capturingEmitter) Emit(evt events.Event) {
	c.events = append(c.events, evt)
}

func (c *capturingEmitter) typesEvents() []*types.Event {
	out := make([]*types.Event, 0, len(c.events))
	for _, evt := range c.events {
		if wrapper, ok := evt.(marketEvent); ok && wrapper.evt != nil {
			out = append(out, wrapper.evt)
		}
	}
	return out
}

func (c *capturingEmitter) lastType() string {
	evts := c.typesEvents()
	if len(evts) == 0 {
		return ""
	}
	return evts[len(evts)-1].Type
}

const testNow = int64(1_700_000_000)

func newTestEngine(state *mockState) *Engine {
	engine := NewEngine()
	engine.SetState(state)
	engine.SetNowFunc(func() int64 { return testNow })
	return engine
}

func TestVaultAddressIsStableAndNonZero(t *testing.T) {
	vault := VaultAddress()
	if vault == ([20]byte{}) {
		t.Fatalf("vault address must not be the zero account")
	}
	if vault != VaultAddress() {
		t.Fatalf("vault address must be deterministic")
	}
}

func TestTotalPriceOverflow(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 200)
	if _, err := totalPrice(huge, huge); err == nil {
		t.Fatalf("expected overflow error")
	}
	total, err := totalPrice(big.NewInt(10), big.NewInt(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total.String() != "30" {
		t.Fatalf("expected 30, got %s", total)
	}
}
