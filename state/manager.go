package state

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"

	"sftmarket/core/types"
	"sftmarket/native/market"
	"sftmarket/native/token"
	"sftmarket/storage"
)

// Manager persists market, token and account state in a key-value store. Keys
// are keccak hashes of readable prefixes, values are RLP. The manager is the
// single state backend shared by the market and token engines and also serves
// the pause/blacklist/role views of the guard layer.
type Manager struct {
	mu sync.Mutex
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// RLP has no signed integers, so timestamps are stored widened to uint64.
type storedListing struct {
	ItemID    uint64
	Seller    [20]byte
	UnitPrice *big.Int
	Quantity  *big.Int
}

type storedBid struct {
	Bidder    [20]byte
	Deposit   *big.Int
	Quantity  *big.Int
	UnitPrice *big.Int
}

type storedAuction struct {
	ID        uint64
	Seller    [20]byte
	ItemID    uint64
	Quantity  *big.Int
	UnitPrice *big.Int
	Bidder    [20]byte
	Bids      []storedBid
	EndTime   uint64
	Ended     bool
}

type storedAccount struct {
	Nonce   uint64
	Balance *big.Int
}

type storedItem struct {
	ID        uint64
	Creator   [20]byte
	Supply    *big.Int
	URI       string
	CreatedAt uint64
}

func (m *Manager) write(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("encode state value: %w", err)
	}
	return m.db.Put(key, encoded)
}

func (m *Manager) read(key []byte, out interface{}) (bool, error) {
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("decode state value: %w", err)
	}
	return true, nil
}

// --- market engine state ---

func (m *Manager) ListingPut(l *market.Listing) error {
	sanitized, err := market.SanitizeListing(l)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := storedListing{
		ItemID:    sanitized.ItemID,
		Seller:    sanitized.Seller,
		UnitPrice: sanitized.UnitPrice,
		Quantity:  sanitized.Quantity,
	}
	return m.write(listingKey(sanitized.ItemID), &stored)
}

func (m *Manager) ListingGet(itemID uint64) (*market.Listing, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stored storedListing
	ok, err := m.read(listingKey(itemID), &stored)
	if err != nil || !ok {
		return nil, false
	}
	return &market.Listing{
		ItemID:    stored.ItemID,
		Seller:    stored.Seller,
		UnitPrice: stored.UnitPrice,
		Quantity:  stored.Quantity,
	}, true
}

func (m *Manager) ListingDelete(itemID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.Delete(listingKey(itemID))
}

func (m *Manager) AuctionPut(a *market.Auction) error {
	sanitized, err := market.SanitizeAuction(a)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := storedAuction{
		ID:        sanitized.ID,
		Seller:    sanitized.Seller,
		ItemID:    sanitized.ItemID,
		Quantity:  sanitized.Quantity,
		UnitPrice: sanitized.UnitPrice,
		Bidder:    sanitized.Bidder,
		EndTime:   uint64(sanitized.EndTime),
		Ended:     sanitized.Ended,
	}
	for i := range sanitized.Bids {
		stored.Bids = append(stored.Bids, storedBid{
			Bidder:    sanitized.Bids[i].Bidder,
			Deposit:   sanitized.Bids[i].Deposit,
			Quantity:  sanitized.Bids[i].Quantity,
			UnitPrice: sanitized.Bids[i].UnitPrice,
		})
	}
	return m.write(auctionKey(sanitized.ID), &stored)
}

func (m *Manager) AuctionGet(id uint64) (*market.Auction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stored storedAuction
	ok, err := m.read(auctionKey(id), &stored)
	if err != nil || !ok {
		return nil, false
	}
	auction := &market.Auction{
		ID:        stored.ID,
		Seller:    stored.Seller,
		ItemID:    stored.ItemID,
		Quantity:  stored.Quantity,
		UnitPrice: stored.UnitPrice,
		Bidder:    stored.Bidder,
		EndTime:   int64(stored.EndTime),
		Ended:     stored.Ended,
	}
	for i := range stored.Bids {
		auction.Bids = append(auction.Bids, market.BidEntry{
			Bidder:    stored.Bids[i].Bidder,
			Deposit:   stored.Bids[i].Deposit,
			Quantity:  stored.Bids[i].Quantity,
			UnitPrice: stored.Bids[i].UnitPrice,
		})
	}
	return auction, true
}

// NextAuctionID increments and persists the auction counter. Ids start at 1
// and are never reused.
func (m *Manager) NextAuctionID() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var current uint64
	if _, err := m.read(auctionSeqKey(), &current); err != nil {
		return 0, err
	}
	next := current + 1
	if err := m.write(auctionSeqKey(), next); err != nil {
		return 0, err
	}
	return next, nil
}

// --- token engine state ---

func (m *Manager) ItemPut(i *token.Item) error {
	sanitized, err := token.SanitizeItem(i)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := storedItem{
		ID:        sanitized.ID,
		Creator:   sanitized.Creator,
		Supply:    sanitized.Supply,
		URI:       sanitized.URI,
		CreatedAt: uint64(sanitized.CreatedAt),
	}
	return m.write(itemKey(sanitized.ID), &stored)
}

func (m *Manager) ItemGet(id uint64) (*token.Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stored storedItem
	ok, err := m.read(itemKey(id), &stored)
	if err != nil || !ok {
		return nil, false
	}
	return &token.Item{
		ID:        stored.ID,
		Creator:   stored.Creator,
		Supply:    stored.Supply,
		URI:       stored.URI,
		CreatedAt: int64(stored.CreatedAt),
	}, true
}

func (m *Manager) TokenBalance(addr [20]byte, itemID uint64) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance := new(big.Int)
	ok, err := m.read(tokenBalanceKey(addr, itemID), balance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return balance, nil
}

func (m *Manager) TokenSetBalance(addr [20]byte, itemID uint64, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("token balance must be non-negative")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if amount.Sign() == 0 {
		return m.db.Delete(tokenBalanceKey(addr, itemID))
	}
	return m.write(tokenBalanceKey(addr, itemID), amount)
}

// --- accounts ---

func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stored storedAccount
	ok, err := m.read(accountKey(addr), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	return &types.Account{Nonce: stored.Nonce, Balance: stored.Balance}, nil
}

func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	account = types.EnsureAccount(account)
	if account.Balance.Sign() < 0 {
		return fmt.Errorf("account balance must be non-negative")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := storedAccount{Nonce: account.Nonce, Balance: account.Balance}
	return m.write(accountKey(addr), &stored)
}

// --- guard views and admin switches ---

func (m *Manager) flag(key []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, err := m.db.Get(key)
	if err != nil {
		return false
	}
	return len(data) == 1 && data[0] == 1
}

func (m *Manager) setFlag(key []byte, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !value {
		return m.db.Delete(key)
	}
	return m.db.Put(key, []byte{1})
}

func (m *Manager) IsPaused(module string) bool { return m.flag(pauseKey(module)) }

func (m *Manager) SetPaused(module string, paused bool) error {
	return m.setFlag(pauseKey(module), paused)
}

func (m *Manager) IsBlacklisted(addr [20]byte) bool { return m.flag(blacklistKey(addr)) }

func (m *Manager) SetBlacklisted(addr [20]byte, blacklisted bool) error {
	return m.setFlag(blacklistKey(addr), blacklisted)
}

func (m *Manager) HasRole(role string, addr [20]byte) bool { return m.flag(roleKey(role, addr)) }

func (m *Manager) GrantRole(role string, addr [20]byte) error {
	return m.setFlag(roleKey(role, addr), true)
}

func (m *Manager) RevokeRole(role string, addr [20]byte) error {
	return m.setFlag(roleKey(role, addr), false)
}

// --- genesis marker ---

// Initialized reports whether genesis state has been applied to this store.
func (m *Manager) Initialized() bool { return m.flag(initializedKey()) }

// SetInitialized marks the store so genesis is applied exactly once.
func (m *Manager) SetInitialized() error { return m.setFlag(initializedKey(), true) }
