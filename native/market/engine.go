package market

import (
	"errors"
	"math/big"
	"sync"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"sftmarket/core/events"
	"sftmarket/core/types"
	"sftmarket/native/common"
)

var (
	errNilState     = errors.New("market engine: state not configured")
	errPriceTooWide = errors.New("market: price arithmetic overflows 256 bits")
)

// engineState is the narrow persistence surface the market engine depends on.
// All mutation of listings and auctions flows through the engine; the state
// backend never changes them on its own.
type engineState interface {
	ListingPut(*Listing) error
	ListingGet(itemID uint64) (*Listing, bool)
	ListingDelete(itemID uint64) error
	AuctionPut(*Auction) error
	AuctionGet(id uint64) (*Auction, bool)
	NextAuctionID() (uint64, error)
	TokenBalance(addr [20]byte, itemID uint64) (*big.Int, error)
	TokenSetBalance(addr [20]byte, itemID uint64, amount *big.Int) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

type marketEvent struct {
	evt *types.Event
}

func (e marketEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e marketEvent) Event() *types.Event { return e.evt }

// VaultAddress returns the reserved system account that holds escrowed assets
// and auction deposits. It is derived from a fixed label so it can never
// collide with a key-derived participant.
func VaultAddress() [20]byte {
	hash := ethcrypto.Keccak256([]byte("sftmarket/market/vault"))
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}

// Engine drives the listing registry, the auction registry and settlement.
// Operations are serialized by an internal mutex: every registry mutation and
// its ledger transfers execute as one uninterruptible step, which the
// refund-before-replace and escrow-then-settle orderings rely on.
type Engine struct {
	mu        sync.Mutex
	state     engineState
	emitter   events.Emitter
	pauses    common.PauseView
	blacklist common.BlacklistView
	vault     [20]byte
	nowFn     func() int64
}

// NewEngine creates a market engine with a no-op emitter and the default
// vault account.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		vault:   VaultAddress(),
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetPauses configures the pause switchboard consulted before every operation.
func (e *Engine) SetPauses(p common.PauseView) { e.pauses = p }

// SetBlacklist configures the blacklist view consulted before every operation.
func (e *Engine) SetBlacklist(b common.BlacklistView) { e.blacklist = b }

// SetNowFunc overrides the time source used for auction deadlines. Primarily
// intended for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(marketEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// totalPrice computes unitPrice * quantity with 256-bit overflow checking.
func totalPrice(unitPrice, quantity *big.Int) (*big.Int, error) {
	price, overflow := uint256.FromBig(cloneBigInt(unitPrice))
	if overflow {
		return nil, errPriceTooWide
	}
	qty, overflow := uint256.FromBig(cloneBigInt(quantity))
	if overflow {
		return nil, errPriceTooWide
	}
	total, overflow := new(uint256.Int).MulOverflow(price, qty)
	if overflow {
		return nil, errPriceTooWide
	}
	return total.ToBig(), nil
}

// fundsBalance reads the fund balance of an account without mutating it.
func (e *Engine) fundsBalance(addr [20]byte) (*big.Int, error) {
	acc, err := e.state.GetAccount(addr[:])
	if err != nil {
		return nil, err
	}
	return cloneBigInt(types.EnsureAccount(acc).Balance), nil
}

// transferFunds moves an amount between fund balances, failing with
// ErrInsufficientBalance before any write when the source cannot cover it.
func (e *Engine) transferFunds(from, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if amt.Sign() < 0 {
		return ErrInvalidAmount
	}
	fromAcc, err := e.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	toAcc, err := e.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	fromAcc = types.EnsureAccount(fromAcc)
	toAcc = types.EnsureAccount(toAcc)
	if fromAcc.Balance.Cmp(amt) < 0 {
		return ErrInsufficientBalance
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amt)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amt)
	if err := e.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to[:], toAcc)
}

// transferAsset moves item units between holders, failing with
// ErrInsufficientBalance before any write when the source cannot cover it.
func (e *Engine) transferAsset(from, to [20]byte, itemID uint64, quantity *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	qty := cloneBigInt(quantity)
	if qty.Sign() == 0 {
		return nil
	}
	if qty.Sign() < 0 {
		return ErrInvalidAmount
	}
	fromBalance, err := e.state.TokenBalance(from, itemID)
	if err != nil {
		return err
	}
	fromBalance = cloneBigInt(fromBalance)
	if fromBalance.Cmp(qty) < 0 {
		return ErrInsufficientBalance
	}
	toBalance, err := e.state.TokenBalance(to, itemID)
	if err != nil {
		return err
	}
	if err := e.state.TokenSetBalance(from, itemID, fromBalance.Sub(fromBalance, qty)); err != nil {
		return err
	}
	return e.state.TokenSetBalance(to, itemID, new(big.Int).Add(cloneBigInt(toBalance), qty))
}

// GetListing returns the active listing for the item.
func (e *Engine) GetListing(itemID uint64) (*Listing, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	listing, ok := e.state.ListingGet(itemID)
	if !ok {
		return nil, ErrNotListed
	}
	return listing.Clone(), nil
}

// GetAuction returns the auction record, live or settled.
func (e *Engine) GetAuction(id uint64) (*Auction, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	auction, ok := e.state.AuctionGet(id)
	if !ok {
		return nil, ErrAuctionNotFound
	}
	return auction.Clone(), nil
}
