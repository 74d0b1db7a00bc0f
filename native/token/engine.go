package token

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"sftmarket/core/events"
	"sftmarket/core/types"
	"sftmarket/native/common"
)

var errNilState = errors.New("token engine: state not configured")

type engineState interface {
	ItemPut(*Item) error
	ItemGet(id uint64) (*Item, bool)
	TokenBalance(addr [20]byte, itemID uint64) (*big.Int, error)
	TokenSetBalance(addr [20]byte, itemID uint64, amount *big.Int) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

type tokenEvent struct {
	evt *types.Event
}

func (e tokenEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e tokenEvent) Event() *types.Event { return e.evt }

// Engine implements the semi-fungible token ledger: per-item balances, role
// gated minting and the fund transfers the market settlement relies on.
type Engine struct {
	state     engineState
	emitter   events.Emitter
	pauses    common.PauseView
	blacklist common.BlacklistView
	roles     common.RoleView
	nowFn     func() int64
}

// NewEngine creates a token engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetPauses configures the pause switchboard consulted before every mutation.
func (e *Engine) SetPauses(p common.PauseView) { e.pauses = p }

// SetBlacklist configures the blacklist view consulted before every mutation.
func (e *Engine) SetBlacklist(b common.BlacklistView) { e.blacklist = b }

// SetRoles configures the role registry gating mint operations.
func (e *Engine) SetRoles(r common.RoleView) { e.roles = r }

// SetNowFunc overrides the time source, primarily for deterministic tests.
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
	e.emitter.Emit(tokenEvent{evt: event})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// Mint creates quantity units of the item and credits them to the recipient.
// The first mint of an id registers the item with the caller as creator; later
// mints top up supply and must come from the same creator.
func (e *Engine) Mint(caller, to [20]byte, itemID uint64, quantity *big.Int, uri string) (*Item, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := common.Guard(e.pauses, common.ModuleToken); err != nil {
		return nil, err
	}
	if err := common.GuardRole(e.roles, common.RoleMinter, caller); err != nil {
		return nil, err
	}
	if err := common.GuardBlacklist(e.blacklist, to); err != nil {
		return nil, err
	}
	qty := cloneBigInt(quantity)
	if qty.Sign() <= 0 {
		return nil, ErrInvalidQuantity
	}
	if itemID == 0 {
		return nil, fmt.Errorf("token: item id must be positive")
	}
	item, ok := e.state.ItemGet(itemID)
	if ok {
		if item.Creator != caller {
			return nil, fmt.Errorf("token: item %d owned by a different creator", itemID)
		}
		item.Supply = new(big.Int).Add(cloneBigInt(item.Supply), qty)
	} else {
		item = &Item{ID: itemID, Creator: caller, Supply: qty, URI: uri, CreatedAt: e.now()}
	}
	balance, err := e.state.TokenBalance(to, itemID)
	if err != nil {
		return nil, err
	}
	if err := e.state.TokenSetBalance(to, itemID, new(big.Int).Add(cloneBigInt(balance), qty)); err != nil {
		return nil, err
	}
	if err := e.state.ItemPut(item); err != nil {
		return nil, err
	}
	e.emit(NewMintedEvent(item, to, qty))
	return item.Clone(), nil
}

// BalanceOf reports how many units of the item the holder owns.
func (e *Engine) BalanceOf(holder [20]byte, itemID uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	balance, err := e.state.TokenBalance(holder, itemID)
	if err != nil {
		return nil, err
	}
	return cloneBigInt(balance), nil
}

// Transfer moves quantity units of the item between holders.
func (e *Engine) Transfer(from, to [20]byte, itemID uint64, quantity *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := common.Guard(e.pauses, common.ModuleToken); err != nil {
		return err
	}
	if err := common.GuardBlacklist(e.blacklist, from, to); err != nil {
		return err
	}
	qty := cloneBigInt(quantity)
	if qty.Sign() <= 0 {
		return ErrInvalidQuantity
	}
	if _, ok := e.state.ItemGet(itemID); !ok {
		return ErrItemNotFound
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
	if err := e.state.TokenSetBalance(to, itemID, new(big.Int).Add(cloneBigInt(toBalance), qty)); err != nil {
		return err
	}
	e.emit(NewTransferredEvent(itemID, from, to, qty))
	return nil
}

// GetItem returns the stored item metadata.
func (e *Engine) GetItem(itemID uint64) (*Item, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	item, ok := e.state.ItemGet(itemID)
	if !ok {
		return nil, ErrItemNotFound
	}
	return item.Clone(), nil
}
