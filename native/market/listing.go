package market

import (
	"math/big"

	"sftmarket/native/common"
)

// List escrows quantity units from the seller and records a fixed-price
// listing for the item. Listing an item that is already listed silently
// replaces the previous listing; the previous seller's escrowed units are
// released back to them first so no assets are stranded in the vault.
func (e *Engine) List(seller [20]byte, itemID uint64, unitPrice, quantity *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := common.Guard(e.pauses, common.ModuleMarket); err != nil {
		return err
	}
	if err := common.GuardBlacklist(e.blacklist, seller); err != nil {
		return err
	}
	price := cloneBigInt(unitPrice)
	qty := cloneBigInt(quantity)
	if price.Sign() <= 0 || qty.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if itemID == 0 {
		return ErrInvalidAmount
	}
	balance, err := e.state.TokenBalance(seller, itemID)
	if err != nil {
		return err
	}
	if cloneBigInt(balance).Cmp(qty) < 0 {
		return ErrInsufficientBalance
	}
	if previous, ok := e.state.ListingGet(itemID); ok {
		if err := e.transferAsset(e.vault, previous.Seller, itemID, previous.Quantity); err != nil {
			return err
		}
	}
	if err := e.transferAsset(seller, e.vault, itemID, qty); err != nil {
		return err
	}
	listing := &Listing{ItemID: itemID, Seller: seller, UnitPrice: price, Quantity: qty}
	if err := e.state.ListingPut(listing); err != nil {
		return err
	}
	e.emit(NewListedEvent(listing))
	return nil
}

// Purchase settles a fixed-price sale: payment must equal unit price times
// quantity exactly, funds go straight to the seller and the escrowed units to
// the buyer. Buying the full remaining quantity deletes the listing.
func (e *Engine) Purchase(buyer [20]byte, itemID uint64, quantity, payment *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := common.Guard(e.pauses, common.ModuleMarket); err != nil {
		return err
	}
	if err := common.GuardBlacklist(e.blacklist, buyer); err != nil {
		return err
	}
	listing, ok := e.state.ListingGet(itemID)
	if !ok {
		return ErrNotListed
	}
	qty := cloneBigInt(quantity)
	if qty.Sign() <= 0 || qty.Cmp(listing.Quantity) > 0 {
		return ErrInvalidAmount
	}
	total, err := totalPrice(listing.UnitPrice, qty)
	if err != nil {
		return err
	}
	if cloneBigInt(payment).Cmp(total) != 0 {
		return ErrIncorrectPayment
	}
	buyerFunds, err := e.fundsBalance(buyer)
	if err != nil {
		return err
	}
	if buyerFunds.Cmp(total) < 0 {
		return ErrInsufficientBalance
	}
	if err := e.transferFunds(buyer, listing.Seller, total); err != nil {
		return err
	}
	if err := e.transferAsset(e.vault, buyer, itemID, qty); err != nil {
		return err
	}
	remaining := new(big.Int).Sub(listing.Quantity, qty)
	if remaining.Sign() == 0 {
		if err := e.state.ListingDelete(itemID); err != nil {
			return err
		}
	} else {
		listing.Quantity = remaining
		if err := e.state.ListingPut(listing); err != nil {
			return err
		}
	}
	e.emit(NewPurchasedEvent(listing, buyer, qty, total))
	return nil
}

// Cancel removes the caller's listing and releases the remaining escrowed
// units back to the seller in the same operation.
func (e *Engine) Cancel(caller [20]byte, itemID uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := common.Guard(e.pauses, common.ModuleMarket); err != nil {
		return err
	}
	listing, ok := e.state.ListingGet(itemID)
	if !ok {
		return ErrNotListed
	}
	if listing.Seller != caller {
		return ErrNotSeller
	}
	if err := e.transferAsset(e.vault, listing.Seller, itemID, listing.Quantity); err != nil {
		return err
	}
	if err := e.state.ListingDelete(itemID); err != nil {
		return err
	}
	e.emit(NewListingRemovedEvent(listing))
	return nil
}
