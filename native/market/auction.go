package market

import (
	"math/big"

	"sftmarket/native/common"
)

// StartAuction escrows quantity units from the seller and opens a timed
// auction. The returned id is allocated from a monotonic counter and never
// reused. The starting price is not a valid bid target: the first accepted
// bid must strictly exceed it.
func (e *Engine) StartAuction(seller [20]byte, itemID uint64, quantity, startingPrice *big.Int, duration int64) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := common.Guard(e.pauses, common.ModuleMarket); err != nil {
		return 0, err
	}
	if err := common.GuardBlacklist(e.blacklist, seller); err != nil {
		return 0, err
	}
	qty := cloneBigInt(quantity)
	price := cloneBigInt(startingPrice)
	if qty.Sign() <= 0 || price.Sign() <= 0 || itemID == 0 {
		return 0, ErrInvalidAmount
	}
	if duration <= 0 {
		return 0, ErrInvalidDuration
	}
	balance, err := e.state.TokenBalance(seller, itemID)
	if err != nil {
		return 0, err
	}
	if cloneBigInt(balance).Cmp(qty) < 0 {
		return 0, ErrInsufficientBalance
	}
	id, err := e.state.NextAuctionID()
	if err != nil {
		return 0, err
	}
	if err := e.transferAsset(seller, e.vault, itemID, qty); err != nil {
		return 0, err
	}
	auction := &Auction{
		ID:        id,
		Seller:    seller,
		ItemID:    itemID,
		Quantity:  qty,
		UnitPrice: price,
		EndTime:   e.now() + duration,
	}
	if err := e.state.AuctionPut(auction); err != nil {
		return 0, err
	}
	e.emit(NewAuctionStartedEvent(auction))
	return id, nil
}

// PlaceBid accepts a strictly higher per-unit bid on an open auction. Funds
// must equal unit price times quantity exactly and are escrowed in the vault.
// When a previous highest bidder exists their full deposit is refunded before
// the new bid is recorded; at no point do two bidders hold deposits at once.
func (e *Engine) PlaceBid(bidder [20]byte, auctionID uint64, quantity, unitPrice, funds *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := common.Guard(e.pauses, common.ModuleMarket); err != nil {
		return err
	}
	if err := common.GuardBlacklist(e.blacklist, bidder); err != nil {
		return err
	}
	auction, ok := e.state.AuctionGet(auctionID)
	if !ok || auction.Ended || e.now() >= auction.EndTime {
		return ErrAuctionClosed
	}
	qty := cloneBigInt(quantity)
	if qty.Sign() <= 0 || qty.Cmp(auction.Quantity) > 0 {
		return ErrInvalidBidQuantity
	}
	price := cloneBigInt(unitPrice)
	if price.Cmp(auction.UnitPrice) <= 0 {
		return ErrBidTooLow
	}
	total, err := totalPrice(price, qty)
	if err != nil {
		return err
	}
	if cloneBigInt(funds).Cmp(total) != 0 {
		return ErrIncorrectBidValue
	}
	available, err := e.fundsBalance(bidder)
	if err != nil {
		return err
	}
	if previous, ok := auction.Bid(auction.Bidder); auction.HasBidder() && ok && auction.Bidder == bidder {
		// A bidder raising their own bid pays with their refund credited.
		available = new(big.Int).Add(available, previous.Deposit)
	}
	if available.Cmp(total) < 0 {
		return ErrInsufficientBalance
	}
	// Refund-then-replace: the outbid deposit leaves the vault before the new
	// bid is recorded so no two deposits coexist.
	if auction.HasBidder() {
		if previous, ok := auction.Bid(auction.Bidder); ok {
			if err := e.transferFunds(e.vault, auction.Bidder, previous.Deposit); err != nil {
				return err
			}
			auction.removeBid(auction.Bidder)
		}
	}
	if err := e.transferFunds(bidder, e.vault, total); err != nil {
		return err
	}
	auction.setBid(&BidEntry{Bidder: bidder, Deposit: total, Quantity: qty, UnitPrice: price})
	auction.Bidder = bidder
	auction.UnitPrice = price
	if err := e.state.AuctionPut(auction); err != nil {
		return err
	}
	e.emit(NewBidPlacedEvent(auction, bidder, qty, price, total))
	return nil
}

// EndAuction settles an auction whose deadline has passed, exactly once. With
// a winner the reserved quantity moves to them, the unsold remainder and the
// deposited funds go to the seller; with no bids the full escrow returns to
// the seller. The persisted Ended flag makes double settlement impossible.
func (e *Engine) EndAuction(auctionID uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := common.Guard(e.pauses, common.ModuleMarket); err != nil {
		return err
	}
	auction, ok := e.state.AuctionGet(auctionID)
	if !ok {
		return ErrAuctionNotFound
	}
	if auction.Ended {
		return ErrAlreadyEnded
	}
	if e.now() < auction.EndTime {
		return ErrAuctionStillOpen
	}
	if auction.HasBidder() {
		winning, ok := auction.Bid(auction.Bidder)
		if !ok {
			return ErrAuctionNotFound
		}
		if err := e.transferAsset(e.vault, auction.Bidder, auction.ItemID, winning.Quantity); err != nil {
			return err
		}
		remainder := new(big.Int).Sub(auction.Quantity, winning.Quantity)
		if remainder.Sign() > 0 {
			if err := e.transferAsset(e.vault, auction.Seller, auction.ItemID, remainder); err != nil {
				return err
			}
		}
		if err := e.transferFunds(e.vault, auction.Seller, winning.Deposit); err != nil {
			return err
		}
	} else {
		if err := e.transferAsset(e.vault, auction.Seller, auction.ItemID, auction.Quantity); err != nil {
			return err
		}
	}
	auction.Ended = true
	if err := e.state.AuctionPut(auction); err != nil {
		return err
	}
	e.emit(NewAuctionEndedEvent(auction))
	return nil
}
