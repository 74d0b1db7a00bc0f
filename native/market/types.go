package market

import (
	"fmt"
	"math/big"
)

// Listing is a standing offer to sell a fixed quantity of one item at a fixed
// unit price. The escrowed units live under the module vault until purchased
// or cancelled. A listing exists iff its remaining quantity is positive.
type Listing struct {
	ItemID    uint64
	Seller    [20]byte
	UnitPrice *big.Int
	Quantity  *big.Int
}

// Clone returns a deep copy of the listing.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	clone := *l
	clone.UnitPrice = cloneBigInt(l.UnitPrice)
	clone.Quantity = cloneBigInt(l.Quantity)
	return &clone
}

// SanitizeListing validates a listing definition and returns a cloned instance
// with non-nil amounts. The original value is not mutated.
func SanitizeListing(l *Listing) (*Listing, error) {
	if l == nil {
		return nil, fmt.Errorf("nil listing")
	}
	if l.ItemID == 0 {
		return nil, fmt.Errorf("listing item id must be positive")
	}
	clone := l.Clone()
	if clone.UnitPrice.Sign() <= 0 {
		return nil, fmt.Errorf("listing unit price must be positive")
	}
	if clone.Quantity.Sign() <= 0 {
		return nil, fmt.Errorf("listing quantity must be positive")
	}
	return clone, nil
}

// BidEntry records one bidder's escrowed deposit. Only the current highest
// bidder ever holds a nonzero deposit; entries are removed when refunded.
type BidEntry struct {
	Bidder    [20]byte
	Deposit   *big.Int
	Quantity  *big.Int
	UnitPrice *big.Int
}

func (b *BidEntry) clone() *BidEntry {
	if b == nil {
		return nil
	}
	return &BidEntry{
		Bidder:    b.Bidder,
		Deposit:   cloneBigInt(b.Deposit),
		Quantity:  cloneBigInt(b.Quantity),
		UnitPrice: cloneBigInt(b.UnitPrice),
	}
}

// Auction tracks a timed competitive-bidding process for a fixed quantity of
// one item. UnitPrice starts at the seller's starting price and only moves up;
// the zero Bidder address means no bid has been accepted yet. Once Ended flips
// the record is inert and retained for audit.
type Auction struct {
	ID        uint64
	Seller    [20]byte
	ItemID    uint64
	Quantity  *big.Int
	UnitPrice *big.Int
	Bidder    [20]byte
	Bids      []BidEntry
	EndTime   int64
	Ended     bool
}

// HasBidder reports whether a bid has been accepted.
func (a *Auction) HasBidder() bool {
	return a != nil && a.Bidder != ([20]byte{})
}

// Bid returns the deposit record for the bidder, if present.
func (a *Auction) Bid(bidder [20]byte) (*BidEntry, bool) {
	if a == nil {
		return nil, false
	}
	for i := range a.Bids {
		if a.Bids[i].Bidder == bidder {
			return a.Bids[i].clone(), true
		}
	}
	return nil, false
}

func (a *Auction) setBid(entry *BidEntry) {
	if a == nil || entry == nil {
		return
	}
	for i := range a.Bids {
		if a.Bids[i].Bidder == entry.Bidder {
			a.Bids[i] = *entry.clone()
			return
		}
	}
	a.Bids = append(a.Bids, *entry.clone())
}

func (a *Auction) removeBid(bidder [20]byte) {
	if a == nil {
		return
	}
	for i := range a.Bids {
		if a.Bids[i].Bidder == bidder {
			a.Bids = append(a.Bids[:i], a.Bids[i+1:]...)
			return
		}
	}
}

// Clone returns a deep copy of the auction.
func (a *Auction) Clone() *Auction {
	if a == nil {
		return nil
	}
	clone := *a
	clone.Quantity = cloneBigInt(a.Quantity)
	clone.UnitPrice = cloneBigInt(a.UnitPrice)
	clone.Bids = make([]BidEntry, 0, len(a.Bids))
	for i := range a.Bids {
		clone.Bids = append(clone.Bids, *a.Bids[i].clone())
	}
	return &clone
}

// SanitizeAuction validates an auction record and returns a cloned instance
// with non-nil amounts. The original value is not mutated.
func SanitizeAuction(a *Auction) (*Auction, error) {
	if a == nil {
		return nil, fmt.Errorf("nil auction")
	}
	if a.ID == 0 {
		return nil, fmt.Errorf("auction id must be positive")
	}
	if a.ItemID == 0 {
		return nil, fmt.Errorf("auction item id must be positive")
	}
	clone := a.Clone()
	if clone.Quantity.Sign() <= 0 {
		return nil, fmt.Errorf("auction quantity must be positive")
	}
	if clone.UnitPrice.Sign() <= 0 {
		return nil, fmt.Errorf("auction unit price must be positive")
	}
	if clone.EndTime <= 0 {
		return nil, fmt.Errorf("auction end time must be positive")
	}
	for i := range clone.Bids {
		if clone.Bids[i].Bidder == ([20]byte{}) {
			return nil, fmt.Errorf("bid entry missing bidder")
		}
		if clone.Bids[i].Deposit.Sign() < 0 || clone.Bids[i].Quantity.Sign() <= 0 || clone.Bids[i].UnitPrice.Sign() <= 0 {
			return nil, fmt.Errorf("bid entry amounts out of range")
		}
	}
	return clone, nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
