package market

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"sftmarket/core/types"
)

const (
	EventTypeListed         = "market.listed"
	EventTypePurchased      = "market.purchased"
	EventTypeListingRemoved = "market.listing_removed"
	EventTypeAuctionStarted = "market.auction_started"
	EventTypeBidPlaced      = "market.bid_placed"
	EventTypeAuctionEnded   = "market.auction_ended"
)

// NewListedEvent returns the canonical payload for a new or replaced listing.
func NewListedEvent(l *Listing) *types.Event {
	return &types.Event{Type: EventTypeListed, Attributes: listingAttributes(l)}
}

// NewPurchasedEvent returns the canonical payload for a fixed-price purchase.
func NewPurchasedEvent(l *Listing, buyer [20]byte, quantity, payment *big.Int) *types.Event {
	attrs := listingAttributes(l)
	attrs["buyer"] = hex.EncodeToString(buyer[:])
	attrs["quantity"] = bigString(quantity)
	attrs["payment"] = bigString(payment)
	return &types.Event{Type: EventTypePurchased, Attributes: attrs}
}

// NewListingRemovedEvent returns the canonical payload for a cancelled listing.
func NewListingRemovedEvent(l *Listing) *types.Event {
	return &types.Event{Type: EventTypeListingRemoved, Attributes: listingAttributes(l)}
}

// NewAuctionStartedEvent returns the canonical payload for a new auction.
func NewAuctionStartedEvent(a *Auction) *types.Event {
	return &types.Event{Type: EventTypeAuctionStarted, Attributes: auctionAttributes(a)}
}

// NewBidPlacedEvent returns the canonical payload for an accepted bid.
func NewBidPlacedEvent(a *Auction, bidder [20]byte, quantity, unitPrice, deposit *big.Int) *types.Event {
	attrs := auctionAttributes(a)
	attrs["bidder"] = hex.EncodeToString(bidder[:])
	attrs["bidQuantity"] = bigString(quantity)
	attrs["bidUnitPrice"] = bigString(unitPrice)
	attrs["deposit"] = bigString(deposit)
	return &types.Event{Type: EventTypeBidPlaced, Attributes: attrs}
}

// NewAuctionEndedEvent returns the canonical payload for a settled auction.
func NewAuctionEndedEvent(a *Auction) *types.Event {
	attrs := auctionAttributes(a)
	if a != nil && a.HasBidder() {
		attrs["winner"] = hex.EncodeToString(a.Bidder[:])
		if winning, ok := a.Bid(a.Bidder); ok {
			attrs["wonQuantity"] = bigString(winning.Quantity)
			attrs["proceeds"] = bigString(winning.Deposit)
		}
	}
	return &types.Event{Type: EventTypeAuctionEnded, Attributes: attrs}
}

func listingAttributes(l *Listing) map[string]string {
	attrs := make(map[string]string)
	if l == nil {
		return attrs
	}
	attrs["itemId"] = strconv.FormatUint(l.ItemID, 10)
	attrs["seller"] = hex.EncodeToString(l.Seller[:])
	attrs["unitPrice"] = bigString(l.UnitPrice)
	attrs["listedQuantity"] = bigString(l.Quantity)
	return attrs
}

func auctionAttributes(a *Auction) map[string]string {
	attrs := make(map[string]string)
	if a == nil {
		return attrs
	}
	attrs["auctionId"] = strconv.FormatUint(a.ID, 10)
	attrs["itemId"] = strconv.FormatUint(a.ItemID, 10)
	attrs["seller"] = hex.EncodeToString(a.Seller[:])
	attrs["quantity"] = bigString(a.Quantity)
	attrs["unitPrice"] = bigString(a.UnitPrice)
	attrs["endTime"] = strconv.FormatInt(a.EndTime, 10)
	return attrs
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
