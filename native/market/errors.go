package market

import "errors"

// Every error below is a caller-input or state-precondition violation. No
// mutation or transfer happens before the violated check, so a failed
// operation leaves no partial effects and callers may simply resubmit.
var (
	ErrInvalidAmount       = errors.New("market: invalid amount")
	ErrInvalidDuration     = errors.New("market: invalid duration")
	ErrNotListed           = errors.New("market: item not listed")
	ErrIncorrectPayment    = errors.New("market: payment does not match price")
	ErrAuctionNotFound     = errors.New("market: auction not found")
	ErrAuctionClosed       = errors.New("market: auction closed")
	ErrAuctionStillOpen    = errors.New("market: auction still open")
	ErrAlreadyEnded        = errors.New("market: auction already ended")
	ErrInvalidBidQuantity  = errors.New("market: bid quantity out of range")
	ErrBidTooLow           = errors.New("market: bid does not exceed highest bid")
	ErrIncorrectBidValue   = errors.New("market: funds do not match bid value")
	ErrNotSeller           = errors.New("market: caller is not the seller")
	ErrInsufficientBalance = errors.New("market: insufficient balance")
)
