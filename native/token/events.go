package token

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"sftmarket/core/types"
)

const (
	EventTypeMinted      = "token.minted"
	EventTypeTransferred = "token.transferred"
)

// NewMintedEvent returns the canonical payload for a mint.
func NewMintedEvent(item *Item, to [20]byte, quantity *big.Int) *types.Event {
	attrs := make(map[string]string)
	if item != nil {
		attrs["itemId"] = strconv.FormatUint(item.ID, 10)
		attrs["creator"] = hex.EncodeToString(item.Creator[:])
		if item.Supply != nil {
			attrs["supply"] = item.Supply.String()
		}
		if item.URI != "" {
			attrs["uri"] = item.URI
		}
	}
	attrs["to"] = hex.EncodeToString(to[:])
	if quantity != nil {
		attrs["quantity"] = quantity.String()
	}
	return &types.Event{Type: EventTypeMinted, Attributes: attrs}
}

// NewTransferredEvent returns the canonical payload for an item transfer.
func NewTransferredEvent(itemID uint64, from, to [20]byte, quantity *big.Int) *types.Event {
	attrs := map[string]string{
		"itemId": strconv.FormatUint(itemID, 10),
		"from":   hex.EncodeToString(from[:]),
		"to":     hex.EncodeToString(to[:]),
	}
	if quantity != nil {
		attrs["quantity"] = quantity.String()
	}
	return &types.Event{Type: EventTypeTransferred, Attributes: attrs}
}
