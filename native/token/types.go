package token

import (
	"fmt"
	"math/big"
	"strings"
)

// Item captures the metadata of a semi-fungible item class. Supply is the
// total quantity ever minted; per-holder balances live in the state backend.
type Item struct {
	ID        uint64
	Creator   [20]byte
	Supply    *big.Int
	URI       string
	CreatedAt int64
}

// Clone returns a deep copy so callers can mutate the copy without affecting
// the stored instance.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	clone := *i
	if i.Supply != nil {
		clone.Supply = new(big.Int).Set(i.Supply)
	} else {
		clone.Supply = big.NewInt(0)
	}
	return &clone
}

// SanitizeItem validates and normalises an item definition, returning a cloned
// instance with a non-nil supply. The original value is not mutated.
func SanitizeItem(i *Item) (*Item, error) {
	if i == nil {
		return nil, fmt.Errorf("nil item")
	}
	if i.ID == 0 {
		return nil, fmt.Errorf("item id must be positive")
	}
	clone := i.Clone()
	clone.URI = strings.TrimSpace(clone.URI)
	if clone.Supply == nil {
		clone.Supply = big.NewInt(0)
	}
	if clone.Supply.Sign() < 0 {
		return nil, fmt.Errorf("item supply must be non-negative")
	}
	return clone, nil
}
