package market

import (
	"math/big"
	"testing"
)

func TestSanitizeListing(t *testing.T) {
	seller := newTestAddress(0x31)
	valid := &Listing{ItemID: 1, Seller: seller, UnitPrice: big.NewInt(10), Quantity: big.NewInt(2)}
	sanitized, err := SanitizeListing(valid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sanitized.Quantity.SetInt64(99)
	if valid.Quantity.String() != "2" {
		t.Fatalf("sanitize must not alias the original amounts")
	}

	cases := []*Listing{
		nil,
		{ItemID: 0, Seller: seller, UnitPrice: big.NewInt(10), Quantity: big.NewInt(2)},
		{ItemID: 1, Seller: seller, UnitPrice: big.NewInt(0), Quantity: big.NewInt(2)},
		{ItemID: 1, Seller: seller, UnitPrice: big.NewInt(10), Quantity: big.NewInt(0)},
	}
	for i, l := range cases {
		if _, err := SanitizeListing(l); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestSanitizeAuction(t *testing.T) {
	seller := newTestAddress(0x32)
	bidder := newTestAddress(0x33)
	valid := &Auction{
		ID:        1,
		Seller:    seller,
		ItemID:    2,
		Quantity:  big.NewInt(3),
		UnitPrice: big.NewInt(5),
		Bidder:    bidder,
		Bids:      []BidEntry{{Bidder: bidder, Deposit: big.NewInt(15), Quantity: big.NewInt(3), UnitPrice: big.NewInt(5)}},
		EndTime:   testNow + 100,
	}
	sanitized, err := SanitizeAuction(valid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sanitized.HasBidder() {
		t.Fatalf("expected bidder retained")
	}
	entry, ok := sanitized.Bid(bidder)
	if !ok || entry.Deposit.String() != "15" {
		t.Fatalf("expected deposit record, got %+v", entry)
	}

	missingBidder := valid.Clone()
	missingBidder.Bids[0].Bidder = [20]byte{}
	if _, err := SanitizeAuction(missingBidder); err == nil {
		t.Fatalf("expected error for bid entry without bidder")
	}
	badEnd := valid.Clone()
	badEnd.EndTime = 0
	if _, err := SanitizeAuction(badEnd); err == nil {
		t.Fatalf("expected error for missing end time")
	}
}

func TestAuctionCloneIsDeep(t *testing.T) {
	bidder := newTestAddress(0x34)
	a := &Auction{
		ID:        7,
		Seller:    newTestAddress(0x35),
		ItemID:    1,
		Quantity:  big.NewInt(4),
		UnitPrice: big.NewInt(9),
		Bidder:    bidder,
		Bids:      []BidEntry{{Bidder: bidder, Deposit: big.NewInt(36), Quantity: big.NewInt(4), UnitPrice: big.NewInt(9)}},
		EndTime:   testNow,
	}
	clone := a.Clone()
	clone.Bids[0].Deposit.SetInt64(0)
	clone.UnitPrice.SetInt64(0)
	if a.Bids[0].Deposit.String() != "36" || a.UnitPrice.String() != "9" {
		t.Fatalf("clone must not share big.Int values")
	}
}
