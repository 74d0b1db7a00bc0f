package rpc

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"

	"sftmarket/crypto"
	"sftmarket/native/common"
	"sftmarket/native/market"
	"sftmarket/native/token"
)

func parseParams(req *RPCRequest, out interface{}) *RPCError {
	if len(req.Params) != 1 {
		return &RPCError{Code: codeInvalidParams, Message: "expected a single params object"}
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return &RPCError{Code: codeInvalidParams, Message: "invalid params", Data: err.Error()}
	}
	return nil
}

func parseAddress(field, value string) ([20]byte, *RPCError) {
	addr, err := crypto.DecodeAddress(value)
	if err != nil {
		return [20]byte{}, &RPCError{Code: codeInvalidParams, Message: field + " is not a valid address", Data: err.Error()}
	}
	return addr.Array(), nil
}

func parseAmount(field, value string) (*big.Int, *RPCError) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, &RPCError{Code: codeInvalidParams, Message: field + " is not a valid integer"}
	}
	return amount, nil
}

// engineError translates engine sentinels into JSON-RPC error objects. Every
// domain rejection is an expected outcome and maps to the server error code
// so clients can retry with corrected input.
func engineError(err error) *RPCError {
	code := codeServerError
	if errors.Is(err, common.ErrUnauthorized) {
		code = codeUnauthorized
	}
	return &RPCError{Code: code, Message: err.Error()}
}

func writeRPCError(w http.ResponseWriter, id interface{}, rpcErr *RPCError) {
	status := http.StatusBadRequest
	if rpcErr.Code == codeUnauthorized {
		status = http.StatusUnauthorized
	}
	writeError(w, status, id, rpcErr.Code, rpcErr.Message, rpcErr.Data)
}

// --- result shapes ---

type ListingResult struct {
	ItemID    uint64 `json:"itemId"`
	Seller    string `json:"seller"`
	UnitPrice string `json:"unitPrice"`
	Quantity  string `json:"quantity"`
}

func listingResult(l *market.Listing) ListingResult {
	return ListingResult{
		ItemID:    l.ItemID,
		Seller:    crypto.NewAddress(l.Seller[:]).String(),
		UnitPrice: l.UnitPrice.String(),
		Quantity:  l.Quantity.String(),
	}
}

type BidResult struct {
	Bidder    string `json:"bidder"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Deposit   string `json:"deposit"`
}

type AuctionResult struct {
	AuctionID uint64      `json:"auctionId"`
	Seller    string      `json:"seller"`
	ItemID    uint64      `json:"itemId"`
	Quantity  string      `json:"quantity"`
	UnitPrice string      `json:"unitPrice"`
	Bidder    string      `json:"bidder,omitempty"`
	Bids      []BidResult `json:"bids,omitempty"`
	EndTime   int64       `json:"endTime"`
	Ended     bool        `json:"ended"`
}

func auctionResult(a *market.Auction) AuctionResult {
	result := AuctionResult{
		AuctionID: a.ID,
		Seller:    crypto.NewAddress(a.Seller[:]).String(),
		ItemID:    a.ItemID,
		Quantity:  a.Quantity.String(),
		UnitPrice: a.UnitPrice.String(),
		EndTime:   a.EndTime,
		Ended:     a.Ended,
	}
	if a.HasBidder() {
		result.Bidder = crypto.NewAddress(a.Bidder[:]).String()
	}
	for i := range a.Bids {
		result.Bids = append(result.Bids, BidResult{
			Bidder:    crypto.NewAddress(a.Bids[i].Bidder[:]).String(),
			Quantity:  a.Bids[i].Quantity.String(),
			UnitPrice: a.Bids[i].UnitPrice.String(),
			Deposit:   a.Bids[i].Deposit.String(),
		})
	}
	return result
}

type ItemResult struct {
	ItemID    uint64 `json:"itemId"`
	Creator   string `json:"creator"`
	Supply    string `json:"supply"`
	URI       string `json:"uri,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

func itemResult(i *token.Item) ItemResult {
	return ItemResult{
		ItemID:    i.ID,
		Creator:   crypto.NewAddress(i.Creator[:]).String(),
		Supply:    i.Supply.String(),
		URI:       i.URI,
		CreatedAt: i.CreatedAt,
	}
}

// --- market handlers ---

func (s *Server) handleListForSale(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Seller    string `json:"seller"`
		ItemID    uint64 `json:"itemId"`
		UnitPrice string `json:"unitPrice"`
		Quantity  string `json:"quantity"`
	}
	if rpcErr := parseParams(req, &params); rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	seller, rpcErr := parseAddress("seller", params.Seller)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	unitPrice, rpcErr := parseAmount("unitPrice", params.UnitPrice)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	quantity, rpcErr := parseAmount("quantity", params.Quantity)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	if err := s.market.List(seller, params.ItemID, unitPrice, quantity); err != nil {
		writeRPCError(w, req.ID, engineError(err))
		return
	}
	writeResult(w, req.ID, map[string]any{"listed": true, "itemId": params.ItemID})
}

func (s *Server) handleBuy(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Buyer    string `json:"buyer"`
		ItemID   uint64 `json:"itemId"`
		Quantity string `json:"quantity"`
		Payment  string `json:"payment"`
	}
	if rpcErr := parseParams(req, &params); rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	buyer, rpcErr := parseAddress("buyer", params.Buyer)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	quantity, rpcErr := parseAmount("quantity", params.Quantity)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	payment, rpcErr := parseAmount("payment", params.Payment)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	if err := s.market.Purchase(buyer, params.ItemID, quantity, payment); err != nil {
		writeRPCError(w, req.ID, engineError(err))
		return
	}
	writeResult(w, req.ID, map[string]any{"purchased": true, "itemId": params.ItemID})
}

func (s *Server) handleRemoveListing(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Seller string `json:"seller"`
		ItemID uint64 `json:"itemId"`
	}
	if rpcErr := parseParams(req, &params); rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	seller, rpcErr := parseAddress("seller", params.Seller)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	if err := s.market.Cancel(seller, params.ItemID); err != nil {
		writeRPCError(w, req.ID, engineError(err))
		return
	}
	writeResult(w, req.ID, map[string]any{"removed": true, "itemId": params.ItemID})
}

func (s *Server) handleStartAuction(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Seller        string `json:"seller"`
		ItemID        uint64 `json:"itemId"`
		Quantity      string `json:"quantity"`
		StartingPrice string `json:"startingPrice"`
		Duration      int64  `json:"duration"`
	}
	if rpcErr := parseParams(req, &params); rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	seller, rpcErr := parseAddress("seller", params.Seller)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	quantity, rpcErr := parseAmount("quantity", params.Quantity)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	startingPrice, rpcErr := parseAmount("startingPrice", params.StartingPrice)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	auctionID, err := s.market.StartAuction(seller, params.ItemID, quantity, startingPrice, params.Duration)
	if err != nil {
		writeRPCError(w, req.ID, engineError(err))
		return
	}
	writeResult(w, req.ID, map[string]any{"auctionId": auctionID})
}

func (s *Server) handlePlaceBid(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Bidder    string `json:"bidder"`
		AuctionID uint64 `json:"auctionId"`
		Quantity  string `json:"quantity"`
		UnitPrice string `json:"unitPrice"`
		Funds     string `json:"funds"`
	}
	if rpcErr := parseParams(req, &params); rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	bidder, rpcErr := parseAddress("bidder", params.Bidder)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	quantity, rpcErr := parseAmount("quantity", params.Quantity)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	unitPrice, rpcErr := parseAmount("unitPrice", params.UnitPrice)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	funds, rpcErr := parseAmount("funds", params.Funds)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	if err := s.market.PlaceBid(bidder, params.AuctionID, quantity, unitPrice, funds); err != nil {
		writeRPCError(w, req.ID, engineError(err))
		return
	}
	writeResult(w, req.ID, map[string]any{"bidPlaced": true, "auctionId": params.AuctionID})
}

func (s *Server) handleEndAuction(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		AuctionID uint64 `json:"auctionId"`
	}
	if rpcErr := parseParams(req, &params); rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	if err := s.market.EndAuction(params.AuctionID); err != nil {
		writeRPCError(w, req.ID, engineError(err))
		return
	}
	writeResult(w, req.ID, map[string]any{"ended": true, "auctionId": params.AuctionID})
}

func (s *Server) handleGetListing(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		ItemID uint64 `json:"itemId"`
	}
	if rpcErr := parseParams(req, &params); rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	listing, err := s.market.GetListing(params.ItemID)
	if err != nil {
		writeRPCError(w, req.ID, engineError(err))
		return
	}
	writeResult(w, req.ID, listingResult(listing))
}

func (s *Server) handleGetAuction(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		AuctionID uint64 `json:"auctionId"`
	}
	if rpcErr := parseParams(req, &params); rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	auction, err := s.market.GetAuction(params.AuctionID)
	if err != nil {
		writeRPCError(w, req.ID, engineError(err))
		return
	}
	writeResult(w, req.ID, auctionResult(auction))
}

// --- token handlers ---

func (s *Server) handleMint(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Caller   string `json:"caller"`
		To       string `json:"to"`
		ItemID   uint64 `json:"itemId"`
		Quantity string `json:"quantity"`
		URI      string `json:"uri"`
	}
	if rpcErr := parseParams(req, &params); rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	caller, rpcErr := parseAddress("caller", params.Caller)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	to, rpcErr := parseAddress("to", params.To)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	quantity, rpcErr := parseAmount("quantity", params.Quantity)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	item, err := s.token.Mint(caller, to, params.ItemID, quantity, params.URI)
	if err != nil {
		writeRPCError(w, req.ID, engineError(err))
		return
	}
	writeResult(w, req.ID, itemResult(item))
}

func (s *Server) handleTransfer(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		From     string `json:"from"`
		To       string `json:"to"`
		ItemID   uint64 `json:"itemId"`
		Quantity string `json:"quantity"`
	}
	if rpcErr := parseParams(req, &params); rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	from, rpcErr := parseAddress("from", params.From)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	to, rpcErr := parseAddress("to", params.To)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	quantity, rpcErr := parseAmount("quantity", params.Quantity)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	if err := s.token.Transfer(from, to, params.ItemID, quantity); err != nil {
		writeRPCError(w, req.ID, engineError(err))
		return
	}
	writeResult(w, req.ID, map[string]any{"transferred": true, "itemId": params.ItemID})
}

func (s *Server) handleBalanceOf(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Holder string `json:"holder"`
		ItemID uint64 `json:"itemId"`
	}
	if rpcErr := parseParams(req, &params); rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	holder, rpcErr := parseAddress("holder", params.Holder)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	balance, err := s.token.BalanceOf(holder, params.ItemID)
	if err != nil {
		writeRPCError(w, req.ID, engineError(err))
		return
	}
	writeResult(w, req.ID, map[string]any{
		"holder":  params.Holder,
		"itemId":  params.ItemID,
		"balance": balance.String(),
	})
}

func (s *Server) handleGetItem(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		ItemID uint64 `json:"itemId"`
	}
	if rpcErr := parseParams(req, &params); rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	item, err := s.token.GetItem(params.ItemID)
	if err != nil {
		writeRPCError(w, req.ID, engineError(err))
		return
	}
	writeResult(w, req.ID, itemResult(item))
}

// --- admin handlers ---

func (s *Server) handlePause(w http.ResponseWriter, req *RPCRequest, paused bool) {
	var params struct {
		Module string `json:"module"`
	}
	if rpcErr := parseParams(req, &params); rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	if params.Module != common.ModuleMarket && params.Module != common.ModuleToken {
		writeRPCError(w, req.ID, &RPCError{Code: codeInvalidParams, Message: "unknown module", Data: params.Module})
		return
	}
	if err := s.admin.SetPaused(params.Module, paused); err != nil {
		writeRPCError(w, req.ID, engineError(err))
		return
	}
	writeResult(w, req.ID, map[string]any{"module": params.Module, "paused": paused})
}

func (s *Server) handleSetBlacklist(w http.ResponseWriter, req *RPCRequest) {
	var params struct {
		Address     string `json:"address"`
		Blacklisted bool   `json:"blacklisted"`
	}
	if rpcErr := parseParams(req, &params); rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	addr, rpcErr := parseAddress("address", params.Address)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	if err := s.admin.SetBlacklisted(addr, params.Blacklisted); err != nil {
		writeRPCError(w, req.ID, engineError(err))
		return
	}
	writeResult(w, req.ID, map[string]any{"address": params.Address, "blacklisted": params.Blacklisted})
}

func (s *Server) handleRole(w http.ResponseWriter, req *RPCRequest, grant bool) {
	var params struct {
		Role    string `json:"role"`
		Address string `json:"address"`
	}
	if rpcErr := parseParams(req, &params); rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	if params.Role == "" {
		writeRPCError(w, req.ID, &RPCError{Code: codeInvalidParams, Message: "role required"})
		return
	}
	addr, rpcErr := parseAddress("address", params.Address)
	if rpcErr != nil {
		writeRPCError(w, req.ID, rpcErr)
		return
	}
	var err error
	if grant {
		err = s.admin.GrantRole(params.Role, addr)
	} else {
		err = s.admin.RevokeRole(params.Role, addr)
	}
	if err != nil {
		writeRPCError(w, req.ID, engineError(err))
		return
	}
	writeResult(w, req.ID, map[string]any{"role": params.Role, "address": params.Address, "granted": grant})
}
