package state

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	listingPrefix      = []byte("market/listing/")
	auctionPrefix      = []byte("market/auction/")
	auctionSeqKeyBytes = []byte("market/auction-seq")
	itemPrefix         = []byte("token/item/")
	tokenBalancePrefix = []byte("token/balance/")
	accountPrefix      = []byte("account/")
	pausePrefix        = []byte("pause/")
	blacklistPrefix    = []byte("blacklist/")
	rolePrefix         = []byte("role/")
	initializedBytes   = []byte("genesis/initialized")
)

func hashKey(parts ...[]byte) []byte {
	size := 0
	for _, part := range parts {
		size += len(part)
	}
	buf := make([]byte, 0, size)
	for _, part := range parts {
		buf = append(buf, part...)
	}
	return ethcrypto.Keccak256(buf)
}

func uint64Bytes(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func listingKey(itemID uint64) []byte {
	return hashKey(listingPrefix, uint64Bytes(itemID))
}

func auctionKey(id uint64) []byte {
	return hashKey(auctionPrefix, uint64Bytes(id))
}

func auctionSeqKey() []byte {
	return hashKey(auctionSeqKeyBytes)
}

func itemKey(id uint64) []byte {
	return hashKey(itemPrefix, uint64Bytes(id))
}

func tokenBalanceKey(addr [20]byte, itemID uint64) []byte {
	return hashKey(tokenBalancePrefix, uint64Bytes(itemID), []byte(":"), addr[:])
}

func accountKey(addr []byte) []byte {
	return hashKey(accountPrefix, addr)
}

func pauseKey(module string) []byte {
	return hashKey(pausePrefix, []byte(module))
}

func blacklistKey(addr [20]byte) []byte {
	return hashKey(blacklistPrefix, addr[:])
}

func roleKey(role string, addr [20]byte) []byte {
	return hashKey(rolePrefix, []byte(role), []byte(":"), addr[:])
}

func initializedKey() []byte {
	return hashKey(initializedBytes)
}
