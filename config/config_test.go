package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"sftmarket/crypto"
	"sftmarket/native/common"
	"sftmarket/state"
	"sftmarket/storage"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.RPCAddress)
	require.Equal(t, "./sftmarket-data", cfg.DataDir)
	require.NotZero(t, cfg.RateLimitPerSec)
	require.FileExists(t, path)

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.RPCAddress, reloaded.RPCAddress)
	require.Equal(t, cfg.AuditDBPath, reloaded.AuditDBPath)
}

func TestLoadFillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("RPCAddress = \":9191\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9191", cfg.RPCAddress)
	require.Equal(t, "./sftmarket-data", cfg.DataDir)
	require.Equal(t, filepath.Join("./sftmarket-data", "audit.db"), cfg.AuditDBPath)
	require.Equal(t, "local", cfg.Environment)
}

func testBech32(t *testing.T, fill byte) string {
	t.Helper()
	raw := make([]byte, 20)
	for i := range raw {
		raw[i] = fill
	}
	return crypto.NewAddress(raw).String()
}

func TestGenesisApply(t *testing.T) {
	alice := testBech32(t, 0x01)
	minter := testBech32(t, 0x02)
	banned := testBech32(t, 0x03)

	doc := `
accounts:
  - address: ` + alice + `
    balance: "1000"
items:
  - id: 1
    creator: ` + minter + `
    holder: ` + alice + `
    supply: "50"
    uri: ipfs://meta/1
roles:
  - role: ROLE_MINTER
    addresses: [` + minter + `]
blacklist: [` + banned + `]
paused: [token]
`
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	genesis, err := LoadGenesis(path)
	require.NoError(t, err)

	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	manager := state.NewManager(db)
	require.NoError(t, genesis.Apply(manager))
	require.True(t, manager.Initialized())

	aliceAddr, err := crypto.DecodeAddress(alice)
	require.NoError(t, err)
	account, err := manager.GetAccount(aliceAddr.Bytes())
	require.NoError(t, err)
	require.Equal(t, "1000", account.Balance.String())

	item, ok := manager.ItemGet(1)
	require.True(t, ok)
	require.Equal(t, "50", item.Supply.String())

	balance, err := manager.TokenBalance(aliceAddr.Array(), 1)
	require.NoError(t, err)
	require.Equal(t, "50", balance.String())

	minterAddr, err := crypto.DecodeAddress(minter)
	require.NoError(t, err)
	require.True(t, manager.HasRole(common.RoleMinter, minterAddr.Array()))

	bannedAddr, err := crypto.DecodeAddress(banned)
	require.NoError(t, err)
	require.True(t, manager.IsBlacklisted(bannedAddr.Array()))
	require.True(t, manager.IsPaused(common.ModuleToken))
	require.False(t, manager.IsPaused(common.ModuleMarket))
}

func TestGenesisApplyIsIdempotent(t *testing.T) {
	alice := testBech32(t, 0x04)
	doc := "accounts:\n  - address: " + alice + "\n    balance: \"5\"\n"
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	genesis, err := LoadGenesis(path)
	require.NoError(t, err)

	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	manager := state.NewManager(db)
	require.NoError(t, genesis.Apply(manager))

	aliceAddr, err := crypto.DecodeAddress(alice)
	require.NoError(t, err)
	account, err := manager.GetAccount(aliceAddr.Bytes())
	require.NoError(t, err)
	account.Balance.SetInt64(900)
	require.NoError(t, manager.PutAccount(aliceAddr.Bytes(), account))

	require.NoError(t, genesis.Apply(manager))
	account, err = manager.GetAccount(aliceAddr.Bytes())
	require.NoError(t, err)
	require.Equal(t, "900", account.Balance.String())
}

func TestGenesisRejectsBadAddresses(t *testing.T) {
	doc := "accounts:\n  - address: cosmos1notours\n    balance: \"5\"\n"
	path := filepath.Join(t.TempDir(), "genesis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	genesis, err := LoadGenesis(path)
	require.NoError(t, err)

	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	require.Error(t, genesis.Apply(state.NewManager(db)))
}
