package config

import (
	"fmt"
	"math/big"
	"os"

	"gopkg.in/yaml.v3"

	"sftmarket/core/types"
	"sftmarket/crypto"
	"sftmarket/native/token"
	"sftmarket/state"
)

// Genesis describes the initial state applied to a fresh data directory:
// funded accounts, pre-minted items, role grants and guard flags.
type Genesis struct {
	Accounts  []GenesisAccount `yaml:"accounts"`
	Items     []GenesisItem    `yaml:"items"`
	Roles     []GenesisRole    `yaml:"roles"`
	Blacklist []string         `yaml:"blacklist"`
	Paused    []string         `yaml:"paused"`
}

type GenesisAccount struct {
	Address string `yaml:"address"`
	Balance string `yaml:"balance"`
}

type GenesisItem struct {
	ID      uint64 `yaml:"id"`
	Creator string `yaml:"creator"`
	Holder  string `yaml:"holder"`
	Supply  string `yaml:"supply"`
	URI     string `yaml:"uri"`
}

type GenesisRole struct {
	Role      string   `yaml:"role"`
	Addresses []string `yaml:"addresses"`
}

// LoadGenesis parses the genesis document at path.
func LoadGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis %s: %w", path, err)
	}
	genesis := &Genesis{}
	if err := yaml.Unmarshal(data, genesis); err != nil {
		return nil, fmt.Errorf("parse genesis %s: %w", path, err)
	}
	return genesis, nil
}

func decodeAddress(field, value string) ([20]byte, error) {
	addr, err := crypto.DecodeAddress(value)
	if err != nil {
		return [20]byte{}, fmt.Errorf("genesis %s %q: %w", field, value, err)
	}
	return addr.Array(), nil
}

func decodeAmount(field, value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("genesis %s %q: not a non-negative integer", field, value)
	}
	return amount, nil
}

// Apply writes the genesis state to the manager and marks it initialized.
// Applying to an already initialized store is a no-op.
func (g *Genesis) Apply(manager *state.Manager) error {
	if manager.Initialized() {
		return nil
	}
	for _, entry := range g.Accounts {
		addr, err := decodeAddress("account", entry.Address)
		if err != nil {
			return err
		}
		balance, err := decodeAmount("balance", entry.Balance)
		if err != nil {
			return err
		}
		if err := manager.PutAccount(addr[:], &types.Account{Balance: balance}); err != nil {
			return err
		}
	}
	for _, entry := range g.Items {
		creator, err := decodeAddress("item creator", entry.Creator)
		if err != nil {
			return err
		}
		holder := creator
		if entry.Holder != "" {
			if holder, err = decodeAddress("item holder", entry.Holder); err != nil {
				return err
			}
		}
		supply, err := decodeAmount("item supply", entry.Supply)
		if err != nil {
			return err
		}
		item := &token.Item{
			ID:      entry.ID,
			Creator: creator,
			Supply:  supply,
			URI:     entry.URI,
		}
		if err := manager.ItemPut(item); err != nil {
			return fmt.Errorf("genesis item %d: %w", entry.ID, err)
		}
		if err := manager.TokenSetBalance(holder, entry.ID, supply); err != nil {
			return err
		}
	}
	for _, grant := range g.Roles {
		for _, member := range grant.Addresses {
			addr, err := decodeAddress("role member", member)
			if err != nil {
				return err
			}
			if err := manager.GrantRole(grant.Role, addr); err != nil {
				return err
			}
		}
	}
	for _, entry := range g.Blacklist {
		addr, err := decodeAddress("blacklist entry", entry)
		if err != nil {
			return err
		}
		if err := manager.SetBlacklisted(addr, true); err != nil {
			return err
		}
	}
	for _, module := range g.Paused {
		if err := manager.SetPaused(module, true); err != nil {
			return err
		}
	}
	return manager.SetInitialized()
}
