// Copyright (c) 2026 The Pond developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pond

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Allocation a genesis token balance granted to an account.
type Allocation struct {
	Address Address `yaml:"address"`
	// Balance in whole base tokens.
	Balance uint64 `yaml:"balance"`
}

// Config parameters of a custom network, loadable from a yaml file.
// Zero fields fall back to the well-known initial values.
type Config struct {
	// PoolTarget reward pool funding target, in whole tokens.
	PoolTarget uint64 `yaml:"poolTarget"`
	// UnitPrice price of one stake unit, in whole tokens.
	UnitPrice uint64 `yaml:"unitPrice"`
	// DailyRewardRate reward per stake unit per day, scaled by 1e18.
	DailyRewardRate uint64 `yaml:"dailyRewardRate"`

	Allocations []Allocation `yaml:"allocations"`
}

func (c Config) String() string {
	var strs []string
	push := func(name string, v *big.Int) {
		strs = append(strs, fmt.Sprintf("%v: %v", name, v))
	}
	push("pool", c.PoolTargetAmount())
	push("price", c.UnitPriceAmount())
	push("rate", c.DailyRewardRateAmount())
	return strings.Join(strs, ", ")
}

// PoolTargetAmount returns the pool target as a scaled amount.
func (c Config) PoolTargetAmount() *big.Int {
	if c.PoolTarget == 0 {
		return new(big.Int).Set(InitialRewardPool)
	}
	return new(big.Int).Mul(new(big.Int).SetUint64(c.PoolTarget), big1e18)
}

// UnitPriceAmount returns the stake unit price as a scaled amount.
func (c Config) UnitPriceAmount() *big.Int {
	if c.UnitPrice == 0 {
		return new(big.Int).Set(InitialUnitPrice)
	}
	return new(big.Int).Mul(new(big.Int).SetUint64(c.UnitPrice), big1e18)
}

// DailyRewardRateAmount returns the per-unit daily reward rate as a scaled amount.
func (c Config) DailyRewardRateAmount() *big.Int {
	if c.DailyRewardRate == 0 {
		return new(big.Int).Set(InitialDailyRewardRate)
	}
	return new(big.Int).SetUint64(c.DailyRewardRate)
}

// LoadConfig load custom network config from a yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	return &config, nil
}

// UnmarshalYAML implements yaml.Unmarshaler for Address.
func (a *Address) UnmarshalYAML(value *yaml.Node) error {
	var hexStr string
	if err := value.Decode(&hexStr); err != nil {
		return err
	}
	parsed, err := ParseAddress(hexStr)
	if err != nil {
		return errors.Wrap(err, "address")
	}
	*a = parsed
	return nil
}
