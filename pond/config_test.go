package pond

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	var config Config

	assert.Equal(t, InitialRewardPool, config.PoolTargetAmount())
	assert.Equal(t, InitialUnitPrice, config.UnitPriceAmount())
	assert.Equal(t, InitialDailyRewardRate, config.DailyRewardRateAmount())
}

func TestLoadConfig(t *testing.T) {
	addr := BytesToAddress([]byte("alice"))
	content := `
poolTarget: 500
unitPrice: 2
dailyRewardRate: 200000000000000000
allocations:
  - address: ` + addr.String() + `
    balance: 1000
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, new(big.Int).Mul(big.NewInt(500), big.NewInt(1e18)), config.PoolTargetAmount())
	assert.Equal(t, new(big.Int).Mul(big.NewInt(2), big.NewInt(1e18)), config.UnitPriceAmount())
	assert.Equal(t, big.NewInt(2e17), config.DailyRewardRateAmount())
	require.Len(t, config.Allocations, 1)
	assert.Equal(t, addr, config.Allocations[0].Address)
	assert.Equal(t, uint64(1000), config.Allocations[0].Balance)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
