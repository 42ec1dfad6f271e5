package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"ETH_RPC_URL", "DEPLOY_GAS_LIMIT", "RECEIPT_POLL_SECONDS", "REQUEST_TIMEOUT_SECONDS", "DB_ENABLED", "API_PORT"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8545", cfg.RPCURL)
	assert.Equal(t, 3000000, cfg.DeployGasLimit)
	assert.Equal(t, 10*time.Second, cfg.ReceiptPoll)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 8080, cfg.APIPort)
	assert.False(t, cfg.DBEnabled)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ETH_RPC_URL", "ws://node:8546")
	t.Setenv("DEPLOY_GAS_LIMIT", "5000000")
	t.Setenv("RECEIPT_POLL_SECONDS", "2")
	t.Setenv("DB_ENABLED", "yes")
	t.Setenv("DB_USER", "gateway")
	t.Setenv("API_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ws://node:8546", cfg.RPCURL)
	assert.Equal(t, 5000000, cfg.DeployGasLimit)
	assert.Equal(t, 2*time.Second, cfg.ReceiptPoll)
	assert.True(t, cfg.DBEnabled)
	assert.Equal(t, 8080, cfg.APIPort, "unparsable ints fall back to default")
	assert.Contains(t, cfg.DSN(), "postgres://gateway:")
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := &Config{APIPort: 0, DBEnabled: true}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"ETH_RPC_URL", "CONTRACTS_DIR", "API_PORT", "DEPLOY_GAS_LIMIT", "RECEIPT_POLL_SECONDS", "DB_USER"} {
		assert.Contains(t, err.Error(), want)
	}
}
