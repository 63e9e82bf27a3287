package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalYAML = `
telegram:
  token: "123:abc"
  admin_id: 1000
  run_mode: longpoll
`

func TestLoadAppliesCatalogueDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	price, ok := cfg.PackagePrice("Standard")
	require.True(t, ok)
	require.Equal(t, 9000, price)
	price, ok = cfg.PackagePrice("X")
	require.True(t, ok)
	require.Equal(t, 14000, price)

	details, ok := cfg.AccountDetails("Bank A")
	require.True(t, ok)
	require.Contains(t, details, "Example Bank A")

	_, ok = cfg.AccountDetails("Bank Z")
	require.False(t, ok)

	require.Equal(t, int64(1000), cfg.Telegram.AdminID)
}

func TestLoadRequiresAdmin(t *testing.T) {
	_, err := Load(writeConfig(t, `
telegram:
  token: "123:abc"
`))
	require.ErrorContains(t, err, "admin_id")
}

func TestLoadRejectsBadCatalogues(t *testing.T) {
	_, err := Load(writeConfig(t, minimalYAML+`
packages:
  - name: Standard
    price_ngn: 9000
  - name: Standard
    price_ngn: 14000
`))
	require.ErrorContains(t, err, "duplicate package")

	_, err = Load(writeConfig(t, minimalYAML+`
payment_accounts:
  - name: "Bank A"
    details: ""
`))
	require.ErrorContains(t, err, "payment_accounts")
}

func TestKeepaliveListenDefault(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML+`
keepalive:
  enabled: true
`))
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Keepalive.Listen)
}
