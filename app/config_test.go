package app_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/dexguard/app"
	"github.com/paw-chain/dexguard/x/shared/fixedpoint"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	app.AddFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestDefaultConfig(t *testing.T) {
	cfg := app.DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "goleveldb", cfg.DBBackend)
	require.Equal(t, uint32(30), cfg.FeeBps)
	require.Equal(t, uint32(100), cfg.ImbalanceToleranceBps)
	require.True(t, cfg.DefaultThreshold.Equal(fixedpoint.FromUnits(1000)))
	require.Equal(t, time.Minute, cfg.DefaultWindow)
	require.Equal(t, time.Hour, cfg.DefaultCooldown)
	require.True(t, cfg.ProtectOnCreate)
	require.Empty(t, cfg.Admins)
}

func TestLoadConfigPrecedence(t *testing.T) {
	home := t.TempDir()
	file := `
[amm]
fee_bps = 50
imbalance_tolerance_bps = 250

[breaker]
admins = ["0x1111111111111111111111111111111111111111"]
default_window = "2m"
default_threshold = "500.5"
`
	require.NoError(t, os.WriteFile(filepath.Join(home, "dexguard.toml"), []byte(file), 0o600))
	t.Setenv("DEXGUARD_AMM_FEE_BPS", "60")

	cfg, err := app.LoadConfig(newFlags(t, "--home", home, "--log-level", "debug"))
	require.NoError(t, err)

	require.Equal(t, home, cfg.Home)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, uint32(60), cfg.FeeBps, "env overrides file")
	require.Equal(t, uint32(250), cfg.ImbalanceToleranceBps)
	require.Equal(t, 2*time.Minute, cfg.DefaultWindow)
	require.Equal(t, time.Hour, cfg.DefaultCooldown)
	require.Equal(t, "500.500000000000000000", fixedpoint.Format(cfg.DefaultThreshold))
	require.Equal(t, []common.Address{common.HexToAddress("0x1111111111111111111111111111111111111111")}, cfg.Admins)
	require.Equal(t, filepath.Join(home, "data"), cfg.DataDir())
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"admin", "[breaker]\nadmins = [\"not-an-address\"]\n"},
		{"threshold", "[breaker]\ndefault_threshold = \"-1\"\n"},
		{"fee", "[amm]\nfee_bps = 5000\n"},
		{"backend", "[db]\nbackend = \"rocksdb\"\n"},
		{"log level", "[log]\nlevel = \"loud\"\n"},
		{"window", "[breaker]\ndefault_window = \"0s\"\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			home := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(home, "dexguard.toml"), []byte(tc.file), 0o600))
			_, err := app.LoadConfig(newFlags(t, "--home", home))
			require.ErrorIs(t, err, app.ErrInvalidConfig)
		})
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	home := t.TempDir()
	path, err := app.WriteDefaultConfig(home)
	require.NoError(t, err)
	require.FileExists(t, path)

	_, err = app.WriteDefaultConfig(home)
	require.Error(t, err, "existing config is not overwritten")

	cfg, err := app.LoadConfig(newFlags(t, "--home", home))
	require.NoError(t, err)
	require.Equal(t, uint32(30), cfg.FeeBps)
	require.Equal(t, time.Minute, cfg.DefaultWindow)
	require.True(t, cfg.DefaultThreshold.Equal(fixedpoint.FromUnits(1000)))
}

func TestNewLogger(t *testing.T) {
	cfg := app.DefaultConfig()
	cfg.LogJSON = true
	logger, err := app.NewLogger(cfg, os.Stderr)
	require.NoError(t, err)
	require.NotNil(t, logger)

	cfg.LogLevel = "loud"
	_, err = app.NewLogger(cfg, os.Stderr)
	require.ErrorIs(t, err, app.ErrInvalidConfig)
}
