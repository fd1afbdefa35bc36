package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cosmossdk.io/math"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	ammtypes "github.com/paw-chain/dexguard/x/amm/types"
	breakertypes "github.com/paw-chain/dexguard/x/breaker/types"
	"github.com/paw-chain/dexguard/x/shared/fixedpoint"
)

const (
	// ConfigName is the config file name, without extension, looked up in the home dir.
	ConfigName = "dexguard"
	// EnvPrefix prefixes every environment override, e.g. DEXGUARD_LOG_LEVEL.
	EnvPrefix = "DEXGUARD"
)

// DefaultNodeHome is the default home directory for the dexguardd binary.
var DefaultNodeHome string

func init() {
	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		userHomeDir = "."
	}
	DefaultNodeHome = filepath.Join(userHomeDir, ".dexguard")
}

// Config is the exchange configuration merged from file, environment and flags.
type Config struct {
	Home string

	DBBackend string

	LogLevel string
	LogJSON  bool

	MetricsEnabled bool
	MetricsListen  string

	FeeBps                uint32
	ImbalanceToleranceBps uint32

	DefaultThreshold math.Int
	DefaultWindow    time.Duration
	DefaultCooldown  time.Duration
	Admins           []common.Address
	ProtectOnCreate  bool
}

// setDefaults registers every key with its default so files written by
// WriteDefaultConfig list the full key set.
func setDefaults(v *viper.Viper) {
	v.SetDefault("home", DefaultNodeHome)
	v.SetDefault("db.backend", string(dbm.GoLevelDBBackend))
	v.SetDefault("log.level", zerolog.InfoLevel.String())
	v.SetDefault("log.json", false)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.listen", "127.0.0.1:26660")
	v.SetDefault("amm.fee_bps", ammtypes.DefaultFeeBps)
	v.SetDefault("amm.imbalance_tolerance_bps", ammtypes.DefaultImbalanceToleranceBps)
	v.SetDefault("breaker.default_threshold", fixedpoint.Format(breakertypes.DefaultThreshold))
	v.SetDefault("breaker.default_window", breakertypes.DefaultWindow.String())
	v.SetDefault("breaker.default_cooldown", breakertypes.DefaultCooldown.String())
	v.SetDefault("breaker.admins", []string{})
	v.SetDefault("breaker.protect_on_create", true)
}

// flagKeys maps persistent CLI flags onto config keys.
var flagKeys = map[string]string{
	"home":         "home",
	"db-backend":   "db.backend",
	"log-level":    "log.level",
	"log-json":     "log.json",
	"metrics":      "metrics.enabled",
	"metrics-addr": "metrics.listen",
}

// AddFlags registers the persistent flags LoadConfig binds.
func AddFlags(fs *pflag.FlagSet) {
	fs.String("home", DefaultNodeHome, "directory holding dexguard.toml and the data dir")
	fs.String("db-backend", string(dbm.GoLevelDBBackend), "database backend (goleveldb|memdb)")
	fs.String("log-level", zerolog.InfoLevel.String(), "log level (trace|debug|info|warn|error)")
	fs.Bool("log-json", false, "emit JSON logs")
	fs.Bool("metrics", true, "serve Prometheus metrics from the serve command")
	fs.String("metrics-addr", "127.0.0.1:26660", "metrics listen address")
}

func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}
	return v, nil
}

// LoadConfig merges the config file in the home dir, DEXGUARD_* environment
// variables and flags into a validated Config. A missing config file is not an error.
func LoadConfig(flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(flags)
	if err != nil {
		return Config{}, err
	}

	v.SetConfigName(ConfigName)
	v.SetConfigType("toml")
	v.AddConfigPath(v.GetString("home"))
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	return configFromViper(v)
}

func configFromViper(v *viper.Viper) (Config, error) {
	threshold, err := fixedpoint.Parse(v.GetString("breaker.default_threshold"))
	if err != nil {
		return Config{}, ErrInvalidConfig.Wrapf("breaker.default_threshold: %s", err)
	}

	admins := make([]common.Address, 0)
	for _, raw := range v.GetStringSlice("breaker.admins") {
		addr, err := ParseAddress(raw)
		if err != nil {
			return Config{}, ErrInvalidConfig.Wrapf("breaker.admins: %s", err)
		}
		admins = append(admins, addr)
	}

	cfg := Config{
		Home:                  v.GetString("home"),
		DBBackend:             v.GetString("db.backend"),
		LogLevel:              v.GetString("log.level"),
		LogJSON:               v.GetBool("log.json"),
		MetricsEnabled:        v.GetBool("metrics.enabled"),
		MetricsListen:         v.GetString("metrics.listen"),
		FeeBps:                v.GetUint32("amm.fee_bps"),
		ImbalanceToleranceBps: v.GetUint32("amm.imbalance_tolerance_bps"),
		DefaultThreshold:      threshold,
		DefaultWindow:         v.GetDuration("breaker.default_window"),
		DefaultCooldown:       v.GetDuration("breaker.default_cooldown"),
		Admins:                admins,
		ProtectOnCreate:       v.GetBool("breaker.protect_on_create"),
	}
	return cfg, cfg.Validate()
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	v, _ := newViper(nil)
	cfg, err := configFromViper(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

// WriteDefaultConfig writes dexguard.toml with every key at its default into home.
// It refuses to overwrite an existing file.
func WriteDefaultConfig(home string) (string, error) {
	v, err := newViper(nil)
	if err != nil {
		return "", err
	}
	v.Set("home", home)
	if err := os.MkdirAll(home, 0o750); err != nil {
		return "", fmt.Errorf("create home: %w", err)
	}
	path := filepath.Join(home, ConfigName+".toml")
	if err := v.SafeWriteConfigAs(path); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}

// Validate checks every value is in range.
func (c Config) Validate() error {
	switch dbm.BackendType(c.DBBackend) {
	case dbm.GoLevelDBBackend, dbm.MemDBBackend:
	default:
		return ErrInvalidConfig.Wrapf("unsupported db.backend %q", c.DBBackend)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return ErrInvalidConfig.Wrapf("log.level: %s", err)
	}
	if c.MetricsEnabled && c.MetricsListen == "" {
		return ErrInvalidConfig.Wrap("metrics.listen is required when metrics are enabled")
	}
	if err := c.AMMParams().Validate(); err != nil {
		return ErrInvalidConfig.Wrap(err.Error())
	}
	if err := c.BreakerParams().Validate(); err != nil {
		return ErrInvalidConfig.Wrap(err.Error())
	}
	return nil
}

// AMMParams returns the amm module params the config describes.
func (c Config) AMMParams() ammtypes.Params {
	return ammtypes.Params{
		DefaultFeeBps:         c.FeeBps,
		ImbalanceToleranceBps: c.ImbalanceToleranceBps,
	}
}

// BreakerParams returns the breaker module params the config describes.
func (c Config) BreakerParams() breakertypes.Params {
	return breakertypes.Params{
		DefaultThreshold: c.DefaultThreshold,
		DefaultWindow:    c.DefaultWindow,
		DefaultCooldown:  c.DefaultCooldown,
	}
}

// DataDir is where the goleveldb backend keeps its files.
func (c Config) DataDir() string {
	return filepath.Join(c.Home, "data")
}
