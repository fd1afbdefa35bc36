package app

import (
	"fmt"
	"os"

	"cosmossdk.io/log"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	dbm "github.com/cosmos/cosmos-db"

	ammtypes "github.com/paw-chain/dexguard/x/amm/types"
	breakertypes "github.com/paw-chain/dexguard/x/breaker/types"
	ratelimittypes "github.com/paw-chain/dexguard/x/ratelimit/types"
)

// dbName is the database name under the data dir.
const dbName = "dexguard"

// NewStoreKeys returns one KV store key per module.
func NewStoreKeys() map[string]*storetypes.KVStoreKey {
	return storetypes.NewKVStoreKeys(
		ammtypes.StoreKey,
		breakertypes.StoreKey,
		ratelimittypes.StoreKey,
	)
}

// OpenDB opens the backend named by db.backend. memdb ignores the data dir.
func OpenDB(cfg Config) (dbm.DB, error) {
	backend := dbm.BackendType(cfg.DBBackend)
	if backend == dbm.MemDBBackend {
		return dbm.NewMemDB(), nil
	}
	if err := os.MkdirAll(cfg.DataDir(), 0o750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := dbm.NewDB(dbName, backend, cfg.DataDir())
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", backend, err)
	}
	return db, nil
}

// NewCommitStore mounts an IAVL store per key over db and loads the latest version.
func NewCommitStore(db dbm.DB, logger log.Logger, keys map[string]*storetypes.KVStoreKey) (storetypes.CommitMultiStore, error) {
	cms := store.NewCommitMultiStore(db, logger, metrics.NewNoOpMetrics())
	for _, key := range keys {
		cms.MountStoreWithDB(key, storetypes.StoreTypeIAVL, nil)
	}
	if err := cms.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("load latest version: %w", err)
	}
	return cms, nil
}
