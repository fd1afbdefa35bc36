package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	ammkeeper "github.com/paw-chain/dexguard/x/amm/keeper"
	ammtypes "github.com/paw-chain/dexguard/x/amm/types"
	breakerkeeper "github.com/paw-chain/dexguard/x/breaker/keeper"
	breakertypes "github.com/paw-chain/dexguard/x/breaker/types"
	ratelimitkeeper "github.com/paw-chain/dexguard/x/ratelimit/keeper"
	ratelimittypes "github.com/paw-chain/dexguard/x/ratelimit/types"
)

// systemCapability is held by the exchange itself for protect-on-create.
var systemCapability = breakertypes.NewAdminCapability(Codespace)

// Receipt identifies one committed operation.
type Receipt struct {
	ID         uuid.UUID `json:"id"`
	Operation  string    `json:"operation"`
	Identifier string    `json:"identifier,omitempty"`
	Height     int64     `json:"height"`
	Time       time.Time `json:"time"`
}

// CreatePoolReceipt is returned by CreatePool.
type CreatePoolReceipt struct {
	Receipt
	Pool    ammtypes.Pool          `json:"pool"`
	Address string                 `json:"address"`
	Deposit ammtypes.DepositResult `json:"deposit"`
}

// SwapReceipt is returned by Swap.
type SwapReceipt struct {
	Receipt
	Result ammtypes.SwapResult `json:"result"`
}

// DepositReceipt is returned by AddLiquidity.
type DepositReceipt struct {
	Receipt
	Result ammtypes.DepositResult `json:"result"`
}

// WithdrawReceipt is returned by RemoveLiquidity.
type WithdrawReceipt struct {
	Receipt
	Result ammtypes.WithdrawResult `json:"result"`
}

// Exchange wires the amm, breaker and ratelimit keepers over one commit store.
// Every pool operation passes the breaker guard first and commits only if both
// the guard and the pool mutation succeed.
type Exchange struct {
	mu sync.Mutex

	db     dbm.DB
	cms    storetypes.CommitMultiStore
	keys   map[string]*storetypes.KVStoreKey
	logger log.Logger
	clock  Clock
	auth   *Authorizer

	protectOnCreate bool

	AMMKeeper       *ammkeeper.Keeper
	BreakerKeeper   *breakerkeeper.Keeper
	RateLimitKeeper *ratelimitkeeper.Keeper
}

// Option configures NewExchange.
type Option func(*exchangeOptions)

type exchangeOptions struct {
	registerer prometheus.Registerer
	clock      Clock
	genesis    GenesisState
	skipInit   bool
}

// WithRegisterer registers module metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *exchangeOptions) {
		o.registerer = reg
	}
}

// WithClock replaces the system clock.
func WithClock(clock Clock) Option {
	return func(o *exchangeOptions) {
		o.clock = clock
	}
}

// WithGenesis initializes an empty store from gs instead of the config defaults.
func WithGenesis(gs GenesisState) Option {
	return func(o *exchangeOptions) {
		o.genesis = gs
	}
}

// WithoutInit leaves an empty store uninitialized.
func WithoutInit() Option {
	return func(o *exchangeOptions) {
		o.skipInit = true
	}
}

// NewExchange opens the keepers over db. A store with no committed version is
// initialized from the default genesis built from cfg unless another genesis
// is given. Metrics are left unregistered unless WithRegisterer is passed.
func NewExchange(cfg Config, db dbm.DB, logger log.Logger, opts ...Option) (*Exchange, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &exchangeOptions{clock: SystemClock{}}
	for _, fn := range opts {
		fn(o)
	}

	keys := NewStoreKeys()
	cms, err := NewCommitStore(db, logger, keys)
	if err != nil {
		return nil, err
	}

	limiters := ratelimitkeeper.NewKeeper(keys[ratelimittypes.StoreKey], logger)
	e := &Exchange{
		db:              db,
		cms:             cms,
		keys:            keys,
		logger:          logger.With(log.ModuleKey, "exchange"),
		clock:           o.clock,
		auth:            NewAuthorizer(cfg.Admins),
		protectOnCreate: cfg.ProtectOnCreate,
		AMMKeeper:       ammkeeper.NewKeeper(keys[ammtypes.StoreKey], logger, ammkeeper.NewAMMMetrics(o.registerer)),
		RateLimitKeeper: limiters,
		BreakerKeeper:   breakerkeeper.NewKeeper(keys[breakertypes.StoreKey], limiters, logger, breakerkeeper.NewBreakerMetrics(o.registerer)),
	}

	if e.Initialized() || o.skipInit {
		return e, nil
	}
	genesis := o.genesis
	if genesis == nil {
		genesis = NewDefaultGenesisState(cfg)
	}
	if err := e.InitGenesis(genesis); err != nil {
		return nil, err
	}
	return e, nil
}

// Close closes the underlying database.
func (e *Exchange) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.db.Close()
}

// Initialized reports whether the store has a committed version.
func (e *Exchange) Initialized() bool {
	return e.cms.LastCommitID().Version > 0
}

// LastCommitID returns the id of the latest committed version.
func (e *Exchange) LastCommitID() storetypes.CommitID {
	return e.cms.LastCommitID()
}

// Authorizer returns the authorizer admin operations are checked against.
func (e *Exchange) Authorizer() *Authorizer {
	return e.auth
}

// InitGenesis loads gs into an uninitialized store and commits it.
func (e *Exchange) InitGenesis(gs GenesisState) error {
	if err := gs.Validate(); err != nil {
		return err
	}
	ammGenesis, err := gs.AMM()
	if err != nil {
		return err
	}
	breakerGenesis, err := gs.Breaker()
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Initialized() {
		return ErrAlreadyInitialized.Wrapf("version %d", e.cms.LastCommitID().Version)
	}

	cms := e.cms.CacheMultiStore()
	if err := e.AMMKeeper.InitGenesis(cms, ammGenesis); err != nil {
		e.discardMetrics()
		return fmt.Errorf("amm: %w", err)
	}
	if err := e.BreakerKeeper.InitGenesis(cms, breakerGenesis); err != nil {
		e.discardMetrics()
		return fmt.Errorf("breaker: %w", err)
	}
	cms.Write()
	commit := e.cms.Commit()
	e.commitMetrics()
	e.logger.Info("genesis loaded",
		"pools", len(ammGenesis.Pools),
		"protected", len(breakerGenesis.ProtectedContracts),
		"height", commit.Version,
	)
	return nil
}

// ExportGenesis returns the current state of every module.
func (e *Exchange) ExportGenesis() (GenesisState, error) {
	var gs GenesisState
	err := e.query(func(ms storetypes.MultiStore, _ time.Time) error {
		ammGenesis, err := e.AMMKeeper.ExportGenesis(ms)
		if err != nil {
			return err
		}
		breakerGenesis, err := e.BreakerKeeper.ExportGenesis(ms)
		if err != nil {
			return err
		}
		gs = GenesisState{
			ammtypes.ModuleName:     mustMarshalJSON(ammGenesis),
			breakertypes.ModuleName: mustMarshalJSON(breakerGenesis),
		}
		return nil
	})
	return gs, err
}

// execute runs fn against a branch of the store and commits the branch only
// when fn succeeds. fn returns the identifier the operation was guarded under.
func (e *Exchange) execute(ctx context.Context, op string, fn func(ms storetypes.MultiStore, now time.Time) (string, error)) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	cms := e.cms.CacheMultiStore()
	e.BreakerKeeper.PruneGracePeriod(cms, now)

	identifier, err := runRecovered(fn, cms, now)
	if err != nil {
		e.discardMetrics()
		e.logRejection(op, identifier, err)
		return Receipt{}, err
	}

	cms.Write()
	commit := e.cms.Commit()
	e.commitMetrics()
	return Receipt{
		ID:         uuid.New(),
		Operation:  op,
		Identifier: identifier,
		Height:     commit.Version,
		Time:       now,
	}, nil
}

// runRecovered turns a panic in fn into an ErrPanic error so the branch is
// discarded like any other failure.
func runRecovered(fn func(ms storetypes.MultiStore, now time.Time) (string, error), ms storetypes.MultiStore, now time.Time) (identifier string, err error) {
	defer errorsmod.Recover(&err)
	return fn(ms, now)
}

// query runs fn against a branch that is always discarded.
func (e *Exchange) query(fn func(ms storetypes.MultiStore, now time.Time) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.discardMetrics()
	return fn(e.cms.CacheMultiStore(), e.clock.Now())
}

// commitMetrics applies the keepers' queued metric updates after a commit.
func (e *Exchange) commitMetrics() {
	e.AMMKeeper.CommitMetrics()
	e.BreakerKeeper.CommitMetrics()
}

// discardMetrics drops the keepers' queued metric updates with the branch.
func (e *Exchange) discardMetrics() {
	e.AMMKeeper.DiscardMetrics()
	e.BreakerKeeper.DiscardMetrics()
}

func (e *Exchange) logRejection(op, identifier string, err error) {
	if retryAt, ok := breakertypes.RetryAfter(err); ok {
		e.logger.Debug("operation deferred", "operation", op, "identifier", identifier, "retry_at", retryAt, "error", err)
		return
	}
	e.logger.Error("operation rejected", "operation", op, "identifier", identifier, "error", err)
}

// poolIdentifier loads the pool and returns the identifier it is guarded under.
func (e *Exchange) poolIdentifier(ms storetypes.MultiStore, poolID uint64) (string, error) {
	pool, err := e.AMMKeeper.GetPool(ms, poolID)
	if err != nil {
		return "", err
	}
	return PoolIdentifier(pool), nil
}

// CreatePool creates a pool seeded by the creator's deposit. The deposit is
// guarded like any other. With breaker.protect_on_create the new pool address
// is added to the protected set.
func (e *Exchange) CreatePool(ctx context.Context, creator, tokenA, tokenB string, amountA, amountB math.Int, feeBps uint32) (CreatePoolReceipt, error) {
	var out CreatePoolReceipt
	receipt, err := e.execute(ctx, "create_pool", func(ms storetypes.MultiStore, now time.Time) (string, error) {
		identifier := PoolAddress(e.AMMKeeper.GetNextPoolID(ms), tokenA, tokenB).Hex()
		if err := e.BreakerKeeper.Guard(ms, breakertypes.OperationDeposit, identifier, amountA, now); err != nil {
			return identifier, err
		}

		pool, deposit, err := e.AMMKeeper.CreatePool(ms, creator, tokenA, tokenB, amountA, amountB, feeBps)
		if err != nil {
			return identifier, err
		}
		identifier = PoolIdentifier(pool)
		if e.protectOnCreate {
			if err := e.BreakerKeeper.AddProtectedContracts(ms, systemCapability, identifier); err != nil {
				return identifier, err
			}
		}
		out.Pool, out.Address, out.Deposit = pool, identifier, deposit
		return identifier, nil
	})
	if err != nil {
		return CreatePoolReceipt{}, err
	}
	out.Receipt = receipt
	return out, nil
}

// Swap sells amountIn of tokenIn for at least minAmountOut of tokenOut.
func (e *Exchange) Swap(ctx context.Context, trader string, poolID uint64, tokenIn, tokenOut string, amountIn, minAmountOut math.Int) (SwapReceipt, error) {
	var result ammtypes.SwapResult
	receipt, err := e.execute(ctx, "swap", func(ms storetypes.MultiStore, now time.Time) (string, error) {
		identifier, err := e.poolIdentifier(ms, poolID)
		if err != nil {
			return "", err
		}
		if err := e.BreakerKeeper.Guard(ms, breakertypes.OperationSwap, identifier, amountIn, now); err != nil {
			return identifier, err
		}
		result, err = e.AMMKeeper.Swap(ms, trader, poolID, tokenIn, tokenOut, amountIn, minAmountOut)
		return identifier, err
	})
	if err != nil {
		return SwapReceipt{}, err
	}
	return SwapReceipt{Receipt: receipt, Result: result}, nil
}

// AddLiquidity deposits both tokens into a pool. amountA is the guarded delta.
func (e *Exchange) AddLiquidity(ctx context.Context, provider string, poolID uint64, amountA, amountB math.Int) (DepositReceipt, error) {
	var result ammtypes.DepositResult
	receipt, err := e.execute(ctx, "add_liquidity", func(ms storetypes.MultiStore, now time.Time) (string, error) {
		identifier, err := e.poolIdentifier(ms, poolID)
		if err != nil {
			return "", err
		}
		if err := e.BreakerKeeper.Guard(ms, breakertypes.OperationDeposit, identifier, amountA, now); err != nil {
			return identifier, err
		}
		result, err = e.AMMKeeper.AddLiquidity(ms, provider, poolID, amountA, amountB)
		return identifier, err
	})
	if err != nil {
		return DepositReceipt{}, err
	}
	return DepositReceipt{Receipt: receipt, Result: result}, nil
}

// RemoveLiquidity burns shares for the pro-rata reserves. shares is the guarded delta.
func (e *Exchange) RemoveLiquidity(ctx context.Context, provider string, poolID uint64, shares, minAmountA, minAmountB math.Int) (WithdrawReceipt, error) {
	var result ammtypes.WithdrawResult
	receipt, err := e.execute(ctx, "remove_liquidity", func(ms storetypes.MultiStore, now time.Time) (string, error) {
		identifier, err := e.poolIdentifier(ms, poolID)
		if err != nil {
			return "", err
		}
		if err := e.BreakerKeeper.Guard(ms, breakertypes.OperationWithdraw, identifier, shares, now); err != nil {
			return identifier, err
		}
		result, err = e.AMMKeeper.RemoveLiquidity(ms, provider, poolID, shares, minAmountA, minAmountB)
		return identifier, err
	})
	if err != nil {
		return WithdrawReceipt{}, err
	}
	return WithdrawReceipt{Receipt: receipt, Result: result}, nil
}

// QuoteSwap prices a swap without executing it.
func (e *Exchange) QuoteSwap(poolID uint64, tokenIn, tokenOut string, amountIn math.Int) (ammtypes.SwapQuote, error) {
	var quote ammtypes.SwapQuote
	err := e.query(func(ms storetypes.MultiStore, _ time.Time) error {
		var err error
		quote, err = e.AMMKeeper.QuoteSwap(ms, poolID, tokenIn, tokenOut, amountIn)
		return err
	})
	return quote, err
}

// Pool returns a pool by id.
func (e *Exchange) Pool(poolID uint64) (ammtypes.Pool, error) {
	var pool ammtypes.Pool
	err := e.query(func(ms storetypes.MultiStore, _ time.Time) error {
		var err error
		pool, err = e.AMMKeeper.GetPool(ms, poolID)
		return err
	})
	return pool, err
}

// Pools returns every pool ordered by id.
func (e *Exchange) Pools() ([]ammtypes.Pool, error) {
	var pools []ammtypes.Pool
	err := e.query(func(ms storetypes.MultiStore, _ time.Time) error {
		var err error
		pools, err = e.AMMKeeper.GetAllPools(ms)
		return err
	})
	return pools, err
}

// Shares returns the shares provider holds in a pool.
func (e *Exchange) Shares(poolID uint64, provider string) (math.Int, error) {
	var shares math.Int
	err := e.query(func(ms storetypes.MultiStore, _ time.Time) error {
		var err error
		shares, err = e.AMMKeeper.GetLiquidity(ms, poolID, provider)
		return err
	})
	return shares, err
}

// BreakerStatus returns the breaker snapshot at the clock's current time.
func (e *Exchange) BreakerStatus() (breakertypes.Status, error) {
	var status breakertypes.Status
	err := e.query(func(ms storetypes.MultiStore, now time.Time) error {
		var err error
		status, err = e.BreakerKeeper.Status(ms, now)
		return err
	})
	return status, err
}

// LimiterStatus returns the limiter snapshot for one identifier.
func (e *Exchange) LimiterStatus(identifier string) (ratelimittypes.Status, error) {
	var status ratelimittypes.Status
	err := e.query(func(ms storetypes.MultiStore, now time.Time) error {
		var err error
		status, err = e.RateLimitKeeper.Status(ms, identifier, now)
		return err
	})
	return status, err
}

// admin authorizes from and runs fn with the resulting capability.
func (e *Exchange) admin(ctx context.Context, op, from, identifier string, fn func(ms storetypes.MultiStore, capability breakertypes.AdminCapability, now time.Time) error) error {
	capability, err := e.auth.Authorize(from)
	if err != nil {
		e.logger.Error("admin operation rejected", "operation", op, "from", from, "error", err)
		return err
	}
	receipt, err := e.execute(ctx, op, func(ms storetypes.MultiStore, now time.Time) (string, error) {
		return identifier, fn(ms, capability, now)
	})
	if err != nil {
		return err
	}
	e.logger.Info("admin operation", "operation", op, "from", capability.Holder(), "receipt", receipt.ID.String(), "height", receipt.Height)
	return nil
}

// SetOperationalStatus pauses (false) or resumes (true) every guarded operation.
func (e *Exchange) SetOperationalStatus(ctx context.Context, from string, operational bool) error {
	return e.admin(ctx, "set_operational_status", from, "", func(ms storetypes.MultiStore, capability breakertypes.AdminCapability, _ time.Time) error {
		return e.BreakerKeeper.SetOperationalStatus(ms, capability, operational)
	})
}

// StartGracePeriod blocks deposits and swaps until end.
func (e *Exchange) StartGracePeriod(ctx context.Context, from string, end time.Time) error {
	return e.admin(ctx, "start_grace_period", from, "", func(ms storetypes.MultiStore, capability breakertypes.AdminCapability, now time.Time) error {
		return e.BreakerKeeper.StartGracePeriod(ms, capability, end, now)
	})
}

// EndGracePeriod clears the grace period immediately.
func (e *Exchange) EndGracePeriod(ctx context.Context, from string) error {
	return e.admin(ctx, "end_grace_period", from, "", func(ms storetypes.MultiStore, capability breakertypes.AdminCapability, _ time.Time) error {
		return e.BreakerKeeper.EndGracePeriod(ms, capability)
	})
}

// AddProtectedContracts adds identifiers to the protected set.
func (e *Exchange) AddProtectedContracts(ctx context.Context, from string, identifiers ...string) error {
	return e.admin(ctx, "add_protected_contracts", from, "", func(ms storetypes.MultiStore, capability breakertypes.AdminCapability, _ time.Time) error {
		return e.BreakerKeeper.AddProtectedContracts(ms, capability, identifiers...)
	})
}

// RemoveProtectedContracts removes identifiers from the protected set.
func (e *Exchange) RemoveProtectedContracts(ctx context.Context, from string, identifiers ...string) error {
	return e.admin(ctx, "remove_protected_contracts", from, "", func(ms storetypes.MultiStore, capability breakertypes.AdminCapability, _ time.Time) error {
		return e.BreakerKeeper.RemoveProtectedContracts(ms, capability, identifiers...)
	})
}

// OverrideRateLimit releases a triggered limiter and keeps it released until revoked.
func (e *Exchange) OverrideRateLimit(ctx context.Context, from, identifier string) error {
	return e.admin(ctx, "override_rate_limit", from, identifier, func(ms storetypes.MultiStore, capability breakertypes.AdminCapability, _ time.Time) error {
		return e.BreakerKeeper.OverrideRateLimit(ms, capability, identifier)
	})
}

// RevokeOverride clears a previous override.
func (e *Exchange) RevokeOverride(ctx context.Context, from, identifier string) error {
	return e.admin(ctx, "revoke_override", from, identifier, func(ms storetypes.MultiStore, capability breakertypes.AdminCapability, _ time.Time) error {
		return e.BreakerKeeper.RevokeOverride(ms, capability, identifier)
	})
}

// SetLimiterConfig replaces the threshold, window and cooldown of one limiter.
func (e *Exchange) SetLimiterConfig(ctx context.Context, from, identifier string, cfg ratelimittypes.Config) error {
	return e.admin(ctx, "set_limiter_config", from, identifier, func(ms storetypes.MultiStore, capability breakertypes.AdminCapability, _ time.Time) error {
		return e.BreakerKeeper.SetLimiterConfig(ms, capability, identifier, cfg)
	})
}

// CheckInvariants runs every amm invariant against the committed state.
func (e *Exchange) CheckInvariants() error {
	return e.query(func(ms storetypes.MultiStore, _ time.Time) error {
		if msg, broken := ammkeeper.AllInvariants(*e.AMMKeeper)(ms); broken {
			return ammtypes.ErrInvariantViolation.Wrap(msg)
		}
		return nil
	})
}

// RefreshMetrics sets every gauge from the committed state.
func (e *Exchange) RefreshMetrics() error {
	return e.query(func(ms storetypes.MultiStore, now time.Time) error {
		e.BreakerKeeper.RefreshMetrics(ms, now)
		return e.AMMKeeper.RefreshMetrics(ms)
	})
}
