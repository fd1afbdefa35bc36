package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/paw-chain/dexguard/app"
	ammtypes "github.com/paw-chain/dexguard/x/amm/types"
	breakertypes "github.com/paw-chain/dexguard/x/breaker/types"
	ratelimittypes "github.com/paw-chain/dexguard/x/ratelimit/types"
	"github.com/paw-chain/dexguard/x/shared/fixedpoint"
)

var (
	adminAddr = common.HexToAddress("0x1111111111111111111111111111111111111111")
	admin     = adminAddr.Hex()
	outsider  = common.HexToAddress("0x2222222222222222222222222222222222222222").Hex()
	t0        = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

func testConfig() app.Config {
	cfg := app.DefaultConfig()
	cfg.DBBackend = "memdb"
	cfg.Admins = []common.Address{adminAddr}
	cfg.ProtectOnCreate = true
	return cfg
}

type ExchangeTestSuite struct {
	suite.Suite

	ctx   context.Context
	clock *app.ManualClock
	ex    *app.Exchange
}

func TestExchangeTestSuite(t *testing.T) {
	suite.Run(t, new(ExchangeTestSuite))
}

func (s *ExchangeTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = app.NewManualClock(t0)
	ex, err := app.NewExchange(testConfig(), dbm.NewMemDB(), log.NewNopLogger(), app.WithClock(s.clock))
	s.Require().NoError(err)
	s.ex = ex
}

func (s *ExchangeTestSuite) TearDownTest() {
	s.Require().NoError(s.ex.Close())
}

func (s *ExchangeTestSuite) createPool(amountA, amountB int64) app.CreatePoolReceipt {
	receipt, err := s.ex.CreatePool(s.ctx, "creator", "atom", "usdc", fixedpoint.FromUnits(amountA), fixedpoint.FromUnits(amountB), 0)
	s.Require().NoError(err)
	return receipt
}

func (s *ExchangeTestSuite) swap(poolID uint64, amountIn int64) (app.SwapReceipt, error) {
	return s.ex.Swap(s.ctx, "trader", poolID, "atom", "usdc", fixedpoint.FromUnits(amountIn), math.ZeroInt())
}

func (s *ExchangeTestSuite) TestCreatePoolProtectsPoolAddress() {
	created := s.createPool(100, 1000)
	s.Require().Equal(uint64(1), created.Pool.Id)
	s.Require().Equal(app.PoolIdentifier(created.Pool), created.Address)
	s.Require().Equal("316.227766016837933199", fixedpoint.Format(created.Deposit.SharesMinted))
	s.Require().NotEqual(created.ID.String(), "")

	status, err := s.ex.BreakerStatus()
	s.Require().NoError(err)
	s.Require().Len(status.Protected, 1)
	s.Require().Equal(created.Address, status.Protected[0].Identifier)
}

func (s *ExchangeTestSuite) TestSwapScenario() {
	created := s.createPool(100, 1000)

	receipt, err := s.swap(created.Pool.Id, 1)
	s.Require().NoError(err)
	s.Require().Equal("9871580343970612988", receipt.Result.AmountOut.String())
	s.Require().Equal(created.Address, receipt.Identifier)

	pool, err := s.ex.Pool(created.Pool.Id)
	s.Require().NoError(err)
	s.Require().Equal("101000000000000000000", pool.ReserveA.String())
	s.Require().Equal("990128419656029387012", pool.ReserveB.String())
	s.Require().NoError(s.ex.CheckInvariants())
}

func (s *ExchangeTestSuite) TestRateLimitScenario() {
	created := s.createPool(100_000, 100_000)

	for i := 0; i < 6; i++ {
		_, err := s.swap(created.Pool.Id, 200)
		s.Require().NoError(err, "swap %d", i+1)
	}

	limiter, err := s.ex.LimiterStatus(created.Address)
	s.Require().NoError(err)
	s.Require().True(limiter.Limited)

	_, err = s.swap(created.Pool.Id, 200)
	s.Require().ErrorIs(err, breakertypes.ErrRateLimited)
	retryAt, ok := breakertypes.RetryAfter(err)
	s.Require().True(ok)
	s.Require().True(retryAt.Equal(t0.Add(breakertypes.DefaultCooldown)))

	s.clock.Advance(breakertypes.DefaultCooldown)
	_, err = s.swap(created.Pool.Id, 200)
	s.Require().NoError(err)
}

func (s *ExchangeTestSuite) TestFailedMutationRollsBackGuard() {
	created := s.createPool(100_000, 100_000)
	_, err := s.swap(created.Pool.Id, 200)
	s.Require().NoError(err)

	before, err := s.ex.LimiterStatus(created.Address)
	s.Require().NoError(err)
	height := s.ex.LastCommitID().Version

	_, err = s.ex.Swap(s.ctx, "trader", created.Pool.Id, "atom", "usdc", fixedpoint.FromUnits(200), fixedpoint.FromUnits(1_000_000))
	s.Require().ErrorIs(err, ammtypes.ErrSlippageExceeded)

	after, err := s.ex.LimiterStatus(created.Address)
	s.Require().NoError(err)
	s.Require().True(before.Accumulated.Equal(after.Accumulated))
	s.Require().Equal(height, s.ex.LastCommitID().Version)
}

func (s *ExchangeTestSuite) TestPauseAndResume() {
	created := s.createPool(100, 1000)

	err := s.ex.SetOperationalStatus(s.ctx, outsider, false)
	s.Require().ErrorIs(err, breakertypes.ErrUnauthorized)

	s.Require().NoError(s.ex.SetOperationalStatus(s.ctx, admin, false))
	_, err = s.swap(created.Pool.Id, 1)
	s.Require().ErrorIs(err, breakertypes.ErrCircuitBreakerPaused)
	_, err = s.ex.CreatePool(s.ctx, "creator", "atom", "osmo", fixedpoint.FromUnits(1), fixedpoint.FromUnits(1), 0)
	s.Require().ErrorIs(err, breakertypes.ErrCircuitBreakerPaused)
	_, err = s.ex.RemoveLiquidity(s.ctx, "creator", created.Pool.Id, fixedpoint.FromUnits(1), math.ZeroInt(), math.ZeroInt())
	s.Require().ErrorIs(err, breakertypes.ErrCircuitBreakerPaused)

	s.Require().NoError(s.ex.SetOperationalStatus(s.ctx, admin, true))
	_, err = s.swap(created.Pool.Id, 1)
	s.Require().NoError(err)
}

func (s *ExchangeTestSuite) TestGracePeriodAllowsWithdrawals() {
	created := s.createPool(100, 1000)
	end := t0.Add(172800 * time.Second)

	s.Require().ErrorIs(s.ex.StartGracePeriod(s.ctx, admin, t0), breakertypes.ErrInvalidGracePeriod)
	s.Require().NoError(s.ex.StartGracePeriod(s.ctx, admin, end))

	_, err := s.ex.AddLiquidity(s.ctx, "lp", created.Pool.Id, fixedpoint.FromUnits(10), fixedpoint.FromUnits(100))
	s.Require().ErrorIs(err, breakertypes.ErrGracePeriodActive)
	retryAt, ok := breakertypes.RetryAfter(err)
	s.Require().True(ok)
	s.Require().True(retryAt.Equal(end))

	_, err = s.swap(created.Pool.Id, 1)
	s.Require().ErrorIs(err, breakertypes.ErrGracePeriodActive)

	withdrawn, err := s.ex.RemoveLiquidity(s.ctx, "creator", created.Pool.Id, fixedpoint.FromUnits(10), math.ZeroInt(), math.ZeroInt())
	s.Require().NoError(err)
	s.Require().True(withdrawn.Result.AmountA.IsPositive())

	s.clock.Set(end)
	_, err = s.swap(created.Pool.Id, 1)
	s.Require().NoError(err)

	status, err := s.ex.BreakerStatus()
	s.Require().NoError(err)
	s.Require().False(status.GracePeriodActive)
	s.Require().Nil(status.GracePeriodEnd)
}

func (s *ExchangeTestSuite) TestEndGracePeriodEarly() {
	created := s.createPool(100, 1000)
	s.Require().NoError(s.ex.StartGracePeriod(s.ctx, admin, t0.Add(time.Hour)))
	s.Require().NoError(s.ex.EndGracePeriod(s.ctx, admin))

	_, err := s.swap(created.Pool.Id, 1)
	s.Require().NoError(err)
}

func (s *ExchangeTestSuite) TestOverrideReleasesTriggeredLimiter() {
	created := s.createPool(100_000, 100_000)
	s.Require().NoError(s.ex.SetLimiterConfig(s.ctx, admin, created.Address, ratelimitConfig(10)))

	_, err := s.swap(created.Pool.Id, 11)
	s.Require().NoError(err)
	_, err = s.swap(created.Pool.Id, 1)
	s.Require().ErrorIs(err, breakertypes.ErrRateLimited)

	s.Require().ErrorIs(s.ex.OverrideRateLimit(s.ctx, outsider, created.Address), breakertypes.ErrUnauthorized)
	s.Require().NoError(s.ex.OverrideRateLimit(s.ctx, admin, created.Address))
	_, err = s.swap(created.Pool.Id, 50)
	s.Require().NoError(err)

	s.Require().NoError(s.ex.RevokeOverride(s.ctx, admin, created.Address))
	_, err = s.swap(created.Pool.Id, 1)
	s.Require().NoError(err, "the call after a revoke re-evaluates and may trigger")
	_, err = s.swap(created.Pool.Id, 1)
	s.Require().ErrorIs(err, breakertypes.ErrRateLimited)
}

func (s *ExchangeTestSuite) TestUnprotectedPoolSkipsRateLimit() {
	created := s.createPool(100_000, 100_000)
	s.Require().NoError(s.ex.RemoveProtectedContracts(s.ctx, admin, created.Address))

	for i := 0; i < 10; i++ {
		_, err := s.swap(created.Pool.Id, 200)
		s.Require().NoError(err)
	}

	s.Require().NoError(s.ex.AddProtectedContracts(s.ctx, admin, created.Address))
	status, err := s.ex.BreakerStatus()
	s.Require().NoError(err)
	s.Require().Len(status.Protected, 1)
}

func (s *ExchangeTestSuite) TestQuoteDoesNotMutate() {
	created := s.createPool(100, 1000)
	height := s.ex.LastCommitID().Version

	quote, err := s.ex.QuoteSwap(created.Pool.Id, "atom", "usdc", fixedpoint.FromUnits(1))
	s.Require().NoError(err)
	s.Require().Equal("9871580343970612988", quote.AmountOut.String())
	s.Require().Equal(height, s.ex.LastCommitID().Version)

	pool, err := s.ex.Pool(created.Pool.Id)
	s.Require().NoError(err)
	s.Require().Equal(fixedpoint.FromUnits(100).String(), pool.ReserveA.String())
}

func (s *ExchangeTestSuite) TestCancelledContext() {
	created := s.createPool(100, 1000)
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.ex.Swap(ctx, "trader", created.Pool.Id, "atom", "usdc", fixedpoint.FromUnits(1), math.ZeroInt())
	s.Require().ErrorIs(err, context.Canceled)
}

func (s *ExchangeTestSuite) TestConcurrentSwapsKeepInvariants() {
	first := s.createPool(10_000, 10_000)
	second, err := s.ex.CreatePool(s.ctx, "creator", "atom", "osmo", fixedpoint.FromUnits(10_000), fixedpoint.FromUnits(10_000), 0)
	s.Require().NoError(err)

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			poolID, tokenOut := first.Pool.Id, "usdc"
			if i%2 == 1 {
				poolID, tokenOut = second.Pool.Id, "osmo"
			}
			_, err := s.ex.Swap(s.ctx, "trader", poolID, "atom", tokenOut, fixedpoint.FromUnits(1), math.ZeroInt())
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		s.Require().NoError(err)
	}
	s.Require().NoError(s.ex.CheckInvariants())

	pool, err := s.ex.Pool(first.Pool.Id)
	s.Require().NoError(err)
	s.Require().Equal(fixedpoint.FromUnits(10_020).String(), pool.ReserveA.String())
}

func TestGenesisExportImport(t *testing.T) {
	cfg := testConfig()
	clock := app.NewManualClock(t0)
	ex, err := app.NewExchange(cfg, dbm.NewMemDB(), log.NewNopLogger(), app.WithClock(clock))
	require.NoError(t, err)

	created, err := ex.CreatePool(context.Background(), "creator", "atom", "usdc", fixedpoint.FromUnits(100), fixedpoint.FromUnits(1000), 0)
	require.NoError(t, err)
	require.NoError(t, ex.SetOperationalStatus(context.Background(), admin, false))

	gs, err := ex.ExportGenesis()
	require.NoError(t, err)
	require.NoError(t, gs.Validate())

	imported, err := app.NewExchange(cfg, dbm.NewMemDB(), log.NewNopLogger(), app.WithClock(clock), app.WithGenesis(gs))
	require.NoError(t, err)

	pool, err := imported.Pool(created.Pool.Id)
	require.NoError(t, err)
	require.Equal(t, created.Pool.ReserveB.String(), pool.ReserveB.String())
	require.Equal(t, created.Pool.TotalShares.String(), pool.TotalShares.String())

	shares, err := imported.Shares(created.Pool.Id, "creator")
	require.NoError(t, err)
	require.Equal(t, created.Pool.TotalShares.String(), shares.String())

	status, err := imported.BreakerStatus()
	require.NoError(t, err)
	require.False(t, status.Operational)
	require.Len(t, status.Protected, 1)

	err = imported.InitGenesis(gs)
	require.True(t, errors.Is(err, app.ErrAlreadyInitialized))
}

func TestExchangePersistsAcrossRestart(t *testing.T) {
	cfg := testConfig()
	cfg.DBBackend = "goleveldb"
	cfg.Home = t.TempDir()

	db, err := app.OpenDB(cfg)
	require.NoError(t, err)
	ex, err := app.NewExchange(cfg, db, log.NewNopLogger())
	require.NoError(t, err)
	created, err := ex.CreatePool(context.Background(), "creator", "atom", "usdc", fixedpoint.FromUnits(100), fixedpoint.FromUnits(1000), 0)
	require.NoError(t, err)
	height := ex.LastCommitID().Version
	require.NoError(t, ex.Close())

	db, err = app.OpenDB(cfg)
	require.NoError(t, err)
	reopened, err := app.NewExchange(cfg, db, log.NewNopLogger())
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, height, reopened.LastCommitID().Version)
	pool, err := reopened.Pool(created.Pool.Id)
	require.NoError(t, err)
	require.Equal(t, created.Pool.ReserveA.String(), pool.ReserveA.String())
}

func TestExchangeReopensRightAfterInit(t *testing.T) {
	cfg := testConfig()
	cfg.DBBackend = "goleveldb"
	cfg.Home = t.TempDir()

	db, err := app.OpenDB(cfg)
	require.NoError(t, err)
	ex, err := app.NewExchange(cfg, db, log.NewNopLogger())
	require.NoError(t, err)
	height := ex.LastCommitID().Version
	exported, err := ex.ExportGenesis()
	require.NoError(t, err)
	require.NoError(t, ex.Close())

	db, err = app.OpenDB(cfg)
	require.NoError(t, err)
	reopened, err := app.NewExchange(cfg, db, log.NewNopLogger())
	require.NoError(t, err)
	defer reopened.Close()

	require.True(t, reopened.Initialized())
	require.Equal(t, height, reopened.LastCommitID().Version)
	again, err := reopened.ExportGenesis()
	require.NoError(t, err)
	require.Equal(t, exported, again)
}

func TestRolledBackOperationsLeaveMetricsUntouched(t *testing.T) {
	reg := prometheus.NewRegistry()
	clock := app.NewManualClock(t0)
	ex, err := app.NewExchange(testConfig(), dbm.NewMemDB(), log.NewNopLogger(), app.WithClock(clock), app.WithRegisterer(reg))
	require.NoError(t, err)
	defer ex.Close()

	ctx := context.Background()
	created, err := ex.CreatePool(ctx, "creator", "atom", "usdc", fixedpoint.FromUnits(100_000), fixedpoint.FromUnits(100_000), 0)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := ex.Swap(ctx, "trader", created.Pool.Id, "atom", "usdc", fixedpoint.FromUnits(200), math.ZeroInt())
		require.NoError(t, err)
	}
	volume := counterValue(t, reg, "dexguard_amm_swap_volume_total")
	require.InDelta(t, 1000, volume, 1e-6)

	// crosses the threshold in the guard, then fails on slippage
	_, err = ex.Swap(ctx, "trader", created.Pool.Id, "atom", "usdc", fixedpoint.FromUnits(200), fixedpoint.FromUnits(1_000_000))
	require.ErrorIs(t, err, ammtypes.ErrSlippageExceeded)

	require.Zero(t, counterValue(t, reg, "dexguard_breaker_limiter_triggers_total"))
	require.Equal(t, volume, counterValue(t, reg, "dexguard_amm_swap_volume_total"))
	limiter, err := ex.LimiterStatus(created.Address)
	require.NoError(t, err)
	require.False(t, limiter.Limited)

	_, err = ex.Swap(ctx, "trader", created.Pool.Id, "atom", "usdc", fixedpoint.FromUnits(200), math.ZeroInt())
	require.NoError(t, err)
	require.Equal(t, float64(1), counterValue(t, reg, "dexguard_breaker_limiter_triggers_total"))
	require.InDelta(t, 1200, counterValue(t, reg, "dexguard_amm_swap_volume_total"), 1e-6)
}

// counterValue sums every series of the named counter family.
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestWithoutInitLeavesStoreEmpty(t *testing.T) {
	ex, err := app.NewExchange(testConfig(), dbm.NewMemDB(), log.NewNopLogger(), app.WithoutInit())
	require.NoError(t, err)
	require.False(t, ex.Initialized())
	require.NoError(t, ex.InitGenesis(app.NewDefaultGenesisState(testConfig())))
	require.True(t, ex.Initialized())
}

func ratelimitConfig(thresholdUnits int64) ratelimittypes.Config {
	return ratelimittypes.Config{
		Threshold: fixedpoint.FromUnits(thresholdUnits),
		Window:    breakertypes.DefaultWindow,
		Cooldown:  breakertypes.DefaultCooldown,
	}
}

func TestRefreshMetricsAfterRestart(t *testing.T) {
	cfg := testConfig()
	db := dbm.NewMemDB()
	ex, err := app.NewExchange(cfg, db, log.NewNopLogger())
	require.NoError(t, err)
	_, err = ex.CreatePool(context.Background(), "creator", "atom", "usdc", fixedpoint.FromUnits(100), fixedpoint.FromUnits(1000), 0)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	reopened, err := app.NewExchange(cfg, db, log.NewNopLogger(), app.WithRegisterer(reg))
	require.NoError(t, err)
	require.NoError(t, reopened.RefreshMetrics())

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		if len(mf.GetMetric()) == 1 && mf.GetMetric()[0].GetGauge() != nil {
			values[mf.GetName()] = mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	require.Equal(t, float64(1), values["dexguard_amm_pools_total"])
	require.Equal(t, float64(1), values["dexguard_breaker_protected_contracts"])
	require.Equal(t, float64(1), values["dexguard_breaker_operational"])
}
