package portfolio

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/dmagro/aave-positions/internal/aave"
	"github.com/dmagro/aave-positions/internal/chain"
	"github.com/dmagro/aave-positions/internal/logging"
	"github.com/dmagro/aave-positions/internal/mathutils"
)

var (
	usdc    = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	weth    = common.HexToAddress("0x4200000000000000000000000000000000000006")
	unknown = common.HexToAddress("0x1111111111111111111111111111111111111111")

	alice = "0xe8Bf6904a1799cDf793aFDD223F3Eed0C4B98CE3"
	bob   = "0x8252C3Ad7008464A618B6b28690DFB30D17A4910"
	carol = "0x4Ae8912F26AEc381b5ed4a45Fca2152Aaa3561DF"
)

func pow10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}

func units(v, decimals int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(v), pow10(decimals))
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func market() *aave.ReservesData {
	reserve := func(asset common.Address, decimals uint64, price int64, index int) aave.Reserve {
		return aave.Reserve{
			UnderlyingAsset:                asset,
			Decimals:                       decimals,
			BaseLTVAsCollateral:            big.NewInt(8000),
			ReserveLiquidationThreshold:    big.NewInt(8500),
			ReserveLiquidationBonus:        big.NewInt(10500),
			ReserveFactor:                  big.NewInt(1000),
			UsageAsCollateralEnabled:       true,
			IsActive:                       true,
			LiquidityIndex:                 pow10(27),
			VariableBorrowIndex:            pow10(27),
			LiquidityRate:                  big.NewInt(0),
			VariableBorrowRate:             big.NewInt(0),
			LastUpdateTimestamp:            1_700_000_000,
			PriceInMarketReferenceCurrency: units(price, 8),
			Index:                          index,
		}
	}
	return &aave.ReservesData{
		Reserves: []aave.Reserve{
			reserve(usdc, 6, 1, 0),
			reserve(weth, 18, 2000, 1),
			reserve(unknown, 8, 10, 2),
		},
		BaseCurrency: aave.BaseCurrency{
			MarketReferenceCurrencyUnit:       pow10(8),
			MarketReferenceCurrencyPriceInUSD: pow10(8),
		},
	}
}

type fakeProvider struct {
	mu       sync.Mutex
	reserves *aave.ReservesData
	users    map[common.Address]*aave.UserReservesData
	errs     map[common.Address]error
	calls    int
}

func (f *fakeProvider) Reserves(context.Context) (*aave.ReservesData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.reserves, nil
}

func (f *fakeProvider) UserReserves(_ context.Context, user common.Address) (*aave.UserReservesData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.errs[user]; err != nil {
		return nil, err
	}
	if d, ok := f.users[user]; ok {
		return d, nil
	}
	return &aave.UserReservesData{User: user}, nil
}

func supply(asset common.Address, raw *big.Int, collateral bool) aave.UserReserve {
	return aave.UserReserve{UnderlyingAsset: asset, ScaledATokenBalance: raw, UsageAsCollateralEnabledOnUser: collateral}
}

func borrow(asset common.Address, raw *big.Int) aave.UserReserve {
	return aave.UserReserve{UnderlyingAsset: asset, ScaledVariableDebt: raw}
}

func newTestProcessor(p DataProvider, f Formatter) *Processor {
	proc := NewProcessor(p, f, nil, logging.Discard())
	proc.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return proc
}

func TestProcessSupplyOnly(t *testing.T) {
	provider := &fakeProvider{
		reserves: market(),
		users: map[common.Address]*aave.UserReservesData{
			common.HexToAddress(alice): {UserReserves: []aave.UserReserve{supply(usdc, units(100, 6), true)}},
		},
	}

	res, err := newTestProcessor(provider, nil).Process(context.Background(), alice)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Outcome != OutcomeActive {
		t.Fatalf("Outcome = %v, want active", res.Outcome)
	}
	if len(res.Holdings) != 1 {
		t.Fatalf("got %d holdings, want 1", len(res.Holdings))
	}

	h := res.Holdings[0]
	if h.Symbol != "USDC" || h.SupplyBalance != "100.0" {
		t.Errorf("holding = %s %q, want USDC \"100.0\"", h.Symbol, h.SupplyBalance)
	}
	if !h.SupplyBalanceUSD.Equal(dec("100")) {
		t.Errorf("SupplyBalanceUSD = %s, want 100", h.SupplyBalanceUSD)
	}
	if h.HasDebt() || res.HasBorrows {
		t.Error("supply-only holding reports debt")
	}
	if !h.UsedAsCollateral {
		t.Error("UsedAsCollateral = false")
	}
	if got := res.Metrics.HealthFactorDisplay(); got != "N/A (no borrows)" {
		t.Errorf("HealthFactorDisplay = %q", got)
	}
}

func TestProcessHoldingValuation(t *testing.T) {
	// 1.5 WETH supplied at 2000 USD, 250 USDC borrowed.
	raw := new(big.Int).Mul(big.NewInt(15), pow10(17))
	provider := &fakeProvider{
		reserves: market(),
		users: map[common.Address]*aave.UserReservesData{
			common.HexToAddress(bob): {UserReserves: []aave.UserReserve{
				supply(weth, raw, true),
				borrow(usdc, units(250, 6)),
				{UnderlyingAsset: unknown, ScaledATokenBalance: big.NewInt(0)},
			}},
		},
	}

	res, err := newTestProcessor(provider, nil).Process(context.Background(), bob)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(res.Holdings) != 2 {
		t.Fatalf("got %d holdings, want 2 (empty reserve filtered)", len(res.Holdings))
	}
	if got := res.Holdings[0].SupplyBalanceUSD; !got.Equal(dec("3000")) {
		t.Errorf("WETH value = %s, want 3000", got)
	}
	if got := res.Holdings[1].VariableDebtUSD; !got.Equal(dec("250")) {
		t.Errorf("USDC debt value = %s, want 250", got)
	}
	if !res.HasBorrows {
		t.Error("HasBorrows = false")
	}
	if !res.Metrics.CalculatedDebtUSD.Equal(dec("250")) {
		t.Errorf("CalculatedDebtUSD = %s, want 250", res.Metrics.CalculatedDebtUSD)
	}
	if res.Metrics.BorrowsCorrected() {
		t.Error("correction applied although summary reports borrows")
	}
	// 3000 * 0.85 / 250
	if got := res.Metrics.HealthFactorDisplay(); got != "10.2000" {
		t.Errorf("HealthFactorDisplay = %q, want 10.2000", got)
	}
	if res.Metrics.TotalVariableDebtRaw.Cmp(units(250, 6)) != 0 {
		t.Errorf("TotalVariableDebtRaw = %s", res.Metrics.TotalVariableDebtRaw)
	}
}

func TestProcessSymbolFallback(t *testing.T) {
	provider := &fakeProvider{
		reserves: market(),
		users: map[common.Address]*aave.UserReservesData{
			common.HexToAddress(alice): {UserReserves: []aave.UserReserve{supply(unknown, units(3, 8), false)}},
		},
	}
	res, err := newTestProcessor(provider, nil).Process(context.Background(), alice)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if got, want := res.Holdings[0].Symbol, strings.ToLower(unknown.Hex()); got != want {
		t.Errorf("Symbol = %q, want raw address %q", got, want)
	}
}

func TestProcessNoActivePositions(t *testing.T) {
	provider := &fakeProvider{
		reserves: market(),
		users: map[common.Address]*aave.UserReservesData{
			common.HexToAddress(alice): {UserReserves: []aave.UserReserve{
				{UnderlyingAsset: usdc, ScaledATokenBalance: big.NewInt(0), ScaledVariableDebt: big.NewInt(0)},
			}},
		},
	}
	res, err := newTestProcessor(provider, nil).Process(context.Background(), alice)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Outcome != OutcomeNoPositions || len(res.Holdings) != 0 {
		t.Errorf("Outcome = %v with %d holdings, want no_positions", res.Outcome, len(res.Holdings))
	}
}

func TestProcessInvalidAddress(t *testing.T) {
	provider := &fakeProvider{reserves: market()}
	_, err := newTestProcessor(provider, nil).Process(context.Background(), "0xA")
	if !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("error = %v, want ErrInvalidAddress", err)
	}
	if Classify(err) != OutcomeFailed {
		t.Errorf("Classify = %v, want failed", Classify(err))
	}
	if provider.calls != 0 {
		t.Errorf("provider called %d times for an invalid address", provider.calls)
	}
}

// zeroBorrowFormatter reports no borrows regardless of user debt.
type zeroBorrowFormatter struct{ mathutils.Formatter }

func (f zeroBorrowFormatter) FormatUserSummary(data *aave.ReservesData, formatted []mathutils.FormattedReserve, user *aave.UserReservesData, now int64) (mathutils.UserSummary, error) {
	s, err := f.Formatter.FormatUserSummary(data, formatted, user, now)
	s.TotalBorrowsUSD = decimal.Zero
	s.HealthFactor = mathutils.NoHealthFactor
	return s, err
}

func TestBorrowCorrection(t *testing.T) {
	provider := &fakeProvider{
		reserves: market(),
		users: map[common.Address]*aave.UserReservesData{
			common.HexToAddress(alice): {UserReserves: []aave.UserReserve{
				supply(weth, units(1, 18), true),
				borrow(usdc, units(400, 6)),
			}},
		},
	}

	res, err := newTestProcessor(provider, zeroBorrowFormatter{}).Process(context.Background(), alice)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !res.Metrics.BorrowsCorrected() {
		t.Fatal("BorrowsCorrected = false")
	}
	if got := res.Metrics.EffectiveBorrowsUSD(); !got.Equal(dec("400")) {
		t.Errorf("EffectiveBorrowsUSD = %s, want 400", got)
	}

	var c Cumulative
	c.Add(res)
	if !c.TotalBorrowsUSD.Equal(dec("400")) {
		t.Errorf("cumulative borrows = %s, want calculated 400", c.TotalBorrowsUSD)
	}
	if got := res.Metrics.HealthFactorDisplay(); got != "N/A (no borrows)" {
		t.Errorf("HealthFactorDisplay = %q", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Outcome
	}{
		{nil, OutcomeActive},
		{fmt.Errorf("fetch user reserves: %w", aave.ErrNoData), OutcomeNoData},
		{fmt.Errorf("format user summary: %w", mathutils.ErrReserveNotFound), OutcomeNoData},
		{errors.New("execution reverted"), OutcomeFailed},
		{context.DeadlineExceeded, OutcomeFailed},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestCumulative(t *testing.T) {
	results := []*Result{
		{
			Outcome:    OutcomeActive,
			Holdings:   []Holding{{Symbol: "WETH"}, {Symbol: "USDC", VariableDebt: "10.0"}},
			Metrics:    Metrics{TotalLiquidityUSD: dec("100"), TotalCollateralUSD: dec("80"), TotalBorrowsUSD: dec("10")},
			HasBorrows: true,
		},
		{Outcome: OutcomeNoPositions, Metrics: Metrics{TotalLiquidityUSD: dec("999")}},
		{Outcome: OutcomeFailed, Err: errors.New("boom")},
		{
			Outcome:  OutcomeActive,
			Holdings: []Holding{{Symbol: "cbBTC"}, {Symbol: "WETH"}},
			Metrics:  Metrics{TotalLiquidityUSD: dec("50.5"), TotalCollateralUSD: dec("50.5")},
		},
	}

	var c Cumulative
	for _, r := range results {
		c.Add(r)
	}

	if c.AddressesWithPositions != 2 || c.AddressesWithBorrows != 1 {
		t.Errorf("counts = %d/%d, want 2/1", c.AddressesWithPositions, c.AddressesWithBorrows)
	}
	if !c.TotalLiquidityUSD.Equal(dec("150.5")) {
		t.Errorf("TotalLiquidityUSD = %s, want 150.5", c.TotalLiquidityUSD)
	}
	if !c.TotalCollateralUSD.Equal(dec("130.5")) {
		t.Errorf("TotalCollateralUSD = %s, want 130.5", c.TotalCollateralUSD)
	}
	if !c.TotalBorrowsUSD.Equal(dec("10")) {
		t.Errorf("TotalBorrowsUSD = %s, want 10", c.TotalBorrowsUSD)
	}
	if got := strings.Join(c.Assets(), ","); got != "USDC,WETH,cbBTC" {
		t.Errorf("Assets = %s", got)
	}

	var empty Cumulative
	if len(empty.Assets()) != 0 || !empty.TotalLiquidityUSD.IsZero() {
		t.Error("zero Cumulative is not empty")
	}
}

func TestPacer(t *testing.T) {
	ctx := context.Background()

	p := NewPacer(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := p.Wait(ctx); err != nil {
			t.Fatalf("Wait() = %v", err)
		}
	}
	if time.Since(start) > time.Second {
		t.Error("zero-interval pacer blocked")
	}

	p = NewPacer(time.Hour)
	if err := p.Wait(ctx); err != nil {
		t.Fatalf("first Wait() = %v", err)
	}
	cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := p.Wait(cctx); err == nil {
		t.Error("second Wait() within interval returned nil, want error")
	}
}

func TestPacerWaitsAfterSlowFetch(t *testing.T) {
	ctx := context.Background()
	interval := 100 * time.Millisecond
	p := NewPacer(interval)

	if err := p.Wait(ctx); err != nil {
		t.Fatalf("first Wait() = %v", err)
	}
	// A fetch slower than the interval still gets the full delay afterwards.
	time.Sleep(2 * interval)

	start := time.Now()
	if err := p.Wait(ctx); err != nil {
		t.Fatalf("Wait() = %v", err)
	}
	if waited := time.Since(start); waited < interval-10*time.Millisecond {
		t.Errorf("Wait() after a slow fetch returned after %s, want about %s", waited, interval)
	}
}

type fakeChecker struct {
	missing map[common.Address]bool
}

func (f fakeChecker) ContractExists(_ context.Context, addr common.Address) (bool, error) {
	return !f.missing[addr], nil
}

type recorder struct {
	checks     []chain.ContractStatus
	addresses  []*Result
	cumulative *Cumulative
	total      int
}

func (r *recorder) ContractChecks(s []chain.ContractStatus) { r.checks = s }
func (r *recorder) Address(res *Result)                     { r.addresses = append(r.addresses, res) }
func (r *recorder) Cumulative(n int, c *Cumulative)         { r.total, r.cumulative = n, c }

var testContracts = []chain.NamedContract{
	{Name: "Pool Data Provider", Address: common.HexToAddress("0x68100bD5345eA474D93577127C11F39FF8463e93")},
	{Name: "Pool Addresses Provider", Address: common.HexToAddress("0xe20fCBdBfFC4Dd138cE8b2E6FBb6CB49777ad64D")},
	{Name: "Pool", Address: common.HexToAddress("0xA238Dd80C259a72e81d7e4664a9801593F98d1c5")},
}

func newTestRunner(provider *fakeProvider, checker chain.CodeChecker, rec *recorder) *Runner {
	return &Runner{
		Checker:   checker,
		Contracts: testContracts,
		Processor: newTestProcessor(provider, nil),
		Pacer:     NewPacer(0),
		Renderer:  rec,
		Logger:    logging.Discard(),
	}
}

func TestRunAbortsWhenContractMissing(t *testing.T) {
	provider := &fakeProvider{reserves: market()}
	checker := fakeChecker{missing: map[common.Address]bool{testContracts[2].Address: true}}
	rec := &recorder{}

	summary, err := newTestRunner(provider, checker, rec).Run(context.Background(), []string{alice, bob})
	if !errors.Is(err, ErrContractsMissing) {
		t.Fatalf("Run() error = %v, want ErrContractsMissing", err)
	}
	if !strings.Contains(err.Error(), "Pool") {
		t.Errorf("error %q does not name the missing contract", err)
	}
	if provider.calls != 0 {
		t.Errorf("provider called %d times, want 0", provider.calls)
	}
	if len(summary.Results) != 0 || rec.cumulative != nil {
		t.Error("per-address work happened after failed contract check")
	}
	if len(rec.checks) != 3 {
		t.Errorf("rendered %d contract checks, want 3", len(rec.checks))
	}
}

func TestRun(t *testing.T) {
	provider := &fakeProvider{
		reserves: market(),
		users: map[common.Address]*aave.UserReservesData{
			common.HexToAddress(alice): {UserReserves: []aave.UserReserve{supply(usdc, units(100, 6), true)}},
			common.HexToAddress(carol): {UserReserves: []aave.UserReserve{
				supply(weth, units(2, 18), true),
				borrow(usdc, units(1000, 6)),
			}},
		},
		errs: map[common.Address]error{
			common.HexToAddress(bob): fmt.Errorf("call getUserReservesData: %w", aave.ErrNoData),
		},
	}
	rec := &recorder{}

	summary, err := newTestRunner(provider, fakeChecker{}, rec).Run(context.Background(), []string{alice, bob, "not-an-address", carol})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantOutcomes := []Outcome{OutcomeActive, OutcomeNoData, OutcomeFailed, OutcomeActive}
	if len(rec.addresses) != len(wantOutcomes) {
		t.Fatalf("rendered %d addresses, want %d", len(rec.addresses), len(wantOutcomes))
	}
	for i, want := range wantOutcomes {
		if got := rec.addresses[i].Outcome; got != want {
			t.Errorf("address %d outcome = %v, want %v", i, got, want)
		}
	}

	c := summary.Cumulative
	if rec.total != 4 || summary.Addresses != 4 {
		t.Errorf("addresses considered = %d, want 4", rec.total)
	}
	if c.AddressesWithPositions != 2 || c.AddressesWithBorrows != 1 {
		t.Errorf("counts = %d/%d, want 2/1", c.AddressesWithPositions, c.AddressesWithBorrows)
	}
	// 100 USDC + 2 WETH at 2000.
	if !c.TotalLiquidityUSD.Equal(dec("4100")) {
		t.Errorf("TotalLiquidityUSD = %s, want 4100", c.TotalLiquidityUSD)
	}
	if !c.TotalBorrowsUSD.Equal(dec("1000")) {
		t.Errorf("TotalBorrowsUSD = %s, want 1000", c.TotalBorrowsUSD)
	}
	if got := strings.Join(c.Assets(), ","); got != "USDC,WETH" {
		t.Errorf("Assets = %s, want USDC,WETH", got)
	}
}

func TestRunSingleSupplyScenario(t *testing.T) {
	provider := &fakeProvider{
		reserves: market(),
		users: map[common.Address]*aave.UserReservesData{
			common.HexToAddress(alice): {UserReserves: []aave.UserReserve{supply(usdc, units(100, 6), true)}},
		},
	}
	rec := &recorder{}

	summary, err := newTestRunner(provider, fakeChecker{}, rec).Run(context.Background(), []string{alice})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	h := summary.Results[0].Holdings[0]
	if h.SupplyBalance != "100.0" || h.HasDebt() {
		t.Errorf("holding = %+v", h)
	}
	c := summary.Cumulative
	if c.AddressesWithPositions != 1 || c.AddressesWithBorrows != 0 || !c.TotalBorrowsUSD.IsZero() {
		t.Errorf("cumulative = %+v", c)
	}
}

func TestRunEmptyAddressList(t *testing.T) {
	provider := &fakeProvider{reserves: market()}
	rec := &recorder{}

	summary, err := newTestRunner(provider, fakeChecker{}, rec).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rec.addresses) != 0 || provider.calls != 0 {
		t.Errorf("per-address work for empty list: %d rendered, %d calls", len(rec.addresses), provider.calls)
	}
	if rec.cumulative == nil {
		t.Fatal("cumulative report not rendered")
	}
	c := summary.Cumulative
	if c.AddressesWithPositions != 0 || !c.TotalLiquidityUSD.IsZero() || len(c.Assets()) != 0 {
		t.Errorf("cumulative not empty: %+v", c)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	provider := &fakeProvider{reserves: market()}
	runner := newTestRunner(provider, fakeChecker{}, &recorder{})
	runner.Pacer = NewPacer(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	summary, err := runner.Run(ctx, []string{alice, bob, carol})
	if err == nil {
		t.Fatal("Run() = nil error after cancellation")
	}
	if len(summary.Results) != 1 {
		t.Errorf("processed %d addresses before cancellation, want 1", len(summary.Results))
	}
}

func TestSymbols(t *testing.T) {
	s := NewSymbols(map[string]string{"0x1111111111111111111111111111111111111111": "TEST"})
	if got := s.Lookup(usdc); got != "USDC" {
		t.Errorf("Lookup(usdc) = %q", got)
	}
	if got := s.Lookup(unknown); got != "TEST" {
		t.Errorf("override Lookup = %q", got)
	}
	mixed := common.HexToAddress("0xAbCdEf0123456789aBcDeF0123456789AbCdEf01")
	if got := DefaultSymbols().Lookup(mixed); got != "0xabcdef0123456789abcdef0123456789abcdef01" {
		t.Errorf("fallback Lookup = %q, want lower-case address", got)
	}
}
