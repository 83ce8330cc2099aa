// Package output renders run progress and results for a terminal.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/rodaine/table"
	"github.com/shopspring/decimal"

	"github.com/dmagro/aave-positions/internal/chain"
	"github.com/dmagro/aave-positions/internal/portfolio"
)

const (
	rule       = "----------------------------------------"
	doubleRule = "============================================"
)

// Terminal writes a human-readable report to w. It implements
// portfolio.Renderer.
type Terminal struct {
	w io.Writer

	green  func(a ...interface{}) string
	yellow func(a ...interface{}) string
	red    func(a ...interface{}) string
	cyan   func(a ...interface{}) string
	bold   func(a ...interface{}) string
	header func(format string, a ...interface{}) string
}

var _ portfolio.Renderer = (*Terminal)(nil)

// NewTerminal returns a Terminal writing to w. With noColor set no ANSI
// escapes are emitted regardless of the terminal.
func NewTerminal(w io.Writer, noColor bool) *Terminal {
	paint := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if noColor {
			c.DisableColor()
		}
		return c
	}
	return &Terminal{
		w:      w,
		green:  paint(color.FgGreen).SprintFunc(),
		yellow: paint(color.FgYellow).SprintFunc(),
		red:    paint(color.FgRed).SprintFunc(),
		cyan:   paint(color.FgCyan).SprintFunc(),
		bold:   paint(color.Bold).SprintFunc(),
		header: paint(color.FgCyan, color.Underline).SprintfFunc(),
	}
}

// Start prints the run banner.
func (t *Terminal) Start(network string, addresses int) {
	fmt.Fprintf(t.w, "Starting to fetch Aave user positions data on %s (%d addresses)...\n\n", t.bold(network), addresses)
}

// ContractChecks prints the existence of every required contract.
func (t *Terminal) ContractChecks(statuses []chain.ContractStatus) {
	fmt.Fprintln(t.w, t.bold("Checking Aave contracts"))

	tbl := t.table("Contract", "Address", "Exists")
	for _, s := range statuses {
		exists := t.green("✓ yes")
		switch {
		case s.Err != nil:
			exists = t.red("✗ error: " + s.Err.Error())
		case !s.Exists:
			exists = t.red("✗ no")
		}
		tbl.AddRow(s.Name, s.Address.Hex(), exists)
	}
	tbl.Print()

	if missing := chain.Missing(statuses); len(missing) > 0 {
		fmt.Fprintf(t.w, "%s One or more Aave contracts do not exist on this network: %s. Please verify the contract addresses.\n",
			t.red("✗"), chain.Names(missing))
	}
	fmt.Fprintln(t.w)
}

// Address prints everything learned about one address.
func (t *Terminal) Address(r *portfolio.Result) {
	switch r.Outcome {
	case portfolio.OutcomeNoData:
		fmt.Fprintf(t.w, "\n%s\n\n", t.yellow("No active positions found for address "+r.Address))
		return
	case portfolio.OutcomeFailed:
		fmt.Fprintf(t.w, "\n%s %v\n\n", t.red("Error fetching data for address "+r.Address+":"), r.Err)
		return
	}

	fmt.Fprintf(t.w, "\nData for address %s:\n%s\n", t.cyan(r.Address), rule)
	if r.Outcome == portfolio.OutcomeNoPositions {
		fmt.Fprintln(t.w, "No active positions found")
		fmt.Fprintln(t.w, rule)
		return
	}

	t.holdings(r)
	if r.HasBorrows {
		t.borrowDetails(r.Metrics)
	}
	t.metrics(r)
}

func (t *Terminal) holdings(r *portfolio.Result) {
	fmt.Fprintf(t.w, "\n%s\n", t.bold("Asset Positions:"))

	tbl := t.table("Asset", "Supply Balance", "Variable Debt", "Stable Debt", "Collateral")
	for _, h := range r.Holdings {
		tbl.AddRow(
			h.Symbol,
			orDash(h.SupplyBalance),
			debtCell(h.VariableDebt, h.VariableDebtUSD),
			debtCell(h.StableDebt, h.StableDebtUSD),
			t.flag(h.UsedAsCollateral),
		)
	}
	tbl.Print()
}

func (t *Terminal) borrowDetails(m portfolio.Metrics) {
	fmt.Fprintf(t.w, "\n%s\n", t.bold("Borrow Details:"))
	fmt.Fprintf(t.w, "  Total Variable Debt Raw: %s\n", m.TotalVariableDebtRaw)
	fmt.Fprintf(t.w, "  Total Stable Debt Raw: %s\n", m.TotalStableDebtRaw)
	fmt.Fprintf(t.w, "  Total Debt in USD (calculated from token prices): %s\n", usd(m.CalculatedDebtUSD))
	fmt.Fprintf(t.w, "  Total Borrows in USD (reported): %s\n", usd(m.TotalBorrowsUSD))
	if m.BorrowsCorrected() {
		fmt.Fprintf(t.w, "  %s\n", t.yellow("Using calculated debt value instead of reported value: "+usd(m.CalculatedDebtUSD)))
	}
}

func (t *Terminal) metrics(r *portfolio.Result) {
	m := r.Metrics

	hf := m.HealthFactorDisplay()
	if m.HealthFactor.IsPositive() && m.TotalBorrowsUSD.IsPositive() {
		hf = t.healthColor(m.HealthFactor)(hf)
	}

	fmt.Fprintf(t.w, "\n%s\n%s\n", t.bold("Account Metrics:"), rule)
	fmt.Fprintf(t.w, "Total Liquidity (USD): %s\n", usd(m.TotalLiquidityUSD))
	fmt.Fprintf(t.w, "Total Collateral (USD): %s\n", usd(m.TotalCollateralUSD))
	fmt.Fprintf(t.w, "Total Borrows (USD): %s\n", usd(m.TotalBorrowsUSD))
	fmt.Fprintf(t.w, "Health Factor: %s\n", hf)
	fmt.Fprintf(t.w, "Available Borrows (USD): %s\n", usd(m.AvailableBorrowsUSD))
	fmt.Fprintf(t.w, "Current Liquidation Threshold: %s\n", percent(m.CurrentLiquidationThreshold))
	if r.EModeID != 0 {
		fmt.Fprintf(t.w, "E-Mode Category: %d\n", r.EModeID)
	}
	fmt.Fprintf(t.w, "%s\n\n", rule)
}

// Cumulative prints the totals across every processed address.
func (t *Terminal) Cumulative(addresses int, c *portfolio.Cumulative) {
	fmt.Fprintf(t.w, "\n%s\n%s\n%s\n", doubleRule, t.bold("CUMULATIVE METRICS ACROSS ALL USERS"), doubleRule)
	fmt.Fprintf(t.w, "Total Users Analyzed: %d\n", addresses)
	fmt.Fprintf(t.w, "Users with Active Positions: %d\n", c.AddressesWithPositions)
	fmt.Fprintf(t.w, "Users with Borrows: %d\n", c.AddressesWithBorrows)
	fmt.Fprintf(t.w, "Total Liquidity (USD): %s\n", usd(c.TotalLiquidityUSD))
	fmt.Fprintf(t.w, "Total Collateral (USD): %s\n", usd(c.TotalCollateralUSD))
	fmt.Fprintf(t.w, "Total Borrows (USD): %s\n", usd(c.TotalBorrowsUSD))
	fmt.Fprintf(t.w, "Unique Assets Used: %s\n", strings.Join(c.Assets(), ", "))
	fmt.Fprintf(t.w, "%s\n\n", doubleRule)
}

// Addresses prints the address list one per line.
func (t *Terminal) Addresses(addrs []string) {
	tbl := t.table("#", "Address")
	for i, a := range addrs {
		tbl.AddRow(i+1, a)
	}
	tbl.Print()
	fmt.Fprintf(t.w, "\n%d addresses\n", len(addrs))
}

// ReportPath announces a written report file.
func (t *Terminal) ReportPath(path string) {
	fmt.Fprintf(t.w, "Report saved to %s\n", t.cyan(path))
}

func (t *Terminal) table(columns ...interface{}) table.Table {
	return table.New(columns...).WithHeaderFormatter(t.header).WithWriter(t.w)
}

func (t *Terminal) flag(v bool) string {
	if v {
		return t.green("yes")
	}
	return "no"
}

func (t *Terminal) healthColor(hf decimal.Decimal) func(a ...interface{}) string {
	switch {
	case hf.LessThan(decimal.NewFromInt(1)):
		return t.red
	case hf.LessThan(decimal.NewFromFloat(1.5)):
		return t.yellow
	default:
		return t.green
	}
}

func usd(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// percent renders a ratio such as 0.825 as "82.50%".
func percent(ratio decimal.Decimal) string {
	return ratio.Shift(2).StringFixed(2) + "%"
}

func debtCell(amount string, value decimal.Decimal) string {
	if amount == "" {
		return "-"
	}
	return fmt.Sprintf("%s (~%s)", amount, usd(value))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
