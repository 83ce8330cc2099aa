package portfolio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmagro/aave-positions/internal/chain"
	"github.com/dmagro/aave-positions/internal/logging"
	"github.com/dmagro/aave-positions/internal/stats"
)

// ErrContractsMissing aborts a run when a required contract has no code.
var ErrContractsMissing = errors.New("required contracts not deployed")

// AddressProcessor summarizes one address.
type AddressProcessor interface {
	Process(ctx context.Context, address string) (*Result, error)
}

// Renderer presents run progress. Calls arrive in run order from a single
// goroutine.
type Renderer interface {
	ContractChecks(statuses []chain.ContractStatus)
	Address(r *Result)
	Cumulative(addresses int, c *Cumulative)
}

// Summary is the outcome of a complete run.
type Summary struct {
	Addresses  int
	Contracts  []chain.ContractStatus
	Results    []*Result
	Cumulative Cumulative
}

// FetchLatency summarizes how long each processed address took.
func (s *Summary) FetchLatency() stats.Latency {
	samples := make([]time.Duration, 0, len(s.Results))
	for _, r := range s.Results {
		samples = append(samples, r.Elapsed)
	}
	return stats.Summarize(samples)
}

// Runner drives the sequential pipeline: contract checks, then every
// address in order, then the cumulative report.
type Runner struct {
	Checker   chain.CodeChecker
	Contracts []chain.NamedContract
	Processor AddressProcessor
	Pacer     *Pacer
	Renderer  Renderer
	Logger    *slog.Logger
}

// CheckContracts verifies every required contract has code. It returns the
// statuses and, when any is missing, an error wrapping ErrContractsMissing.
func (r *Runner) CheckContracts(ctx context.Context) ([]chain.ContractStatus, error) {
	logger := logging.OrDefault(r.Logger)

	statuses, err := chain.CheckContracts(ctx, r.Checker, r.Contracts)
	if err != nil {
		return statuses, err
	}
	if r.Renderer != nil {
		r.Renderer.ContractChecks(statuses)
	}

	missing := chain.Missing(statuses)
	for _, s := range missing {
		if s.Err != nil {
			logger.Error("contract check failed", "contract", s.Name, "address", s.Address.Hex(), "error", s.Err)
		} else {
			logger.Error("contract not deployed", "contract", s.Name, "address", s.Address.Hex())
		}
	}
	if len(missing) > 0 {
		return statuses, fmt.Errorf("%w: %s", ErrContractsMissing, chain.Names(missing))
	}
	return statuses, nil
}

// Run checks the contracts and processes addresses sequentially. Per-address
// failures are logged and recorded; only missing contracts or cancellation
// stop the run.
func (r *Runner) Run(ctx context.Context, addresses []string) (*Summary, error) {
	logger := logging.OrDefault(r.Logger)
	summary := &Summary{Addresses: len(addresses)}

	statuses, err := r.CheckContracts(ctx)
	summary.Contracts = statuses
	if err != nil {
		return summary, err
	}

	for i, addr := range addresses {
		if err := r.Pacer.Wait(ctx); err != nil {
			return summary, err
		}

		start := time.Now()
		res, err := r.Processor.Process(ctx, addr)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			res = &Result{Address: addr, Outcome: Classify(err), Err: err}
			if res.Outcome == OutcomeNoData {
				logger.Info("no position data for address", "address", addr, "error", err)
			} else {
				logger.Error("error fetching data for address", "address", addr, "error", err)
			}
		}
		res.Elapsed = time.Since(start)
		logger.Debug("processed address", "address", addr, "index", i, "outcome", res.Outcome.String(), "elapsed", res.Elapsed)

		summary.Results = append(summary.Results, res)
		summary.Cumulative.Add(res)
		if r.Renderer != nil {
			r.Renderer.Address(res)
		}
	}

	if r.Renderer != nil {
		r.Renderer.Cumulative(summary.Addresses, &summary.Cumulative)
	}
	return summary, nil
}
