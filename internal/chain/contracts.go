package chain

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// CodeChecker reports whether an address holds contract code.
type CodeChecker interface {
	ContractExists(ctx context.Context, addr common.Address) (bool, error)
}

// NamedContract is a contract the run depends on.
type NamedContract struct {
	Name    string
	Address common.Address
}

// ContractStatus is the outcome of one existence check. A failed RPC call
// leaves Exists false and records Err.
type ContractStatus struct {
	NamedContract
	Exists bool
	Err    error
}

// CheckContracts checks contracts one at a time, in order. A failed check is
// recorded on its status; the returned error is non-nil only when ctx ends
// before every contract was checked.
func CheckContracts(ctx context.Context, checker CodeChecker, contracts []NamedContract) ([]ContractStatus, error) {
	results := make([]ContractStatus, len(contracts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(1)
	for i, c := range contracts {
		i, c := i, c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = ContractStatus{NamedContract: c, Err: err}
				return err
			}
			exists, err := checker.ContractExists(gctx, c.Address)
			results[i] = ContractStatus{NamedContract: c, Exists: exists && err == nil, Err: err}
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Missing returns the statuses whose contract was not found.
func Missing(statuses []ContractStatus) []ContractStatus {
	var out []ContractStatus
	for _, s := range statuses {
		if !s.Exists {
			out = append(out, s)
		}
	}
	return out
}

// Names joins the contract names of statuses.
func Names(statuses []ContractStatus) string {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = s.Name
	}
	return strings.Join(names, ", ")
}
