// Package chain is the JSON-RPC connector every chain read goes through.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client binds an ethclient to one network endpoint.
type Client struct {
	eth *ethclient.Client
}

// Dial connects to url. A zero timeout leaves the HTTP client's default in
// place, so a stalled call blocks until the context ends.
func Dial(ctx context.Context, name, url string, timeout time.Duration) (*Client, error) {
	httpClient := &http.Client{Timeout: timeout}

	rc, err := rpc.DialOptions(ctx, url, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", name, err)
	}
	return &Client{eth: ethclient.NewClient(rc)}, nil
}

// ContractExists reports whether addr has deployed bytecode at the latest block.
func (c *Client) ContractExists(ctx context.Context, addr common.Address) (bool, error) {
	code, err := c.eth.CodeAt(ctx, addr, nil)
	if err != nil {
		return false, fmt.Errorf("eth_getCode %s: %w", addr.Hex(), err)
	}
	return len(code) > 0, nil
}

// CallContract executes an eth_call. A nil blockNumber means latest.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.eth.CallContract(ctx, msg, blockNumber)
}

// ChainID returns the chain id reported by the endpoint.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.eth.ChainID(ctx)
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}
