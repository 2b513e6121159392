package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"

	"github.com/code-oracles/envelope-server/pkg/retry"
	"github.com/code-oracles/envelope-server/pkg/retry/backoff"
)

// Commitment is the level of finality a query should be evaluated at.
type Commitment struct {
	Commitment string `json:"commitment"`
}

var (
	CommitmentProcessed = Commitment{Commitment: "processed"}
	CommitmentConfirmed = Commitment{Commitment: "confirmed"}
	CommitmentFinalized = Commitment{Commitment: "finalized"}
)

var (
	// ErrNoAccountInfo indicates there is no account at the queried address.
	ErrNoAccountInfo = errors.New("account not found")

	errRateLimited  = errors.New("rate limited")
	errServiceError = errors.New("service error")
)

// AccountInfo is the state of an account as reported by a node.
type AccountInfo struct {
	Data       []byte
	Owner      ed25519.PublicKey
	Lamports   uint64
	Executable bool
}

// Client is the minimal node query surface the SDK depends on.
type Client interface {
	GetAccountInfo(account ed25519.PublicKey, commitment Commitment) (AccountInfo, error)
	GetMinimumBalanceForRentExemption(size uint64) (uint64, error)
	GetSlot(commitment Commitment) (uint64, error)
}

type client struct {
	log       *logrus.Entry
	rpcClient jsonrpc.RPCClient
}

// New returns a Client using the specified RPC endpoint.
func New(endpoint string) Client {
	return &client{
		log:       logrus.StandardLogger().WithField("type", "solana/client"),
		rpcClient: jsonrpc.NewClient(endpoint),
	}
}

func (c *client) call(out interface{}, method string, params ...interface{}) error {
	_, err := retry.Retry(
		func() error {
			err := c.rpcClient.CallFor(out, method, params...)
			if err == nil {
				return nil
			}
			return c.classifyRPCError(method, err)
		},
		retry.RetriableErrors(errRateLimited, errServiceError),
		retry.Limit(3),
		retry.BackoffWithJitter(backoff.BinaryExponential(time.Second), 10*time.Second, 0.1),
	)
	return err
}

func (c *client) classifyRPCError(method string, err error) error {
	rpcErr, ok := err.(*jsonrpc.RPCError)
	if !ok {
		return err
	}

	c.log.WithField("method", method).WithError(err).Warn("rpc call failed")

	switch rpcErr.Code {
	case 429:
		return errRateLimited
	case -32005: // node unhealthy
		return errServiceError
	default:
		return err
	}
}

func (c *client) GetAccountInfo(account ed25519.PublicKey, commitment Commitment) (accountInfo AccountInfo, err error) {
	type rpcResponse struct {
		Value *struct {
			Lamports   uint64   `json:"lamports"`
			Owner      string   `json:"owner"`
			Data       []string `json:"data"`
			Executable bool     `json:"executable"`
		} `json:"value"`
	}

	rpcConfig := struct {
		Commitment Commitment `json:"commitment"`
		Encoding   string     `json:"encoding"`
	}{
		Commitment: commitment,
		Encoding:   "base64",
	}

	var resp rpcResponse
	if err := c.call(&resp, "getAccountInfo", base58.Encode(account), rpcConfig); err != nil {
		return accountInfo, errors.Wrap(err, "getAccountInfo() failed to send request")
	}

	if resp.Value == nil {
		return accountInfo, ErrNoAccountInfo
	}

	accountInfo.Owner, err = base58.Decode(resp.Value.Owner)
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base58 encoded owner")
	}

	if len(resp.Value.Data) == 0 {
		return accountInfo, errors.New("missing account data in response")
	}

	accountInfo.Data, err = base64.StdEncoding.DecodeString(resp.Value.Data[0])
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base64 encoded data")
	}

	accountInfo.Lamports = resp.Value.Lamports
	accountInfo.Executable = resp.Value.Executable

	return accountInfo, nil
}

func (c *client) GetMinimumBalanceForRentExemption(size uint64) (lamports uint64, err error) {
	if err := c.call(&lamports, "getMinimumBalanceForRentExemption", size); err != nil {
		return 0, errors.Wrap(err, "getMinimumBalanceForRentExemption() failed to send request")
	}
	return lamports, nil
}

func (c *client) GetSlot(commitment Commitment) (slot uint64, err error) {
	if err := c.call(&slot, "getSlot", commitment); err != nil {
		return 0, errors.Wrap(err, "getSlot() failed to send request")
	}
	return slot, nil
}
