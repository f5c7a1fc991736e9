// Package chain is the single choke point for all voting contract calls.
// It owns gas estimation, the retry budget for transient node errors and the
// serialization of transactions sent from the admin account.
package chain

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/riorajhon/block-vote/internal/config"
)

const (
	maxAttempts      = 3
	backoffUnit      = time.Second
	gasMarginPercent = 20
	receiptPollEvery = 500 * time.Millisecond
)

// minSenderBalanceWei is the operational floor for the admin account,
// 0.1 ETH. Calls are rejected up front below it instead of burning retries
// on a sender that cannot pay.
var minSenderBalanceWei = new(big.Int).Mul(big.NewInt(100), big.NewInt(1e15))

// Election status enum as reported by the contract.
const (
	ChainStatusCreated uint8 = 0
	ChainStatusActive  uint8 = 1
	ChainStatusEnded   uint8 = 2
)

// ElectionStatus is the contract's view of one election.
type ElectionStatus struct {
	Status      uint8
	CreatedTime int64
	StartedTime int64
	EndedTime   int64
}

// Gateway is the contract surface consumed by the election coordinator and
// the vote admission path.
type Gateway interface {
	CreateElection(ctx context.Context, candidateIds []int64) (int64, error)
	StartElection(ctx context.Context, chainElectionId int64) error
	EndElection(ctx context.Context, chainElectionId int64) error
	ApproveVoter(ctx context.Context, nationalId string) error
	RegisterVoter(ctx context.Context, nationalId string, walletAddress string) error
	AddCandidate(ctx context.Context, name string, age int, nationalId string, qualification string) error
	StartRegistrationPhase(ctx context.Context) error
	IsRegistrationPhaseActive(ctx context.Context) (bool, error)
	GetElectionStatus(ctx context.Context, chainElectionId int64) (*ElectionStatus, error)
}

// rpcClient is the slice of ethclient.Client the gateway uses. Tests swap in
// a fake node behind it.
type rpcClient interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type EthGateway struct {
	client   rpcClient
	contract common.Address
	admin    common.Address
	adminKey *ecdsa.PrivateKey
	chainId  *big.Int
	abi      abi.ABI
	logger   zerolog.Logger

	// senderMu serializes estimate-sign-send-wait per process so concurrent
	// admin operations cannot race the account nonce.
	senderMu sync.Mutex
}

// NewEthGateway dials the configured node and verifies it is reachable.
func NewEthGateway(ctx context.Context, cfg config.ChainConfig, logger zerolog.Logger) (*EthGateway, error) {
	if cfg.RpcUrl == "" {
		return nil, &NetworkError{Err: errors.New("chain rpc url not configured")}
	}

	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, &NetworkError{Err: errors.Errorf("invalid contract address %q", cfg.ContractAddress)}
	}

	client, err := ethclient.DialContext(ctx, cfg.RpcUrl)
	if err != nil {
		return nil, &NetworkError{Err: errors.Wrap(err, "failed to connect to chain node")}
	}

	chainId, err := client.ChainID(ctx)
	if err != nil {
		return nil, &NetworkError{Err: errors.Wrap(err, "failed to read chain id")}
	}

	adminKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.AdminPrivateKey, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid admin private key")
	}

	admin := crypto.PubkeyToAddress(adminKey.PublicKey)
	if cfg.AdminAddress != "" && common.HexToAddress(cfg.AdminAddress) != admin {
		return nil, errors.New("admin address does not match admin private key")
	}

	return newEthGateway(client, common.HexToAddress(cfg.ContractAddress), admin, adminKey, chainId, logger)
}

func newEthGateway(client rpcClient, contract common.Address, admin common.Address, adminKey *ecdsa.PrivateKey, chainId *big.Int, logger zerolog.Logger) (*EthGateway, error) {
	parsedAbi, err := abi.JSON(strings.NewReader(votingSystemABI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse contract abi")
	}

	return &EthGateway{
		client:   client,
		contract: contract,
		admin:    admin,
		adminKey: adminKey,
		chainId:  chainId,
		abi:      parsedAbi,
		logger:   logger.With().Str("component", "chain_gateway").Logger(),
	}, nil
}

func (g *EthGateway) CreateElection(ctx context.Context, candidateIds []int64) (int64, error) {
	ids := make([]*big.Int, len(candidateIds))
	for i, id := range candidateIds {
		ids[i] = big.NewInt(id)
	}

	if _, err := g.transact(ctx, "createElection", ids); err != nil {
		return 0, err
	}

	// The contract assigns ids sequentially; the freshly created election is
	// the current one.
	out, err := g.view(ctx, "currentElectionId")
	if err != nil {
		return 0, err
	}

	chainElectionId, ok := out[0].(*big.Int)
	if !ok {
		return 0, &NetworkError{Err: errors.New("unexpected currentElectionId result")}
	}

	return chainElectionId.Int64(), nil
}

func (g *EthGateway) StartElection(ctx context.Context, chainElectionId int64) error {
	_, err := g.transact(ctx, "startElection", big.NewInt(chainElectionId))
	return err
}

func (g *EthGateway) EndElection(ctx context.Context, chainElectionId int64) error {
	_, err := g.transact(ctx, "endElection", big.NewInt(chainElectionId))
	return err
}

func (g *EthGateway) ApproveVoter(ctx context.Context, nationalId string) error {
	_, err := g.transact(ctx, "approveVoter", nationalId)
	return err
}

func (g *EthGateway) RegisterVoter(ctx context.Context, nationalId string, walletAddress string) error {
	if !common.IsHexAddress(walletAddress) {
		return &TransactionError{
			Kind:   KindRejected,
			Method: "registerVoter",
			Err:    errors.Errorf("invalid wallet address %q", walletAddress),
		}
	}

	_, err := g.transact(ctx, "registerVoter", nationalId, common.HexToAddress(walletAddress))
	return err
}

func (g *EthGateway) AddCandidate(ctx context.Context, name string, age int, nationalId string, qualification string) error {
	_, err := g.transact(ctx, "addCandidate", name, big.NewInt(int64(age)), nationalId, qualification)
	return err
}

func (g *EthGateway) StartRegistrationPhase(ctx context.Context) error {
	_, err := g.transact(ctx, "startRegistrationPhase")
	return err
}

func (g *EthGateway) IsRegistrationPhaseActive(ctx context.Context) (bool, error) {
	out, err := g.view(ctx, "isRegistrationPhaseActive")
	if err != nil {
		return false, err
	}

	active, ok := out[0].(bool)
	if !ok {
		return false, &NetworkError{Err: errors.New("unexpected isRegistrationPhaseActive result")}
	}

	return active, nil
}

func (g *EthGateway) GetElectionStatus(ctx context.Context, chainElectionId int64) (*ElectionStatus, error) {
	out, err := g.view(ctx, "getElectionStatus", big.NewInt(chainElectionId))
	if err != nil {
		return nil, err
	}

	if len(out) != 4 {
		return nil, &NetworkError{Err: errors.New("unexpected getElectionStatus result")}
	}

	status, ok := out[0].(uint8)
	if !ok {
		return nil, &NetworkError{Err: errors.New("unexpected getElectionStatus status type")}
	}

	times := make([]int64, 3)
	for i, raw := range out[1:] {
		value, ok := raw.(*big.Int)
		if !ok {
			return nil, &NetworkError{Err: errors.New("unexpected getElectionStatus time type")}
		}
		times[i] = value.Int64()
	}

	return &ElectionStatus{
		Status:      status,
		CreatedTime: times[0],
		StartedTime: times[1],
		EndedTime:   times[2],
	}, nil
}

// transact packs, preflights and submits a state-changing call, retrying
// transient failures with linear backoff. Terminal failures are returned as
// *TransactionError without retry.
func (g *EthGateway) transact(ctx context.Context, method string, args ...any) (*types.Receipt, error) {
	g.senderMu.Lock()
	defer g.senderMu.Unlock()

	input, err := g.abi.Pack(method, args...)
	if err != nil {
		return nil, &TransactionError{Kind: KindUnknownMethod, Method: method, Err: err}
	}

	if err := g.preflight(ctx, method); err != nil {
		return nil, err
	}

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		receipt, err := g.submit(ctx, input)
		if err == nil {
			g.logger.Info().
				Str("method", method).
				Str("tx", receipt.TxHash.Hex()).
				Uint64("gas_used", receipt.GasUsed).
				Msg("transaction mined")
			return receipt, nil
		}

		if ctx.Err() != nil {
			return nil, &NetworkError{Err: ctx.Err()}
		}

		kind := classify(err)
		if kind != KindTransient {
			return nil, &TransactionError{Kind: kind, Method: method, Err: err}
		}

		lastErr = err
		g.logger.Warn().
			Err(err).
			Str("method", method).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Msg("transaction attempt failed")

		if attempt < maxAttempts {
			select {
			case <-time.After(time.Duration(attempt) * backoffUnit):
			case <-ctx.Done():
				return nil, &NetworkError{Err: ctx.Err()}
			}
		}
	}

	return nil, &TransactionError{
		Kind:   KindTransient,
		Method: method,
		Err:    errors.Wrapf(lastErr, "failed after %d attempts", maxAttempts),
	}
}

// preflight rejects a call whose sender sits below the operational balance
// floor, so a permanently underfunded account does not eat the retry budget.
func (g *EthGateway) preflight(ctx context.Context, method string) error {
	balance, err := g.client.BalanceAt(ctx, g.admin, nil)
	if err != nil {
		// A failed balance read is not proof of underfunding.
		g.logger.Warn().Err(err).Msg("balance preflight check failed")
		return nil
	}

	if balance.Cmp(minSenderBalanceWei) < 0 {
		return &TransactionError{
			Kind:   KindUnderfunded,
			Method: method,
			Err:    errors.Errorf("sender %s balance %s wei below operational floor", g.admin.Hex(), balance),
		}
	}

	return nil
}

func (g *EthGateway) submit(ctx context.Context, input []byte) (*types.Receipt, error) {
	nonce, err := g.client.PendingNonceAt(ctx, g.admin)
	if err != nil {
		return nil, err
	}

	gasPrice, err := g.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, err
	}

	gasLimit, err := g.client.EstimateGas(ctx, ethereum.CallMsg{
		From: g.admin,
		To:   &g.contract,
		Data: input,
	})
	if err != nil {
		return nil, err
	}

	gasLimit += gasLimit * gasMarginPercent / 100

	tx := types.NewTransaction(nonce, g.contract, big.NewInt(0), gasLimit, gasPrice, input)

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(g.chainId), g.adminKey)
	if err != nil {
		return nil, err
	}

	if err := g.client.SendTransaction(ctx, signed); err != nil {
		return nil, err
	}

	return g.waitMined(ctx, signed.Hash())
}

func (g *EthGateway) waitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollEvery)
	defer ticker.Stop()

	for {
		receipt, err := g.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return nil, errors.Errorf("transaction %s reverted", txHash.Hex())
			}
			return receipt, nil
		}

		if !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// view performs a contract read. Reads are best-effort telemetry and are
// never retried.
func (g *EthGateway) view(ctx context.Context, method string, args ...any) ([]any, error) {
	input, err := g.abi.Pack(method, args...)
	if err != nil {
		return nil, &TransactionError{Kind: KindUnknownMethod, Method: method, Err: err}
	}

	output, err := g.client.CallContract(ctx, ethereum.CallMsg{
		From: g.admin,
		To:   &g.contract,
		Data: input,
	}, nil)
	if err != nil {
		return nil, &NetworkError{Err: errors.Wrapf(err, "contract read %s failed", method)}
	}

	out, err := g.abi.Unpack(method, output)
	if err != nil {
		return nil, &NetworkError{Err: errors.Wrapf(err, "failed to decode %s result", method)}
	}

	if len(out) == 0 {
		return nil, &NetworkError{Err: errors.Errorf("empty %s result", method)}
	}

	return out, nil
}
