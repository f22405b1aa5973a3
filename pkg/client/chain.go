package client

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/blobbench/blobbench/internal/common/bencherrors"
)

const receiptPollInterval = 500 * time.Millisecond

// chainClient is the full chain-backed network: funding and credit are EIP-1559
// value transactions, bucket and blob operations go through the object gateway.
type chainClient struct {
	*gatewayClient
	network        Network
	eth            *ethclient.Client
	receiptTimeout time.Duration
}

func newChainClient(network Network, gateway *gatewayClient, receiptTimeout time.Duration) (*chainClient, error) {
	eth, err := ethclient.Dial(network.ChainUrl)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to connect to chain rpc %s", network.ChainUrl)
	}
	return &chainClient{
		gatewayClient:  gateway,
		network:        network,
		eth:            eth,
		receiptTimeout: receiptTimeout,
	}, nil
}

func (c *chainClient) ResolveKey(secret string) (Identity, error) {
	return resolveKey(secret)
}

// resolveKey derives the account identity from a hex-encoded ECDSA secret.
// A 0x prefix is tolerated. The secret itself is never echoed into errors.
func resolveKey(secret string) (Identity, error) {
	priv, err := crypto.HexToECDSA(strings.TrimPrefix(secret, "0x"))
	if err != nil {
		return Identity{}, errors.WithStack(&bencherrors.ErrInvalidArgument{
			Name:    "privateKey",
			Value:   "***",
			Message: err.Error(),
		})
	}
	return Identity{
		Address:    crypto.PubkeyToAddress(priv.PublicKey).Hex(),
		PrivateKey: priv,
	}, nil
}

func (c *chainClient) TransferFunds(ctx context.Context, from Identity, to string, tokens uint64) error {
	log.WithField("from", from.Address).WithField("to", to).Infof("transferring %d tokens", tokens)
	return c.sendValue(ctx, from, common.HexToAddress(to), tokensToAttos(tokens))
}

func (c *chainClient) BuyCredit(ctx context.Context, id Identity, tokens uint64) error {
	log.WithField("account", id.Address).Infof("buying credit for %d tokens", tokens)
	return c.sendValue(ctx, id, common.HexToAddress(c.network.CreditContract), tokensToAttos(tokens))
}

// tokensToAttos converts a whole-token amount to the chain's base unit (1e18).
func tokensToAttos(tokens uint64) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(tokens), big.NewInt(params.Ether))
}

// sendValue signs, submits and confirms a plain value transaction.
func (c *chainClient) sendValue(ctx context.Context, from Identity, to common.Address, value *big.Int) error {
	if from.PrivateKey == nil {
		return errors.WithStack(&bencherrors.ErrInvalidArgument{
			Name:    "from",
			Value:   from.Address,
			Message: "identity has no signing key",
		})
	}
	fromAddress := common.HexToAddress(from.Address)

	nonce, err := c.eth.PendingNonceAt(ctx, fromAddress)
	if err != nil {
		return errors.WithMessage(err, "failed to get pending nonce")
	}
	gasLimit, gasTipCap, gasFeeCap, err := c.gasParams(ctx, fromAddress, to, value)
	if err != nil {
		return err
	}

	chainID := big.NewInt(c.network.ChainID)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: gasTipCap,
		GasFeeCap: gasFeeCap,
		Gas:       gasLimit,
		To:        &to,
		Value:     value,
	})
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), from.PrivateKey)
	if err != nil {
		return errors.WithMessage(err, "failed to sign transaction")
	}
	if err := c.eth.SendTransaction(ctx, signedTx); err != nil {
		return errors.WithMessage(err, "failed to send transaction")
	}

	receipt, err := c.waitForReceipt(ctx, signedTx.Hash())
	if err != nil {
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return errors.Errorf("transaction %s reverted in block %s", signedTx.Hash().Hex(), receipt.BlockNumber)
	}
	log.WithField("tx", signedTx.Hash().Hex()).Debugf("transaction confirmed in block %s, gas used %d", receipt.BlockNumber, receipt.GasUsed)
	return nil
}

// gasParams estimates gas for a value transfer. The fee cap is 2*baseFee + tip
// so the transaction survives moderate base fee growth while pending.
func (c *chainClient) gasParams(ctx context.Context, from, to common.Address, value *big.Int) (gasLimit uint64, gasTipCap, gasFeeCap *big.Int, err error) {
	header, err := c.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, nil, nil, errors.WithMessage(err, "failed to get chain head")
	}
	gasTipCap, err = c.eth.SuggestGasTipCap(ctx)
	if err != nil {
		return 0, nil, nil, errors.WithMessage(err, "failed to get suggested gas tip")
	}
	gasFeeCap = new(big.Int).Add(
		new(big.Int).Mul(header.BaseFee, big.NewInt(2)),
		gasTipCap,
	)
	gasLimit, err = c.eth.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
	})
	if err != nil {
		return 0, nil, nil, errors.WithMessage(err, "failed to estimate gas")
	}
	return gasLimit, gasTipCap, gasFeeCap, nil
}

// waitForReceipt polls for the transaction receipt until it appears or the
// receipt timeout elapses. ethereum.NotFound means the transaction is still
// pending and is the only error worth retrying on.
func (c *chainClient) waitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.receiptTimeout)
	defer cancel()

	var receipt *types.Receipt
	err := retry.Do(
		func() error {
			r, err := c.eth.TransactionReceipt(ctx, hash)
			if err != nil {
				return err
			}
			receipt = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.receiptTimeout/receiptPollInterval)+1),
		retry.Delay(receiptPollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, ethereum.NotFound)
		}),
	)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed waiting for receipt of %s", hash.Hex())
	}
	return receipt, nil
}
