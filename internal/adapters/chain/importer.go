package chain

// importer.go — importación de rondas históricas desde el contrato de
// predicción en BSC.
//
// El core del backtest nunca toca la chain: este adapter alimenta la tabla
// `rounds` vía ports.RoundWriter y ahí termina su trabajo. Lee el struct
// Round del contrato PancakeSwap Prediction V2 (lockPrice/closePrice con 8
// decimales del oráculo de Chainlink) y lo reduce al par de precios que el
// replay necesita.

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/time/rate"

	"github.com/alejandrodnm/predictsim/internal/domain"
	"github.com/alejandrodnm/predictsim/internal/ports"
)

const (
	// PancakeSwap Prediction V2 (BNB/USD) en BSC mainnet
	defaultContract = "0x18B2A687610328590Bc8F2e5fEdDe3b582A49cdA"

	// Chainlink publica precios con 8 decimales
	oracleDecimals = 1e8

	// Tamaño de batch hacia el RoundWriter
	insertBatchSize = 200
)

var predictionABI abi.ABI

func init() {
	var err error
	predictionABI, err = abi.JSON(strings.NewReader(`[
		{
			"name": "currentEpoch",
			"type": "function",
			"stateMutability": "view",
			"inputs": [],
			"outputs": [{"name": "", "type": "uint256"}]
		},
		{
			"name": "rounds",
			"type": "function",
			"stateMutability": "view",
			"inputs": [{"name": "", "type": "uint256"}],
			"outputs": [
				{"name": "epoch", "type": "uint256"},
				{"name": "startTimestamp", "type": "uint256"},
				{"name": "lockTimestamp", "type": "uint256"},
				{"name": "closeTimestamp", "type": "uint256"},
				{"name": "lockPrice", "type": "int256"},
				{"name": "closePrice", "type": "int256"},
				{"name": "lockOracleId", "type": "uint256"},
				{"name": "closeOracleId", "type": "uint256"},
				{"name": "totalAmount", "type": "uint256"},
				{"name": "bullAmount", "type": "uint256"},
				{"name": "bearAmount", "type": "uint256"},
				{"name": "rewardBaseCalAmount", "type": "uint256"},
				{"name": "rewardAmount", "type": "uint256"},
				{"name": "oracleCalled", "type": "bool"}
			]
		}
	]`))
	if err != nil {
		panic("prediction abi parse: " + err.Error())
	}
}

// Importer trae rondas resueltas del contrato y las persiste en batches.
type Importer struct {
	client   *ethclient.Client
	contract common.Address
	limiter  *rate.Limiter
	writer   ports.RoundWriter
}

// NewImporter conecta al RPC dado. Un contract vacío usa el de PancakeSwap
// Prediction V2. ratePerSec acota las llamadas al RPC (los nodos públicos
// de BSC banean rápido).
func NewImporter(ctx context.Context, rpcURL, contract string, ratePerSec float64, writer ports.RoundWriter) (*Importer, error) {
	if contract == "" {
		contract = defaultContract
	}
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain.NewImporter: dial %q: %w", rpcURL, err)
	}
	return &Importer{
		client:   client,
		contract: common.HexToAddress(contract),
		limiter:  rate.NewLimiter(rate.Limit(ratePerSec), 5),
		writer:   writer,
	}, nil
}

// Close libera la conexión RPC.
func (im *Importer) Close() {
	im.client.Close()
}

// CurrentEpoch devuelve el epoch en curso del contrato.
func (im *Importer) CurrentEpoch(ctx context.Context) (int64, error) {
	out, err := im.call(ctx, "currentEpoch")
	if err != nil {
		return 0, fmt.Errorf("chain.CurrentEpoch: %w", err)
	}
	return out[0].(*big.Int).Int64(), nil
}

// Import trae las rondas [fromEpoch, toEpoch] y las persiste. Las rondas
// sin oráculo confirmado (canceladas o aún abiertas) se saltan: no son
// replayables.
func (im *Importer) Import(ctx context.Context, fromEpoch, toEpoch int64) (int, error) {
	if fromEpoch > toEpoch {
		return 0, fmt.Errorf("chain.Import: invalid range %d..%d", fromEpoch, toEpoch)
	}

	start := time.Now()
	imported := 0
	batch := make([]domain.Round, 0, insertBatchSize)

	for epoch := fromEpoch; epoch <= toEpoch; epoch++ {
		if err := im.limiter.Wait(ctx); err != nil {
			return imported, fmt.Errorf("chain.Import: rate wait: %w", err)
		}

		round, ok, err := im.fetchRound(ctx, epoch)
		if err != nil {
			return imported, fmt.Errorf("chain.Import: epoch %d: %w", epoch, err)
		}
		if !ok {
			slog.Debug("skipping unresolved round", "epoch", epoch)
			continue
		}

		batch = append(batch, round)
		if len(batch) >= insertBatchSize {
			if err := im.writer.InsertRounds(ctx, batch); err != nil {
				return imported, fmt.Errorf("chain.Import: persist batch: %w", err)
			}
			imported += len(batch)
			batch = batch[:0]
			slog.Info("import progress", "epoch", epoch, "imported", imported)
		}
	}

	if err := im.writer.InsertRounds(ctx, batch); err != nil {
		return imported, fmt.Errorf("chain.Import: persist final batch: %w", err)
	}
	imported += len(batch)

	slog.Info("import complete",
		"from", fromEpoch,
		"to", toEpoch,
		"imported", imported,
		"duration", time.Since(start).Round(time.Second),
	)
	return imported, nil
}

// fetchRound lee una ronda del contrato. ok=false si la ronda no es
// replayable (oráculo sin confirmar o precio de lock nulo).
func (im *Importer) fetchRound(ctx context.Context, epoch int64) (domain.Round, bool, error) {
	out, err := im.call(ctx, "rounds", big.NewInt(epoch))
	if err != nil {
		return domain.Round{}, false, err
	}

	lockPrice := out[4].(*big.Int)
	closePrice := out[5].(*big.Int)
	oracleCalled := out[13].(bool)

	if !oracleCalled || lockPrice.Sign() == 0 {
		return domain.Round{}, false, nil
	}

	return domain.Round{
		RoundID:       epoch,
		StartingPrice: bigToPrice(lockPrice),
		EndingPrice:   bigToPrice(closePrice),
	}, true, nil
}

func (im *Importer) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := predictionABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	raw, err := im.client.CallContract(ctx, ethereum.CallMsg{
		To:   &im.contract,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	out, err := predictionABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return out, nil
}

func bigToPrice(v *big.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(v), big.NewFloat(oracleDecimals)).Float64()
	return f
}
