package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goodnatureofminers/transferscan/internal/evm/decoder"
	"github.com/goodnatureofminers/transferscan/internal/evm/model"
	"github.com/goodnatureofminers/transferscan/internal/evm/node"
	"github.com/goodnatureofminers/transferscan/internal/evm/token"
	"github.com/goodnatureofminers/transferscan/internal/metrics"
	"github.com/goodnatureofminers/transferscan/internal/output"
	"github.com/goodnatureofminers/transferscan/internal/repository/clickhouse"
	"github.com/goodnatureofminers/transferscan/internal/service/scanner"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type config struct {
	RPCURL          string        `long:"rpc-url" env:"TRANSFERSCAN_RPC_URL" description:"EVM node JSON-RPC endpoint (http, ws or ipc)" required:"true"`
	RPCTimeout      time.Duration `long:"rpc-timeout" env:"TRANSFERSCAN_RPC_TIMEOUT" description:"timeout of a single RPC request" default:"30s"`
	RPCRetries      int           `long:"rpc-retries" env:"TRANSFERSCAN_RPC_RETRIES" description:"extra attempts for a failed RPC request" default:"2"`
	RPCRetryBackoff time.Duration `long:"rpc-retry-backoff" env:"TRANSFERSCAN_RPC_RETRY_BACKOFF" description:"delay before the first retry, doubled per attempt" default:"500ms"`
	Network         string        `long:"network" env:"TRANSFERSCAN_NETWORK" description:"network name used in metrics and stored rows" default:"mainnet"`
	Workers         int           `long:"workers" env:"TRANSFERSCAN_WORKERS" description:"number of blocks fetched concurrently" default:"4"`
	Decimals        int32         `long:"decimals" env:"TRANSFERSCAN_DECIMALS" description:"token decimals, also the fallback when resolution fails" default:"18"`
	ResolveDecimals bool          `long:"resolve-decimals" env:"TRANSFERSCAN_RESOLVE_DECIMALS" description:"call decimals() on every token contract"`
	AmountWord      string        `long:"amount-word" env:"TRANSFERSCAN_AMOUNT_WORD" description:"where the amount is read from" choice:"fixed" choice:"last" default:"fixed"`
	HoursAgoStart   int           `long:"hours-ago-start" env:"TRANSFERSCAN_HOURS_AGO_START" description:"window start in hours before now"`
	HoursAgoEnd     int           `long:"hours-ago-end" env:"TRANSFERSCAN_HOURS_AGO_END" description:"window end in hours before now"`
	Start           string        `long:"start" env:"TRANSFERSCAN_START" description:"window start, \"2006-01-02 15:04:05\" UTC or RFC3339"`
	End             string        `long:"end" env:"TRANSFERSCAN_END" description:"window end, \"2006-01-02 15:04:05\" UTC or RFC3339"`
	OutputDir       string        `long:"output-dir" env:"TRANSFERSCAN_OUTPUT_DIR" description:"directory for the result file" default:"recent_transactions"`
	ClickhouseDSN   string        `long:"clickhouse-dsn" env:"TRANSFERSCAN_CLICKHOUSE_DSN" description:"store matches in ClickHouse when set"`
	MetricsAddr     string        `long:"metrics-addr" env:"TRANSFERSCAN_METRICS_ADDR" description:"address for metrics server, empty disables it"`
	ProgressStep    int           `long:"progress-step" env:"TRANSFERSCAN_PROGRESS_STEP" description:"progress log step in percent" default:"10"`
}

func main() {
	_ = godotenv.Load()

	cfg := config{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	if _, err := flags.Parse(&cfg); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	window, err := windowFromConfig(cfg, terminalPrompter{})
	if err != nil {
		logger.Fatal("invalid scan window", zap.Error(err))
	}

	path, err := run(ctx, cfg, window, logger)
	if path != "" {
		logger.Info("results written", zap.String("path", path))
	}
	if err != nil {
		logger.Fatal("transfer scan failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config, window model.TimeWindow, logger *zap.Logger) (string, error) {
	amountWord, err := decoder.ParseAmountWord(cfg.AmountWord)
	if err != nil {
		return "", err
	}
	if cfg.Decimals < 0 || cfg.Decimals > 255 {
		return "", fmt.Errorf("decimals %d out of range", cfg.Decimals)
	}

	if cfg.MetricsAddr != "" {
		startMetricsServer(ctx, cfg.MetricsAddr, logger)
	}

	client, err := node.Dial(ctx, cfg.RPCURL, node.Config{
		RequestTimeout: cfg.RPCTimeout,
		Retries:        cfg.RPCRetries,
		RetryBackoff:   cfg.RPCRetryBackoff,
	}, metrics.NewRPCClient(cfg.Network), logger.Named("node"))
	if err != nil {
		return "", err
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("node is not reachable: %w", err)
	}
	logger.Info("connected to node", zap.String("chain_id", chainID.String()))

	var decimals scanner.DecimalsResolver = token.Fixed(cfg.Decimals)
	if cfg.ResolveDecimals {
		decimals = token.NewResolver(client, cfg.Decimals, logger.Named("decimals"))
	}

	// an interface holding a nil *Repository would not compare equal to nil
	var repo scanner.ClickhouseRepository
	if cfg.ClickhouseDSN != "" {
		r, err := clickhouse.NewRepository(cfg.ClickhouseDSN, metrics.NewClickhouseRepository())
		if err != nil {
			return "", fmt.Errorf("init repository: %w", err)
		}
		defer func() {
			if err := r.Close(); err != nil {
				logger.Warn("failed to close clickhouse", zap.Error(err))
			}
		}()
		if err := r.Ping(ctx); err != nil {
			return "", err
		}
		repo = r
	}

	svc, err := scanner.NewService(client, decimals, repo, metrics.NewScanner(cfg.Network), scanner.Config{
		Network:      cfg.Network,
		Workers:      cfg.Workers,
		AmountWord:   amountWord,
		ProgressStep: cfg.ProgressStep,
	}, logger.Named("scanner"))
	if err != nil {
		return "", err
	}

	res, err := svc.Scan(ctx, window)
	if err != nil && !errors.Is(err, scanner.ErrStoreTransfers) {
		return "", err
	}
	// matches that could not be stored are still written to disk
	storeErr := err

	doc := output.NewDocument(output.Scan{
		Window:       res.Window,
		From:         res.From,
		To:           res.To,
		Range:        res.Range,
		Decimals:     cfg.Decimals,
		Matches:      res.Matches,
		FailedBlocks: res.FailedBlocks,
	}, time.Now())
	path, err := output.Write(cfg.OutputDir, output.FileName(window), doc)
	if err != nil {
		return "", errors.Join(err, storeErr)
	}

	fmt.Printf("found %d transfers in blocks %d..%d\n", doc.Count, doc.StartBlock, doc.EndBlock)
	if len(doc.FailedBlocks) > 0 {
		fmt.Printf("%d blocks could not be scanned: %v\n", len(doc.FailedBlocks), doc.FailedBlocks)
	}
	fmt.Printf("saved to %s\n", path)
	return path, storeErr
}

func startMetricsServer(ctx context.Context, addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting metrics server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}()
}
