package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"tokensale/config"
	"tokensale/core"
	"tokensale/core/events"
	"tokensale/observability/logging"
	"tokensale/observability/metrics"
	telemetry "tokensale/observability/otel"
	"tokensale/storage"
	"tokensale/storage/journal"
)

const programName = "tokensaled"

var globalFlags = struct {
	config  string
	dataDir string
	from    string
}{}

// app bundles the node with the resources opened for a single command.
type app struct {
	cfg     *config.Config
	genesis *core.Genesis
	node    *core.Node
	journal *journal.Journal
	logger  *slog.Logger
	out     io.Writer
	closers []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("shutdown", slog.Any("error", err))
		}
	}
}

func (a *app) caller() (common.Address, error) {
	if strings.TrimSpace(globalFlags.from) == "" {
		return common.Address{}, fmt.Errorf("--from is required")
	}
	return config.ParseAddress(globalFlags.from)
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func loadConfig() (*config.Config, error) {
	if strings.TrimSpace(globalFlags.config) == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(globalFlags.config)
	if err != nil {
		return nil, err
	}
	if dir := strings.TrimSpace(globalFlags.dataDir); dir != "" {
		cfg.DataDir = dir
	}
	return cfg, nil
}

func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	genesis, err := core.GenesisFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	logger, logCloser := logging.Setup(cfg.Service, cfg.Environment, logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Output:     cmd.ErrOrStderr(),
	})
	a := &app{cfg: cfg, genesis: genesis, logger: logger, out: cmd.OutOrStdout()}
	if logCloser != nil {
		a.closers = append(a.closers, logCloser.Close)
	}

	shutdown, err := telemetry.Init(cmd.Context(), telemetry.Config{
		ServiceName: cfg.Service,
		Environment: cfg.Environment,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
		Sale:        saleResource(genesis),
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("init telemetry: %w", err)
	}
	a.closers = append(a.closers, func() error { return shutdown(context.Background()) })

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		a.close()
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		a.close()
		return nil, fmt.Errorf("open state: %w", err)
	}
	a.closers = append(a.closers, func() error { db.Close(); return nil })

	var emitters events.Multi
	if path := strings.TrimSpace(cfg.Journal.Path); path != "" {
		if path != journal.MemoryDSN && !filepath.IsAbs(path) {
			path = filepath.Join(cfg.DataDir, path)
		}
		j, err := journal.Open(path, logger)
		if err != nil {
			a.close()
			return nil, err
		}
		a.journal = j
		a.closers = append(a.closers, j.Close)
		emitters = append(emitters, j)
	}

	node, err := core.NewNode(db, genesis.Escrows,
		core.WithLogger(logger),
		core.WithMetrics(metrics.Sale()),
		core.WithTracer(telemetry.Tracer()),
		core.WithEmitter(emitters),
		core.WithTokenSymbol(genesis.TokenSymbol),
	)
	if err != nil {
		a.close()
		return nil, err
	}
	a.node = node
	return a, nil
}

func saleResource(g *core.Genesis) telemetry.SaleResource {
	res := telemetry.SaleResource{TokenSymbol: g.TokenSymbol, Stages: len(g.Stages)}
	for _, escrow := range g.Escrows {
		res.Escrows = append(res.Escrows, escrow.ID)
	}
	return res
}

// withApp opens the node for the duration of fn.
func withApp(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(cmd, a, args)
	}
}

func parseAddressArg(name, raw string) (common.Address, error) {
	addr, err := config.ParseAddress(raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("%s: %w", name, err)
	}
	return addr, nil
}

func parseAmountArg(name, raw string) (*big.Int, error) {
	amount, err := config.ParseAmount(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return amount, nil
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           programName,
		Short:         "Operate a staged token sale with referrals and vesting escrows",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&globalFlags.config, "config", "", "path to the sale configuration (TOML or YAML)")
	root.PersistentFlags().StringVar(&globalFlags.dataDir, "data", "", "override the configured data directory")
	root.PersistentFlags().StringVar(&globalFlags.from, "from", "", "address of the calling account")

	root.AddCommand(
		initCommand(),
		configCommand(),
		statusCommand(),
		quoteCommand(),
		purchaseCommand(),
		distributeCommand(),
		stageCommand(),
		rateCommand(),
		burnUnsoldCommand(),
		investorCommand(),
		referralCommand(),
		vestingCommand(),
		deliverCommand(),
		roleCommand(),
		pauseCommand(true),
		pauseCommand(false),
		journalCommand(),
	)
	return root
}

func main() {
	root := newRootCommand()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		if errors.Is(err, core.ErrGenesisApplied) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
