package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tokensale/config"
	"tokensale/core"
)

func initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Apply the configured genesis to an empty data directory",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			if err := a.node.ApplyGenesis(cmd.Context(), a.genesis); err != nil {
				return err
			}
			a.logger.Info("genesis applied", "dataDir", a.cfg.DataDir)
			return a.print(map[string]any{"initialized": true, "dataDir": a.cfg.DataDir})
		}),
	}
}

func configCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	cmd.AddCommand(&cobra.Command{
		Use:   "example <path>",
		Short: "Write an example configuration (TOML, or YAML for .yaml paths)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(args[0], config.Example()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if _, err := core.GenesisFromConfig(cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	})
	return cmd
}

func statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show stages, counters and inventory",
		Args:  cobra.NoArgs,
		RunE: withApp(func(_ *cobra.Command, a *app, _ []string) error {
			status, err := a.node.Status()
			if err != nil {
				return err
			}
			return a.print(status)
		}),
	}
}

func quoteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "quote <usd>",
		Short: "Size an investment against the active stage without buying",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(_ *cobra.Command, a *app, args []string) error {
			usd, err := parseAmountArg("usd", args[0])
			if err != nil {
				return err
			}
			allocation, err := a.node.Quote(usd)
			if err != nil {
				return err
			}
			return a.print(allocation)
		}),
	}
}

func purchaseCommand() *cobra.Command {
	var (
		beneficiary string
		channel     string
	)
	cmd := &cobra.Command{
		Use:   "purchase <value>",
		Short: "Buy tokens for the beneficiary (defaults to --from)",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			target := caller
			if beneficiary != "" {
				if target, err = parseAddressArg("beneficiary", beneficiary); err != nil {
					return err
				}
			}
			value, err := parseAmountArg("value", args[0])
			if err != nil {
				return err
			}
			receipt, err := a.node.Purchase(cmd.Context(), caller, target, value, channel)
			if err != nil {
				return err
			}
			return a.print(receipt)
		}),
	}
	cmd.Flags().StringVar(&beneficiary, "beneficiary", "", "address credited with the tokens")
	cmd.Flags().StringVar(&channel, "channel", "", "free-form payment channel tag")
	return cmd
}

func distributeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "distribute <beneficiary> <amount>",
		Short: "Credit tokens from the sale inventory without payment",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			beneficiary, err := parseAddressArg("beneficiary", args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmountArg("amount", args[1])
			if err != nil {
				return err
			}
			return a.node.DistributeManual(cmd.Context(), caller, beneficiary, amount)
		}),
	}
}

func stageCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "stage", Short: "Sale stage administration"}
	cmd.AddCommand(&cobra.Command{
		Use:   "configure <start> <length>",
		Short: "Reschedule the final stage; returns the new sale end",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			start, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("start: %w", err)
			}
			length, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("length: %w", err)
			}
			end, err := a.node.ConfigureStage(cmd.Context(), caller, start, length)
			if err != nil {
				return err
			}
			return a.print(map[string]uint64{"start": start, "end": end})
		}),
	})
	return cmd
}

func rateCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "rate", Short: "Value to USD conversion rate"}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <rate>",
		Short: "Set the USD value of one unit of payment (18 decimals)",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			rate, err := parseAmountArg("rate", args[0])
			if err != nil {
				return err
			}
			return a.node.SetRate(cmd.Context(), caller, rate)
		}),
	})
	return cmd
}

func burnUnsoldCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "burn-unsold",
		Short: "Burn the remaining sale inventory after the sale closed",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			burned, err := a.node.BurnUnsold(cmd.Context(), caller)
			if err != nil {
				return err
			}
			return a.print(map[string]any{"burned": burned})
		}),
	}
}

func investorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "investor [address]",
		Short: "Show one investor record, or list every investor",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(_ *cobra.Command, a *app, args []string) error {
			if len(args) == 0 {
				investors, err := a.node.Investors()
				if err != nil {
					return err
				}
				return a.print(investors)
			}
			addr, err := parseAddressArg("address", args[0])
			if err != nil {
				return err
			}
			investor, _, err := a.node.Investor(addr)
			if err != nil {
				return err
			}
			balance, err := a.node.BalanceOf(addr)
			if err != nil {
				return err
			}
			return a.print(map[string]any{"investor": investor, "balance": balance})
		}),
	}
}
