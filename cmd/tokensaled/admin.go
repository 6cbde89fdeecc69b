package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tokensale/native/access"
	"tokensale/native/common"
)

func roleCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "role", Short: "Grant, revoke and inspect roles"}
	change := func(grant bool) func(*cobra.Command, *app, []string) error {
		return func(cmd *cobra.Command, a *app, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			role, err := access.ParseRole(args[0])
			if err != nil {
				return err
			}
			account, err := parseAddressArg("account", args[1])
			if err != nil {
				return err
			}
			if grant {
				return a.node.GrantRole(cmd.Context(), caller, role, account)
			}
			return a.node.RevokeRole(cmd.Context(), caller, role, account)
		}
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "grant <role> <account>",
		Short: "Grant owner, operator or whitelisted",
		Args:  cobra.ExactArgs(2),
		RunE:  withApp(change(true)),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "revoke <role> <account>",
		Short: "Revoke a role",
		Args:  cobra.ExactArgs(2),
		RunE:  withApp(change(false)),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "check <role> <account>",
		Short: "Report whether account holds role",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(_ *cobra.Command, a *app, args []string) error {
			role, err := access.ParseRole(args[0])
			if err != nil {
				return err
			}
			account, err := parseAddressArg("account", args[1])
			if err != nil {
				return err
			}
			held, err := a.node.HasRole(role, account)
			if err != nil {
				return err
			}
			return a.print(map[string]any{"role": role, "account": account, "held": held})
		}),
	})
	return cmd
}

func pauseCommand(paused bool) *cobra.Command {
	use, short := "pause <module>", "Pause sale, vesting or referral"
	if !paused {
		use, short = "resume <module>", "Resume a paused module"
	}
	return &cobra.Command{
		Use:       use,
		Short:     short,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{common.ModuleSale, common.ModuleVesting, common.ModuleReferral},
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			if err := a.node.SetPaused(cmd.Context(), caller, args[0], paused); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s paused=%t\n", args[0], paused)
			return nil
		}),
	}
}

func journalCommand() *cobra.Command {
	var (
		eventType string
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List audit events stored in the SQL journal",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
			if a.journal == nil {
				return fmt.Errorf("journal disabled: set [journal] Path in the configuration")
			}
			records, err := a.journal.List(cmd.Context(), eventType, limit)
			if err != nil {
				return err
			}
			type entry struct {
				Seq        uint64            `json:"seq"`
				Type       string            `json:"type"`
				Attributes map[string]string `json:"attributes"`
				At         string            `json:"at"`
			}
			out := make([]entry, 0, len(records))
			for _, record := range records {
				evt, err := record.Event()
				if err != nil {
					return err
				}
				out = append(out, entry{Seq: record.Seq, Type: evt.Type, Attributes: evt.Attributes, At: record.CreatedAt.Format("2006-01-02T15:04:05Z")})
			}
			return a.print(out)
		}),
	}
	cmd.Flags().StringVar(&eventType, "type", "", "only list events of this type")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of events (0 lists all)")
	return cmd
}
