package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func vestingCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "vesting", Short: "Vesting escrow administration"}

	cmd.AddCommand(&cobra.Command{
		Use:   "activate <escrow> <start>",
		Short: "Schedule the activation time of an escrow",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			start, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("start: %w", err)
			}
			return a.node.SetActivation(cmd.Context(), caller, args[0], start)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <escrow> <wallet> <allotment>",
		Short: "Add or replace a participant",
		Args:  cobra.ExactArgs(3),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			wallet, err := parseAddressArg("wallet", args[1])
			if err != nil {
				return err
			}
			amount, err := parseAmountArg("allotment", args[2])
			if err != nil {
				return err
			}
			return a.node.AddParticipant(cmd.Context(), caller, args[0], wallet, amount)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <escrow> <wallet>",
		Short: "Remove a participant",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			wallet, err := parseAddressArg("wallet", args[1])
			if err != nil {
				return err
			}
			return a.node.RemoveParticipant(cmd.Context(), caller, args[0], wallet)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list [escrow]",
		Short: "Show the roster and release figures of one or every escrow",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(_ *cobra.Command, a *app, args []string) error {
			ids := args
			if len(ids) == 0 {
				for _, cfg := range a.node.Escrows() {
					ids = append(ids, cfg.ID)
				}
			}
			views := make([]any, 0, len(ids))
			for _, id := range ids {
				view, err := a.node.Escrow(id)
				if err != nil {
					return err
				}
				views = append(views, view)
			}
			return a.print(views)
		}),
	})
	return cmd
}

func deliverCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deliver <escrow>",
		Short: "Transfer every released but undelivered amount of an escrow",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			deliveries, err := a.node.Deliver(cmd.Context(), caller, args[0])
			if err != nil {
				return err
			}
			return a.print(deliveries)
		}),
	}
}
