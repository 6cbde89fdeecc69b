package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func parseBps(name, raw string) (uint32, error) {
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return uint32(v), nil
}

func referralCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "referral", Short: "Referral links, banners and invites"}

	cmd.AddCommand(&cobra.Command{
		Use:   "link <owner> <invitee-bps> <owner-bps>",
		Short: "Register or update a referral link",
		Args:  cobra.ExactArgs(3),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			owner, err := parseAddressArg("owner", args[0])
			if err != nil {
				return err
			}
			inviteeBps, err := parseBps("invitee-bps", args[1])
			if err != nil {
				return err
			}
			ownerBps, err := parseBps("owner-bps", args[2])
			if err != nil {
				return err
			}
			return a.node.SetReferralLink(cmd.Context(), caller, owner, inviteeBps, ownerBps)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "banner <id> <invitee-bps>",
		Short: "Register or update a referral banner",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			inviteeBps, err := parseBps("invitee-bps", args[1])
			if err != nil {
				return err
			}
			return a.node.SetReferralBanner(cmd.Context(), caller, args[0], inviteeBps)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "invite-link <owner> <invitee>",
		Short: "Bind an invitee to a referral link",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			owner, err := parseAddressArg("owner", args[0])
			if err != nil {
				return err
			}
			invitee, err := parseAddressArg("invitee", args[1])
			if err != nil {
				return err
			}
			return a.node.AddReferralLinkInvite(cmd.Context(), caller, owner, invitee)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "invite-banner <id> <invitee>",
		Short: "Bind an invitee to a referral banner",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			invitee, err := parseAddressArg("invitee", args[1])
			if err != nil {
				return err
			}
			return a.node.AddReferralBannerInvite(cmd.Context(), caller, args[0], invitee)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <address>",
		Short: "Show the invite bindings and link of an address",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(_ *cobra.Command, a *app, args []string) error {
			addr, err := parseAddressArg("address", args[0])
			if err != nil {
				return err
			}
			invite, err := a.node.InviteOf(addr)
			if err != nil {
				return err
			}
			link, hasLink, err := a.node.ReferralLink(addr)
			if err != nil {
				return err
			}
			out := map[string]any{"invite": invite}
			if hasLink {
				out["link"] = link
			}
			return a.print(out)
		}),
	})
	return cmd
}
