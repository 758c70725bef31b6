package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/m04kA/SMC-MaxGateway/pkg/delivery"
	"github.com/m04kA/SMC-MaxGateway/pkg/maxapi"
)

func newMeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show bot info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			defer client.Close()

			bot, err := client.GetMe(cmd.Context())
			if err != nil {
				return err
			}

			return opts.render(cmd.OutOrStdout(), bot, func(w io.Writer) { renderBot(w, bot) })
		},
	}
}

func newSendCommand(opts *options) *cobra.Command {
	var (
		format    string
		noPreview bool
		silent    bool
	)

	cmd := &cobra.Command{
		Use:   "send <user_id> <text>...",
		Short: "Send a text message to a user",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			defer client.Close()

			sent, err := client.SendMessageTo(cmd.Context(), args[0], strings.Join(args[1:], " "), &maxapi.SendMessageOptions{
				Format:              maxapi.Format(format),
				DisableLinkPreview:  noPreview,
				DisableNotification: silent,
			})
			if err != nil {
				return err
			}

			return opts.render(cmd.OutOrStdout(), sent, func(w io.Writer) { renderSent(w, sent) })
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Text markup: markdown or html")
	cmd.Flags().BoolVar(&noPreview, "no-preview", false, "Disable link previews")
	cmd.Flags().BoolVar(&silent, "silent", false, "Send without notification")

	return cmd
}

func newUpdatesCommand(opts *options) *cobra.Command {
	var (
		limit   int
		timeout time.Duration
		marker  int64
		types   []string
	)

	cmd := &cobra.Command{
		Use:   "updates",
		Short: "Fetch one batch of updates via long polling",
		Long:  "Fetch one batch of updates via long polling. Fails while a webhook subscription is active.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			defer client.Close()

			params := maxapi.GetUpdatesParams{Limit: limit, Timeout: timeout, Types: types}
			if cmd.Flags().Changed("marker") {
				params.Marker = &marker
			}

			result, err := client.GetUpdates(cmd.Context(), params)
			if err != nil {
				return err
			}

			return opts.render(cmd.OutOrStdout(), result, func(w io.Writer) { renderUpdates(w, result) })
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum updates in the batch")
	cmd.Flags().DurationVar(&timeout, "poll-timeout", 5*time.Second, "Server-side long polling timeout")
	cmd.Flags().Int64Var(&marker, "marker", 0, "Position to read from")
	cmd.Flags().StringSliceVar(&types, "types", nil, "Update types to receive")

	return cmd
}

func newWebhookCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage the webhook subscription",
	}

	var types []string
	set := &cobra.Command{
		Use:   "set <https-url>",
		Short: "Subscribe the bot to a webhook URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			defer client.Close()

			manager := delivery.NewManager(client, delivery.WithUpdateTypes(types))
			sub, err := manager.SwitchToWebhook(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return opts.render(cmd.OutOrStdout(), sub, func(w io.Writer) {
				renderSubscriptions(w, []maxapi.Subscription{*sub})
			})
		},
	}
	set.Flags().StringSliceVar(&types, "types", nil, "Update types to deliver")

	remove := &cobra.Command{
		Use:   "delete <url>",
		Short: "Delete the webhook subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			defer client.Close()

			result, err := client.DeleteSubscription(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return opts.render(cmd.OutOrStdout(), result, func(w io.Writer) {
				fmt.Fprintf(w, "Webhook %s deleted\n", args[0])
			})
		},
	}

	info := &cobra.Command{
		Use:   "info <url>",
		Short: "Show the subscription registered for a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			defer client.Close()

			subscriptions, err := client.GetSubscriptions(cmd.Context())
			if err != nil {
				return err
			}

			for _, sub := range subscriptions {
				if sub.URL == args[0] {
					return opts.render(cmd.OutOrStdout(), sub, func(w io.Writer) {
						renderSubscriptions(w, []maxapi.Subscription{sub})
					})
				}
			}
			return fmt.Errorf("no subscription for %s", args[0])
		},
	}

	cmd.AddCommand(set, remove, info)
	return cmd
}

func newSubscriptionsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "subscriptions",
		Short: "List webhook subscriptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			defer client.Close()

			subscriptions, err := client.GetSubscriptions(cmd.Context())
			if err != nil {
				return err
			}

			return opts.render(cmd.OutOrStdout(), subscriptions, func(w io.Writer) {
				renderSubscriptions(w, subscriptions)
			})
		},
	}
}
