package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oliveapp/olive/internal/router"
)

func newRouteCmd() *cobra.Command {
	var chatType string

	cmd := &cobra.Command{
		Use:   "route <intent>",
		Short: "Show the tier and model an intent routes to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := initConfig()
			if err != nil {
				return err
			}
			d := router.RouteIntent(args[0], chatType)
			model := cfg.Routing.Tiers.Model(d.Tier)
			newLogger(cfg).Debug("intent routed", "intent", args[0], "chat_type", chatType, "tier", d.Tier, "reason", d.Reason)

			if wantJSON() {
				return printJSON(map[string]any{
					"intent":        args[0],
					"chat_type":     chatType,
					"response_tier": d.Tier,
					"reason":        d.Reason,
					"model":         model,
				})
			}
			fmt.Printf("Tier:   %s\nReason: %s\nModel:  %s\n", d.Tier, d.Reason, model)
			return nil
		},
	}

	cmd.Flags().StringVar(&chatType, "chat-type", "", "chat sub-type for the chat intent")
	return cmd
}
