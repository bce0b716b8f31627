package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert a small demo household into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Seed(ctx, userID, time.Now()); err != nil {
				return err
			}
			fmt.Printf("Seeded demo data for user %q\n", userID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "demo", "user id to seed")
	return cmd
}
