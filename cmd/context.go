package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/oliveapp/olive/internal/contextmgr"
)

// contextHistoryLimit bounds the turns loaded for the context window.
const contextHistoryLimit = 50

func newContextCmd() *cobra.Command {
	var (
		userID     string
		message    string
		maxTokens  int
		showPrompt bool
	)

	cmd := &cobra.Command{
		Use:   "context",
		Short: "Build the prompt context for a user and report compaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			limits := a.cfg.Context
			if maxTokens > 0 {
				limits.MaxTokens = maxTokens
			}
			builder := contextmgr.NewBuilder(limits, a.cfg.SystemPrompt, a.logger)

			mem, err := a.store.MemoryContext(ctx, userID, time.Now())
			if err != nil {
				return err
			}
			hist, err := a.store.History(ctx, userID, contextHistoryLimit)
			if err != nil {
				return err
			}

			out := builder.CreateOptimized(contextmgr.Input{Memory: mem, History: hist, UserMessage: message})
			if wantJSON() {
				if !showPrompt {
					out.Prompt = ""
				}
				return printJSON(out)
			}

			st := out.Stats
			fmt.Printf("Tokens:     %d/%d (%.1f%%)\n", st.TotalTokens, st.MaxTokens, 100*st.Utilization)
			fmt.Printf("Flush:      %v\n", out.ShouldFlush)
			fmt.Printf("Compacted:  %v\n", out.WasCompacted)
			if out.WasCompacted {
				fmt.Printf("  removed:    %v\n", out.Compaction.RemovedSections)
				fmt.Printf("  compressed: %v\n", out.Compaction.CompressedSections)
				fmt.Printf("  saved:      %d tokens\n", out.Compaction.TokensSaved)
			}
			fmt.Println("Sections:")
			for _, s := range st.Sections {
				fmt.Printf("  %-22s p%-2d %6d tokens %5.1f%%\n", s.Name, s.Priority, s.Tokens, s.Percent)
			}
			if showPrompt {
				fmt.Printf("\n%s\n", out.Prompt)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "demo", "user id to load state for")
	cmd.Flags().StringVar(&message, "message", "", "current user message to append")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "override context.max_tokens")
	cmd.Flags().BoolVar(&showPrompt, "show-prompt", false, "print the assembled prompt")
	return cmd
}
