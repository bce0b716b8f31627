package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/oliveapp/olive/internal/conversation"
	"github.com/oliveapp/olive/internal/pipeline"
)

func newClassifyCmd() *cobra.Command {
	var (
		userID     string
		noLLM      bool
		record     bool
		showPrompt bool
		extra      string
	)

	cmd := &cobra.Command{
		Use:   "classify <message>",
		Short: "Classify a message and route it to a model tier",
		Long:  "Loads the user's tasks, conversation and memory from the store, classifies the message and prints the routed outcome.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, !noLLM)
			if err != nil {
				return err
			}
			defer a.Close()

			message := strings.Join(args, " ")
			now := time.Now()
			in, err := a.store.ClassificationInput(ctx, userID, message, now)
			if err != nil {
				return err
			}
			mem, err := a.store.MemoryContext(ctx, userID, now)
			if err != nil {
				return err
			}

			out, err := a.pipeline.Process(ctx, pipeline.Request{Input: in, Memory: mem, AdditionalContext: extra})
			if err != nil {
				return err
			}

			if record {
				if err := a.store.AppendMessage(ctx, userID, conversation.Message{Role: conversation.RoleUser, Content: message}); err != nil {
					return err
				}
			}

			if !showPrompt && out.Context != nil {
				out.Context.Prompt = ""
			}
			if wantJSON() {
				return printJSON(out)
			}
			printOutcome(out)
			if a.gen != nil {
				fmt.Print(a.costs.Summary())
			}
			if showPrompt && out.Context != nil {
				fmt.Printf("\n%s\n", out.Context.Prompt)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "demo", "user id to load state for")
	cmd.Flags().BoolVar(&noLLM, "no-llm", false, "skip the LLM backend and use keyword classification")
	cmd.Flags().BoolVar(&record, "record", false, "append the message to the user's conversation history")
	cmd.Flags().BoolVar(&showPrompt, "show-prompt", false, "print the assembled prompt context")
	cmd.Flags().StringVar(&extra, "context", "", "additional context to include in the prompt")
	return cmd
}

func printOutcome(out *pipeline.Outcome) {
	c := out.Classification
	fmt.Printf("Intent:     %s (%s, confidence %.2f, %s)\n", c.Intent, out.Source, c.Confidence, out.Band)
	if c.TargetTaskName != nil || c.TargetTaskID != nil {
		id := "unresolved"
		if c.TargetTaskID != nil {
			id = *c.TargetTaskID
		}
		name := ""
		if c.TargetTaskName != nil {
			name = *c.TargetTaskName
		}
		fmt.Printf("Target:     %s [%s]\n", name, id)
	}
	if c.MatchedSkillID != nil {
		fmt.Printf("Skill:      %s\n", *c.MatchedSkillID)
	}
	for _, p := range formatParameters(c.Parameters) {
		fmt.Printf("Param:      %s\n", p)
	}
	if c.Reasoning != "" {
		fmt.Printf("Reasoning:  %s\n", c.Reasoning)
	}
	fmt.Printf("Route:      %s (%s) -> %s\n", out.Decision.Tier, out.Decision.Reason, out.Model)

	action := "no"
	switch {
	case out.NeedsDisambiguation:
		action = "no (ask which task)"
	case out.AutoExecute:
		action = "yes"
	}
	fmt.Printf("Auto-exec:  %s\n", action)
	if out.ClassifyLatencyMs > 0 {
		fmt.Printf("Latency:    %dms (cost $%.6f)\n", out.ClassifyLatencyMs, out.ClassifyCost)
	}
	if ctx := out.Context; ctx != nil {
		fmt.Printf("Context:    %d/%d tokens (%.1f%%), compacted=%v, flush=%v\n",
			ctx.Stats.TotalTokens, ctx.Stats.MaxTokens, 100*ctx.Stats.Utilization, ctx.WasCompacted, ctx.ShouldFlush)
	}
}
