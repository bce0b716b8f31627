package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/oliveapp/olive/internal/intent"
	"github.com/oliveapp/olive/internal/pipeline"
	"github.com/oliveapp/olive/internal/router"
)

func newEvalIntentsCmd() *cobra.Command {
	var (
		datasetPath string
		backend     string
		strict      bool
	)

	cmd := &cobra.Command{
		Use:   "eval-intents",
		Short: "Evaluate intent classification on an offline dataset",
		Long:  "Classifies every labeled case and reports intent, target task, tier and parameter accuracy.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := intent.LoadEvalDataset(datasetPath)
			if err != nil {
				return err
			}

			var costs *router.CostTracker
			classify := intent.ClassifyKeywords
			switch backend {
			case "keyword":
			case "llm":
				cfg, err := initConfig()
				if err != nil {
					return err
				}
				logger := newLogger(cfg)
				gen, err := buildGenerator(cmd.Context(), cfg, logger)
				if err != nil {
					return err
				}
				if closer, ok := gen.(io.Closer); ok {
					defer closer.Close()
				}
				c := intent.NewClassifier(gen, cfg.ClassifierOptions(), logger)
				costs = router.NewCostTracker(cfg.Routing.Pricing)
				classify = func(in intent.Input) *intent.Classification {
					res := c.Classify(cmd.Context(), in)
					if res.Model != "" {
						costs.Record(res.Model, pipeline.ClassifierTier, res.Usage.InputTokens, res.Usage.OutputTokens)
					}
					if res.Classification != nil {
						return res.Classification
					}
					return intent.ClassifyKeywords(in)
				}
			default:
				return fmt.Errorf("unknown backend %q (want keyword or llm)", backend)
			}

			summary, results := intent.EvaluateDataset(ds, classify)

			if wantJSON() {
				report := map[string]any{
					"dataset": datasetPath,
					"version": ds.Version,
					"backend": backend,
					"summary": summary,
					"results": results,
				}
				if costs != nil {
					report["cost_by_tier"] = costs.ByTier()
					report["cost_total"] = costs.Total()
				}
				if err := printJSON(report); err != nil {
					return err
				}
			} else {
				printEvalSummary(datasetPath, ds.Version, backend, summary)
				printEvalFailures(results, 12)
				if costs != nil {
					fmt.Print(costs.Summary())
				}
			}

			if strict && summary.Fail > 0 {
				return fmt.Errorf("intent evaluation failed: %d/%d cases failed", summary.Fail, summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "docs/intent-eval-dataset.json", "path to evaluation dataset json")
	cmd.Flags().StringVar(&backend, "backend", "keyword", "classifier to evaluate: keyword or llm")
	cmd.Flags().BoolVar(&strict, "strict", false, "return non-zero when any case fails")
	return cmd
}

func printEvalSummary(datasetPath, version, backend string, s intent.EvalSummary) {
	fmt.Printf("Intent Classification Evaluation (%s)\n", backend)
	fmt.Printf("Dataset: %s (version=%s)\n", datasetPath, version)
	fmt.Printf("Total: %d  Pass: %d  Fail: %d\n", s.Total, s.Pass, s.Fail)
	fmt.Printf("Intent: %d/%d (%.1f%%)\n", s.IntentCorrect, s.IntentChecks, 100*s.IntentAccuracy())
	fmt.Printf("Task:   %d/%d (%.1f%%)\n", s.TaskCorrect, s.TaskChecks, 100*s.TaskAccuracy())
	fmt.Printf("Tier:   %d/%d (%.1f%%)\n", s.TierCorrect, s.TierChecks, 100*s.TierAccuracy())
	fmt.Printf("Params: %d/%d (%.1f%%)\n", s.ParamCorrect, s.ParamChecks, 100*s.ParamAccuracy())
}

func printEvalFailures(results []intent.EvalCaseResult, maxLines int) {
	failed := make([]intent.EvalCaseResult, 0, len(results))
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	if len(failed) == 0 {
		fmt.Println("Failures: 0")
		return
	}

	fmt.Printf("Failures: %d\n", len(failed))
	for i, r := range failed {
		if i >= maxLines {
			fmt.Printf("... and %d more failures\n", len(failed)-maxLines)
			return
		}
		fmt.Printf("- %s\n", r.ID)
		fmt.Printf("  expected intent: %s, actual: %s\n", r.ExpectedIntent, r.ActualIntent)
		for _, fail := range r.Failures {
			fmt.Printf("  reason: %s\n", fail)
		}
	}
}
