package intent

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/oliveapp/olive/internal/conversation"
	"github.com/oliveapp/olive/internal/router"
)

// EvalCase defines one offline classification sample.
type EvalCase struct {
	ID          string                 `json:"id"`
	Message     string                 `json:"message"`
	History     []conversation.Message `json:"history,omitempty"`
	Outbound    []string               `json:"outbound,omitempty"`
	Tasks       []Task                 `json:"tasks,omitempty"`
	PartnerName string                 `json:"partner_name,omitempty"`

	ExpectedIntent Intent `json:"expected_intent"`
	// ExpectedTaskID is checked when set; "-" expects no resolved id.
	ExpectedTaskID string `json:"expected_task_id,omitempty"`
	ExpectedTier   string `json:"expected_tier,omitempty"`
	// ExpectedParams lists parameter names that must be non-null.
	ExpectedParams []string `json:"expected_params,omitempty"`
}

// Input builds the classification input for the case.
func (c EvalCase) Input() Input {
	return Input{
		Message:                c.Message,
		ConversationHistory:    c.History,
		RecentOutboundMessages: c.Outbound,
		ActiveTasks:            c.Tasks,
		PartnerName:            c.PartnerName,
	}
}

// EvalDataset is a collection of classification cases.
type EvalDataset struct {
	Version string     `json:"version"`
	Cases   []EvalCase `json:"cases"`
}

// EvalCaseResult is the evaluated result for one sample.
type EvalCaseResult struct {
	ID     string `json:"id"`
	Passed bool   `json:"passed"`

	ExpectedIntent Intent `json:"expected_intent"`
	ActualIntent   Intent `json:"actual_intent"`
	ActualTaskID   string `json:"actual_task_id,omitempty"`
	ActualTier     string `json:"actual_tier"`
	Reason         string `json:"route_reason"`

	Failures []string `json:"failures,omitempty"`
}

// EvalSummary aggregates evaluation metrics.
type EvalSummary struct {
	Total int `json:"total"`
	Pass  int `json:"pass"`
	Fail  int `json:"fail"`

	IntentChecks  int `json:"intent_checks"`
	IntentCorrect int `json:"intent_correct"`
	TaskChecks    int `json:"task_checks"`
	TaskCorrect   int `json:"task_correct"`
	TierChecks    int `json:"tier_checks"`
	TierCorrect   int `json:"tier_correct"`
	ParamChecks   int `json:"param_checks"`
	ParamCorrect  int `json:"param_correct"`
}

func rate(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func (s EvalSummary) IntentAccuracy() float64 { return rate(s.IntentCorrect, s.IntentChecks) }
func (s EvalSummary) TaskAccuracy() float64   { return rate(s.TaskCorrect, s.TaskChecks) }
func (s EvalSummary) TierAccuracy() float64   { return rate(s.TierCorrect, s.TierChecks) }
func (s EvalSummary) ParamAccuracy() float64  { return rate(s.ParamCorrect, s.ParamChecks) }

// LoadEvalDataset reads and parses an evaluation dataset JSON file.
func LoadEvalDataset(path string) (*EvalDataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var ds EvalDataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	if len(ds.Cases) == 0 {
		return nil, fmt.Errorf("dataset has no cases")
	}
	for i := range ds.Cases {
		if strings.TrimSpace(ds.Cases[i].ID) == "" {
			ds.Cases[i].ID = fmt.Sprintf("case_%d", i+1)
		}
	}
	return &ds, nil
}

// ClassifyFunc classifies one input. It must not return nil.
type ClassifyFunc func(Input) *Classification

// EvaluateDataset runs every case through classify and the router.
func EvaluateDataset(ds *EvalDataset, classify ClassifyFunc) (EvalSummary, []EvalCaseResult) {
	summary := EvalSummary{Total: len(ds.Cases)}
	results := make([]EvalCaseResult, 0, len(ds.Cases))

	for _, c := range ds.Cases {
		cls := classify(c.Input())
		route := router.RouteIntent(string(cls.Intent), cls.ChatType())

		r := EvalCaseResult{
			ID:             c.ID,
			ExpectedIntent: c.ExpectedIntent,
			ActualIntent:   cls.Intent,
			ActualTier:     string(route.Tier),
			Reason:         route.Reason,
			Passed:         true,
		}
		if cls.TargetTaskID != nil {
			r.ActualTaskID = *cls.TargetTaskID
		}

		summary.IntentChecks++
		if cls.Intent == c.ExpectedIntent {
			summary.IntentCorrect++
		} else {
			r.Passed = false
			r.Failures = append(r.Failures, fmt.Sprintf("intent mismatch: want=%s got=%s", c.ExpectedIntent, cls.Intent))
		}

		if c.ExpectedTaskID != "" {
			summary.TaskChecks++
			want := c.ExpectedTaskID
			if want == "-" {
				want = ""
			}
			if r.ActualTaskID == want {
				summary.TaskCorrect++
			} else {
				r.Passed = false
				r.Failures = append(r.Failures, fmt.Sprintf("target task mismatch: want=%q got=%q", want, r.ActualTaskID))
			}
		}

		if c.ExpectedTier != "" {
			summary.TierChecks++
			if r.ActualTier == c.ExpectedTier {
				summary.TierCorrect++
			} else {
				r.Passed = false
				r.Failures = append(r.Failures, fmt.Sprintf("tier mismatch: want=%s got=%s", c.ExpectedTier, r.ActualTier))
			}
		}

		if len(c.ExpectedParams) > 0 {
			summary.ParamChecks++
			if missing := missingParams(cls.Parameters, c.ExpectedParams); len(missing) == 0 {
				summary.ParamCorrect++
			} else {
				r.Passed = false
				r.Failures = append(r.Failures, fmt.Sprintf("missing parameters: %v", missing))
			}
		}

		if r.Passed {
			summary.Pass++
		} else {
			summary.Fail++
		}
		results = append(results, r)
	}

	return summary, results
}

// missingParams reports which named parameters are null. It round-trips
// through JSON so names match the wire tags.
func missingParams(p Parameters, names []string) []string {
	raw, _ := json.Marshal(p)
	var m map[string]any
	_ = json.Unmarshal(raw, &m)
	var missing []string
	for _, n := range names {
		if m[n] == nil {
			missing = append(missing, n)
		}
	}
	return missing
}
