package intent

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEvalDataset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cases.json")
	raw := `{"version":"1","cases":[{"message":"groceries","expected_intent":"search"},{"id":"x","message":"hi","expected_intent":"chat"}]}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	ds, err := LoadEvalDataset(path)
	if err != nil {
		t.Fatalf("LoadEvalDataset: %v", err)
	}
	if ds.Cases[0].ID != "case_1" || ds.Cases[1].ID != "x" {
		t.Fatalf("case ids = %q, %q, want case_1, x", ds.Cases[0].ID, ds.Cases[1].ID)
	}

	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte(`{"cases":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadEvalDataset(empty); err == nil {
		t.Fatal("LoadEvalDataset(empty) = nil error")
	}
	if _, err := LoadEvalDataset(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("LoadEvalDataset(missing) = nil error")
	}
}

func TestEvaluateDatasetWithKeywords(t *testing.T) {
	ds := &EvalDataset{Cases: []EvalCase{
		{
			ID:             "milka",
			Message:        "Dental Milka complete",
			Tasks:          milkaTasks,
			ExpectedIntent: Complete,
			ExpectedTaskID: "t1",
			ExpectedTier:   "lite",
		},
		{
			ID:             "expense",
			Message:        "paid 30 euros for dinner",
			ExpectedIntent: Expense,
			ExpectedParams: []string{"amount", "currency"},
		},
		{
			ID:             "ambiguous",
			Message:        "Milka done",
			Tasks:          milkaTasks,
			ExpectedIntent: Complete,
			ExpectedTaskID: "-",
		},
		{
			ID:             "wrong",
			Message:        "groceries",
			ExpectedIntent: Create,
			ExpectedTier:   "pro",
		},
	}}

	summary, results := EvaluateDataset(ds, ClassifyKeywords)
	if summary.Total != 4 || summary.Pass != 3 || summary.Fail != 1 {
		t.Fatalf("summary = %+v, want 3 pass / 1 fail", summary)
	}
	if summary.TaskChecks != 2 || summary.TaskAccuracy() != 1 {
		t.Fatalf("task accuracy = %d/%d", summary.TaskCorrect, summary.TaskChecks)
	}
	if summary.ParamChecks != 1 || summary.ParamCorrect != 1 {
		t.Fatalf("param checks = %d/%d", summary.ParamCorrect, summary.ParamChecks)
	}

	last := results[3]
	if last.Passed || len(last.Failures) != 2 {
		t.Fatalf("results[3] = %+v, want intent and tier failures", last)
	}
	if last.ActualTier != "standard" {
		t.Fatalf("ActualTier = %q, want standard", last.ActualTier)
	}
}

func TestShippedDatasetPassesWithKeywords(t *testing.T) {
	ds, err := LoadEvalDataset(filepath.Join("..", "..", "docs", "intent-eval-dataset.json"))
	if err != nil {
		t.Fatalf("LoadEvalDataset: %v", err)
	}
	summary, results := EvaluateDataset(ds, ClassifyKeywords)
	for _, r := range results {
		if !r.Passed {
			t.Errorf("case %s: %v", r.ID, r.Failures)
		}
	}
	if summary.Fail != 0 {
		t.Fatalf("summary = %+v, want no failures", summary)
	}
}
