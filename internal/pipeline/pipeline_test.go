package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/oliveapp/olive/internal/contextmgr"
	"github.com/oliveapp/olive/internal/conversation"
	"github.com/oliveapp/olive/internal/intent"
	"github.com/oliveapp/olive/internal/provider"
	"github.com/oliveapp/olive/internal/router"
)

type stubClassifier struct {
	res intent.Result
}

func (s stubClassifier) Classify(context.Context, intent.Input) intent.Result { return s.res }

func strPtr(s string) *string { return &s }

func TestProcessUsesLLMResult(t *testing.T) {
	cls := &intent.Classification{
		Intent:     intent.Chat,
		Confidence: 0.93,
		Parameters: intent.Parameters{ChatType: strPtr(intent.ChatWeeklySummary)},
	}
	costs := router.NewCostTracker(nil)
	p := New(stubClassifier{res: intent.Result{
		Classification: cls,
		Model:          "gemini-2.5-flash",
		Usage:          provider.Usage{InputTokens: 1000, OutputTokens: 100},
	}}, contextmgr.NewBuilder(contextmgr.DefaultLimits(), "", nil), Options{Tiers: router.DefaultTable(), Costs: costs}, nil)

	out, err := p.Process(context.Background(), Request{
		Input:  intent.Input{Message: "how was my week?"},
		Memory: &contextmgr.MemoryContext{Profile: "Likes lists"},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Source != SourceLLM {
		t.Errorf("Source = %q, want llm", out.Source)
	}
	if out.Decision.Tier != router.TierPro || out.Decision.Reason != "complex_chat:weekly_summary" {
		t.Errorf("Decision = %+v, want pro complex_chat:weekly_summary", out.Decision)
	}
	if out.Model != "gemini-2.5-pro" {
		t.Errorf("Model = %q, want gemini-2.5-pro", out.Model)
	}
	if out.Band != intent.BandClear || !out.AutoExecute {
		t.Errorf("Band/AutoExecute = %q/%v", out.Band, out.AutoExecute)
	}
	if out.ClassifyCost <= 0 || costs.Total() != out.ClassifyCost {
		t.Errorf("ClassifyCost = %v, tracker total = %v", out.ClassifyCost, costs.Total())
	}
	if got := costs.ByTier()[ClassifierTier]; got != out.ClassifyCost {
		t.Errorf("ByTier()[%s] = %v, want %v", ClassifierTier, got, out.ClassifyCost)
	}
	if out.Context == nil || !strings.Contains(out.Context.Prompt, "## Current Message\nhow was my week?") {
		t.Fatalf("context prompt missing current message")
	}
	if !strings.Contains(out.Context.Prompt, "Likes lists") {
		t.Errorf("context prompt missing profile")
	}
}

func TestProcessFallsBackOnNilClassification(t *testing.T) {
	tasks := []intent.Task{
		{ID: "t1", Summary: "Dental Milka"},
		{ID: "t2", Summary: "Dental cleaning"},
		{ID: "t3", Summary: "Call Milka"},
	}
	p := New(stubClassifier{}, nil, Options{Tiers: router.DefaultTable()}, nil)

	out, err := p.Process(context.Background(), Request{Input: intent.Input{
		Message:     "Dental Milka complete",
		ActiveTasks: tasks,
	}})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Source != SourceFallback {
		t.Errorf("Source = %q, want fallback", out.Source)
	}
	if out.Classification.Intent != intent.Complete {
		t.Fatalf("Intent = %q, want complete", out.Classification.Intent)
	}
	if id := out.Classification.TargetTaskID; id == nil || *id != "t1" {
		t.Fatalf("TargetTaskID = %v, want t1", id)
	}
	if out.Decision.Tier != router.TierLite || out.Model != "gemini-2.5-flash-lite" {
		t.Errorf("Decision/Model = %+v/%q", out.Decision, out.Model)
	}
	if out.Context != nil {
		t.Error("Context built without a builder")
	}
}

func TestProcessDisambiguationBlocksAutoExecute(t *testing.T) {
	cls := &intent.Classification{
		Intent:         intent.Complete,
		TargetTaskName: strPtr("call"),
		Confidence:     0.95,
	}
	p := New(stubClassifier{res: intent.Result{Classification: cls}}, nil, Options{}, nil)

	out, err := p.Process(context.Background(), Request{Input: intent.Input{Message: "call done"}})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !out.NeedsDisambiguation || out.AutoExecute {
		t.Fatalf("NeedsDisambiguation/AutoExecute = %v/%v, want true/false", out.NeedsDisambiguation, out.AutoExecute)
	}
}

func TestProcessWithoutClassifier(t *testing.T) {
	p := New(nil, nil, Options{}, nil)
	out, err := p.Process(context.Background(), Request{Input: intent.Input{
		Message: "change it to 7am",
		ConversationHistory: []conversation.Message{
			{Role: conversation.RoleAssistant, Content: "Added Dentist appointment for tomorrow"},
		},
		ActiveTasks: []intent.Task{{ID: "d1", Summary: "Dentist appointment"}},
	}})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out.Classification.Intent != intent.SetDue || out.Source != SourceFallback {
		t.Fatalf("Process() = %s/%s, want set_due/fallback", out.Classification.Intent, out.Source)
	}
	if out.Model != router.DefaultTable().Lite {
		t.Errorf("Model = %q, want default lite", out.Model)
	}
	if !out.AutoExecute {
		t.Error("resolved fallback at 0.75 should auto-execute")
	}
}

func TestProcessCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(nil, nil, Options{}, nil).Process(ctx, Request{}); err == nil {
		t.Fatal("Process(canceled) = nil error")
	}
}
