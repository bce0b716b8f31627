package intent

import (
	"errors"
	"testing"
)

var milkaTasks = []Task{
	{ID: "t1", Summary: "Dental Milka"},
	{ID: "t2", Summary: "Dental cleaning"},
	{ID: "t3", Summary: "Call Milka"},
}

// howlTasks share the token "Milka" but only one of them is dental.
var howlTasks = []Task{
	{ID: "howl", Summary: "Research The Happy Howl for Milka"},
	{ID: "dental", Summary: "Dental Milka"},
}

func TestVocabulary(t *testing.T) {
	if got := len(All()); got != 14 {
		t.Fatalf("len(All()) = %d, want 14", got)
	}
	for _, i := range All() {
		if !i.Valid() {
			t.Fatalf("%q.Valid() = false", i)
		}
	}
	if Intent("dance").Valid() {
		t.Fatal("unknown intent reported valid")
	}

	targeting := map[Intent]bool{
		Complete: true, SetPriority: true, SetDue: true, Delete: true,
		Move: true, Assign: true, Remind: true, Merge: true,
	}
	for _, i := range All() {
		if i.TargetsTask() != targeting[i] {
			t.Fatalf("%q.TargetsTask() = %v, want %v", i, i.TargetsTask(), targeting[i])
		}
	}
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		confidence float64
		want       Band
	}{
		{1, BandClear},
		{0.9, BandClear},
		{0.89, BandModerate},
		{0.7, BandModerate},
		{0.69, BandUncertain},
		{0.5, BandUncertain},
		{0.49, BandVeryAmbiguous},
		{0, BandVeryAmbiguous},
	}
	for _, tt := range tests {
		if got := BandFor(tt.confidence); got != tt.want {
			t.Fatalf("BandFor(%v) = %q, want %q", tt.confidence, got, tt.want)
		}
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `intent: complete`},
		{"empty object", `{}`},
		{"array", `["complete"]`},
		{"out of vocabulary", `{"intent":"dance","confidence":0.9}`},
		{"intent not string", `{"intent":3,"confidence":0.9}`},
		{"missing confidence", `{"intent":"create"}`},
		{"confidence string", `{"intent":"create","confidence":"high"}`},
		{"parameters not object", `{"intent":"create","confidence":0.9,"parameters":"x"}`},
		{"truncated", `{"intent":"create","confidence":0.9`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(tt.raw), Input{})
			if err == nil {
				t.Fatalf("Parse(%q) = %+v, want error", tt.raw, c)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse(%q) error = %T, want *ParseError", tt.raw, err)
			}
		})
	}
}

func TestParseClampsConfidence(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{`{"intent":"create","confidence":1.7}`, 1},
		{`{"intent":"create","confidence":-0.2}`, 0},
		{`{"intent":"create","confidence":0.42}`, 0.42},
	}
	for _, tt := range tests {
		c, err := Parse([]byte(tt.raw), Input{})
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.raw, err)
		}
		if c.Confidence != tt.want {
			t.Fatalf("Parse(%q).Confidence = %v, want %v", tt.raw, c.Confidence, tt.want)
		}
	}
}

func TestParseNullsIrrelevantParameters(t *testing.T) {
	raw := `{"intent":"complete","target_task_id":"t1","parameters":{"amount":12,"priority":"high","chat_type":"general"},"confidence":0.95}`
	c, err := Parse([]byte(raw), Input{ActiveTasks: milkaTasks})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.Parameters != (Parameters{}) {
		t.Fatalf("Parameters = %+v, want all null for complete", c.Parameters)
	}
	if c.TargetTaskName == nil || *c.TargetTaskName != "Dental Milka" {
		t.Fatalf("TargetTaskName = %v, want filled from task t1", c.TargetTaskName)
	}
}

func TestParseKeepsRelevantParameters(t *testing.T) {
	raw := `{"intent":"expense","parameters":{"amount":45.5,"currency":"USD","merchant":"Trader Joe's","search_query":"x"},"confidence":0.93}`
	c, err := Parse([]byte(raw), Input{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p := c.Parameters
	if p.Amount == nil || *p.Amount != 45.5 {
		t.Fatalf("Amount = %v, want 45.5", p.Amount)
	}
	if p.Merchant == nil || *p.Merchant != "Trader Joe's" {
		t.Fatalf("Merchant = %v, want Trader Joe's", p.Merchant)
	}
	if p.SearchQuery != nil {
		t.Fatalf("SearchQuery = %q, want nil for expense", *p.SearchQuery)
	}
}

func TestParseEnumValues(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`{"intent":"chat","parameters":{"chat_type":"Briefing"},"confidence":0.9}`, ChatBriefing},
		{`{"intent":"chat","parameters":{"chat_type":"gossip"},"confidence":0.9}`, ""},
	}
	for _, tt := range tests {
		c, err := Parse([]byte(tt.raw), Input{})
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.raw, err)
		}
		if got := c.ChatType(); got != tt.want {
			t.Fatalf("ChatType() = %q, want %q", got, tt.want)
		}
	}
}

func TestParseTargetResolution(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		tasks    []Task
		wantID   string
		wantName string
	}{
		{
			name:     "known id",
			raw:      `{"intent":"complete","target_task_id":"t3","confidence":0.9}`,
			tasks:    milkaTasks,
			wantID:   "t3",
			wantName: "Call Milka",
		},
		{
			name:     "unknown id falls back to name",
			raw:      `{"intent":"complete","target_task_id":"t99","target_task_name":"Dental Milka","confidence":0.9}`,
			tasks:    milkaTasks,
			wantID:   "t1",
			wantName: "Dental Milka",
		},
		{
			name:  "unknown id without name",
			raw:   `{"intent":"delete","target_task_id":"t99","confidence":0.9}`,
			tasks: milkaTasks,
		},
		{
			name:     "unique name fills id",
			raw:      `{"intent":"set_due","target_task_name":"milka dental","confidence":0.9}`,
			tasks:    milkaTasks,
			wantID:   "t1",
			wantName: "milka dental",
		},
		{
			name:     "tie keeps name only",
			raw:      `{"intent":"complete","target_task_name":"call","confidence":0.6}`,
			tasks:    []Task{{ID: "a", Summary: "Call mom"}, {ID: "b", Summary: "Call dad"}},
			wantName: "call",
		},
		{
			name:     "shared token is a tie even with uneven extras",
			raw:      `{"intent":"complete","target_task_name":"Milka","confidence":0.9}`,
			tasks:    howlTasks,
			wantName: "Milka",
		},
		{
			name:     "both tokens pick the dental task",
			raw:      `{"intent":"complete","target_task_name":"Dental Milka","confidence":0.9}`,
			tasks:    howlTasks,
			wantID:   "dental",
			wantName: "Dental Milka",
		},
		{
			name:  "non-targeting intent clears target",
			raw:   `{"intent":"create","target_task_id":"t1","target_task_name":"Dental Milka","confidence":0.9}`,
			tasks: milkaTasks,
		},
		{
			name:  "blank name is null",
			raw:   `{"intent":"complete","target_task_name":"  ","confidence":0.9}`,
			tasks: milkaTasks,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(tt.raw), Input{ActiveTasks: tt.tasks})
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got := deref(c.TargetTaskID); got != tt.wantID {
				t.Fatalf("TargetTaskID = %q, want %q", got, tt.wantID)
			}
			if got := deref(c.TargetTaskName); got != tt.wantName {
				t.Fatalf("TargetTaskName = %q, want %q", got, tt.wantName)
			}
		})
	}
}

func TestParseSkill(t *testing.T) {
	skills := []Skill{{SkillID: "recipes", Name: "Recipe Box"}}
	raw := `{"intent":"chat","matched_skill_id":"recipes","matched_skill_name":"whatever","confidence":0.9}`
	c, err := Parse([]byte(raw), Input{ActivatedSkills: skills})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if deref(c.MatchedSkillID) != "recipes" || deref(c.MatchedSkillName) != "Recipe Box" {
		t.Fatalf("skill = %q/%q, want recipes/Recipe Box", deref(c.MatchedSkillID), deref(c.MatchedSkillName))
	}

	c, err = Parse([]byte(raw), Input{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.MatchedSkillID != nil || c.MatchedSkillName != nil {
		t.Fatal("skill not activated, want null skill fields")
	}
}

func TestNeedsDisambiguation(t *testing.T) {
	name := "call"
	id := "a"
	tests := []struct {
		c    *Classification
		want bool
	}{
		{&Classification{Intent: Complete, TargetTaskName: &name}, true},
		{&Classification{Intent: Complete, TargetTaskName: &name, TargetTaskID: &id}, false},
		{&Classification{Intent: Create, TargetTaskName: &name}, false},
		{nil, false},
	}
	for i, tt := range tests {
		if got := tt.c.NeedsDisambiguation(); got != tt.want {
			t.Fatalf("case %d: NeedsDisambiguation() = %v, want %v", i, got, tt.want)
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
