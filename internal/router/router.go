// Package router picks the response-generation tier for a classified intent.
package router

import "strings"

// Tier is a cost/capability class of reply model, cheapest first.
type Tier string

const (
	TierLite     Tier = "lite"
	TierStandard Tier = "standard"
	TierPro      Tier = "pro"
)

// Valid reports whether t is one of the three tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierLite, TierStandard, TierPro:
		return true
	}
	return false
}

// Reason tags. Chat and fallback reasons carry a ":<detail>" suffix.
const (
	ReasonDBOperation      = "db_operation"
	ReasonSimpleExtraction = "simple_extraction"
	ReasonContextualSearch = "contextual_search"
	ReasonSearch           = "search"
	ReasonPartnerRelay     = "partner_relay"
)

// Decision is the chosen tier plus an analytics tag.
type Decision struct {
	Tier   Tier   `json:"response_tier"`
	Reason string `json:"reason"`
}

// dbIntents resolve to direct data mutations with templated confirmations,
// so their tier is informational only.
var dbIntents = map[string]bool{
	"complete":     true,
	"set_priority": true,
	"set_due":      true,
	"delete":       true,
	"move":         true,
	"assign":       true,
	"remind":       true,
	"merge":        true,
	"create":       true,
}

// complexChat sub-types need the costliest tier.
var complexChat = map[string]bool{
	"weekly_summary": true,
	"planning":       true,
}

// RouteIntent maps an intent and optional chat sub-type to a tier.
// It is total: any string, including empty or unknown ones, yields the
// standard tier with a "fallback:" reason.
func RouteIntent(intent, chatType string) Decision {
	chatType = strings.TrimSpace(chatType)

	switch {
	case dbIntents[intent]:
		return Decision{Tier: TierLite, Reason: ReasonDBOperation}
	case intent == "expense":
		return Decision{Tier: TierLite, Reason: ReasonSimpleExtraction}
	case intent == "chat":
		if complexChat[chatType] {
			return Decision{Tier: TierPro, Reason: "complex_chat:" + chatType}
		}
		if chatType == "" {
			chatType = "general"
		}
		return Decision{Tier: TierStandard, Reason: "chat:" + chatType}
	case intent == "contextual_ask":
		return Decision{Tier: TierStandard, Reason: ReasonContextualSearch}
	case intent == "search":
		return Decision{Tier: TierStandard, Reason: ReasonSearch}
	case intent == "partner_message":
		return Decision{Tier: TierStandard, Reason: ReasonPartnerRelay}
	}
	return Decision{Tier: TierStandard, Reason: "fallback:" + intent}
}

// Table maps tiers to concrete model ids.
type Table struct {
	Lite     string `yaml:"lite" json:"lite"`
	Standard string `yaml:"standard" json:"standard"`
	Pro      string `yaml:"pro" json:"pro"`
}

// DefaultTable is the Gemini lineup used when no routing table is configured.
func DefaultTable() Table {
	return Table{
		Lite:     "gemini-2.5-flash-lite",
		Standard: "gemini-2.5-flash",
		Pro:      "gemini-2.5-pro",
	}
}

// Model returns the model for tier. Unset or unknown tiers use Standard.
func (t Table) Model(tier Tier) string {
	d := DefaultTable()
	switch tier {
	case TierLite:
		return firstNonEmpty(t.Lite, t.Standard, d.Lite)
	case TierPro:
		return firstNonEmpty(t.Pro, t.Standard, d.Pro)
	}
	return firstNonEmpty(t.Standard, d.Standard)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
