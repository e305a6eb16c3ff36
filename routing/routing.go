// Package routing implements rule-based intent classification and the
// routing decision model the orchestrator dispatches from. Classification is
// deterministic: an ordered trigger table is scanned against the lowercased
// query, matches are ordered by where their trigger first appears.
package routing

import (
	"sort"
	"strings"

	"github.com/supportmesh/supportmesh/tool"
)

// Tag identifies one routable intent. The set is closed; specialists
// advertise the tags they handle through their capability manifests.
type Tag string

const (
	DataLookup     Tag = "data_lookup"
	DataUpdate     Tag = "data_update"
	DataReport     Tag = "data_report"
	TicketCreate   Tag = "ticket_create"
	Billing        Tag = "billing"
	Cancellation   Tag = "cancellation"
	Upgrade        Tag = "upgrade"
	Escalation     Tag = "escalation"
	GeneralSupport Tag = "general_support"
	// Multi marks a decision spanning more than one intent; it never routes
	// by itself.
	Multi Tag = "multi"
)

// DataIntents are the tags the customer-data specialist handles.
var DataIntents = []Tag{DataLookup, DataUpdate, DataReport, TicketCreate}

// SupportIntents are the tags the support specialist handles.
var SupportIntents = []Tag{Billing, Cancellation, Upgrade, Escalation, GeneralSupport}

// Specialist names the two specialist roles.
type Specialist string

const (
	SpecialistData    Specialist = "data"
	SpecialistSupport Specialist = "support"
)

// SpecialistFor maps an intent tag to the specialist that owns it.
func SpecialistFor(tag Tag) Specialist {
	for _, t := range DataIntents {
		if t == tag {
			return SpecialistData
		}
	}
	return SpecialistSupport
}

// Rule binds one intent tag to the trigger phrases that select it. A rule
// matches when any trigger occurs as a substring of the lowercased query.
type Rule struct {
	Tag      Tag
	Triggers []string
}

// Rules is the classification table. Order matters only for breaking ties
// between triggers found at the same query position.
var Rules = []Rule{
	{Escalation, []string{
		"charged twice", "double charge", "refund", "unauthorized", "fraud",
		"immediately", "urgent", "emergency", "asap",
	}},
	{DataUpdate, []string{
		"update my email", "update email", "change my email",
		"update my phone", "change my phone", "update my info", "change my info",
	}},
	{TicketCreate, []string{
		"create a ticket", "create ticket", "new ticket", "open a ticket",
		"report an issue", "report a problem",
	}},
	{DataReport, []string{
		"active customers", "list customers", "all customers", "show all",
		"open tickets", "priority tickets", "summary report",
	}},
	{DataLookup, []string{
		"ticket history", "history", "customer info", "customer information",
		"account info", "who is customer", "get customer", "look up", "lookup",
	}},
	{Billing, []string{"billing", "invoice", "charge", "payment", "bill"}},
	{Cancellation, []string{"cancel"}},
	{Upgrade, []string{"upgrade", "premium", "better plan"}},
}

// Match is one classified intent with the position of its earliest trigger.
type Match struct {
	Tag Tag
	Pos int
}

// Classification is the outcome of classifying one query.
type Classification struct {
	// Matches are ordered by trigger position, ties broken by table order.
	// Never empty: unmatched queries fall back to general_support.
	Matches []Match
	// Multi reports whether more than one intent matched.
	Multi bool
}

// Classify runs the rule table over a query. Empty or whitespace-only
// queries fail with a validation error before any matching happens.
func Classify(query string) (Classification, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Classification{}, tool.Errorf(tool.CodeValidation, "query must not be empty")
	}

	type scored struct {
		Match
		table int
	}
	var matches []scored
	for i, rule := range Rules {
		best := -1
		for _, trig := range rule.Triggers {
			if pos := strings.Index(q, trig); pos >= 0 && (best < 0 || pos < best) {
				best = pos
			}
		}
		if best >= 0 {
			matches = append(matches, scored{Match{Tag: rule.Tag, Pos: best}, i})
		}
	}

	escalated := false
	for _, m := range matches {
		if m.Tag == Escalation {
			escalated = true
			break
		}
	}
	// An escalated billing complaint is one escalation, not two intents.
	if escalated {
		filtered := matches[:0]
		for _, m := range matches {
			if m.Tag != Billing {
				filtered = append(filtered, m)
			}
		}
		matches = filtered
	}

	if len(matches) == 0 {
		return Classification{Matches: []Match{{Tag: GeneralSupport}}}, nil
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Pos != matches[j].Pos {
			return matches[i].Pos < matches[j].Pos
		}
		return matches[i].table < matches[j].table
	})

	out := Classification{Multi: len(matches) > 1}
	for _, m := range matches {
		out.Matches = append(out.Matches, m.Match)
	}
	return out, nil
}
