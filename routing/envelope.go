package routing

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/supportmesh/supportmesh/tool"
)

// Envelope is the structured sub-task payload the router hands a specialist.
// It travels as the JSON text part of the sub-task message; specialists
// decode it and act on the resolved intent without re-classifying.
type Envelope struct {
	Intent     Tag    `json:"intent"`
	Query      string `json:"query"`
	CustomerID *int64 `json:"customer_id,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Priority   string `json:"priority,omitempty"`
}

// Encode renders the envelope as its wire JSON.
func (e Envelope) Encode() string {
	raw, err := json.Marshal(e)
	if err != nil {
		// Marshal of this struct cannot fail; keep the signature simple.
		return `{"intent":"general_support"}`
	}
	return string(raw)
}

// DecodeEnvelope parses a sub-task payload. Text that is not a valid
// envelope fails with a validation error.
func DecodeEnvelope(text string) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal([]byte(text), &e); err != nil {
		return Envelope{}, tool.Errorf(tool.CodeValidation, "malformed sub-task payload: %v", err)
	}
	if e.Intent == "" {
		return Envelope{}, tool.Errorf(tool.CodeValidation, "sub-task payload missing intent")
	}
	return e, nil
}

var (
	customerIDPattern = regexp.MustCompile(`customer\s*(?:id)?\s*[:#]?\s*(\d+)`)
	bareIDPattern     = regexp.MustCompile(`\bid\s*[:#]?\s*(\d+)`)
	emailPattern      = regexp.MustCompile(`[\w.+-]+@[\w-]+(?:\.[\w-]+)+`)
	// Ten digits minimum, so plain customer IDs never look like phone numbers.
	phonePattern = regexp.MustCompile(`\+?\d{0,2}[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
)

// Params are the structured values extracted from a query's text.
type Params struct {
	CustomerID *int64
	Email      string
	Phone      string
	Priority   string
}

// ExtractParams pulls customer IDs, email addresses, phone numbers and an
// optional ticket priority out of the raw query.
func ExtractParams(query string) Params {
	var p Params
	q := strings.ToLower(query)

	m := customerIDPattern.FindStringSubmatch(q)
	if m == nil {
		m = bareIDPattern.FindStringSubmatch(q)
	}
	if m != nil {
		if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			p.CustomerID = &id
		}
	}

	// The query may mention a new email address next to a customer ID;
	// extraction runs over the original casing.
	p.Email = emailPattern.FindString(query)
	p.Phone = phonePattern.FindString(query)

	switch {
	case strings.Contains(q, "urgent") || strings.Contains(q, "emergency"):
		p.Priority = "urgent"
	case strings.Contains(q, "high priority"):
		p.Priority = "high"
	case strings.Contains(q, "low priority"):
		p.Priority = "low"
	}
	return p
}

// Entry is one dispatchable unit of a routing decision.
type Entry struct {
	Tag        Tag
	Specialist Specialist
	Envelope   Envelope
}

// Decision is the full routing outcome for one request.
type Decision struct {
	// Intent is the single matched tag, or Multi when several matched.
	Intent Tag
	// Entries are dispatch units in query order. Never empty; tags are
	// unique, so (specialist, tag) pairs never repeat.
	Entries []Entry
}

// Decide classifies a query and expands the result into sub-task entries.
func Decide(query string) (Decision, error) {
	cls, err := Classify(query)
	if err != nil {
		return Decision{}, err
	}

	params := ExtractParams(query)
	dec := Decision{Intent: cls.Matches[0].Tag}
	if cls.Multi {
		dec.Intent = Multi
	}

	for _, m := range cls.Matches {
		dec.Entries = append(dec.Entries, Entry{
			Tag:        m.Tag,
			Specialist: SpecialistFor(m.Tag),
			Envelope: Envelope{
				Intent:     m.Tag,
				Query:      query,
				CustomerID: params.CustomerID,
				Email:      params.Email,
				Phone:      params.Phone,
				Priority:   params.Priority,
			},
		})
	}
	return dec, nil
}
