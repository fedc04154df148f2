package agent

import "github.com/siva-netizen/Promptify/internal/llm"

// Intent is the cognitive mode Triage assigns to a query.
type Intent string

const (
	IntentArchitect Intent = "ARCHITECT"
	IntentBuilder   Intent = "BUILDER"
	IntentMentor    Intent = "MENTOR"
	IntentAnalyst   Intent = "ANALYST"
)

// Intents lists the recognized intents.
var Intents = []Intent{IntentArchitect, IntentBuilder, IntentMentor, IntentAnalyst}

// Valid reports whether i is one of the recognized intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentArchitect, IntentBuilder, IntentMentor, IntentAnalyst:
		return true
	}
	return false
}

// Record is the state threaded through one pipeline run. Every field
// exists from construction; stages fill them in order.
type Record struct {
	RunID         string        `json:"run_id"`
	UserQuery     string        `json:"user_query"`
	ModelOverride *llm.Override `json:"-"`

	Intent            Intent  `json:"intent"`
	Critique          *string `json:"critique"`
	ExpertSuggestions string  `json:"expert_suggestions"`
	FinalPromptDraft  string  `json:"final_prompt_draft"`

	// IterationCount is reserved and always 0.
	IterationCount int `json:"iteration_count"`
}

// NewRecord creates the initial record for query.
func NewRecord(query string, override *llm.Override) *Record {
	return &Record{UserQuery: query, ModelOverride: override}
}

// CritiqueText returns the critique, or "" before Critic has run.
func (r *Record) CritiqueText() string {
	if r.Critique == nil {
		return ""
	}
	return *r.Critique
}

// Clone returns a copy that shares nothing mutable with r.
func (r *Record) Clone() *Record {
	c := *r
	if r.Critique != nil {
		crit := *r.Critique
		c.Critique = &crit
	}
	if r.ModelOverride != nil {
		o := *r.ModelOverride
		c.ModelOverride = &o
	}
	return &c
}

// Update is the partial result of one stage. Nil fields are left untouched
// by Merge.
type Update struct {
	Intent            *Intent
	Critique          *string
	ExpertSuggestions *string
	FinalPromptDraft  *string
}

// Merge overwrites the fields u sets.
func (r *Record) Merge(u Update) {
	if u.Intent != nil {
		r.Intent = *u.Intent
	}
	if u.Critique != nil {
		crit := *u.Critique
		r.Critique = &crit
	}
	if u.ExpertSuggestions != nil {
		r.ExpertSuggestions = *u.ExpertSuggestions
	}
	if u.FinalPromptDraft != nil {
		r.FinalPromptDraft = *u.FinalPromptDraft
	}
}
