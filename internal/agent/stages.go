package agent

import (
	"context"
	"strings"

	"github.com/siva-netizen/Promptify/internal/llm"
)

// Stage names, in run order.
const (
	StageTriage = "triage"
	StageCritic = "critic"
	StageExpert = "expert"
	StageSmith  = "smith"
)

// Invoker performs one completion call. It is satisfied by *invoker.Invoker.
type Invoker interface {
	Invoke(ctx context.Context, system, user string, override *llm.Override) (string, error)
}

// Stage is one step of the pipeline. Stages hold no per-run state; they read
// a snapshot of the record and return the fields they produce.
type Stage interface {
	Name() string
	Apply(ctx context.Context, rec Record) (Update, error)
}

// DefaultStages returns Triage, Critic, Expert and Smith bound to inv.
func DefaultStages(inv Invoker) []Stage {
	return []Stage{
		Triage{inv: inv},
		Critic{inv: inv},
		Expert{inv: inv},
		Smith{inv: inv},
	}
}

// Triage classifies the query into an Intent. Unrecognized output becomes
// ARCHITECT.
type Triage struct{ inv Invoker }

func (Triage) Name() string { return StageTriage }

func (s Triage) Apply(ctx context.Context, rec Record) (Update, error) {
	out, err := s.inv.Invoke(ctx, buildTriageSystemPrompt(), rec.UserQuery, rec.ModelOverride)
	if err != nil {
		return Update{}, err
	}
	intent := ParseIntent(out)
	return Update{Intent: &intent}, nil
}

// ParseIntent normalizes a triage reply.
func ParseIntent(raw string) Intent {
	intent := Intent(strings.ToUpper(strings.TrimSpace(raw)))
	if !intent.Valid() {
		return IntentArchitect
	}
	return intent
}

// Critic lists the gaps in the query. It does not look at the intent.
type Critic struct{ inv Invoker }

func (Critic) Name() string { return StageCritic }

func (s Critic) Apply(ctx context.Context, rec Record) (Update, error) {
	out, err := s.inv.Invoke(ctx, buildCriticSystemPrompt(), rec.UserQuery, rec.ModelOverride)
	if err != nil {
		return Update{}, err
	}
	critique := strings.TrimSpace(out)
	return Update{Critique: &critique}, nil
}

// Expert gives persona-specific advice addressing the critique.
type Expert struct{ inv Invoker }

func (Expert) Name() string { return StageExpert }

func (s Expert) Apply(ctx context.Context, rec Record) (Update, error) {
	system := buildExpertSystemPrompt(PersonaFor(rec.Intent), rec.Intent)
	user := buildExpertUserPrompt(rec.Intent, rec.UserQuery, rec.CritiqueText())
	out, err := s.inv.Invoke(ctx, system, user, rec.ModelOverride)
	if err != nil {
		return Update{}, err
	}
	suggestions := strings.TrimSpace(out)
	return Update{ExpertSuggestions: &suggestions}, nil
}

// Smith writes the final prompt from the query, advice and critique.
type Smith struct{ inv Invoker }

func (Smith) Name() string { return StageSmith }

func (s Smith) Apply(ctx context.Context, rec Record) (Update, error) {
	user := buildSmithUserPrompt(rec.UserQuery, rec.ExpertSuggestions, rec.CritiqueText())
	out, err := s.inv.Invoke(ctx, buildSmithSystemPrompt(), user, rec.ModelOverride)
	if err != nil {
		return Update{}, err
	}
	draft := strings.TrimSpace(out)
	return Update{FinalPromptDraft: &draft}, nil
}
