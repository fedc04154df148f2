package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/siva-netizen/Promptify/internal/apperr"
	"github.com/siva-netizen/Promptify/internal/llm"
)

type call struct {
	System   string
	User     string
	Override *llm.Override
}

// scriptedInvoker answers the n-th call with replies[n].
type scriptedInvoker struct {
	mu      sync.Mutex
	replies []string
	errAt   int
	err     error
	calls   []call
}

func (s *scriptedInvoker) Invoke(_ context.Context, system, user string, override *llm.Override) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.calls)
	s.calls = append(s.calls, call{System: system, User: user, Override: override})
	if s.err != nil && n == s.errAt {
		return "", s.err
	}
	if n < len(s.replies) {
		return s.replies[n], nil
	}
	return "", nil
}

func TestRunOrdersStagesAndThreadsState(t *testing.T) {
	inv := &scriptedInvoker{replies: []string{
		"  builder \n",
		"\n- Missing Context: the platform is not specified.\n",
		"- Suggestion: use WebSockets.\n",
		"  You are a senior engineer. Build a real-time chat app ...  ",
	}}
	override := &llm.Override{Provider: "openai"}

	rec, err := New(inv).Run(context.Background(), "  build a chat app ", override)
	require.NoError(t, err)
	require.Len(t, inv.calls, 4)

	require.NotEmpty(t, rec.RunID)
	require.Equal(t, "build a chat app", rec.UserQuery)
	require.Equal(t, IntentBuilder, rec.Intent)
	require.Equal(t, "- Missing Context: the platform is not specified.", rec.CritiqueText())
	require.Equal(t, "- Suggestion: use WebSockets.", rec.ExpertSuggestions)
	require.Equal(t, "You are a senior engineer. Build a real-time chat app ...", rec.FinalPromptDraft)
	require.NotEqual(t, rec.UserQuery, rec.FinalPromptDraft)
	require.Zero(t, rec.IterationCount)

	triage, critic, expert, smith := inv.calls[0], inv.calls[1], inv.calls[2], inv.calls[3]

	require.Equal(t, "build a chat app", triage.User)
	require.Equal(t, "build a chat app", critic.User)
	require.NotContains(t, critic.System, "BUILDER")
	require.NotContains(t, critic.User, "BUILDER")

	require.Contains(t, expert.System, "Senior Software Engineer & Implementation Specialist")
	require.Contains(t, expert.User, "User's Intent Mode: BUILDER")
	require.Contains(t, expert.User, "Original Query: build a chat app")
	require.Contains(t, expert.User, "the platform is not specified")

	require.Contains(t, smith.User, "Expert Advice: - Suggestion: use WebSockets.")
	require.Contains(t, smith.User, "Identified Gaps: - Missing Context: the platform is not specified.")
	require.NotContains(t, smith.User, "BUILDER")
	require.NotContains(t, smith.System, "Senior Software Engineer")

	for _, c := range inv.calls {
		require.Same(t, override, c.Override)
	}
}

func TestTriageFallback(t *testing.T) {
	cases := map[string]Intent{
		"ARCHITECT":          IntentArchitect,
		"builder":            IntentBuilder,
		"  Mentor\n":         IntentMentor,
		"analyst":            IntentAnalyst,
		"":                   IntentArchitect,
		"CODER":              IntentArchitect,
		"The mode is MENTOR": IntentArchitect,
	}
	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			inv := &scriptedInvoker{replies: []string{raw}}
			update, err := Triage{inv: inv}.Apply(context.Background(), *NewRecord("q", nil))
			require.NoError(t, err)
			require.NotNil(t, update.Intent)
			require.Equal(t, want, *update.Intent)
		})
	}
}

func TestEmptyQueryRejectedWithoutCalls(t *testing.T) {
	for _, q := range []string{"", "   ", "\n\t"} {
		inv := &scriptedInvoker{}
		rec, err := New(inv).Run(context.Background(), q, nil)
		require.Nil(t, rec)
		require.Error(t, err)
		require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		require.Empty(t, inv.calls)
	}
}

func TestOverlongQueryRejected(t *testing.T) {
	inv := &scriptedInvoker{}
	_, err := New(inv).Run(context.Background(), strings.Repeat("é", MaxQueryLength+1), nil)
	require.Error(t, err)
	require.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	require.Contains(t, err.Error(), "5001 characters")
	require.Empty(t, inv.calls)

	_, err = ValidateQuery(strings.Repeat("é", MaxQueryLength))
	require.NoError(t, err)
}

func TestStageFailureAbortsAndNamesStage(t *testing.T) {
	boom := errors.New("status 500: upstream exploded")
	inv := &scriptedInvoker{replies: []string{"MENTOR", "gaps"}, errAt: 2, err: boom}

	var events []Event
	rec, err := New(inv).Observe(ObserverFunc(func(e Event) { events = append(events, e) })).
		Run(context.Background(), "explain monads", nil)
	require.Nil(t, rec)
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
	require.Equal(t, StageExpert, apperr.StageOf(err))
	require.Len(t, inv.calls, 3, "smith must not run")

	last := events[len(events)-1]
	require.Equal(t, EventStageFailed, last.Kind)
	require.Equal(t, StageExpert, last.Stage)
}

func TestObserverSeesSnapshots(t *testing.T) {
	inv := &scriptedInvoker{replies: []string{"ANALYST", "gaps", "advice", "final"}}

	var completed []Event
	_, err := New(inv).Observe(ObserverFunc(func(e Event) {
		if e.Kind == EventStageCompleted {
			completed = append(completed, e)
		}
	})).Run(context.Background(), "review my essay", nil)
	require.NoError(t, err)

	require.Len(t, completed, 4)
	require.Equal(t, []string{StageTriage, StageCritic, StageExpert, StageSmith},
		[]string{completed[0].Stage, completed[1].Stage, completed[2].Stage, completed[3].Stage})
	require.Equal(t, IntentAnalyst, completed[0].Record.Intent)
	require.Nil(t, completed[0].Record.Critique)
	require.Empty(t, completed[2].Record.FinalPromptDraft)
	require.Equal(t, "final", completed[3].Record.FinalPromptDraft)
	require.Equal(t, 4, completed[3].Total)
}

func TestCancelledContextStopsBeforeNextStage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inv := &scriptedInvoker{replies: []string{"BUILDER"}}
	stages := []Stage{
		Triage{inv: inv},
		cancelStage{cancel: cancel},
		Critic{inv: inv},
	}

	_, err := New(inv, WithStages(stages...)).Run(ctx, "q", nil)
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, StageCritic, apperr.StageOf(err))
	require.Len(t, inv.calls, 1)
}

type cancelStage struct{ cancel context.CancelFunc }

func (cancelStage) Name() string { return "cancel" }

func (s cancelStage) Apply(context.Context, Record) (Update, error) {
	s.cancel()
	return Update{}, nil
}

func TestMergeKeepsEarlierFields(t *testing.T) {
	rec := NewRecord("q", nil)
	intent := IntentMentor
	rec.Merge(Update{Intent: &intent})
	crit := "gaps"
	rec.Merge(Update{Critique: &crit})
	rec.Merge(Update{})

	require.Equal(t, IntentMentor, rec.Intent)
	require.Equal(t, "gaps", rec.CritiqueText())
	crit = "mutated"
	require.Equal(t, "gaps", rec.CritiqueText())
}

func TestPersonaFallback(t *testing.T) {
	require.Equal(t, "Lead Quality Assurance & Data Analyst", PersonaFor(IntentAnalyst))
	require.Equal(t, "Helpful AI Assistant", PersonaFor(Intent("")))
}

func TestStageNames(t *testing.T) {
	require.Equal(t, []string{"triage", "critic", "expert", "smith"}, New(&scriptedInvoker{}).StageNames())
}
