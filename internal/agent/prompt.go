package agent

import (
	"fmt"
	"strings"
)

const fallbackPersona = "Helpful AI Assistant"

var personas = map[Intent]string{
	IntentArchitect: "Senior Solutions Architect & Strategist",
	IntentBuilder:   "Senior Software Engineer & Implementation Specialist",
	IntentMentor:    "Expert Educator & Technical Communicator",
	IntentAnalyst:   "Lead Quality Assurance & Data Analyst",
}

// PersonaFor returns the expert persona for intent. Triage guarantees a
// valid intent, so the fallback is only reached by direct callers.
func PersonaFor(intent Intent) string {
	if p, ok := personas[intent]; ok {
		return p
	}
	return fallbackPersona
}

// buildTriageSystemPrompt asks for a single intent label.
func buildTriageSystemPrompt() string {
	return strings.TrimSpace(`
You are a triage agent. Classify the user's request into exactly one cognitive mode:

1. ARCHITECT: planning, designing or strategizing a system or project (how to build, design, architecture, roadmap).
2. BUILDER: executing a concrete task right now, such as writing code or drafting text (write, code, fix, draft, generate, script).
3. MENTOR: learning or understanding a concept (explain, what is, how does it work, teach me, difference between).
4. ANALYST: reviewing, debugging or critiquing existing material (review, analyze, critique, find errors, improve this).

Reply with the mode name only, for example: ARCHITECT`)
}

// buildCriticSystemPrompt asks for the gaps in a request, never solutions.
func buildCriticSystemPrompt() string {
	return strings.TrimSpace(`
You are a meticulous prompt auditor. Find weaknesses in the user's request; do not propose solutions.

Return a bulleted list of specific gaps, each tagged with one of:
- Missing Context: background needed to understand the request (audience, language, inputs).
- Ambiguity: vague words or phrases with more than one reading.
- Undefined Constraints: missing limits, formats, length, tone or budget.
- Unclear Goal: the desired outcome is not stated.

Example
Request: "Fix this code."
- Missing Context: the programming language is not specified.
- Missing Context: the error message or observed behavior is not provided.
- Unclear Goal: the expected behavior is not described.`)
}

// buildExpertSystemPrompt renders the expert instruction for a persona and intent.
func buildExpertSystemPrompt(persona string, intent Intent) string {
	return fmt.Sprintf(strings.TrimSpace(`
You are a world-class expert acting as a %s.
Give domain-specific advice that will improve a vague request. You are not writing the final prompt; you supply the ingredients a prompt engineer will use.

Instructions:
1. Answer each critique point with a concrete recommendation.
2. Suggest precise terminology, frameworks or standards relevant to the %s mode.
3. Where technical constraints are missing (stack, audience, tone), propose strong defaults.

Return 3-5 actionable suggestions as a list, without filler.`), persona, intent)
}

// buildSmithSystemPrompt asks for the final prompt only.
func buildSmithSystemPrompt() string {
	return strings.TrimSpace(`
You are a prompt engineer. Synthesize the inputs in the user message into one high-quality prompt for a large language model.

- Rewrite the original query as a precise, self-contained prompt.
- Fold in the expert advice for technical depth.
- Close every identified gap with explicit context or constraints.
- Cover context, objective, style, tone, audience and response format.
- Where the user must still supply something, use bracketed placeholders such as [INSERT TOPIC].

Return only the refined prompt, with no preamble or reasoning.`)
}

// buildExpertUserPrompt carries intent, query and critique to the expert.
func buildExpertUserPrompt(intent Intent, query, critique string) string {
	return fmt.Sprintf(`Context:
- User's Intent Mode: %s
- Original Query: %s
- Critique (Gaps Identified): %s

Provide your expert suggestions now.`, intent, query, critique)
}

// buildSmithUserPrompt carries query, advice and critique to the smith.
func buildSmithUserPrompt(query, suggestions, critique string) string {
	return fmt.Sprintf(`Inputs for synthesis:

1. Original Query: %s
2. Expert Advice: %s
3. Identified Gaps: %s

Create the final refined prompt now.`, query, suggestions, critique)
}
