// Package match decides which candidate listing best fits each catalog
// product, delegating the judgement to a language model.
package match

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// Outcome is the kind of decision an oracle returns.
type Outcome int

const (
	NoMatch Outcome = iota
	Matched
)

func (o Outcome) String() string {
	if o == Matched {
		return "matched"
	}
	return "no_match"
}

// Decision is the oracle's answer for one search term. Name is set only when
// Outcome is Matched.
type Decision struct {
	Outcome Outcome
	Name    string
}

// MatchedName builds a Matched decision.
func MatchedName(name string) Decision { return Decision{Outcome: Matched, Name: name} }

// Oracle makes the two language-model judgements the pipeline needs.
type Oracle interface {
	// ChooseBestMatch picks the candidate name that best fits term.
	ChooseBestMatch(ctx context.Context, term string, candidates []string) (Decision, error)
	// CleanSearchTerm strips size and temperature qualifiers from term.
	CleanSearchTerm(ctx context.Context, term string) (string, error)
}

// Completer is a single-turn chat completion: system instruction plus one
// user prompt in, one text reply out.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// NoMatchPhrase is what the model is told to answer when nothing fits.
const NoMatchPhrase = "No match"

const (
	matchSystem = "You are a world class AI name matching expert. If you can't find a match, respond with '" + NoMatchPhrase + "'."
	cleanSystem = "You are a world class AI assistant."
)

// LLMOracle implements Oracle over a Completer.
type LLMOracle struct {
	llm Completer
}

// NewLLMOracle wraps a completer.
func NewLLMOracle(llm Completer) *LLMOracle {
	return &LLMOracle{llm: llm}
}

// ChooseBestMatch asks the model for the best candidate. Any reply containing
// the no-match phrase is NoMatch; every other reply is taken verbatim as the
// chosen name and validated by the caller.
func (o *LLMOracle) ChooseBestMatch(ctx context.Context, term string, candidates []string) (Decision, error) {
	reply, err := o.llm.Complete(ctx, matchSystem, BuildMatchPrompt(term, candidates))
	if err != nil {
		return Decision{}, eris.Wrapf(err, "match: choose best match for %q", term)
	}
	return ParseDecision(reply), nil
}

// CleanSearchTerm asks the model to drop ml/oz sizes and degree tokens.
func (o *LLMOracle) CleanSearchTerm(ctx context.Context, term string) (string, error) {
	reply, err := o.llm.Complete(ctx, cleanSystem, BuildCleanupPrompt(term))
	if err != nil {
		return "", eris.Wrapf(err, "match: clean search term %q", term)
	}
	return TrimReply(reply), nil
}

// ParseDecision converts a raw model reply into a Decision. Empty replies are
// NoMatch.
func ParseDecision(reply string) Decision {
	reply = TrimReply(reply)
	if reply == "" || strings.Contains(reply, NoMatchPhrase) {
		return Decision{Outcome: NoMatch}
	}
	return MatchedName(reply)
}

// TrimReply strips surrounding whitespace and quote characters.
func TrimReply(s string) string {
	return strings.Trim(strings.TrimSpace(s), `'"`)
}

// BuildMatchPrompt renders the best-match question for one search term.
func BuildMatchPrompt(term string, candidates []string) string {
	var b strings.Builder
	b.WriteString("The search term is: ")
	b.WriteString(term)
	b.WriteString("\n\nThe list of items is:\n")
	for _, c := range candidates {
		b.WriteString(c)
		b.WriteString(", ")
	}
	b.WriteString("\n\nPay attention to the measurement units and use them to determine the best match for the search term. Convert between metric and imperial units if necessary.\n")
	b.WriteString("Pay more attention to the description of the item and less to the measurement units.\n")
	b.WriteString("Respond with the item name only. What is the best match for the search term?\n")
	return b.String()
}

// BuildCleanupPrompt renders the search-term cleanup instruction.
func BuildCleanupPrompt(term string) string {
	var b strings.Builder
	b.WriteString("The search term is: ")
	b.WriteString(term)
	b.WriteString("\n\nRemove any references to sizing in ml / oz.\n")
	b.WriteString("Remove any reference to degrees °.\n")
	b.WriteString("Respond with the cleaned search term and nothing else.\n")
	return b.String()
}
