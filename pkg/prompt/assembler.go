package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"capital-research-be/pkg/knowledge"
	"capital-research-be/pkg/search"
)

// snippetBudget caps each web result snippet in the assembled context.
const snippetBudget = 300

// Assembler merges knowledge hits, fan-out signals and prior conversation
// into one context block. Ordering is deliberate: curated internal knowledge
// first, noisier web signals after, and the transcript last so the model
// treats history as background rather than the primary instruction.
// Sections with no input are omitted entirely.
type Assembler struct {
	hits       []knowledge.Hit
	signals    search.Signals
	transcript string
}

func NewAssembler(hits []knowledge.Hit, signals search.Signals, transcript string) *Assembler {
	return &Assembler{
		hits:       hits,
		signals:    signals,
		transcript: transcript,
	}
}

func (a *Assembler) Build() string {
	var block strings.Builder

	a.writeKnowledge(&block)
	a.writeWebResults(&block)
	a.writeAnalysis(&block)
	a.writeMarket(&block)
	a.writeTranscript(&block)

	return strings.TrimRight(block.String(), "\n")
}

func (a *Assembler) writeKnowledge(block *strings.Builder) {
	if len(a.hits) == 0 {
		return
	}
	block.WriteString("INTERNAL KNOWLEDGE BASE:\n")
	for i, hit := range a.hits {
		fmt.Fprintf(block, "[%d] %s\n%s\n", i+1, hit.Title, hit.Content)
	}
	block.WriteString("\n")
}

func (a *Assembler) writeWebResults(block *strings.Builder) {
	if a.signals.Web == nil || (len(a.signals.Web.Results) == 0 && a.signals.Web.Answer == "") {
		return
	}
	block.WriteString("WEB SEARCH RESULTS:\n")
	for i, result := range a.signals.Web.Results {
		fmt.Fprintf(block, "%d. %s\n   %s\n   %s\n", i+1, result.Title, truncate(result.Content, snippetBudget), result.URL)
	}
	if a.signals.Web.Answer != "" {
		fmt.Fprintf(block, "Synthesized answer: %s\n", a.signals.Web.Answer)
	}
	block.WriteString("\n")
}

func (a *Assembler) writeAnalysis(block *strings.Builder) {
	if a.signals.Analysis == "" {
		return
	}
	block.WriteString("EXPERT ANALYSIS:\n")
	block.WriteString(a.signals.Analysis)
	block.WriteString("\n\n")
}

func (a *Assembler) writeMarket(block *strings.Builder) {
	if len(a.signals.Market) == 0 {
		return
	}
	block.WriteString("LIVE MARKET DATA:\n")
	for _, quote := range a.signals.Market {
		fmt.Fprintf(block, "%s: $%.2f (volume %s)\n", quote.Symbol, quote.Close, groupDigits(quote.Volume))
	}
	block.WriteString("\n")
}

func (a *Assembler) writeTranscript(block *strings.Builder) {
	if a.transcript == "" {
		return
	}
	block.WriteString("RECENT CONVERSATION:\n")
	block.WriteString(a.transcript)
	block.WriteString("\n")
}

func truncate(text string, budget int) string {
	if len(text) <= budget {
		return text
	}
	return text[:budget] + "..."
}

// groupDigits formats n with comma thousands separators.
func groupDigits(n int64) string {
	digits := strconv.FormatInt(n, 10)
	negative := strings.HasPrefix(digits, "-")
	if negative {
		digits = digits[1:]
	}

	var grouped strings.Builder
	offset := len(digits) % 3
	if offset > 0 {
		grouped.WriteString(digits[:offset])
	}
	for i := offset; i < len(digits); i += 3 {
		if grouped.Len() > 0 {
			grouped.WriteString(",")
		}
		grouped.WriteString(digits[i : i+3])
	}

	if negative {
		return "-" + grouped.String()
	}
	return grouped.String()
}
