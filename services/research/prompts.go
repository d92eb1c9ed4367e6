package research

import (
	"fmt"
	"strings"

	"seoassist-backend/services/suggest"
)

// every prompt demands a bare JSON object; the extractor still tolerates
// models that wrap it in fences or chatter anyway

const competitionSystemPrompt = `You are an SEO analyst. Answer with a single JSON object and nothing else: no prose before or after it, no markdown fences.`

const rankingSystemPrompt = `You are an SEO content auditor. Answer with a single JSON object and nothing else: no prose before or after it, no markdown fences.`

const strategySystemPrompt = `You are an SEO content strategist. Answer with a single JSON object and nothing else: no prose before or after it, no markdown fences.`

// maxEvidencePhrases bounds prompt size; past this point more phrases
// stop changing the verdict
const maxEvidencePhrases = 40

func writePhraseList(b *strings.Builder, label string, suggestions []suggest.Suggestion) {
	b.WriteString(label)
	b.WriteString("\n")
	if len(suggestions) == 0 {
		b.WriteString("(none found)\n")
		return
	}
	if len(suggestions) > maxEvidencePhrases {
		suggestions = suggestions[:maxEvidencePhrases]
	}
	for _, s := range suggestions {
		fmt.Fprintf(b, "- %s\n", s.Phrase)
	}
}

func competitionPrompt(keyword string, suggestions []suggest.Suggestion) string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "Target keyword: %q\n\n", keyword)
	writePhraseList(&b, "Autocomplete phrases real users type around this keyword:", suggestions)
	b.WriteString(`
Estimate how hard it is for a new site to rank for the target keyword.
Respond with this JSON shape:
{
  "score": <integer 0-100, higher means more competitive>,
  "tier": "low" | "medium" | "high",
  "rationale": "<2-3 sentences>",
  "top_competitors": ["<kind of site currently winning this keyword>", ...],
  "easier_alternatives": ["<longer-tail keyword from the phrase list with weaker competition>", ...]
}`)
	return b.String()
}

func rankingPrompt(keyword string, profile PageProfile) string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "Target keyword: %q\n\n", keyword)
	b.WriteString("Measured profile of the page being audited:\n")
	fmt.Fprintf(&b, "- title: %q\n", profile.Title)
	fmt.Fprintf(&b, "- meta description: %q\n", profile.Description)
	fmt.Fprintf(&b, "- word count: %d\n", profile.WordCount)
	fmt.Fprintf(&b, "- headings: %d\n", profile.HeadingCount)
	fmt.Fprintf(&b, "- links: %d\n", profile.LinkCount)
	fmt.Fprintf(&b, "- exact keyword occurrences in body text: %d\n", profile.KeywordHits)
	b.WriteString(`
Judge how well this page could rank for the target keyword.
Respond with this JSON shape:
{
  "score": <integer 0-100>,
  "strengths": ["<what the page already does well>", ...],
  "weaknesses": ["<what holds it back>", ...],
  "actions": ["<concrete edit to make, most impactful first>", ...]
}`)
	return b.String()
}

func strategyPrompt(keyword string, expanded, questions []suggest.Suggestion) string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "Target keyword: %q\n\n", keyword)
	writePhraseList(&b, "Autocomplete phrases around this keyword:", expanded)
	b.WriteString("\n")
	writePhraseList(&b, "Questions and comparisons people search:", questions)
	b.WriteString(`
Group this evidence into a content plan.
Respond with this JSON shape:
{
  "clusters": [
    {
      "topic": "<cluster name>",
      "intent": "informational" | "commercial" | "transactional" | "navigational",
      "titles": ["<article title to write>", ...]
    },
    ...
  ],
  "summary": "<2-3 sentences on where the opportunity is>"
}`)
	return b.String()
}
