package quizgen

import (
	"fmt"
	"strings"
)

const promptHeader = `You are a quiz author. Generate quiz questions strictly from the document pages below. Follow these requirements exactly:

1. Produce the exact number of questions requested, using only the allowed question types.
2. Question formats:
   - "mcq": exactly 4 non-empty options; "answer" is the zero-based index (0-3) of the correct option.
   - "tf": a true/false statement; "options" is an empty array; "answer" is a JSON boolean.
   - "fill": a sentence with the blank written as "_____"; "options" is an empty array; "answer" is the missing word or short phrase (at most 50 characters).
3. Every question carries a short "explanation" (under 200 characters) and a "citations" array of {"page": <1-based page number>, "snippet": <verbatim supporting text, under 120 characters>} entries.
4. Cover the material broadly; do not cluster all questions on one page.
5. Make mcq distractors plausible; avoid joke options.

Respond with a single JSON object of the form:
{"questions": [{"id": "", "type": "mcq", "prompt": "...", "options": ["...","...","...","..."], "answer": 0, "explanation": "...", "citations": [{"page": 1, "snippet": "..."}]}]}`

// BuildPrompt assembles the generation prompt: the fixed authoring rules,
// the requested count and advisory per-type distribution, and the page
// texts numbered so citations can point back at them.
func BuildPrompt(pages []string, n int, enabled []QuestionType, dist map[QuestionType]int) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("\n\n")

	names := make([]string, 0, len(enabled))
	for _, t := range enabled {
		names = append(names, string(t))
	}
	fmt.Fprintf(&b, "Generate exactly %d questions. Allowed types: %s.\n", n, strings.Join(names, ", "))

	b.WriteString("Aim for this distribution: ")
	parts := make([]string, 0, len(enabled))
	for _, t := range enabled {
		parts = append(parts, fmt.Sprintf("%d %s", dist[t], t))
	}
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString(".\n\n")

	b.WriteString("Document pages:\n")
	for i, text := range pages {
		fmt.Fprintf(&b, "--- Page %d ---\n%s\n", i+1, strings.TrimSpace(text))
	}
	return b.String()
}
