package extract

import (
	"strings"

	"github.com/fieldstack/docextract/constants"
	"github.com/fieldstack/docextract/internal/schema"
)

// textLimit bounds the document excerpt embedded in extraction prompts.
const textLimit = 4000

// maxTokensFor returns the output-token budget per category. Extraction
// payloads are short; the budget differs slightly with field count.
func maxTokensFor(t constants.DocumentType) int {
	switch t {
	case constants.Contract:
		return 350
	case constants.Invoice:
		return 300
	default:
		return 250
	}
}

// buildPrimaryPrompt composes the strict extraction prompt: exact field names,
// per-field descriptions, the category's sentinel for anything the model
// cannot locate, and JSON-only output.
func buildPrimaryPrompt(s schema.DocumentSchema, text string) string {
	var b strings.Builder
	b.WriteString("Extract the following fields from this ")
	b.WriteString(string(s.Type))
	b.WriteString(" document:\n\n")
	for _, f := range s.Fields {
		b.WriteString("- ")
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(f.Description)
		b.WriteString("\n")
	}
	b.WriteString("\nReturn a JSON object using exactly those field names. ")
	b.WriteString("All values must be strings. If a field cannot be located, use \"")
	b.WriteString(s.PrimarySentinel)
	b.WriteString("\" as its value. Return ONLY the JSON object, no other text.\n\nDocument:\n")
	b.WriteString(clip(text))
	return b.String()
}

// buildFallbackPrompt is the permissive retry: same field list, simpler
// phrasing, the shared fallback sentinel.
func buildFallbackPrompt(s schema.DocumentSchema, text string) string {
	var b strings.Builder
	b.WriteString("Read this ")
	b.WriteString(string(s.Type))
	b.WriteString(" and fill in a JSON object with these keys: ")
	b.WriteString(strings.Join(s.FieldNames(), ", "))
	b.WriteString(".\nUse \"")
	b.WriteString(schema.FallbackSentinel)
	b.WriteString("\" for anything you can't find. Every value must be a string. ")
	b.WriteString("Output just the JSON.\n\nText:\n")
	b.WriteString(clip(text))
	return b.String()
}

func clip(text string) string {
	if len(text) > textLimit {
		return text[:textLimit]
	}
	return text
}
