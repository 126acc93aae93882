package parser

import (
	"strings"

	"docextract/internal/domain"
)

const promptInstructions = `Respond with ONLY a valid JSON object whose keys are exactly the field names listed above.
Use null for any field whose value cannot be read or determined from the document. Never guess.
Format dates as YYYY-MM-DD.
Write numbers as plain numeric values without currency symbols or thousands separators.
Write array fields as JSON arrays.
Do not wrap the JSON in markdown or code fences and do not add any explanation.`

// BuildPrompt renders the extraction instruction for a document type and schema.
// The output is a pure function of its inputs.
func BuildPrompt(documentType string, schema domain.ExtractionSchema) string {
	var b strings.Builder
	b.WriteString("You are a document data extraction assistant. Extract the following fields from the provided ")
	b.WriteString(strings.TrimSpace(documentType))
	b.WriteString(" document:\n")
	for _, f := range schema {
		b.WriteString("- ")
		b.WriteString(f.Name)
		b.WriteString(" (")
		b.WriteString(string(f.Kind))
		b.WriteString(")\n")
	}
	b.WriteString("\n")
	b.WriteString(promptInstructions)
	return b.String()
}
