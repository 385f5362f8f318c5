package schema

import (
	"fmt"
	"strings"

	"github.com/fieldstack/docextract/constants"
	"github.com/fieldstack/docextract/internal/common"
)

// FieldKind drives both extraction prompt guidance and the evaluator's
// format-compliance checks.
type FieldKind string

const (
	FreeText         FieldKind = "free-text"
	Date             FieldKind = "date"
	CurrencyAmount   FieldKind = "currency-amount"
	Email            FieldKind = "email"
	IdentifierNumber FieldKind = "identifier-number"
)

// Field is one required field of a document schema.
type Field struct {
	Name        string
	Kind        FieldKind
	Description string
}

// DocumentSchema is the ordered set of required fields for one category.
// Immutable; defined at process start for exactly three categories.
type DocumentSchema struct {
	Type constants.DocumentType

	// Fields is ordered; prompt construction and evaluation iterate in this order.
	Fields []Field

	// PrimarySentinel is the placeholder the strict extraction prompt instructs
	// the model to emit for fields it cannot locate.
	PrimarySentinel string
}

// Reserved record keys stamped by the extractor. Every other key in a record
// must appear in its schema's required-field list.
const (
	KeyDocumentType = "documentType"
	KeyExtractedAt  = "extractedAt"
)

// FallbackSentinel is the placeholder used by the permissive fallback prompt.
const FallbackSentinel = "Unknown"

var registry = map[constants.DocumentType]DocumentSchema{
	constants.Invoice: {
		Type:            constants.Invoice,
		PrimarySentinel: "Not found",
		Fields: []Field{
			{Name: "client", Kind: FreeText, Description: "name of the client or company being billed"},
			{Name: "invoiceNumber", Kind: IdentifierNumber, Description: "invoice number or reference identifier"},
			{Name: "totalAmount", Kind: CurrencyAmount, Description: "total amount due, including currency symbol if shown"},
			{Name: "currency", Kind: FreeText, Description: "currency of the invoice (e.g. USD, EUR)"},
			{Name: "dueDate", Kind: Date, Description: "payment due date"},
		},
	},
	constants.Contract: {
		Type:            constants.Contract,
		PrimarySentinel: "Not specified",
		Fields: []Field{
			{Name: "clientName", Kind: FreeText, Description: "name of the client party to the agreement"},
			{Name: "startDate", Kind: Date, Description: "contract start or effective date"},
			{Name: "endDate", Kind: Date, Description: "contract end or termination date"},
			{Name: "paymentTerms", Kind: FreeText, Description: "payment terms (e.g. net 30, monthly retainer)"},
			{Name: "projectName", Kind: FreeText, Description: "name or description of the project or engagement"},
		},
	},
	constants.Receipt: {
		Type:            constants.Receipt,
		PrimarySentinel: "Not found",
		Fields: []Field{
			{Name: "date", Kind: Date, Description: "transaction date"},
			{Name: "customerEmail", Kind: Email, Description: "customer email address"},
			{Name: "amount", Kind: CurrencyAmount, Description: "amount paid, including currency symbol if shown"},
			{Name: "description", Kind: FreeText, Description: "description of the purchased item or service"},
		},
	},
}

// For returns the schema registered for the given category.
func For(t constants.DocumentType) (DocumentSchema, error) {
	s, ok := registry[t]
	if !ok {
		return DocumentSchema{}, fmt.Errorf("%w: %q", common.ErrUnsupportedCategory, string(t))
	}
	return s, nil
}

// FieldNames returns the required field names in schema order.
func (s DocumentSchema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Field looks up a required field by name.
func (s DocumentSchema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// JSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map,
// used to validate stamped extraction output. Every required field must be a
// non-empty string; the two reserved keys must be present as well.
func (s DocumentSchema) JSONSchema() map[string]any {
	props := map[string]any{
		KeyDocumentType: map[string]any{"type": "string", "enum": []any{string(s.Type)}},
		KeyExtractedAt:  map[string]any{"type": "string", "minLength": 1},
	}
	required := make([]string, 0, len(s.Fields)+2)
	for _, f := range s.Fields {
		props[f.Name] = map[string]any{"type": "string", "minLength": 1}
		required = append(required, f.Name)
	}
	required = append(required, KeyDocumentType, KeyExtractedAt)

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

// Placeholder sentinels recognized by the evaluator. Defined once here so the
// extractor's prompt vocabulary and the evaluator's scoring cannot drift.
var placeholders = map[string]struct{}{
	"not found":     {},
	"unknown":       {},
	"not specified": {},
}

var extendedPlaceholders = map[string]struct{}{
	"not found":     {},
	"unknown":       {},
	"not specified": {},
	"n/a":           {},
	"null":          {},
}

// IsPlaceholder reports whether value is one of the core placeholder sentinels
// (case-insensitive).
func IsPlaceholder(value string) bool {
	_, ok := placeholders[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

// IsPlaceholderExtended checks the extended sentinel set used by the
// field-accuracy heuristic.
func IsPlaceholderExtended(value string) bool {
	_, ok := extendedPlaceholders[strings.ToLower(strings.TrimSpace(value))]
	return ok
}
