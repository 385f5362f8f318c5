package entity

import "github.com/fieldstack/docextract/internal/schema"

// Record is a structured field-map produced by the extractor: field name to
// field value, plus the two reserved keys documentType and extractedAt.
// Never mutated after creation.
type Record map[string]string

// DocumentType returns the category tag stamped by the extractor.
func (r Record) DocumentType() string {
	return r[schema.KeyDocumentType]
}

// ExtractedAt returns the extraction timestamp (RFC 3339).
func (r Record) ExtractedAt() string {
	return r[schema.KeyExtractedAt]
}

// FieldCount counts extracted fields, excluding the reserved keys.
func (r Record) FieldCount() int {
	n := 0
	for k := range r {
		if k == schema.KeyDocumentType || k == schema.KeyExtractedAt {
			continue
		}
		n++
	}
	return n
}

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
