package entity

import "time"

// Document is the persisted envelope around one extracted record.
type Document struct {
	ID           int64            `json:"id"`
	ProcessedAt  time.Time        `json:"processed_at"`
	SourceLabel  string           `json:"source_label"`
	DocumentType string           `json:"document_type"`
	Extracted    Record           `json:"extracted_data"`
	Metadata     DocumentMetadata `json:"metadata"`
}

type DocumentMetadata struct {
	ExtractedFieldCount int `json:"extracted_field_count"`
}
