package entity

// EvaluationResult is the output of the heuristic quality evaluator.
// Computed fresh on every call; not persisted as its own entity.
type EvaluationResult struct {
	IsValid bool    `json:"is_valid"`
	Score   float64 `json:"score"` // composite, 0-100

	Completeness     float64 `json:"completeness"`
	FieldAccuracy    float64 `json:"field_accuracy"`
	FormatCompliance float64 `json:"format_compliance"`
	DataQuality      float64 `json:"data_quality"`

	// Confidence is the optional model-derived relevancy score (0-100).
	// nil means not measured, which is distinct from measured-as-zero.
	Confidence *float64 `json:"confidence,omitempty"`

	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	QualityIssues []string `json:"quality_issues"`

	FieldsPresent int      `json:"fields_present"`
	MissingFields []string `json:"missing_fields"`
	DocumentType  string   `json:"document_type"`
}
