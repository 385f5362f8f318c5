package constants

// Stage is the canonical per-document pipeline state.
type Stage string

// Stable values (these exact strings appear in logs and stored metadata).
const (
	StageValidated     Stage = "VALIDATED"
	StageTextExtracted Stage = "TEXT_EXTRACTED"
	StageClassified    Stage = "CLASSIFIED"
	StageExtracted     Stage = "EXTRACTED"
	StagePersisted     Stage = "PERSISTED"
	StageEvaluated     Stage = "EVALUATED"
	StageFailed        Stage = "FAILED"
)
