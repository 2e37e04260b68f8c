package ir

// Version constants for the model schema and engine.
const (
	// ModelVersion is the model definition schema version.
	ModelVersion = "1"

	// EngineVersion is the ctslab engine version.
	EngineVersion = "0.1.0"
)
