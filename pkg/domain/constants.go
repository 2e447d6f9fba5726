package domain

const (
	// SchemaVersion is written to every new document.
	SchemaVersion = 1

	// DefaultRequestID is used when a document or pointer carries no request id.
	DefaultRequestID = "R1"

	// InitialGlobalPhase is the phase a fresh request starts in.
	InitialGlobalPhase = "global_discovery"
)

// Default phase vocabulary.
const (
	PhaseGlobalDiscovery = "global_discovery"
	PhaseMerge           = "merge"
	PhaseDiscovery       = "discovery"
	PhaseDesign          = "design"
	PhaseTestFirst       = "test_first"
	PhaseImplementation  = "implementation"
	PhaseVerification    = "verification"
	PhaseComplete        = "complete"
)
