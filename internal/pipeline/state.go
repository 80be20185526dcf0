package pipeline

// State is the phase the pipeline is currently in. Pollers read it through
// Pipeline.State(); transitions happen only inside Run.
type State string

const (
	StateIdle       State = "idle"
	StateScraping   State = "scraping"
	StateFiltering  State = "filtering"
	StateEnriching  State = "enriching"
	StateScoring    State = "scoring"
	StatePersisting State = "persisting"
	StateExporting  State = "exporting"
	StateFailed     State = "failed"
)
