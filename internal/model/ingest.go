package model

// IngestState tracks a filing through the ingestion state machine. It moves
// forward only, except that a failed filing may be retried back to
// in_progress by a later request.
type IngestState string

const (
	IngestNotStarted IngestState = "not_started"
	IngestInProgress IngestState = "in_progress"
	IngestReady      IngestState = "ready"
	IngestFailed     IngestState = "failed"
)

// IngestStatus is the externally visible ingestion record for one filing.
type IngestStatus struct {
	FilingID      string      `json:"filing_id"`
	State         IngestState `json:"state"`
	ChunkCount    int         `json:"chunk_count"`
	ExhibitCount  int         `json:"exhibit_count"`
	ExhibitErrors int         `json:"exhibit_errors"`
	Error         string      `json:"error,omitempty"`
}
