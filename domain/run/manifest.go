package run

import (
	"fmt"
	"time"

	"nhanesci/domain/core"
)

// Manifest records what one calculator invocation read and asked for.
// Two runs with the same ReplayHash produce the same estimates.
type Manifest struct {
	RunID        core.RunID              `json:"run_id"`
	Source       string                  `json:"source"`
	Fingerprint  core.DatasetFingerprint `json:"fingerprint"` // sha256 of the input file
	CodebookHash core.Hash               `json:"codebook_hash"`
	RequestHash  core.Hash               `json:"request_hash"`
	CodeVersion  string                  `json:"code_version"`
	ReplayHash   core.Hash               `json:"replay_hash"`
	CreatedAt    time.Time               `json:"created_at"`
}

// NewManifest hashes the codebook and requests and derives the replay hash
func NewManifest(runID core.RunID, source string, dataset core.DatasetFingerprint,
	codebook, requests any, codeVersion string, createdAt time.Time) (*Manifest, error) {

	codebookHash, err := ContentHash(codebook)
	if err != nil {
		return nil, err
	}
	requestHash, err := ContentHash(requests)
	if err != nil {
		return nil, err
	}

	return &Manifest{
		RunID:        runID,
		Source:       source,
		Fingerprint:  dataset,
		CodebookHash: codebookHash,
		RequestHash:  requestHash,
		CodeVersion:  codeVersion,
		ReplayHash:   computeReplayHash(dataset, codebookHash, requestHash, codeVersion),
		CreatedAt:    createdAt,
	}, nil
}

// Validate checks the manifest is complete
func (m *Manifest) Validate() error {
	switch {
	case core.ID(m.RunID).IsEmpty():
		return fmt.Errorf("%w: run_id cannot be empty", core.ErrInvalidManifest)
	case core.Hash(m.Fingerprint).IsEmpty():
		return fmt.Errorf("%w: dataset fingerprint cannot be empty", core.ErrInvalidManifest)
	case m.CodeVersion == "":
		return fmt.Errorf("%w: code_version cannot be empty", core.ErrInvalidManifest)
	case m.ReplayHash != computeReplayHash(m.Fingerprint, m.CodebookHash, m.RequestHash, m.CodeVersion):
		return fmt.Errorf("%w: replay hash does not match its inputs", core.ErrInvalidManifest)
	}
	return nil
}
