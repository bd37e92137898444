package run

import (
	"fmt"

	"github.com/goccy/go-json"

	"nhanesci/domain/core"
)

// ContentHash hashes the JSON form of v; map keys are sorted so equal values hash equally
func ContentHash(v any) (core.Hash, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("content hash: %w", err)
	}
	return core.NewHash(data), nil
}

// computeReplayHash combines every input that determines the numbers of a report
func computeReplayHash(dataset core.DatasetFingerprint, codebook, requests core.Hash, codeVersion string) core.Hash {
	data := fmt.Sprintf("dataset:%s|codebook:%s|requests:%s|code:%s", dataset, codebook, requests, codeVersion)
	return core.NewHash([]byte(data))
}
