package server

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// applyMergePatch applies an RFC 7396 merge patch to the JSON form of
// current and decodes the result back into a T.
func applyMergePatch[T any](current T, patchJSON []byte) (T, error) {
	var zero T

	currentJSON, err := json.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("failed to marshal current state: %w", err)
	}

	mergedJSON, err := jsonpatch.MergePatch(currentJSON, patchJSON)
	if err != nil {
		return zero, fmt.Errorf("failed to apply merge patch: %w", err)
	}

	var out T
	if err := json.Unmarshal(mergedJSON, &out); err != nil {
		return zero, fmt.Errorf("failed to decode patched state: %w", err)
	}
	return out, nil
}
