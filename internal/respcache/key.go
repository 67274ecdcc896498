package respcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Params identifies one provider call for caching purposes. Two calls with
// the same provider, model, prompt and extra parameters share a cache entry.
type Params struct {
	Provider string         `json:"provider"`
	Model    string         `json:"model"`
	Prompt   string         `json:"prompt"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// Key derives the deterministic cache key for the params. The JSON encoding
// sorts map keys, so the same parameters always hash to the same key no
// matter how the Extra map was built.
func (p Params) Key() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode cache params: %w", err)
	}

	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:]), nil
}
