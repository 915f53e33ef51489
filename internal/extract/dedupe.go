package extract

import (
	"encoding/json"
)

// Deduplicate merges query-analysis responses into one, dropping structural
// duplicates.
//
// Items are compared by their canonical JSON serialization: encoding/json
// marshals map keys in sorted order, so two objects with the same fields in a
// different order produce the same fingerprint. The first occurrence wins and
// first-seen order is preserved.
func Deduplicate(responses []QueryAnalysisResponse) QueryAnalysisResponse {
	unique := make([]any, 0)
	seen := make(map[string]struct{})

	for _, response := range responses {
		for _, item := range response.Data {
			serialized, err := json.Marshal(item)
			if err != nil {
				// Unserializable items cannot be fingerprinted; keep them.
				unique = append(unique, item)
				continue
			}
			if _, ok := seen[string(serialized)]; ok {
				continue
			}
			seen[string(serialized)] = struct{}{}
			unique = append(unique, item)
		}
	}

	return QueryAnalysisResponse{Data: unique}
}
