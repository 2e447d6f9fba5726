// Package codec encodes session documents for the persistence adapters.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/waypoint/pkg/domain"
)

type revisionHeader struct {
	Revision int64 `json:"revision"`
}

// Encode marshals doc as it will be stored at revision rev.
// The caller's document is not modified.
func Encode(doc *domain.Document, rev int64, indent bool) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("document cannot be nil")
	}
	next := *doc
	next.Revision = rev
	var (
		data []byte
		err  error
	)
	if indent {
		data, err = json.MarshalIndent(&next, "", "  ")
	} else {
		data, err = json.Marshal(&next)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	return data, nil
}

// Decode unmarshals a stored document. Malformed input yields an error
// wrapping domain.ErrStateCorrupt.
func Decode(data []byte) (*domain.Document, error) {
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStateCorrupt, err)
	}
	return &doc, nil
}

// Revision reads only the revision of a stored document.
// An undecodable document counts as revision 0 so that it can be overwritten.
func Revision(data []byte) int64 {
	var h revisionHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return 0
	}
	return h.Revision
}

// Check returns domain.ErrRevisionConflict when stored is newer than doc.
func Check(stored int64, doc *domain.Document) error {
	if stored > doc.Revision {
		return fmt.Errorf("%w: stored %d, document %d", domain.ErrRevisionConflict, stored, doc.Revision)
	}
	return nil
}
