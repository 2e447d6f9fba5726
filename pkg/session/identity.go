package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/waypoint/internal/fsutil"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/google/uuid"
)

// IdentityFileName is the well-known file, in the user's home directory,
// carrying the live session id between invocations.
const IdentityFileName = ".waypoint-session-id"

// Identity is the id of the live interactive session. It is passed
// explicitly; the identity file is only a handoff between invocations.
type Identity struct {
	ID string
}

// NewIdentity mints a fresh random identity.
func NewIdentity() Identity {
	return Identity{ID: uuid.NewString()}
}

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool {
	return i.ID == ""
}

// IdentityFile persists an Identity outside any project tree.
type IdentityFile struct {
	Path string
}

// DefaultIdentityFile returns the identity file in the user's home directory.
func DefaultIdentityFile() (IdentityFile, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return IdentityFile{}, fmt.Errorf("failed to get home directory: %w", err)
	}
	return IdentityFile{Path: filepath.Join(home, IdentityFileName)}, nil
}

// Read returns the recorded identity. A missing file yields the zero identity.
func (f IdentityFile) Read() (Identity, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Identity{}, nil
		}
		return Identity{}, fmt.Errorf("failed to read session id: %w", err)
	}
	return Identity{ID: strings.TrimSpace(string(data))}, nil
}

// Write records the identity.
func (f IdentityFile) Write(id Identity) error {
	if id.IsZero() {
		return fmt.Errorf("refusing to record an empty session id")
	}
	if err := fsutil.WriteFileAtomic(f.Path, []byte(id.ID+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write session id: %w", err)
	}
	return nil
}

// IsSameSession reports whether doc belongs to the live session.
// Both ids must be present and equal.
func IsSameSession(doc *domain.Document, id Identity) bool {
	if doc == nil || id.IsZero() || doc.Request.SessionID == "" {
		return false
	}
	return doc.Request.SessionID == id.ID
}

// NewDocument builds a fresh document for requestText owned by id.
func NewDocument(requestText string, id Identity, now time.Time) *domain.Document {
	return domain.NewDocument(requestText, id.ID, now)
}
