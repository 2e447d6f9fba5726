// Package project identifies a project by its working directory and maps it
// onto the persisted layout of sessions, contracts, knowledge and metrics.
package project

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path/filepath"
)

// DefaultBaseDir is the directory, relative to the project root, holding all
// persisted orchestrator data.
const DefaultBaseDir = ".waypoint"

// Handle is the stable identity of a project.
type Handle struct {
	// Root is the absolute working-directory path.
	Root string
	// Hash is the first 8 hex characters of the MD5 of Root.
	Hash string
}

// NewHandle resolves dir to an absolute path and derives its hash.
func NewHandle(dir string) (Handle, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Handle{}, fmt.Errorf("failed to resolve project dir: %w", err)
	}
	return Handle{Root: abs, Hash: Hash(abs)}, nil
}

// Hash returns the project hash of an absolute path.
func Hash(absPath string) string {
	sum := md5.Sum([]byte(absPath))
	return hex.EncodeToString(sum[:])[:8]
}

// Layout maps a project onto filesystem paths.
type Layout struct {
	Handle Handle
	// Base is the absolute base directory (default <root>/.waypoint).
	Base string
}

// NewLayout returns the layout of h under baseDir. A relative baseDir is
// resolved against the project root; an empty one uses DefaultBaseDir.
func NewLayout(h Handle, baseDir string) Layout {
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}
	if !filepath.IsAbs(baseDir) {
		baseDir = filepath.Join(h.Root, baseDir)
	}
	return Layout{Handle: h, Base: baseDir}
}

// SessionsDir holds one directory per project hash.
func (l Layout) SessionsDir() string {
	return filepath.Join(l.Base, "sessions")
}

// SessionDir is the directory of this project's session.
func (l Layout) SessionDir() string {
	return filepath.Join(l.SessionsDir(), l.Handle.Hash)
}

// StatePath is the session document.
func (l Layout) StatePath() string {
	return filepath.Join(l.SessionDir(), "state.json")
}

// LockPath is the lock file scoped to the session document.
func (l Layout) LockPath() string {
	return filepath.Join(l.SessionDir(), "state.lock")
}

// ContractsDir is the root of the contract artifact tree.
func (l Layout) ContractsDir() string {
	return filepath.Join(l.SessionDir(), "contracts")
}

// KnowledgePath is the knowledge document of the project.
func (l Layout) KnowledgePath() string {
	return filepath.Join(l.Base, "knowledge", l.Handle.Hash, "knowledge.yaml")
}

// MetricsPath is the prometheus textfile of the project.
func (l Layout) MetricsPath() string {
	return filepath.Join(l.Base, "metrics", l.Handle.Hash+".prom")
}

// DatabasePath is the default sqlite database location.
func (l Layout) DatabasePath() string {
	return filepath.Join(l.Base, "waypoint.db")
}
