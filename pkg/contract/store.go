// Package contract resolves contract artifacts: files whose existence signals
// that a hand-off document for a request, task or subtask has been produced.
package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/waypoint/internal/fsutil"
	"github.com/aretw0/waypoint/pkg/domain"
)

// Known contract file names.
const (
	Explored       = "explored.yaml"
	TaskBreakdown  = "task-breakdown.yaml"
	DesignBrief    = "design-brief.yaml"
	DesignContract = "design-contract.yaml"
	TestContract   = "test-contract.yaml"
	TestResult     = "test-result.yaml"
)

var knownNames = map[string]struct{}{
	Explored:       {},
	TaskBreakdown:  {},
	DesignBrief:    {},
	DesignContract: {},
	TestContract:   {},
	TestResult:     {},
}

// Scope addresses a level of the request/task/subtask hierarchy.
// A SubtaskID is only meaningful together with a TaskID.
type Scope struct {
	RequestID string
	TaskID    string
	SubtaskID string
}

// ScopeOf builds a Scope from a work pointer.
func ScopeOf(w domain.WorkPointer) Scope {
	return Scope{RequestID: w.RequestID, TaskID: w.TaskID, SubtaskID: w.SubtaskID}
}

func (s Scope) String() string {
	parts := []string{s.requestID()}
	if s.TaskID != "" {
		parts = append(parts, s.TaskID)
		if s.SubtaskID != "" {
			parts = append(parts, s.SubtaskID)
		}
	}
	return strings.Join(parts, "/")
}

func (s Scope) requestID() string {
	if s.RequestID == "" {
		return domain.DefaultRequestID
	}
	return s.RequestID
}

// Store resolves contract artifacts under a contracts directory laid out as
// <dir>/<request>[/<task>[/<subtask>]]/<name>.
type Store struct {
	Dir string
}

// New creates a Store rooted at dir.
func New(dir string) *Store {
	return &Store{Dir: dir}
}

// Candidates returns the paths probed for name, most specific first.
// It returns nil when the name or any id is not a single safe path element.
func (s *Store) Candidates(name string, scope Scope) []string {
	if !safeElem(name) || !safeElem(scope.requestID()) {
		return nil
	}
	reqDir := filepath.Join(s.Dir, scope.requestID())

	var paths []string
	if scope.TaskID != "" {
		if !safeElem(scope.TaskID) {
			return nil
		}
		if scope.SubtaskID != "" {
			if !safeElem(scope.SubtaskID) {
				return nil
			}
			paths = append(paths, filepath.Join(reqDir, scope.TaskID, scope.SubtaskID, name))
		}
		paths = append(paths, filepath.Join(reqDir, scope.TaskID, name))
	}
	return append(paths, filepath.Join(reqDir, name))
}

// Exists reports whether name exists at the scope or at any broader scope.
// Nonexistence is a normal result, never an error.
func (s *Store) Exists(name string, scope Scope) bool {
	_, ok := s.Find(name, scope)
	return ok
}

// Find returns the first existing candidate path.
func (s *Store) Find(name string, scope Scope) (string, bool) {
	for _, p := range s.Candidates(name, scope) {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// Path returns the most specific location of name for scope.
func (s *Store) Path(name string, scope Scope) (string, error) {
	c := s.Candidates(name, scope)
	if len(c) == 0 {
		return "", fmt.Errorf("invalid contract name or scope: %q at %s", name, scope)
	}
	return c[0], nil
}

// Write stores an artifact atomically at the most specific location of scope.
func (s *Store) Write(name string, scope Scope, data []byte) (string, error) {
	p, err := s.Path(name, scope)
	if err != nil {
		return "", err
	}
	if err := fsutil.WriteFileAtomic(p, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write contract %s: %w", name, err)
	}
	return p, nil
}

// IsContractFile reports whether path names a known contract artifact.
func IsContractFile(path string) bool {
	if path == "" {
		return false
	}
	_, ok := knownNames[filepath.Base(path)]
	return ok
}

func safeElem(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	if strings.ContainsAny(s, `/\`) || strings.Contains(s, "..") {
		return false
	}
	return filepath.Base(s) == s
}
