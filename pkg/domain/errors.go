package domain

import "errors"

// ErrStateNotFound is returned when no session document exists for a project.
var ErrStateNotFound = errors.New("state not found")

// ErrStateCorrupt is returned when a persisted document cannot be decoded.
var ErrStateCorrupt = errors.New("state document is corrupt")

// ErrRevisionConflict is returned when a save would overwrite a newer revision.
var ErrRevisionConflict = errors.New("state revision conflict")

// ErrUnknownPhase is returned when a phase is not part of the configured vocabulary.
var ErrUnknownPhase = errors.New("unknown phase")

// ErrDuplicateID is returned when adding a task or subtask whose id already exists.
var ErrDuplicateID = errors.New("duplicate id")

// ErrUnknownTask is returned when a task id cannot be found.
var ErrUnknownTask = errors.New("unknown task")

// ErrUnknownSubtask is returned when a subtask id cannot be found.
var ErrUnknownSubtask = errors.New("unknown subtask")

// ErrNoCurrentWork is returned when an operation needs a current task or subtask.
var ErrNoCurrentWork = errors.New("no current work")

// ErrRequestExists is returned when starting a request over an unfinished one.
var ErrRequestExists = errors.New("a request is already in progress")
