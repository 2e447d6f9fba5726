/*
Package domain contains the core domain model of the waypoint orchestrator.

It defines the session document that tracks a single user request as it is
decomposed into tasks and subtasks, the progress aggregation rules derived
from that document, and the events emitted when gates are evaluated or phases
change. This package is kept pure and free of I/O, following Hexagonal
Architecture principles: persistence, configuration and the process boundary
live in adapters.

# Key Entities

  - Document: the root aggregate persisted per project (Request, TaskOrder, Tasks).
  - Task / Subtask: ordered units of work with a status and an optional phase.
  - WorkPointer: the resolved (task, subtask, phase) triple currently in progress.
  - LifecycleHooks: observability callbacks for gate and phase events.
*/
package domain
