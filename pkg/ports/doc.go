/*
Package ports defines the driven ports (interfaces) of the waypoint orchestrator.

These interfaces decouple the core logic from external implementations, allowing
the orchestrator to work with various storage backends and lock providers.

# Key Interfaces

  - StateStore: Responsible for persisting and loading the session Document.
  - DistributedLocker: Serializes access to one project's document across processes.

RunStateStoreContract and RunLockerContract are reusable test suites every
adapter runs against.
*/
package ports
