/*
Package waypoint is a phase and gate orchestrator for multi-agent coding
workflows.

A request is broken into tasks and subtasks. Each level carries a phase
(global_discovery, design, test_first, implementation, verification, ...)
and moves forward through a configurable transition table. Gates guard
entry into a phase: a gate such as "test-contract.yaml exists" blocks the
implementation phase until the contract artifact has been written for the
current work or any broader scope.

# Architecture

The core types live in pkg/domain and are free of I/O. The session state is
persisted through ports.StateStore with a revision token on every document,
so a writer that lost a race gets domain.ErrRevisionConflict instead of
silently overwriting. Adapters exist for the filesystem (default), sqlite,
redis and memory. Cross-process exclusion comes from a ports.DistributedLocker
(flock or redis).

# Usage

	orch, err := waypoint.New(".")
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if _, err := orch.Start(ctx, "add login feature", session.NewIdentity(), false); err != nil {
		log.Fatal(err)
	}
	_, _ = orch.AddTask(ctx, "T1", "design schema")
	_, _ = orch.AddSubtask(ctx, "T1", "S1", "users table")
	_, _ = orch.Focus(ctx, "T1", "S1")

	res, err := orch.Advance(ctx, waypoint.AdvanceRequest{Phase: "implementation"})
	if err != nil {
		log.Fatal(err)
	}
	if res.Blocked {
		fmt.Println(res.Reason) // Test contract is missing.
	}

The cmd/waypoint binary wraps the same operations for operators and for the
assistant host hooks (see package hook).
*/
package waypoint
