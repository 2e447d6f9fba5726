/*
Package session implements the session lifecycle: who owns the persisted
document, how a new request is initialized, and how concurrent invocations
perform load-mutate-save cycles safely.

The live session identity is an explicit Identity value. The only shared
state between invocations is the identity file (~/.waypoint-session-id) and
the persisted document itself.
*/
package session
