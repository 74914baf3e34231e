/*
Package session runs machine operations against persisted snapshots.

A StateMachine is not safe for concurrent use, so the Manager serializes all
calls for one machine ID (in-process mutex plus an optional distributed lock),
loads the snapshot, applies the operation on a fresh machine and saves the
result only when the operation changed something.
*/
package session
