/*
Package session implements session management over snapshot stores.

It serializes access to each session's snapshot within a process with
reference-counted locks and, when configured with a ports.DistributedLocker,
across replicas sharing the same store.
*/
package session
