/*
Package ports defines the driven ports (interfaces) of canopy.

These interfaces decouple runners and tools from concrete storage, allowing the
same workflow tree to be persisted in memory, on disk, in Redis or in a blob bucket.

# Key Interfaces

  - SnapshotStore: persists and loads the root snapshot of a session.
  - DistributedLocker: provides distributed locking for concurrent session access.

RunSnapshotStoreContract is a reusable test suite every SnapshotStore adapter runs.
*/
package ports
