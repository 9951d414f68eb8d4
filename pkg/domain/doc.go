/*
Package domain contains the data model shared by the canopy runtime and its adapters.

It is kept free of I/O so that stores, servers and the core can all depend on it.

# Key Entities

  - Action: a pure transform from state to (next state, optional output).
  - Identity: the (type tag, key) pair naming a child workflow within its parent.
  - Snapshot: a nested capture of a tree's state, encoded deterministically with CBOR.
  - LifecycleHooks: observability callbacks fired by the runtime.
*/
package domain
