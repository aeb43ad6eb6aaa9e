/*
Package storage provides persistent state storage for Gridpool.

State is kept in a single BoltDB file with three buckets: nodes, jobs,
and pending_removals. Values are JSON-encoded; keys are record ids
(node id, job id, node id respectively). The Store interface is the
narrow query contract the capacity and schedule ledgers are built on;
nothing above the ledgers touches storage directly.

	store, err := storage.NewBoltStore("/var/lib/gridpool")
	if err != nil { ... }
	defer store.Close()

Lookups that miss wrap storage.ErrNotFound so callers can separate
absence from I/O failure with errors.Is.
*/
package storage
