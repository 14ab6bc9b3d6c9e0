// Package inmemorystore provides an ephemeral, thread-safe, in-memory store
// of per-file analysis state for one batch run.
//
// # Concurrency Model
//
// Every file is written by exactly one worker while the batch is running,
// and read by the executor once all workers are done. Keys are independent,
// so the store uses sync.Map for fine-grained concurrent access without a
// global lock.
//
// For batches that must survive a restart a persistent implementation would
// be needed.
package inmemorystore
