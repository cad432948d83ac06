// Package calllog contains concrete core.CallLogStore implementations. The
// store interface and the CallRecord type reside in the core package; select
// an implementation at wiring time:
//
//   - InMemoryStore for tests and demos
//   - JSONLStore appending one JSON object per line to a file
//   - SQLiteStore persisting records in the llm_calls table
//
// Stores are append-only. Nothing in the dispatch path reads records back.
package calllog
