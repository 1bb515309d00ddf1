// Package core provides the foundational domain types and contracts used by
// go-react-agent. It defines the core abstractions for:
//
//   - Messages (a closed set of conversation item payloads)
//   - BranchItems (immutable persisted units forming branching histories)
//   - Events (immutable records streamed to callers during a run)
//   - BranchStore (the storage contract for branch-structured threads)
//   - The error taxonomy shared by engine and stores
//
// The package intentionally keeps implementation concerns (persistence, model
// transports, the run loop) out of scope, exposing small interfaces to enable
// custom backends and extensions.
package core
