// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the pipeline to function:
//
//   - TokenCounter: Deterministic token counting. Chunk size bounds are
//     meaningless without it, so there is no fallback.
//   - EmbeddingService: Maps text to fixed-dimension vectors.
//   - VectorStore: Upsert and nearest-neighbour query over named collections.
//   - ChunkSetStore: All-or-nothing persistence of a document's chunk set.
//   - ConfigStore: Application configuration.
//
// # Optional Interfaces
//
// These can be nil - the pipeline degrades gracefully:
//
//   - BoundarySuggester: Proposes semantic split points. Without it, the
//     planner uses fixed token-window splitting.
//   - SynthesisService: Generates grounded answers. Without it, retrieval
//     still works but the ask flow is unavailable.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
