// Package conversation implements the orchestration engine that decides, per
// inbound message or tag command, whether to respond and what to send to the
// completion service.
//
// # State Machine
//
// Each contact owns one session whose mode is OFF or SUGGEST:
//
//   - Explicit Upsert moves a session to the requested mode immediately.
//   - Message and tag handling read the mode but never change it.
//   - OFF is an absorbing short-circuit: it never triggers a history fetch,
//     retrieval, or completion call, and never writes an outgoing message.
//
// # Ordering Guarantees
//
// HandleMessage and HandleTag persist the incoming message before any
// outbound call. A completion failure therefore leaves the incoming message
// behind with no outgoing message - an accepted partial-persistence outcome,
// not a bug.
//
// # Tag Handling
//
// Tags in {recap, judge, fix} pull a history window (defaults: judge 8,
// fix 5, recap 10). The web tag performs a best-effort retrieval capped at 3
// results; a failed or empty retrieval degrades to "no citations" and never
// aborts the flow. All tags route through the prompt package's dispatch table
// before the completion call.
//
// # Failure Taxonomy
//
// Retrieval failures are soft (absorbed, recorded as retrieverUsed=false).
// Completion and storage failures are hard and propagate to the boundary
// layer, which maps them to user-facing error codes.
package conversation
