// Package prompt assembles model-ready prompts from tag requests.
//
// Build is a pure function over (tag, payload, count, history, citations).
// Dispatch is a closed table keyed by tag name; unrecognized tags fall back to
// the free-form llm variant. Each variant returns a Prompt carrying the type
// tag, the prompt text, and a Debug map of diagnostic fields (payload length,
// history provided, citations provided) that the orchestrator folds into its
// response metadata.
//
// History renders as "direction: text" lines, oldest first. Citations render
// as a numbered list so the model can emit [n] inline markers.
package prompt
