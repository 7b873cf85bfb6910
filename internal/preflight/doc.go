// Package preflight provides readiness checks for the external tools,
// services, and filesystem paths that subweave depends on.
//
// These checks run in two contexts:
//   - The workflow manager calls RunAll before processing each queue item.
//     If any check fails, the lane halts to avoid wasting hours on a doomed run.
//   - The CLI "subweave status" command uses individual check functions
//     (CheckLLM, CheckDirectoryAccess) to display service health.
//
// Checks with a config dependency are gated on it; an unset llm.api_key
// skips the LLM probe instead of failing it.
package preflight
