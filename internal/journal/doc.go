// Package journal provides SQLite-backed storage for patch run records.
//
// Each invocation of the patching workflow records one run:
//   - Runs: outcome, target descriptor, backup path, mode flags
//   - Run Files: the keys minted for each registered file
//   - Run Sections: which section categories were patched or skipped
//
// The journal is append-only. Runs are never updated or deleted by the
// tool; History reads them newest first with a deterministic tie-break
// on run ID.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package journal
