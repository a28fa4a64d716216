// Package pool
// Author: momentics <momentics@gmail.com>
//
// Typed object pools and the event abstraction over them.
// A Manager creates buffer, packet and timeout pools. Objects drawn from them
// convert to Event values that can be classified by type/subtype and freed
// one at a time, in mixed batches (FreeMulti) or in same-pool batches (FreeSP).
// Handles carry a generation, so stale and double frees are detected.
// See manager.go, event.go, free.go for implementation details.
package pool
