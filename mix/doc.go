// SPDX-License-Identifier: EPL-2.0

// Package mix is the real-time side of gamemix: a render [Engine] invoked
// once per device callback, and the [Queue] of commands that is the only way
// other goroutines can reach it.
//
// Each [Engine.Render] call zeroes the output buffer, drains every command
// queued so far without blocking, and then mixes additively, in order:
//
//  1. the [Music] voice, including any transition in progress,
//  2. every [ShortPool], one per short effect,
//  3. every [Persistent] effect, unless persistent effects are muted.
//
// The engine owns all decoder handles it was given. Handles it no longer
// needs are reported on [Engine.Events] rather than closed in place, so the
// render goroutine never performs close I/O.
package mix
