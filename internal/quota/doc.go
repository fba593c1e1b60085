// Package quota implements the layered admission control that gates every
// call to the external vision model.
//
// Four checks run in cheap-to-expensive order and all must pass:
//
//  1. Persistent daily quota — authoritative across instances, backed by a
//     store with an atomic increment-if-under-limit. Fails open on store
//     errors so an infrastructure hiccup never locks users out.
//  2. Advisory in-memory daily counter — per-process secondary defense that
//     resets on restart. Deliberately non-authoritative.
//  3. Concurrent-active limiter — bounds a user's in-flight calls within a
//     short trailing window.
//  4. Sliding-window burst limiters — once per user, once per client IP.
//
// All state for layers 2-4 is per-process and not consistent across
// instances; only layer 1 is the source of truth. Every component takes an
// injectable clock so tests can drive time directly.
package quota
