// Package control implements the standing-balance feedback controllers:
//
//   - [PID]: clamped proportional-integral-derivative primitive
//   - [Posture]: roll/pitch tilt cancellation via leg joint offsets
//   - [CoM]: base height regulation via coordinated knee flexion
//   - [Standing]: composes the above over a baseline pose and emits one
//     joint command per control tick
//
// Controllers carry their own PID state as explicit structs, so a reset
// or a replay is just zeroing or copying that state. Compute methods are
// deterministic: the same state sequence reproduces the same commands.
//
// Angles are degrees, heights meters, time seconds throughout.
package control
