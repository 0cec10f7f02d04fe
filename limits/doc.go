// Package limits provides centralized frame and queue size limits for the
// offscreen rendering pipeline. This package ensures consistent size
// enforcement across the player, the pipeline and the render targets.
//
// # Limit Hierarchy
//
//   - MaxFrameDimension (8192 pixels): the largest width or height accepted
//     for an input frame or a render surface.
//
//   - MaxFrameBytes (256MB): the absolute maximum for a single frame's pixel
//     payload. 8192x8192 RGBA fits exactly.
//
//   - MaxInFlightCeiling (64 frames): the largest in-flight ceiling a player
//     may be configured with. Every in-flight frame pins its input frame and
//     a read-back buffer, so the ceiling bounds memory under frame-rate
//     mismatch.
//
// # Validation Functions
//
// Each validation function returns a wrapped sentinel error so callers can
// classify failures with errors.Is:
//
//	err := limits.ValidateDimensions(width, height)
//	if errors.Is(err, limits.ErrFrameTooLarge) {
//	    // reject
//	}
//
// The payload check compares the number of bytes the caller supplied with the
// number of bytes the declared geometry requires:
//
//	err := limits.ValidatePayload(len(pix), required)
package limits
