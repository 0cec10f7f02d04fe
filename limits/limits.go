// Package limits provides centralized frame and queue size limits.
// This ensures consistent validation across different components of the system.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxFrameDimension is the largest width or height, in pixels, of an
	// input frame or render surface.
	MaxFrameDimension = 8192

	// MaxFrameBytes is the absolute maximum payload of a single frame.
	// 8192x8192 pixels at 4 bytes per pixel.
	MaxFrameBytes = MaxFrameDimension * MaxFrameDimension * 4

	// MaxInFlightCeiling is the largest configurable in-flight ceiling.
	MaxInFlightCeiling = 64

	// DefaultInFlightCeiling is used when no ceiling is configured.
	DefaultInFlightCeiling = 3
)

var (
	// ErrFrameEmpty indicates a frame without pixels or with a zero dimension.
	ErrFrameEmpty = errors.New("empty frame")

	// ErrFrameTooLarge indicates a frame dimension or payload exceeds its limit.
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrFrameTruncated indicates fewer pixel bytes than the geometry requires.
	ErrFrameTruncated = errors.New("frame payload truncated")

	// ErrInvalidCeiling indicates an in-flight ceiling outside [1, MaxInFlightCeiling].
	ErrInvalidCeiling = errors.New("invalid in-flight ceiling")
)

// ValidateDimensions validates a width/height pair against MaxFrameDimension.
func ValidateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrFrameEmpty, width, height)
	}
	if width > MaxFrameDimension || height > MaxFrameDimension {
		return fmt.Errorf("%w: dimensions %dx%d exceed limit %d",
			ErrFrameTooLarge, width, height, MaxFrameDimension)
	}
	return nil
}

// ValidatePayload validates that a payload of size bytes can hold required
// bytes and does not exceed MaxFrameBytes.
func ValidatePayload(size, required int) error {
	if size == 0 {
		return ErrFrameEmpty
	}
	if size > MaxFrameBytes {
		return fmt.Errorf("%w: payload size %d exceeds limit %d", ErrFrameTooLarge, size, MaxFrameBytes)
	}
	if size < required {
		return fmt.Errorf("%w: payload size %d, need %d", ErrFrameTruncated, size, required)
	}
	return nil
}

// ValidateCeiling validates an in-flight ceiling.
func ValidateCeiling(ceiling int) error {
	if ceiling < 1 || ceiling > MaxInFlightCeiling {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidCeiling, ceiling, MaxInFlightCeiling)
	}
	return nil
}
