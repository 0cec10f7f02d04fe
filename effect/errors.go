package effect

import (
	"errors"
	"fmt"
)

// Sentinel errors for effect operations.
// These errors enable reliable error classification using errors.Is().
var (
	// ErrEffect indicates an effect load or application failure.
	ErrEffect = errors.New("effect failure")

	// ErrEffectNotFound indicates the effect path could not be resolved.
	ErrEffectNotFound = fmt.Errorf("%w: effect not found", ErrEffect)

	// ErrInvalidManifest indicates a manifest that does not parse or
	// references unknown filters.
	ErrInvalidManifest = fmt.Errorf("%w: invalid manifest", ErrEffect)

	// ErrNoEffect indicates an operation that needs a loaded effect.
	ErrNoEffect = fmt.Errorf("%w: no effect loaded", ErrEffect)

	// ErrUnknownMethod indicates a scripting call the effect does not export.
	ErrUnknownMethod = fmt.Errorf("%w: unknown method", ErrEffect)

	// ErrInvalidParam indicates a scripting parameter that does not parse.
	ErrInvalidParam = fmt.Errorf("%w: invalid parameter", ErrEffect)
)
