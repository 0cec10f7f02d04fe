// Package effect provides a software effect player for the offscreen
// pipeline.
//
// An effect is a YAML manifest describing a chain of image filters, an
// optional list of audio cues and a table of scripting methods that tweak
// filter parameters at run time:
//
//	name: warm
//	filters:
//	  - type: brightness
//	    amount: 0.1
//	  - type: blur
//	    radius: 1.5
//	audio:
//	  - cue.opus
//	methods:
//	  setWarmth: {filter: 0, param: amount}
//
// Supported filter types are brightness, contrast, gamma, saturation,
// grayscale, sepia, invert, blur, sharpen and flipv. Filters are applied in
// order using github.com/anthonynsimon/bild.
//
// Effect paths name either a manifest file or a directory holding
// effect.yaml. Relative paths are searched in the configured resource paths
// first and then relative to the working directory. Parsed manifests are
// cached by the BLAKE2b digest of their contents, so reloading an unchanged
// file skips parsing while an edited file is always parsed again.
//
// Player satisfies interfaces.IEffectPlayer. Apart from EnableAudio and
// CurrentEffect, its methods expect to be called from the render worker.
package effect
