// Package interfaces defines the collaborator abstractions the offscreen
// rendering core depends on.
//
// # Overview
//
// The core never talks to a graphics API or an effect engine directly. It
// drives two narrow capability sets:
//
//   - IRenderTarget: the render context handle. It owns a graphics context
//     that is not shared with the caller's goroutine, renders into an
//     offscreen buffer and reads the result back.
//
//   - IEffectPlayer: the effect session. It loads and unloads effect
//     definitions and draws a frame through the active effect into the
//     canvas handed out by the render target.
//
// Concrete implementations satisfy these interfaces; the render package
// provides a CPU-backed IRenderTarget and the effect package a software
// IEffectPlayer.
//
// # Threading Contract
//
// Every IRenderTarget method except SharingContext, and every IEffectPlayer
// method except EnableAudio, is called from the single render worker that
// owns the context. Implementations do not need internal locking for those
// methods.
//
// # Data Ownership
//
// ReadCurrentBuffer returns a Data value whose Pix slice is owned by the
// caller. ICanvas is valid only between PrepareRendering and the following
// read-back on the same worker.
package interfaces
