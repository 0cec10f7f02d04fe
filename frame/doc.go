// Package frame defines the immutable input image submitted to the offscreen
// player and the pixel-format conversions around it.
//
// A Frame is constructed by the caller and only ever read by the pipeline:
//
//	f, err := frame.New(frame.FormatNV12, 1280, 720, pix)
//	if err != nil {
//	    return err
//	}
//	player.ProcessImageAsync(f, callback)
//
// The Frame's Pix slice MUST NOT be modified after submission. The pipeline
// borrows it until the frame's callback has fired.
//
// Supported layouts are tightly packed:
//
//	FormatRGBA, FormatBGRA  width*4 bytes per row
//	FormatNV12              Y plane, then interleaved CbCr at half resolution
//	FormatI420              Y plane, then Cb plane, then Cr plane at half resolution
package frame
