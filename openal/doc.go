// Package openal renders positional voice through OpenAL Soft.
//
// The package has three layers:
//
//   - Binding: the native calls, each followed by an error check. Library
//     implements it by loading OpenAL Soft at runtime with purego, so the
//     plugin starts without the library being present.
//   - Registry: caches devices by name, contexts and listeners by
//     OutputInfo and sources by id. Objects are created on first use and
//     every update is diffed against the last applied state, so repeated
//     requests with unchanged values issue no native calls.
//   - Engine: serializes callers and applies the output's thread context
//     at the start of every call.
//
// Streaming sources get a short silence lead-in ahead of the first chunk
// after playback stopped; drained buffers are reclaimed on the next chunk.
//
//	engine := openal.NewEngine(openal.NewLibrary())
//	defer engine.Close()
//
//	out := openal.OutputInfo{SampleRate: 48000}
//	src := openal.SourceInfo{Output: out, ID: 5, Streaming: true}
//	if err := engine.PlayAudio(src, openal.NewPCM16(samples, 1, 48000)); err != nil {
//		log.Printf("play: %v", err)
//	}
//
// Reset releases everything and unloads the library; the next call loads
// it again, which makes OpenAL Soft reread alsoft.ini and HRTF data.
package openal
