// Package tsplugin is a voice-chat client plugin that places the voices of
// other players at their positions in a multiplayer vehicle game.
//
// The game publishes the camera and the positions of nearby players in a
// shared memory segment. The plugin pairs those players with voice-chat
// users and renders their voices in 3D through one of two backends:
//
//   - the chat client's built-in 3D audio, driven through its
//     3D attribute callbacks, or
//   - an OpenAL Soft output the plugin manages itself, optionally with
//     HRTF. Voice data is streamed into per-speaker sources and the
//     client's own mix of those speakers is silenced.
//
// # Packages
//
//   - openal: the OpenAL binding and the engine reconciling wanted output,
//     source and listener state with the native objects
//   - openal/oalsim: a simulated binding for tests
//   - backend: the built-in and OpenAL backends behind one Driver interface
//   - gamedata: the shared memory record format, reader and poller
//   - settings: persisted user settings
//   - plugin: use cases and the assembled Plugin
//   - capi: the C shared library the chat client loads
//
// # Getting Started
//
// The chat client loads the library built from capi. For development the
// plugin can be assembled directly:
//
//	p, err := plugin.New(plugin.Config{
//	    ConfigDir: dir,
//	    Chat:      chat,
//	    Host:      host,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := p.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Stop()
//
// examples/gamedata_writer publishes game data without the game and
// examples/test_tone_demo plays the rotating test tone.
package tsplugin
