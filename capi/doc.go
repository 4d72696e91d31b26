// Package main exports the positional audio plugin to the voice-chat
// client as a C shared library.
//
// # Build Instructions
//
//	go build -buildmode=c-shared -o tessumod_plugin.so ./capi/
//
// This generates the shared library and tessumod_plugin.h with the
// declarations of every export. The client's plugin entry points call
// the exports:
//
//	tessumod_callback_set_3d_attributes(set_3d, NULL);
//	tessumod_callback_set_listener_3d_attributes(set_listener, NULL);
//	if (tessumod_init(config_dir, resource_dir) != TESSUMOD_OK) {
//	    return 1;
//	}
//	tessumod_set_my_user_id(my_id);
//	tessumod_set_playback_device("");
//
//	// onClientMoveEvent
//	tessumod_chat_user_added(client_id);
//
//	// onEditPlaybackVoiceDataEvent
//	tessumod_on_edit_playback_voice_data(client_id, samples, sample_count, channels);
//
//	// shutdown
//	tessumod_shutdown();
//
// # Callbacks
//
// With the built-in backend the plugin moves speakers and the listener
// through the registered callbacks. They are called from plugin
// goroutines, not from the thread that registered them.
//
// # Error Handling
//
// Exports that can fail return a TESSUMOD_RESULT. No panic crosses the
// library boundary: each export recovers and logs.
package main
