// Package devserver is a local stand-in for the eventum backend.
//
// It serves the HTTP API the model client calls, the chat service, and
// the push endpoint the realtime channel connects to, backed by a bbolt
// file. Seed fills an empty store with demo users, events and chats.
//
//	store, err := devserver.Open("eventum.db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//	srv := devserver.New(store, devserver.WithLogger(logger))
//	return srv.ListenAndServe(ctx, "localhost:3000")
//
// The server is for development only. Passwords are stored as given and
// sessions live in memory.
package devserver
