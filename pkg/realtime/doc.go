// Package realtime keeps a push channel open for one signed-in user.
//
// A Channel dials the server, identifies with {"uid": n}, and reads frames
// on its own goroutine. Every frame is decoded into a Notification and
// delivered on the loop, and only while the Session is open: once Close
// returns, no handler call can follow. Unexpected disconnects are redialed
// with exponential backoff; when the attempts run out the session's error
// callback fires and the screen carries on without push.
//
//	ch := realtime.New(realtime.Endpoint(cfg.WSURL), l)
//	s, err := ch.Establish(ctx, uid, func(n realtime.Notification) {
//		markUnread(n.ChatID)
//	}, realtime.WithErrorHandler(showOffline))
//	defer s.Close()
package realtime
