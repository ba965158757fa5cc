package httpapi

import (
	"context"
)

// serverBaseCtx is the process-wide context canceled on daemon shutdown, so
// in-flight capture/inference work stops with the server. Background until
// main installs one.
var serverBaseCtx = context.Background()

// SetBaseContext installs the process-level base context used by handlers.
// A nil ctx resets to Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}

// joinContexts derives a context canceled as soon as either parent is done.
// The request context always ends with the handler, which also releases the
// watcher goroutine; callers still must invoke the returned cancel func.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-a.Done():
		case <-b.Done():
		}
		cancel()
	}()
	return ctx, cancel
}
