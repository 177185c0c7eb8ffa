package browser

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// pageWatcher logs console output, failed requests and uncaught page errors,
// and signals the first networkIdle lifecycle event after it is armed.
type pageWatcher struct {
	logger   zerolog.Logger
	armed    atomic.Bool
	idle     chan struct{}
	mu       sync.Mutex
	requests map[network.RequestID]string
}

func newPageWatcher(logger zerolog.Logger) *pageWatcher {
	return &pageWatcher{
		logger:   logger,
		idle:     make(chan struct{}, 1),
		requests: make(map[network.RequestID]string),
	}
}

// handle is registered with chromedp.ListenTarget and must not block
func (w *pageWatcher) handle(ev interface{}) {
	switch ev := ev.(type) {
	case *runtime.EventConsoleAPICalled:
		w.logger.Info().
			Str("type", string(ev.Type)).
			Str("text", consoleText(ev.Args)).
			Msg("[console]")

	case *runtime.EventExceptionThrown:
		if ev.ExceptionDetails != nil {
			w.logger.Error().Str("text", ev.ExceptionDetails.Text).Msg("[page error]")
		}

	case *network.EventRequestWillBeSent:
		if ev.Request != nil {
			w.mu.Lock()
			w.requests[ev.RequestID] = ev.Request.Method + " " + ev.Request.URL
			w.mu.Unlock()
		}

	case *network.EventLoadingFailed:
		w.mu.Lock()
		req := w.requests[ev.RequestID]
		delete(w.requests, ev.RequestID)
		w.mu.Unlock()
		w.logger.Warn().Str("request", req).Str("error", ev.ErrorText).Msg("[request failed]")

	case *page.EventLifecycleEvent:
		if ev.Name == "networkIdle" && w.armed.Load() {
			select {
			case w.idle <- struct{}{}:
			default:
			}
		}
	}
}

// arm discards idle signals from the initial blank page
func (w *pageWatcher) arm() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		select {
		case <-w.idle:
		default:
		}
		w.armed.Store(true)
		return nil
	})
}

func (w *pageWatcher) waitNetworkIdle() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		select {
		case <-w.idle:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

func consoleText(args []*runtime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		switch {
		case len(arg.Value) > 0:
			parts = append(parts, strings.Trim(string(arg.Value), `"`))
		case arg.Description != "":
			parts = append(parts, arg.Description)
		}
	}
	return strings.Join(parts, " ")
}
