// File: internal/browser/cdp_tab.go
package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type pendingRequest struct {
	method string
	url    string
}

// cdpTab is a Tab backed by a chromedp target. Responses are assembled by
// pairing Network.requestWillBeSent with Network.responseReceived on the
// request ID.
type cdpTab struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	mu        sync.Mutex
	pending   map[network.RequestID]pendingRequest
	listeners map[int]func(Response)
	nextID    int

	closeOnce sync.Once
	closeErr  error
}

var _ Tab = (*cdpTab)(nil)

// openCDPTab creates a new target under browserCtx and enables the network
// domain. Listeners are attached before the target exists so no early
// response is missed.
func openCDPTab(ctx context.Context, browserCtx context.Context, logger *zap.Logger) (*cdpTab, error) {
	tabCtx, cancel := chromedp.NewContext(browserCtx)
	t := &cdpTab{
		id:        uuid.NewString(),
		ctx:       tabCtx,
		cancel:    cancel,
		logger:    logger.Named("tab"),
		pending:   make(map[network.RequestID]pendingRequest),
		listeners: make(map[int]func(Response)),
	}
	t.logger = t.logger.With(zap.String("tab_id", t.id))
	chromedp.ListenTarget(tabCtx, t.handleEvent)

	if err := t.run(ctx, network.Enable()); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize tab: %w", err)
	}
	t.logger.Debug("Tab opened.")
	return t, nil
}

func (t *cdpTab) ID() string { return t.id }

// run executes actions on the tab, bounded by both the tab's lifetime and ctx.
func (t *cdpTab) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(t.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (t *cdpTab) SetCookies(ctx context.Context, cookies []*network.CookieParam) error {
	if len(cookies) == 0 {
		return nil
	}
	return t.run(ctx, network.SetCookies(cookies))
}

func (t *cdpTab) Navigate(ctx context.Context, url string) error {
	return t.run(ctx, chromedp.Navigate(url))
}

func (t *cdpTab) Location(ctx context.Context) (string, error) {
	var loc string
	err := t.run(ctx, chromedp.Location(&loc))
	return loc, err
}

func (t *cdpTab) WaitForElement(ctx context.Context, selector string) error {
	return t.run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (t *cdpTab) Focus(ctx context.Context, selector string) error {
	return t.run(ctx, chromedp.Focus(selector, chromedp.ByQuery))
}

func (t *cdpTab) Click(ctx context.Context, selector string) error {
	return t.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (t *cdpTab) InnerHTML(ctx context.Context, selector string) (string, error) {
	var html string
	err := t.run(ctx, chromedp.InnerHTML(selector, &html, chromedp.ByQuery))
	return html, err
}

func (t *cdpTab) Evaluate(ctx context.Context, script string, res interface{}) error {
	return t.run(ctx, chromedp.Evaluate(script, res))
}

func (t *cdpTab) DispatchKeyEvent(ctx context.Context, ev *input.DispatchKeyEventParams) error {
	return t.run(ctx, ev)
}

func (t *cdpTab) OnResponse(fn func(Response)) func() {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.listeners, id)
		t.mu.Unlock()
	}
}

// Close closes the target, giving up when ctx ends. Later calls return the first result.
func (t *cdpTab) Close(ctx context.Context) error {
	t.closeOnce.Do(func() {
		done := make(chan error, 1)
		go func() { done <- chromedp.Cancel(t.ctx) }()
		select {
		case err := <-done:
			if err != nil {
				t.closeErr = fmt.Errorf("failed to close tab: %w", err)
			}
		case <-ctx.Done():
			t.cancel()
			t.closeErr = fmt.Errorf("tab close abandoned: %w", ctx.Err())
		}

		t.mu.Lock()
		t.listeners = make(map[int]func(Response))
		t.pending = make(map[network.RequestID]pendingRequest)
		t.mu.Unlock()
		t.logger.Debug("Tab closed.")
	})
	return t.closeErr
}

func (t *cdpTab) handleEvent(ev interface{}) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		t.onRequest(e)
	case *network.EventResponseReceived:
		t.onResponse(e)
	case *network.EventLoadingFailed:
		t.mu.Lock()
		delete(t.pending, e.RequestID)
		t.mu.Unlock()
	}
}

func (t *cdpTab) onRequest(e *network.EventRequestWillBeSent) {
	if e.Request == nil {
		return
	}
	var redirected *Response

	t.mu.Lock()
	// A redirect reuses the request ID; the hop that just ended is its own response.
	if prev, ok := t.pending[e.RequestID]; ok && e.RedirectResponse != nil {
		redirected = &Response{
			RequestID: string(e.RequestID),
			Method:    prev.method,
			URL:       prev.url,
			Status:    int(e.RedirectResponse.Status),
		}
	}
	t.pending[e.RequestID] = pendingRequest{method: e.Request.Method, url: e.Request.URL}
	t.mu.Unlock()

	if redirected != nil {
		t.emit(*redirected)
	}
}

func (t *cdpTab) onResponse(e *network.EventResponseReceived) {
	if e.Response == nil {
		return
	}
	t.mu.Lock()
	req, ok := t.pending[e.RequestID]
	delete(t.pending, e.RequestID)
	t.mu.Unlock()
	if !ok {
		// Served without a visible request event (e.g. from a service worker).
		req = pendingRequest{url: e.Response.URL}
	}

	t.emit(Response{
		RequestID: string(e.RequestID),
		Method:    req.method,
		URL:       req.url,
		Status:    int(e.Response.Status),
	})
}

// emit calls listeners outside the lock so they may unsubscribe themselves.
func (t *cdpTab) emit(res Response) {
	t.mu.Lock()
	fns := make([]func(Response), 0, len(t.listeners))
	for _, fn := range t.listeners {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(res)
	}
}
