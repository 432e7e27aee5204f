// File: internal/browser/tab.go
package browser

import (
	"context"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
)

// Response is the part of a network response the post operations look at.
type Response struct {
	RequestID string
	Method    string
	URL       string
	Status    int
}

// ResponseSource publishes every response the tab receives. The returned func
// removes the subscription and is safe to call more than once, including from
// inside fn.
type ResponseSource interface {
	OnResponse(fn func(Response)) (unsubscribe func())
}

// Locator reads the tab's current location.href.
type Locator interface {
	Location(ctx context.Context) (string, error)
}

// KeyDispatcher sends raw keyboard events to the focused element.
type KeyDispatcher interface {
	DispatchKeyEvent(ctx context.Context, ev *input.DispatchKeyEventParams) error
}

// Evaluator runs a script in the page and decodes its result into res.
type Evaluator interface {
	Evaluate(ctx context.Context, script string, res interface{}) error
}

// Tab is one browser page owned by a single operation.
type Tab interface {
	ResponseSource
	Locator
	KeyDispatcher
	Evaluator

	ID() string
	SetCookies(ctx context.Context, cookies []*network.CookieParam) error
	// Navigate loads url and returns once the load event has fired.
	Navigate(ctx context.Context, url string) error
	// WaitForElement blocks until selector matches a node in the document.
	WaitForElement(ctx context.Context, selector string) error
	Focus(ctx context.Context, selector string) error
	Click(ctx context.Context, selector string) error
	InnerHTML(ctx context.Context, selector string) (string, error)
	Close(ctx context.Context) error
}
