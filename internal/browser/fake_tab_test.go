// File: internal/browser/fake_tab_test.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
)

// fakeTab records every call and lets tests script page behavior through hooks.
// Hooks run without the lock held, so they may call emit.
type fakeTab struct {
	id string

	mu        sync.Mutex
	calls     []string
	cookies   []*network.CookieParam
	scripts   []string
	keys      []*input.DispatchKeyEventParams
	location  string
	missing   map[string]bool
	inner     string
	errs      map[string]error
	listeners map[int]func(Response)
	nextID    int
	closed    int

	locationFn func(ctx context.Context) (string, error)
	onNavigate func(url string)
	onClick    func(selector string)
}

var _ Tab = (*fakeTab)(nil)

func newFakeTab(id string) *fakeTab {
	return &fakeTab{
		id:        id,
		missing:   make(map[string]bool),
		errs:      make(map[string]error),
		listeners: make(map[int]func(Response)),
	}
}

func (f *fakeTab) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	name, _, _ := strings.Cut(call, " ")
	return f.errs[name]
}

func (f *fakeTab) ID() string { return f.id }

func (f *fakeTab) SetCookies(_ context.Context, cookies []*network.CookieParam) error {
	if err := f.record("SetCookies"); err != nil {
		return err
	}
	f.mu.Lock()
	f.cookies = cookies
	f.mu.Unlock()
	return nil
}

func (f *fakeTab) Navigate(ctx context.Context, url string) error {
	if err := f.record("Navigate " + url); err != nil {
		return err
	}
	f.mu.Lock()
	f.location = url
	hook := f.onNavigate
	f.mu.Unlock()
	if hook != nil {
		hook(url)
	}
	return ctx.Err()
}

func (f *fakeTab) Location(ctx context.Context) (string, error) {
	f.mu.Lock()
	fn := f.locationFn
	loc := f.location
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return loc, ctx.Err()
}

func (f *fakeTab) setLocation(url string) {
	f.mu.Lock()
	f.location = url
	f.mu.Unlock()
}

func (f *fakeTab) WaitForElement(ctx context.Context, selector string) error {
	if err := f.record("WaitForElement " + selector); err != nil {
		return err
	}
	f.mu.Lock()
	missing := f.missing[selector]
	f.mu.Unlock()
	if missing {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (f *fakeTab) Focus(_ context.Context, selector string) error {
	return f.record("Focus " + selector)
}

func (f *fakeTab) Click(_ context.Context, selector string) error {
	if err := f.record("Click " + selector); err != nil {
		return err
	}
	if f.onClick != nil {
		f.onClick(selector)
	}
	return nil
}

func (f *fakeTab) InnerHTML(_ context.Context, selector string) (string, error) {
	if err := f.record("InnerHTML " + selector); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inner, nil
}

func (f *fakeTab) Evaluate(_ context.Context, script string, res interface{}) error {
	if err := f.record("Evaluate"); err != nil {
		return err
	}
	f.mu.Lock()
	f.scripts = append(f.scripts, script)
	f.mu.Unlock()
	if b, ok := res.(*bool); ok {
		*b = true
	}
	return nil
}

func (f *fakeTab) DispatchKeyEvent(_ context.Context, ev *input.DispatchKeyEventParams) error {
	if err := f.record(fmt.Sprintf("Key %s %s", ev.Type, ev.Key)); err != nil {
		return err
	}
	f.mu.Lock()
	f.keys = append(f.keys, ev)
	f.mu.Unlock()
	return nil
}

func (f *fakeTab) OnResponse(fn func(Response)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

func (f *fakeTab) emit(res Response) {
	f.mu.Lock()
	fns := make([]func(Response), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(res)
	}
}

func (f *fakeTab) Close(context.Context) error {
	f.record("Close")
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
	return nil
}

func (f *fakeTab) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeTab) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeTab) listenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}
