// File: internal/browser/client.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/mediumctl/internal/config"
	"github.com/xkilldash9x/mediumctl/internal/credentials"
)

const tabCloseTimeout = 15 * time.Second

// tabOpener creates a bare tab. Tests replace it with a fake.
type tabOpener func(ctx context.Context) (Tab, error)

// Client is an authenticated browser session. Every post operation runs in
// its own tab, carrying the cookie set captured at construction.
type Client struct {
	id        string
	endpoints *Endpoints
	postCfg   config.PostConfig
	cookies   []*network.Cookie
	logger    *zap.Logger

	slots   *semaphore.Weighted
	limiter *rate.Limiter
	openTab tabOpener

	// browser and allocator lifetimes; nil when the client was built around a fake opener.
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

// NewClient launches Chrome and loads the session cookies from store, running
// the interactive login when none are cached.
func NewClient(ctx context.Context, cfg config.Interface, store credentials.Store, logger *zap.Logger) (*Client, error) {
	endpoints, err := NewEndpoints(cfg.Platform().BaseURL)
	if err != nil {
		return nil, err
	}
	browserCfg := cfg.Browser()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), AllocatorOptions(browserCfg, browserCfg.Headless)...)
	var ctxOpts []chromedp.ContextOption
	if browserCfg.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithDebugf(logger.Named("cdp").Sugar().Debugf))
	}
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, ctxOpts...)

	if err := launch(ctx, browserCtx, browserCfg.LaunchTimeout); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, err
	}

	login := func(ctx context.Context) ([]*network.Cookie, error) {
		return Login(ctx, browserCfg, endpoints, logger)
	}
	cookies, err := LoadOrLogin(ctx, store, login, logger)
	if err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, err
	}

	c := newClient(cookies, endpoints, cfg, logger, nil)
	c.browserCtx = browserCtx
	c.cancelBrowser = cancelBrowser
	c.cancelAlloc = cancelAlloc
	c.openTab = func(ctx context.Context) (Tab, error) {
		return openCDPTab(ctx, browserCtx, c.logger)
	}
	c.logger.Info("Browser session ready.", zap.Int("cookies", len(cookies)), zap.Bool("headless", browserCfg.Headless))
	return c, nil
}

// launch starts the browser process. The first Run on a context allocates the
// browser, so the timeout is enforced from outside instead of on its context.
func launch(ctx, browserCtx context.Context, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- chromedp.Run(browserCtx) }()

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case err := <-done:
		if err != nil {
			return transportError("failed to launch browser", err)
		}
		return nil
	case <-timer:
		return transportError("failed to launch browser", fmt.Errorf("no response within %s", timeout))
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newClient(cookies []*network.Cookie, endpoints *Endpoints, cfg config.Interface, logger *zap.Logger, opener tabOpener) *Client {
	id := uuid.NewString()
	limit := rate.Inf
	if ops := cfg.Browser().OperationsPerSecond; ops > 0 {
		limit = rate.Limit(ops)
	}
	maxTabs := cfg.Browser().MaxTabs
	if maxTabs <= 0 {
		maxTabs = 1
	}
	return &Client{
		id:        id,
		endpoints: endpoints,
		postCfg:   cfg.Post(),
		cookies:   cookies,
		logger:    logger.Named("client").With(zap.String("client_id", id)),
		slots:     semaphore.NewWeighted(int64(maxTabs)),
		limiter:   rate.NewLimiter(limit, 1),
		openTab:   opener,
	}
}

// ID identifies the session in logs.
func (c *Client) ID() string { return c.id }

// Cookies returns a copy of the session's cookie set.
func (c *Client) Cookies() []*network.Cookie {
	out := make([]*network.Cookie, len(c.cookies))
	for i, ck := range c.cookies {
		cp := *ck
		out[i] = &cp
	}
	return out
}

// Endpoints returns the URLs the client drives.
func (c *Client) Endpoints() *Endpoints { return c.endpoints }

// Close shuts the browser down, aborting any operation still in flight.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		if c.browserCtx != nil {
			if err := chromedp.Cancel(c.browserCtx); err != nil && !errors.Is(err, context.Canceled) {
				c.closeErr = fmt.Errorf("failed to close browser: %w", err)
			}
		}
		if c.cancelBrowser != nil {
			c.cancelBrowser()
		}
		if c.cancelAlloc != nil {
			c.cancelAlloc()
		}
		c.logger.Info("Browser session closed.")
	})
	return c.closeErr
}

// newTab opens a tab and loads the full cookie set into it before anything
// navigates.
func (c *Client) newTab(ctx context.Context) (Tab, error) {
	tab, err := c.openTab(ctx)
	if err != nil {
		return nil, transportError("failed to open tab", err)
	}
	if err := tab.SetCookies(ctx, cookieParams(c.cookies)); err != nil {
		c.closeTab(ctx, tab, c.logger)
		return nil, transportError("failed to set session cookies", err)
	}
	return tab, nil
}

// withTab runs fn in a fresh tab and closes the tab however fn ends.
func (c *Client) withTab(ctx context.Context, op string, fn func(ctx context.Context, tab Tab, log *zap.Logger) error) error {
	log := c.logger.With(zap.String("op", op), zap.String("op_id", uuid.NewString()))

	if err := c.slots.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.slots.Release(1)

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	tab, err := c.newTab(ctx)
	if err != nil {
		return err
	}
	defer c.closeTab(ctx, tab, log)

	start := time.Now()
	log.Debug("Operation started.", zap.String("tab_id", tab.ID()))
	if err := fn(ctx, tab, log); err != nil {
		log.Warn("Operation failed.", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return err
	}
	log.Info("Operation completed.", zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (c *Client) closeTab(ctx context.Context, tab Tab, log *zap.Logger) {
	closeCtx, cancel := context.WithTimeout(Detach(ctx), tabCloseTimeout)
	defer cancel()
	if err := tab.Close(closeCtx); err != nil {
		log.Warn("Failed to close tab.", zap.String("tab_id", tab.ID()), zap.Error(err))
	}
}

// cookieParams converts captured cookies into the form Network.setCookies takes.
func cookieParams(cookies []*network.Cookie) []*network.CookieParam {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, ck := range cookies {
		if ck == nil {
			continue
		}
		p := &network.CookieParam{
			Name:         ck.Name,
			Value:        ck.Value,
			Domain:       ck.Domain,
			Path:         ck.Path,
			Secure:       ck.Secure,
			HTTPOnly:     ck.HTTPOnly,
			SameSite:     ck.SameSite,
			Priority:     ck.Priority,
			SourceScheme: ck.SourceScheme,
			SourcePort:   ck.SourcePort,
		}
		if !ck.Session && ck.Expires > 0 {
			expires := cdp.TimeSinceEpoch(time.Unix(0, int64(ck.Expires*float64(time.Second))))
			p.Expires = &expires
		}
		params = append(params, p)
	}
	return params
}
