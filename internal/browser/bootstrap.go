// File: internal/browser/bootstrap.go
package browser

import (
	"context"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/mediumctl/internal/config"
	"github.com/xkilldash9x/mediumctl/internal/credentials"
)

// LoginFunc captures a fresh cookie set.
type LoginFunc func(ctx context.Context) ([]*network.Cookie, error)

// Login opens a visible browser on the sign-in page and waits, with no time
// limit, for the user to finish signing in. Arrival at the home URL in any
// target ends the wait; the cookie jar is then read and the browser closed.
func Login(ctx context.Context, cfg config.BrowserConfig, endpoints *Endpoints, logger *zap.Logger) ([]*network.Cookie, error) {
	log := logger.Named("login")

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, AllocatorOptions(cfg, false)...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx); err != nil {
		return nil, transportError("failed to launch login browser", err)
	}

	c := chromedp.FromContext(browserCtx)
	if err := target.SetDiscoverTargets(true).Do(cdp.WithExecutor(browserCtx, c.Browser)); err != nil {
		return nil, transportError("failed to watch browser targets", err)
	}

	listenCtx, stopListening := context.WithCancel(browserCtx)
	defer stopListening()

	home := endpoints.Home()
	arrived := make(chan struct{})
	var once sync.Once
	chromedp.ListenBrowser(listenCtx, func(ev interface{}) {
		var info *target.Info
		switch e := ev.(type) {
		case *target.EventTargetCreated:
			info = e.TargetInfo
		case *target.EventTargetInfoChanged:
			info = e.TargetInfo
		}
		if info != nil && info.URL == home {
			once.Do(func() { close(arrived) })
		}
	})

	log.Info("Waiting for sign-in to complete in the browser window.", zap.String("url", endpoints.SignIn()))
	if err := chromedp.Run(browserCtx, chromedp.Navigate(endpoints.SignIn())); err != nil {
		return nil, transportError("failed to open sign-in page", err)
	}

	select {
	case <-arrived:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	stopListening()

	var cookies []*network.Cookie
	if err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	})); err != nil {
		return nil, transportError("failed to read session cookies", err)
	}

	if err := chromedp.Cancel(browserCtx); err != nil {
		log.Debug("Login browser did not close cleanly.", zap.Error(err))
	}
	log.Info("Signed in.", zap.Int("cookies", len(cookies)))
	return cookies, nil
}

// LoadOrLogin returns the cached cookies, or runs login and caches its result
// when the store has nothing usable. A failed save is logged; the fresh
// cookies are still returned.
func LoadOrLogin(ctx context.Context, store credentials.Store, login LoginFunc, logger *zap.Logger) ([]*network.Cookie, error) {
	cookies, err := store.Load(ctx)
	if err == nil {
		return cookies, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	logger.Info("No usable cached cookies, starting interactive login.", zap.Error(err))

	cookies, err = login(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.Save(ctx, cookies); err != nil {
		logger.Warn("Failed to cache session cookies.", zap.Error(err))
	}
	return cookies, nil
}
