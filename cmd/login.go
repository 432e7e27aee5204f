// File: cmd/login.go
package cmd

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/network"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/mediumctl/internal/browser"
	"github.com/xkilldash9x/mediumctl/internal/config"
	"github.com/xkilldash9x/mediumctl/internal/credentials"
	"github.com/xkilldash9x/mediumctl/internal/observability"
)

// loginFn is replaced in tests so no browser is launched.
var loginFn = func(ctx context.Context, cfg config.BrowserConfig, endpoints *browser.Endpoints, logger *zap.Logger) ([]*network.Cookie, error) {
	return browser.Login(ctx, cfg, endpoints, logger)
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in through a visible browser window and cache the session cookies",
		Long: `Opens Chrome on the sign-in page and waits, without a time limit, until
the browser reaches the home page. The cookie jar is then written to the
configured credentials backend, replacing whatever was cached before.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			return runLogin(cmd.Context(), cmd, cfg)
		},
	}
}

func runLogin(ctx context.Context, cmd *cobra.Command, cfg config.Interface) error {
	logger := observability.GetLogger()

	endpoints, err := browser.NewEndpoints(cfg.Platform().BaseURL)
	if err != nil {
		return err
	}

	store, closeStore, err := credentials.Open(ctx, cfg.Credentials(), logger)
	if err != nil {
		return fmt.Errorf("failed to open credentials store: %w", err)
	}
	defer closeStore()

	cookies, err := loginFn(ctx, cfg.Browser(), endpoints, logger)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := store.Save(ctx, cookies); err != nil {
		return fmt.Errorf("failed to cache session cookies: %w", err)
	}

	logger.Info("Session cookies cached.", zap.Int("count", len(cookies)), zap.String("backend", cfg.Credentials().Backend))
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in; %d cookies cached.\n", len(cookies))
	return nil
}
