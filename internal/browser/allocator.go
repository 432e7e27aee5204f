// File: internal/browser/allocator.go
package browser

import (
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/mediumctl/internal/config"
)

// AllocatorOptions translates the browser config into chromedp allocator options.
// headless overrides cfg.Headless so the login flow can force a visible window.
func AllocatorOptions(cfg config.BrowserConfig, headless bool) []chromedp.ExecAllocatorOption {
	opts := make([]chromedp.ExecAllocatorOption, 0, len(chromedp.DefaultExecAllocatorOptions)+len(cfg.Args)+2)
	opts = append(opts, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("headless", headless))

	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	// Extra flags from the config file, e.g. "--lang=en-US" or "--no-sandbox".
	for _, arg := range cfg.Args {
		arg = strings.TrimPrefix(arg, "--")
		if arg == "" {
			continue
		}
		if key, value, found := strings.Cut(arg, "="); found {
			opts = append(opts, chromedp.Flag(key, value))
			continue
		}
		opts = append(opts, chromedp.Flag(arg, true))
	}
	return opts
}
