package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Tab wraps a Rod page with emrwatch-specific setup: stealth and resource
// blocking. CurrentURL tracks the SPA's client-side location, which drifts
// from the navigated URL as the clinician moves through the EMR.
type Tab struct {
	Page       *rod.Page
	CurrentURL string
	TabID      string
	manager    *Manager
}

// OpenTab creates a new tab, navigates to the URL with stealth applied.
func OpenTab(ctx context.Context, mgr *Manager, pageURL, tabID string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	var page *rod.Page
	var err error

	if mgr.Remote() {
		// The clinician's own Chrome needs no stealth page; a plain
		// target keeps its profile untouched.
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	} else {
		page, err = stealth.Page(b)
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	if len(mgr.cfg.ResourceBlocking) > 0 {
		if err := applyResourceBlocking(page, mgr.cfg.ResourceBlocking); err != nil {
			mgr.cfg.Logger.Warn("browser: resource blocking failed", "error", err)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		mgr.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}

	return &Tab{
		Page:       page,
		CurrentURL: pageURL,
		TabID:      tabID,
		manager:    mgr,
	}, nil
}

// FindTab attaches to an existing tab whose URL satisfies match, or
// returns nil when none does. Used on remote attachments to pick up the
// EMR tab the clinician already has open.
func FindTab(ctx context.Context, mgr *Manager, tabID string, match func(url string) bool) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	pages, err := b.Pages()
	if err != nil {
		return nil, fmt.Errorf("browser: list pages: %w", err)
	}

	for _, page := range pages {
		info, err := page.Context(ctx).Info()
		if err != nil {
			continue
		}
		if match(info.URL) {
			return &Tab{
				Page:       page,
				CurrentURL: info.URL,
				TabID:      tabID,
				manager:    mgr,
			}, nil
		}
	}
	return nil, nil
}

// URL asks the page for its current location. The SPA rewrites the
// location without loads, so the navigated URL goes stale.
func (t *Tab) URL(ctx context.Context) (string, error) {
	res, err := t.Page.Context(ctx).Eval(`() => window.location.href`)
	if err != nil {
		return "", fmt.Errorf("browser: read location: %w", err)
	}
	return res.Value.Str(), nil
}

// Close closes the tab.
func (t *Tab) Close() error {
	if t.Page != nil {
		return t.Page.Close()
	}
	return nil
}
