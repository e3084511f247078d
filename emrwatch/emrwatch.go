// Package emrwatch is the bridge daemon: it attaches Chrome to the host
// EMR, watches the clinician's navigation, and relays detected patients
// and visits to the configured surfaces.
//
// emrwatch observes an application it does not control. Everything
// downstream treats the page as a hostile data source: detections are
// deduplicated, extractions are best-effort, and a failed hand-off is
// recovered by the clinician simply navigating again.
package emrwatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"

	"github.com/parable-health/emrbridge/emrpage"
	"github.com/parable-health/emrbridge/emrwatch/internal/browser"
	"github.com/parable-health/emrbridge/emrwatch/internal/config"
	"github.com/parable-health/emrbridge/emrwatch/internal/observer"
	"github.com/parable-health/emrbridge/emrwatch/internal/scrape"
	"github.com/parable-health/emrbridge/idgen"
	"github.com/parable-health/emrbridge/relay"
)

// Watcher is the top-level orchestrator. It manages the browser, the EMR
// tab, the navigation observer, and the relay. Create one per bridge
// instance.
type Watcher struct {
	cfg     *config.Config
	mgr     *browser.Manager
	router  *relay.Router
	crumbs  *relay.BreadcrumbStore
	scraper *scrape.Scraper
	obs     *observer.Observer
	coord   *relay.Coordinator
	tabID   string
	logger  *slog.Logger
}

// New creates a Watcher from configuration. Surfaces receive every
// ready-for-import broadcast.
func New(cfg *config.Config, logger *slog.Logger, surfaces ...relay.Surface) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}

	mode := browser.ModeHeadless
	if cfg.Browser.Stealth == "headful" {
		mode = browser.ModeHeadful
	}

	mgr := browser.NewManager(browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		MemoryLimit:      cfg.Browser.MemoryLimit,
		RecycleInterval:  cfg.Browser.RecycleInterval,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		Mode:             mode,
		XvfbDisplay:      cfg.Browser.XvfbDisplay,
		Logger:           logger,
	})

	return &Watcher{
		cfg:    cfg,
		mgr:    mgr,
		router: relay.NewRouter(logger, surfaces...),
		tabID:  idgen.Prefixed("tab_", idgen.Default)(),
		logger: logger,
	}
}

// Start connects the browser, finds or opens the EMR tab, and begins
// observing.
func (w *Watcher) Start(ctx context.Context) error {
	if _, err := w.mgr.Start(ctx); err != nil {
		return fmt.Errorf("emrwatch: start browser: %w", err)
	}

	tab, err := w.attachTab(ctx)
	if err != nil {
		return err
	}

	w.scraper = scrape.New(scrape.Config{
		Tab:          tab,
		WaitTimeout:  w.cfg.Scrape.WaitTimeout,
		Logger:       w.logger,
	})

	if w.cfg.Relay.BreadcrumbDB != "" {
		crumbs, err := relay.OpenBreadcrumbs(w.cfg.Relay.BreadcrumbDB)
		if err != nil {
			return fmt.Errorf("emrwatch: open breadcrumbs: %w", err)
		}
		w.crumbs = crumbs
	}

	var notice relay.NoticeFunc
	if w.cfg.Scrape.Notices {
		notice = w.scraper.ShowNotice
	}

	tenantID := w.cfg.Host.TenantID
	w.coord = relay.NewCoordinator(relay.CoordinatorConfig{
		Extractor: w.scraper,
		Tenants:   func() (string, bool) { return tenantID, tenantID != "" },
		Crumbs:    w.crumbs,
		Router:    w.router,
		Notice:    notice,
		TabID:     w.tabID,
		Logger:    w.logger,
	})

	w.obs = observer.New(observer.Config{
		Tab:      tab,
		Notifier: w.coord,
		Debounce: w.cfg.Host.Debounce,
		Logger:   w.logger,
	})
	w.obs.SetContext(ctx)

	if err := w.obs.Start(); err != nil {
		tab.Close()
		return fmt.Errorf("emrwatch: start observer: %w", err)
	}

	w.mgr.SetRecycleCallback(&browser.RecycleCallback{
		BeforeRecycle: w.obs.Stop,
		AfterRecycle:  func(*rod.Browser) { w.reattach(ctx) },
	})

	w.logger.Info("emrwatch: bridge running",
		"url", tab.CurrentURL, "tenant", tenantID, "tab", w.tabID)
	return nil
}

// Stop drains in-flight extractions and shuts everything down.
func (w *Watcher) Stop() {
	if w.obs != nil {
		w.obs.Stop()
	}
	if w.coord != nil {
		w.coord.Drain()
	}
	w.router.Close()
	if w.crumbs != nil {
		w.crumbs.Close()
	}
	w.mgr.Close()
	w.logger.Info("emrwatch: stopped")
}

// attachTab finds the clinician's existing EMR tab on a remote attachment,
// falling back to opening the configured entry point.
func (w *Watcher) attachTab(ctx context.Context) (*browser.Tab, error) {
	if w.mgr.Remote() {
		tab, err := browser.FindTab(ctx, w.mgr, w.tabID, emrpage.IsHostURL)
		if err != nil {
			return nil, fmt.Errorf("emrwatch: find EMR tab: %w", err)
		}
		if tab != nil {
			w.logger.Info("emrwatch: attached to existing EMR tab", "url", tab.CurrentURL)
			return tab, nil
		}
	}

	if w.cfg.Host.URL == "" {
		return nil, fmt.Errorf("emrwatch: no EMR tab found and no host URL configured")
	}

	tab, err := browser.OpenTab(ctx, w.mgr, w.cfg.Host.URL, w.tabID)
	if err != nil {
		return nil, fmt.Errorf("emrwatch: open EMR tab: %w", err)
	}
	return tab, nil
}

// reattach rebuilds the tab and observer after a browser recycle. The
// scraper keeps its identity so the relay's Extractor handle stays valid.
func (w *Watcher) reattach(ctx context.Context) {
	tab, err := w.attachTab(ctx)
	if err != nil {
		w.logger.Error("emrwatch: reattach after recycle failed", "error", err)
		return
	}

	w.scraper.SetTab(tab)

	w.obs = observer.New(observer.Config{
		Tab:      tab,
		Notifier: w.coord,
		Debounce: w.cfg.Host.Debounce,
		Logger:   w.logger,
	})
	w.obs.SetContext(ctx)

	if err := w.obs.Start(); err != nil {
		w.logger.Error("emrwatch: restart observer failed", "error", err)
	}
}
