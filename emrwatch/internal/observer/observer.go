// Package observer watches one EMR tab for client-side navigation and
// turns qualifying URL changes into relay detections. The injected hook
// reports history API calls, popstate, and mutation bursts; the Go side
// debounces, classifies, and deduplicates before notifying the relay.
package observer

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod/lib/proto"

	"github.com/parable-health/emrbridge/emrpage"
	"github.com/parable-health/emrbridge/emrwatch/internal/browser"
	"github.com/parable-health/emrbridge/relay"
)

//go:embed navigate.js
var navigateJS string

const bindingName = "__emrbridge_onNavigate"

// Notifier receives accepted page detections. The returned Ack decides
// whether the observer commits its dedup tracker: a rejected detection is
// retried on the next qualifying navigation.
type Notifier interface {
	PatientDetected(ctx context.Context, patientID, pageURL string) relay.Ack
	VisitDetected(ctx context.Context, visitID, patientID, pageURL string) relay.Ack
}

// Config for creating an Observer.
type Config struct {
	Tab      *browser.Tab
	Notifier Notifier
	// Debounce is the quiet window after a navigation burst before the
	// page is classified. Default: 300ms.
	Debounce time.Duration
	Logger   *slog.Logger
}

// Observer manages navigation observation for a single EMR tab.
type Observer struct {
	tab      *browser.Tab
	notifier Notifier
	debounce time.Duration
	logger   *slog.Logger

	track tracker
	navCh chan string

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates an Observer for the given tab.
func New(cfg Config) *Observer {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 300 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Observer{
		tab:      cfg.Tab,
		notifier: cfg.Notifier,
		debounce: cfg.Debounce,
		logger:   cfg.Logger,
		navCh:    make(chan string, 64),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetContext allows the parent watcher to pass its context. The context
// created at construction is cancelled before being replaced.
func (o *Observer) SetContext(ctx context.Context) {
	if o.cancel != nil {
		o.cancel()
	}
	o.ctx, o.cancel = context.WithCancel(ctx)
}

// Start hooks the page and begins observing. It:
// 1. Registers the navigation binding
// 2. Injects the history/mutation hook
// 3. Classifies the current URL once
// 4. Runs the debounce loop
func (o *Observer) Start() error {
	if err := o.injectHook(); err != nil {
		return fmt.Errorf("observer: inject hook: %w", err)
	}

	// Initial page: the clinician may already be on a patient.
	o.decide(o.ctx, o.tab.CurrentURL)

	go o.loop()

	o.logger.Info("observer: watching tab", "url", o.tab.CurrentURL, "tab", o.tab.TabID)
	return nil
}

// Stop halts observation. The injected hook stays behind in the page and
// goes quiet once its binding disappears.
func (o *Observer) Stop() {
	o.cancel()
}

func (o *Observer) injectHook() error {
	page := o.tab.Page

	err := proto.RuntimeAddBinding{Name: bindingName}.Call(page)
	if err != nil {
		o.logger.Warn("observer: addBinding failed (may already exist)", "error", err)
	}

	go o.listenBinding()

	if _, err := page.Eval(navigateJS); err != nil {
		return fmt.Errorf("inject navigate.js: %w", err)
	}
	return nil
}

// listenBinding receives navigation reports from the injected hook via
// Runtime.bindingCalled.
func (o *Observer) listenBinding() {
	page := o.tab.Page
	page.Context(o.ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != bindingName {
			return
		}

		var report struct {
			URL    string `json:"url"`
			Reason string `json:"reason"`
			At     int64  `json:"at"`
		}
		if err := json.Unmarshal([]byte(e.Payload), &report); err != nil {
			o.logger.Warn("observer: parse navigation report", "error", err)
			return
		}

		select {
		case o.navCh <- report.URL:
		default:
			// Burst overflow: the debouncer only needs the latest URL,
			// which a later report will carry.
		}
	})()
}

// loop debounces navigation reports and classifies the settled URL.
func (o *Observer) loop() {
	var timer *time.Timer
	var timerC <-chan time.Time
	var lastURL string

	for {
		select {
		case <-o.ctx.Done():
			return

		case url := <-o.navCh:
			lastURL = url
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(o.debounce)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			o.decide(o.ctx, lastURL)
		}
	}
}

// decide classifies one settled URL and notifies the relay when the page
// is a patient or visit not yet handed off. The tracker commits only on
// an accepted detection, so precondition failures retry on the next
// qualifying navigation. A page showing neither entity, or one off the
// EMR host entirely, clears the tracker: leaving an entity's context and
// coming back re-detects it.
func (o *Observer) decide(ctx context.Context, rawURL string) {
	if rawURL == "" {
		return
	}
	if o.tab != nil {
		o.tab.CurrentURL = rawURL
	}
	if !emrpage.IsHostURL(rawURL) {
		o.track.clear()
		return
	}

	page := emrpage.Classify(rawURL)
	switch page.PageType {
	case emrpage.Visit:
		if !o.track.newVisit(page.VisitID) {
			return
		}
		ack := o.notifier.VisitDetected(ctx, page.VisitID, page.PatientID, rawURL)
		if !ack.Success {
			o.logger.Warn("observer: visit detection rejected", "visit_id", page.VisitID, "reason", ack.Error)
			return
		}
		o.track.commitVisit(page.VisitID)
		o.logger.Info("observer: visit detected", "visit_id", page.VisitID, "patient_id", page.PatientID)

	case emrpage.PatientProfile:
		if !o.track.newPatient(page.PatientID) {
			return
		}
		ack := o.notifier.PatientDetected(ctx, page.PatientID, rawURL)
		if !ack.Success {
			o.logger.Warn("observer: patient detection rejected", "patient_id", page.PatientID, "reason", ack.Error)
			return
		}
		o.track.commitPatient(page.PatientID)
		o.logger.Info("observer: patient detected", "patient_id", page.PatientID)

	default:
		o.track.clear()
	}
}

// Reset forgets dedup state, for example after the tab is replaced by a
// browser recycle.
func (o *Observer) Reset() {
	o.track.clear()
}
