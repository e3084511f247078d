// Package scrape re-enters the EMR page to pull structured entities. The
// injected scripts only harvest raw text and markup; all parsing (names,
// label/value tables, schedule reconstruction) happens on the Go side in
// the extract package, where it is testable without a browser.
package scrape

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"

	"github.com/parable-health/emrbridge/emrwatch/internal/browser"
	"github.com/parable-health/emrbridge/extract"
)

//go:embed patient.js
var patientJS string

//go:embed visit.js
var visitJS string

//go:embed notice.js
var noticeJS string

// Selectors the extraction entry points wait on before harvesting.
var (
	patientSelectors = []string{".patient-header-name", ".patient-info"}
	visitSelectors   = []string{".visit-list-item", ".visit-item"}
)

// Demographics panel markup classes.
const (
	panelRowClass   = "patient-info-row"
	panelLabelClass = "info-label"
	panelValueClass = "info-value"
)

// Config for creating a Scraper.
type Config struct {
	Tab *browser.Tab
	// WaitTimeout is the per-selector budget before an extraction gives
	// up on the page. Default: 10s.
	WaitTimeout time.Duration
	// Now supplies the clock for relative-date resolution. Defaults to
	// time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Scraper extracts entities from one EMR tab. The tab is swappable so a
// browser recycle does not invalidate the relay's Extractor handle.
type Scraper struct {
	mu     sync.RWMutex
	tab    *browser.Tab
	wait   time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// New creates a Scraper for the given tab.
func New(cfg Config) *Scraper {
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 10 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Scraper{
		tab:    cfg.Tab,
		wait:   cfg.WaitTimeout,
		now:    cfg.Now,
		logger: cfg.Logger,
	}
}

// SetTab replaces the tab, for example after a browser recycle.
func (s *Scraper) SetTab(tab *browser.Tab) {
	s.mu.Lock()
	s.tab = tab
	s.mu.Unlock()
}

func (s *Scraper) page() *rod.Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tab.Page
}

// ExtractPatient harvests the patient page. Returns (nil, nil) when the
// page never rendered the patient within the wait budget; the relay
// reports that as an empty result.
func (s *Scraper) ExtractPatient(ctx context.Context, patientID string) (*extract.Patient, error) {
	sel, ok, err := WaitForAny(ctx, s.page(), patientSelectors, s.wait)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warn("scrape: patient page never settled", "patient_id", patientID)
		return nil, nil
	}
	s.logger.Debug("scrape: patient page ready", "selector", sel)

	res, err := s.page().Context(ctx).Eval(patientJS, patientID)
	if err != nil {
		return nil, fmt.Errorf("scrape: harvest patient %s: %w", patientID, err)
	}
	if res.Value.Nil() {
		return nil, nil
	}

	var raw struct {
		HeaderName string `json:"headerName"`
		PanelHTML  string `json:"panelHTML"`
	}
	if err := json.Unmarshal([]byte(res.Value.JSON("", "")), &raw); err != nil {
		return nil, fmt.Errorf("scrape: decode patient harvest: %w", err)
	}

	return AssemblePatient(raw.HeaderName, []byte(raw.PanelHTML))
}

// ExtractVisit harvests the selected visit from the visit rail and
// reconstructs its local date-time. Returns (nil, nil) when no visit item
// rendered within the wait budget.
func (s *Scraper) ExtractVisit(ctx context.Context, visitID string) (*extract.Visit, error) {
	_, ok, err := WaitForAny(ctx, s.page(), visitSelectors, s.wait)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warn("scrape: visit rail never settled", "visit_id", visitID)
		return nil, nil
	}

	res, err := s.page().Context(ctx).Eval(visitJS, visitID)
	if err != nil {
		return nil, fmt.Errorf("scrape: harvest visit %s: %w", visitID, err)
	}
	if res.Value.Nil() {
		return nil, nil
	}

	var raw struct {
		NameText         string   `json:"nameText"`
		TimeText         string   `json:"timeText"`
		HeaderCandidates []string `json:"headerCandidates"`
	}
	if err := json.Unmarshal([]byte(res.Value.JSON("", "")), &raw); err != nil {
		return nil, fmt.Errorf("scrape: decode visit harvest: %w", err)
	}

	return AssembleVisit(raw.NameText, raw.TimeText, raw.HeaderCandidates, s.now()), nil
}

// ShowNotice displays the in-page success notice. Failures are logged;
// the notice is informational only.
func (s *Scraper) ShowNotice(ctx context.Context, message string) {
	if _, err := s.page().Context(ctx).Eval(noticeJS, message); err != nil {
		s.logger.Warn("scrape: show notice failed", "error", err)
	}
}

// AssemblePatient builds a Patient from the harvested header text and
// demographics panel markup. The structured panel, when present, overrides
// the free-text header parse.
func AssemblePatient(headerName string, panelHTML []byte) (*extract.Patient, error) {
	name := extract.ParseName(headerName)

	if len(panelHTML) > 0 {
		pairs, err := extract.HarvestPairs(panelHTML, panelRowClass, panelLabelClass, panelValueClass)
		if err != nil {
			return nil, err
		}
		name = extract.ApplyAuthoritative(name, pairs)
	}

	if name.First == "" && name.Last == "" {
		return nil, nil
	}
	return &extract.Patient{
		FirstName: name.First,
		LastName:  name.Last,
		NickName:  name.Nick,
	}, nil
}

// AssembleVisit builds a Visit from the harvested rail texts. The first
// qualifying day header paired with the item's clock label yields the
// local date-time; an empty VisitDateTime means the rail carried no usable
// schedule information.
func AssembleVisit(nameText, timeText string, headerCandidates []string, now time.Time) *extract.Visit {
	name := extract.ParseName(nameText)

	var when string
	for _, header := range headerCandidates {
		if !extract.HeaderQualifies(header) {
			continue
		}
		if when = extract.Reconstruct(header, timeText, now); when != "" {
			break
		}
	}

	if name.First == "" && name.Last == "" && when == "" {
		return nil
	}
	return &extract.Visit{
		Patient: extract.Patient{
			FirstName: name.First,
			LastName:  name.Last,
			NickName:  name.Nick,
		},
		VisitDateTime: when,
	}
}
