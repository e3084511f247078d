package scrape

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-rod/rod"
)

//go:embed waitfor.js
var waitForJS string

// WaitFor blocks until selector matches or timeout elapses. The check runs
// inside the page: one immediate query, then a re-query per mutation batch
// under the body, with the in-page observer disconnected on match and on
// timeout alike. The returned bool is false on timeout, which is not an
// error.
func WaitFor(ctx context.Context, page *rod.Page, selector string, timeout time.Duration) (bool, error) {
	evalCtx, cancel := context.WithTimeout(ctx, timeout+2*time.Second)
	defer cancel()

	res, err := page.Context(evalCtx).Eval(waitForJS, selector, timeout.Milliseconds())
	if err != nil {
		return false, fmt.Errorf("scrape: wait for %q: %w", selector, err)
	}
	return res.Value.Bool(), nil
}

// WaitForAny tries each selector in turn, each with a full timeout budget,
// and returns the first that matched. A later selector only matters when
// the earlier one is absent from this EMR build, so its clock starts after
// the earlier one times out.
func WaitForAny(ctx context.Context, page *rod.Page, selectors []string, timeout time.Duration) (string, bool, error) {
	for _, sel := range selectors {
		ok, err := WaitFor(ctx, page, sel, timeout)
		if err != nil {
			return "", false, err
		}
		if ok {
			return sel, true, nil
		}
	}
	return "", false, nil
}
