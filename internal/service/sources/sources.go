// Package sources holds the platform fetchers. Each turns one platform's public listing
// into a SourceBatch of a single shape; scoring happens later in the momentum pipeline.
package sources

import (
	"errors"
	"fmt"
	"strings"

	xhttp "PumpScan/pkg/http"
)

const (
	PlatformReddit      = "reddit"
	PlatformStockTwits  = "stocktwits"
	PlatformFourChan    = "4chan"
	PlatformBitcoinTalk = "bitcointalk"
)

// Names lists every fetcher name accepted in scan requests.
var Names = []string{PlatformReddit, PlatformStockTwits, PlatformFourChan, PlatformBitcoinTalk}

// partialError collects per-request failures of a fetch that still returned data.
type partialError struct {
	failed []string
	errs   []error
}

func (p *partialError) add(what string, err error) {
	p.failed = append(p.failed, fmt.Sprintf("%s: %v", what, err))
	p.errs = append(p.errs, err)
}

func (p *partialError) Unwrap() []error { return p.errs }

func (p *partialError) empty() bool { return len(p.failed) == 0 }

func (p *partialError) Error() string {
	return fmt.Sprintf("%d requests failed: %s", len(p.failed), strings.Join(p.failed, "; "))
}

// allFailed reports every request of a fetch failing; nothing was collected.
func allFailed(source string, p *partialError) error {
	return fmt.Errorf("%s: all requests failed: %w", source, p)
}

// IsRateLimited reports a 429 answer from a platform.
func IsRateLimited(err error) bool {
	var se *xhttp.StatusError
	return errors.As(err, &se) && se.Code == 429
}
