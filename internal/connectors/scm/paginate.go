package scm

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/custodia-labs/ferry-cli/internal/core/domain"
	"github.com/custodia-labs/ferry-cli/internal/logger"
)

const (
	// MaxPages bounds a single paginated listing. A remote that keeps
	// returning non-empty pages past this is treated as broken rather
	// than drained forever.
	MaxPages = 1000

	jitterMin = 10 * time.Millisecond
	jitterMax = 50 * time.Millisecond
)

// PageTransform rewrites or filters one page before accumulation.
type PageTransform[T any] func(page []T) []T

// Paginate drains a page-numbered listing endpoint. urlFor builds the
// URL for a page, starting at 1; the loop stops after the first empty
// page. A 404 anywhere terminates the listing as empty rather than
// failing, matching hosts that answer "not found" for resources with
// nothing to list. Emptiness is judged on the raw page, so a transform
// that filters a whole page out never cuts the listing short.
func Paginate[T any](ctx context.Context, client *http.Client, op string, urlFor func(page int) string, transform PageTransform[T]) ([]T, error) {
	return paginate(ctx, client, op, urlFor, transform, MaxPages)
}

func paginate[T any](ctx context.Context, client *http.Client, op string, urlFor func(page int) string, transform PageTransform[T], maxPages int) ([]T, error) {
	items := []T{}

	for page := 1; ; page++ {
		if page > maxPages {
			return nil, &domain.FetchError{
				Op:  op,
				URL: urlFor(page),
				Err: fmt.Errorf("page cap %d exceeded", maxPages),
			}
		}
		if err := Pace(ctx); err != nil {
			return nil, err
		}

		var batch []T
		if err := GetJSON(ctx, client, op, urlFor(page), &batch); err != nil {
			if domain.IsNotFound(err) {
				return items, nil
			}
			return nil, err
		}
		if len(batch) == 0 {
			return items, nil
		}

		logger.Debug("Page %d of %s: %d items", page, op, len(batch))
		if transform != nil {
			batch = transform(batch)
		}
		items = append(items, batch...)
	}
}

// Pace sleeps a small random interval so bursts of successive API
// calls spread out. Cancellation cuts the sleep short.
func Pace(ctx context.Context) error {
	d := jitterMin + time.Duration(rand.Int63n(int64(jitterMax-jitterMin)))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
