// Command catalog-ingest cross-checks gzipped supplier availability feeds
// and updates the catalog's stock flags. Each feed is a line-delimited list
// of SKUs the supplier claims to stock; a SKU counts as available only when
// it appears in two or more feeds. Feeds are far larger than memory, so the
// tool makes two streaming passes: the first builds one bloom filter per
// feed, the second collects SKUs that other feeds' filters also contain.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/verdant-storefront/internal/storage/postgres"
)

const (
	bloomCapacity = 120_000_000
	bloomFPR      = 0.001
	numFeeds      = 3
	progressEvery = 10_000_000
	minSKULen     = 4
	maxSKULen     = 64
)

// feedResult holds candidate SKUs found in a single feed during pass 2,
// keyed to a bitmask of which feeds contained them.
type feedResult struct {
	candidates map[string]uint
}

func main() {
	var (
		feedDir     string
		databaseURL string
		reset       bool
	)

	flag.StringVar(&feedDir, "feed-dir", "data", "directory containing feedN.gz files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.BoolVar(&reset, "reset", false, "mark the whole catalog out of stock before applying feeds")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, feedDir, databaseURL, reset); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, feedDir, databaseURL string, reset bool) error {
	feeds := make([]string, numFeeds)
	for i := range numFeeds {
		feeds[i] = filepath.Join(feedDir, fmt.Sprintf("feed%d.gz", i+1))
	}
	for _, f := range feeds {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check feed %s", f)
		}
	}

	// Pass 1: one bloom filter per feed, built concurrently.
	slog.Info("pass 1: building bloom filters", slog.Int("feeds", numFeeds))

	filters, err := buildBloomFilters(ctx, feeds)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	// Pass 2: SKUs confirmed by 2+ feeds.
	slog.Info("pass 2: cross-checking feeds")

	confirmed, err := confirmSKUs(ctx, feeds, filters)
	if err != nil {
		return errors.Wrap(err, "confirm SKUs")
	}

	slog.Info("confirmed SKUs", slog.Int("count", len(confirmed)))

	if len(confirmed) == 0 && !reset {
		slog.Info("nothing to update")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	repo := postgres.NewProductRepository(pool)

	if reset {
		slog.Info("marking catalog out of stock before applying feeds")
		if err := repo.MarkAllOutOfStock(ctx); err != nil {
			return errors.Wrap(err, "reset stock flags")
		}
	}

	updated, err := repo.SetStock(ctx, confirmed, true)
	if err != nil {
		return errors.Wrap(err, "apply stock flags")
	}

	// Confirmed SKUs that touch no row are supplier noise, not errors.
	slog.Info("stock flags applied",
		slog.Int64("updated", updated),
		slog.Int("confirmed", len(confirmed)),
	)

	return nil
}

// buildBloomFilters creates one bloom filter per feed, concurrently.
func buildBloomFilters(ctx context.Context, feeds []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(feeds))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range feeds {
		g.Go(buildFilterForFeed(ctx, i, f, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

func buildFilterForFeed(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamGzFeed(ctx, path, func(sku string) {
			if len(sku) >= minSKULen && len(sku) <= maxSKULen {
				filter.AddString(sku)
				count++
				if count%progressEvery == 0 {
					slog.Info("pass 1 progress",
						slog.Int("feed", idx+1),
						slog.Uint64("skus", count),
					)
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "build filter for feed %d", idx+1)
		}

		slog.Info("pass 1 complete",
			slog.Int("feed", idx+1),
			slog.Uint64("total_skus", count),
		)

		filters[idx] = filter
		return nil
	}
}

// confirmSKUs re-streams each feed and checks SKUs against the OTHER feeds'
// bloom filters. A SKU is confirmed when it appears in 2 or more feeds.
func confirmSKUs(ctx context.Context, feeds []string, filters []*bloom.BloomFilter) ([]string, error) {
	results := make([]feedResult, len(feeds))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range feeds {
		g.Go(findCandidatesInFeed(ctx, i, f, filters, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge bitmasks from all feeds.
	merged := make(map[string]uint)
	for _, r := range results {
		for sku, mask := range r.candidates {
			merged[sku] |= mask
		}
	}

	var confirmed []string
	for sku, mask := range merged {
		if bits.OnesCount(mask) >= 2 {
			confirmed = append(confirmed, sku)
		}
	}

	return confirmed, nil
}

func findCandidatesInFeed(
	ctx context.Context,
	idx int,
	path string,
	filters []*bloom.BloomFilter,
	results []feedResult,
) func() error {
	return func() error {
		candidates := make(map[string]uint)
		feedBit := uint(1) << uint(idx)
		var count uint64

		if err := streamGzFeed(ctx, path, func(sku string) {
			if len(sku) < minSKULen || len(sku) > maxSKULen {
				return
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("pass 2 progress",
					slog.Int("feed", idx+1),
					slog.Uint64("skus", count),
				)
			}

			// Check whether any OTHER feed's bloom filter also has this SKU.
			for j, f := range filters {
				if j == idx {
					continue
				}
				if f.TestString(sku) {
					candidates[sku] |= feedBit
					break
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "scan feed %d for candidates", idx+1)
		}

		slog.Info("pass 2 complete",
			slog.Int("feed", idx+1),
			slog.Uint64("total_skus", count),
			slog.Int("candidates", len(candidates)),
		)

		results[idx] = feedResult{candidates: candidates}
		return nil
	}
}

// streamGzFeed opens a gzip-compressed feed and calls fn for each line.
func streamGzFeed(ctx context.Context, path string, fn func(sku string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}
