// Command promo-ingest bulk-loads promo codes from gzip-compressed code
// lists into the promo_codes table. A bloom filter suppresses duplicates
// across files before they reach the database, so re-running on overlapping
// dumps stays cheap.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/narracraft/storefront/internal/domain/promo"
	"github.com/narracraft/storefront/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 1_000_000
	minCodeLen    = 6
	maxCodeLen    = 16
	insertChunk   = 500
)

func main() {
	var (
		dataDir         string
		databaseURL     string
		discountPercent string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.gz promo code files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&discountPercent, "discount-percent", "10", "discount percent granted by ingested codes")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	percent, err := decimal.NewFromString(discountPercent)
	if err != nil || percent.IsNegative() {
		slog.Error("discount percent must be a non-negative decimal", slog.String("value", discountPercent))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL, percent); err != nil {
		slog.Error("promo ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("promo ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string, percent decimal.Decimal) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil {
		return errors.Wrap(err, "glob data dir")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.gz files in %s", dataDir)
	}

	slog.Info("collecting codes", slog.Int("files", len(files)))

	codes, err := collectCodes(ctx, files)
	if err != nil {
		return errors.Wrap(err, "collect codes")
	}

	slog.Info("distinct codes collected", slog.Int("count", len(codes)))

	if len(codes) == 0 {
		slog.Info("nothing to insert")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	return writeCodes(ctx, postgres.NewPromoStore(pool), codes, percent)
}

// dedup tracks codes already seen across every file. The bloom filter
// absorbs almost all repeat lookups; the map only holds codes that passed
// it, keeping memory bounded by the distinct-code count.
type dedup struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
	seen   map[string]struct{}
	codes  []string
}

// add records the code once. It reports true for first sightings.
func (d *dedup) add(code string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.filter.TestString(code) {
		if _, ok := d.seen[code]; ok {
			return false
		}
	}
	d.filter.AddString(code)
	d.seen[code] = struct{}{}
	d.codes = append(d.codes, code)
	return true
}

// collectCodes streams every file concurrently and returns the distinct
// well-formed codes.
func collectCodes(ctx context.Context, files []string) ([]string, error) {
	d := &dedup{
		filter: bloom.NewWithEstimates(bloomCapacity, bloomFPR),
		seen:   make(map[string]struct{}),
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(ingestFile(ctx, i, f, d))
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return d.codes, nil
}

func ingestFile(ctx context.Context, idx int, path string, d *dedup) func() error {
	return func() error {
		var count, kept uint64

		if err := streamGzFile(ctx, path, func(code string) {
			count++
			if count%progressEvery == 0 {
				slog.Info("ingest progress",
					slog.Int("file", idx+1),
					slog.Uint64("lines", count),
				)
			}

			code = strings.ToUpper(strings.TrimSpace(code))
			if len(code) < minCodeLen || len(code) > maxCodeLen {
				return
			}
			if d.add(code) {
				kept++
			}
		}); err != nil {
			return errors.Wrapf(err, "ingest file %d", idx+1)
		}

		slog.Info("file complete",
			slog.Int("file", idx+1),
			slog.Uint64("lines", count),
			slog.Uint64("new_codes", kept),
		)
		return nil
	}
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(code string)) error {
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

// writeCodes inserts the codes in chunks, skipping ones already present.
func writeCodes(ctx context.Context, store *postgres.PromoStore, codes []string, percent decimal.Decimal) error {
	slog.Info("writing promo codes", slog.Int("count", len(codes)))

	var written int64
	for start := 0; start < len(codes); start += insertChunk {
		end := min(start+insertChunk, len(codes))

		batch := make([]promo.Code, 0, end-start)
		for _, code := range codes[start:end] {
			batch = append(batch, promo.Code{
				Code:            code,
				DiscountPercent: percent,
				Active:          true,
			})
		}

		n, err := store.InsertBatch(ctx, batch)
		if err != nil {
			return errors.Wrapf(err, "insert batch at offset %d", start)
		}
		written += n

		slog.Info("write progress", slog.Int("processed", end), slog.Int64("inserted", written))
	}

	return nil
}
