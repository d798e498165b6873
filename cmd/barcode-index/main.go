// Command barcode-index builds the bloom filter of sellable barcodes that the
// server uses to skip catalog lookups for codes that cannot match. It merges
// barcodes from the catalog database with optional gzipped supplier GTIN
// exports (one code per line) and writes the serialized filter to a file.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/oolio-pos-terminal/internal/repository"
)

const (
	bloomFPR      = 0.001
	progressEvery = 1_000_000
	minCodeLen    = 8
	maxCodeLen    = 14
)

func main() {
	var (
		databaseURL string
		dataDir     string
		outPath     string
		capacity    uint
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&dataDir, "data-dir", "", "optional directory of *.gz supplier barcode exports")
	flag.StringVar(&outPath, "out", "barcodes.bloom", "output path for the serialized filter")
	flag.UintVar(&capacity, "capacity", 10_000_000, "expected number of distinct barcodes")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" && dataDir == "" {
		slog.Error("at least one source is required: set --database-url/DATABASE_URL or --data-dir")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, dataDir, outPath, capacity); err != nil {
		slog.Error("barcode index build failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("barcode index written", slog.String("path", outPath))
}

func run(ctx context.Context, databaseURL, dataDir, outPath string, capacity uint) error {
	filter := bloom.NewWithEstimates(capacity, bloomFPR)

	if databaseURL != "" {
		if err := addCatalogBarcodes(ctx, filter, databaseURL); err != nil {
			return errors.Wrap(err, "catalog barcodes")
		}
	}

	if dataDir != "" {
		if err := addExportBarcodes(ctx, filter, dataDir, capacity); err != nil {
			return errors.Wrap(err, "export barcodes")
		}
	}

	f, err := os.Create(outPath)
	if err != nil {
		return errors.Wrapf(err, "create %s", outPath)
	}
	defer func() { _ = f.Close() }()

	if _, err := filter.WriteTo(f); err != nil {
		return errors.Wrap(err, "write filter")
	}
	return f.Close()
}

func addCatalogBarcodes(ctx context.Context, filter *bloom.BloomFilter, databaseURL string) error {
	slog.Info("loading barcodes from catalog database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	barcodes, err := repository.NewCatalogRepository(pool).ListBarcodes(ctx)
	if err != nil {
		return errors.Wrap(err, "list barcodes")
	}

	for _, code := range barcodes {
		filter.AddString(code)
	}

	slog.Info("catalog barcodes added", slog.Int("count", len(barcodes)))
	return nil
}

// addExportBarcodes streams every *.gz file in dataDir concurrently, building
// one filter per file, then merges them into filter. All filters share the
// same estimates so Merge is valid.
func addExportBarcodes(ctx context.Context, filter *bloom.BloomFilter, dataDir string, capacity uint) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil {
		return errors.Wrap(err, "glob data dir")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.gz files in %s", dataDir)
	}

	slog.Info("streaming supplier exports", slog.Int("files", len(files)))

	filters := make([]*bloom.BloomFilter, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(buildFilterForFile(ctx, i, path, capacity, filters))
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, fileFilter := range filters {
		if err := filter.Merge(fileFilter); err != nil {
			return errors.Wrapf(err, "merge filter for %s", files[i])
		}
	}
	return nil
}

func buildFilterForFile(ctx context.Context, idx int, path string, capacity uint, filters []*bloom.BloomFilter) func() error {
	return func() error {
		fileFilter := bloom.NewWithEstimates(capacity, bloomFPR)
		var count uint64

		if err := streamGzFile(ctx, path, func(code string) {
			if !validBarcode(code) {
				return
			}
			fileFilter.AddString(code)
			count++
			if count%progressEvery == 0 {
				slog.Info("progress", slog.Int("file", idx+1), slog.Uint64("codes", count))
			}
		}); err != nil {
			return errors.Wrapf(err, "stream %s", path)
		}

		slog.Info("file complete", slog.String("path", path), slog.Uint64("codes", count))
		filters[idx] = fileFilter
		return nil
	}
}

// validBarcode accepts numeric codes in the EAN-8 to GTIN-14 length range.
func validBarcode(code string) bool {
	if len(code) < minCodeLen || len(code) > maxCodeLen {
		return false
	}
	for i := range len(code) {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
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
