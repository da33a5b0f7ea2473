// Package coupon validates promo codes against the published coupon bases.
package coupon

import (
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"golang.org/x/sync/errgroup"
)

const (
	minCodeLength = 8
	maxCodeLength = 10

	// a code is valid when it appears in at least this many bases
	minMatches = 2

	falsePositiveRate = 0.01
)

var ErrNoSources = errors.New("no coupon sources provided")

// Validator validates coupon codes against multiple coupon bases
type Validator struct {
	mu     sync.RWMutex
	sets   []*couponSet
	client *http.Client
	log    *slog.Logger
}

// couponSet is one coupon base. The bloom filter answers most misses
// without touching the map.
type couponSet struct {
	source string
	codes  map[string]struct{}
	filter *bloom.BloomFilter
}

func (s *couponSet) contains(code string) bool {
	if !s.filter.TestString(code) {
		return false
	}
	_, ok := s.codes[code]
	return ok
}

// Option configures a Validator
type Option func(*Validator)

func WithLogger(log *slog.Logger) Option {
	return func(v *Validator) { v.log = log }
}

func WithHTTPClient(c *http.Client) Option {
	return func(v *Validator) { v.client = c }
}

// NewValidator creates a new coupon validator
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		// coupon bases can be hundreds of megabytes
		client: &http.Client{Timeout: 5 * time.Minute},
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// LoadFromURLs downloads the coupon bases concurrently. Any failure aborts
// the load and keeps the previously loaded bases.
func (v *Validator) LoadFromURLs(ctx context.Context, urls []string) error {
	return v.load(ctx, urls, v.openURL)
}

// LoadFromFiles reads the coupon bases from local files concurrently
func (v *Validator) LoadFromFiles(ctx context.Context, paths []string) error {
	return v.load(ctx, paths, openFile)
}

type opener func(ctx context.Context, source string) (io.ReadCloser, error)

func (v *Validator) load(ctx context.Context, sources []string, open opener) error {
	if len(sources) == 0 {
		return ErrNoSources
	}

	sets := make([]*couponSet, len(sources))
	g, gctx := errgroup.WithContext(ctx)

	for i, src := range sources {
		g.Go(func() error {
			start := time.Now()

			rc, err := open(gctx, src)
			if err != nil {
				return fmt.Errorf("failed to open coupon base %d: %w", i+1, err)
			}
			defer rc.Close()

			set, err := readCouponSet(src, rc)
			if err != nil {
				return fmt.Errorf("failed to read coupon base %d: %w", i+1, err)
			}
			sets[i] = set

			v.log.Info("coupon base loaded",
				"source", src,
				"coupons", len(set.codes),
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	v.mu.Lock()
	v.sets = sets
	v.mu.Unlock()
	return nil
}

func (v *Validator) openURL(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func openFile(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// readCouponSet parses one code per line. Gzip input is detected by its
// magic number so plain and compressed bases are both accepted.
func readCouponSet(source string, r io.Reader) (*couponSet, error) {
	br := bufio.NewReader(r)

	var in io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		in = gz
	}

	codes := make(map[string]struct{})
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if code := normalize(scanner.Text()); code != "" {
			codes[code] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	filter := bloom.NewWithEstimates(uint(max(len(codes), 1)), falsePositiveRate)
	for code := range codes {
		filter.AddString(code)
	}

	return &couponSet{source: source, codes: codes, filter: filter}, nil
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValid checks if a coupon code is valid.
// A coupon is valid if it has 8-10 characters and appears in at least two
// of the loaded bases. Matching ignores case and surrounding whitespace.
func (v *Validator) IsValid(ctx context.Context, code string) bool {
	code = normalize(code)
	if len(code) < minCodeLength || len(code) > maxCodeLength {
		return false
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	matches := 0
	for _, s := range v.sets {
		if ctx.Err() != nil {
			return false
		}
		if s.contains(code) {
			matches++
			if matches >= minMatches {
				return true
			}
		}
	}
	return false
}

// GetStats returns statistics about loaded coupons
func (v *Validator) GetStats() map[string]interface{} {
	v.mu.RLock()
	defer v.mu.RUnlock()

	fileSizes := make([]int, len(v.sets))
	filePaths := make([]string, len(v.sets))
	totalCoupons := 0

	for i, s := range v.sets {
		fileSizes[i] = len(s.codes)
		filePaths[i] = s.source
		totalCoupons += len(s.codes)
	}

	return map[string]interface{}{
		"total_files":   len(v.sets),
		"file_sizes":    fileSizes,
		"file_paths":    filePaths,
		"total_coupons": totalCoupons,
	}
}
