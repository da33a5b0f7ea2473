package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/export"
	"github.com/Lixing-Zhang/kart-challenge/pos-admin/internal/models"
)

var (
	ErrUnknownBucket = errors.New("unknown order status")
	ErrInvalidDate   = errors.New("dates must use the YYYY-MM-DD format")
	ErrDateRange     = errors.New("start date must not be after end date")
)

const (
	DefaultLimit = 10
	MaxLimit     = 100

	dateLayout = "2006-01-02"

	// exportPageSize is the page size used to walk the whole result set
	exportPageSize = MaxLimit
	// maxExportPages bounds an export so a misbehaving backend cannot loop forever
	maxExportPages = 500
)

// Store is the backend list and mutate contract for orders
type Store interface {
	List(ctx context.Context, params models.ListParams) (*models.Page[models.Order], error)
	Get(ctx context.Context, id string) (*models.Order, error)
	Patch(ctx context.Context, id string, body any) (*models.Order, error)
}

// BucketCount is the number of orders in one bucket
type BucketCount struct {
	Bucket
	Count int `json:"count"`
}

// Service lists, counts and exports orders per status bucket and moves
// orders through their lifecycle
type Service struct {
	orders Store
	log    *slog.Logger
}

// NewService creates a new order service
func NewService(orders Store, log *slog.Logger) *Service {
	return &Service{orders: orders, log: log}
}

// Normalize applies defaults and bounds to list parameters and validates
// the date filter.
func Normalize(p models.ListParams) (models.ListParams, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	p.Search = strings.TrimSpace(p.Search)

	var start, end time.Time
	var err error
	if p.StartDate != "" {
		if start, err = time.Parse(dateLayout, p.StartDate); err != nil {
			return p, ErrInvalidDate
		}
	}
	if p.EndDate != "" {
		if end, err = time.Parse(dateLayout, p.EndDate); err != nil {
			return p, ErrInvalidDate
		}
	}
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return p, ErrDateRange
	}
	return p, nil
}

// List returns one page of the orders in the bucket
func (s *Service) List(ctx context.Context, bucketKey string, params models.ListParams) (*models.Page[models.Order], error) {
	bucket, ok := BucketFor(bucketKey)
	if !ok {
		return nil, ErrUnknownBucket
	}

	params, err := Normalize(params)
	if err != nil {
		return nil, err
	}
	params.Status = string(bucket.Status)

	page, err := s.orders.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list %s orders: %w", bucket.Key, err)
	}
	return page, nil
}

// Summary counts the orders of every bucket under the same search and date
// filter. Buckets are queried concurrently; the result keeps bucket order.
func (s *Service) Summary(ctx context.Context, params models.ListParams) ([]BucketCount, error) {
	params, err := Normalize(params)
	if err != nil {
		return nil, err
	}
	params.Page = 1
	params.Limit = 1

	counts := make([]BucketCount, len(Buckets))
	g, gctx := errgroup.WithContext(ctx)

	for i, b := range Buckets {
		counts[i].Bucket = b
		g.Go(func() error {
			p := params
			p.Status = string(b.Status)
			page, err := s.orders.List(gctx, p)
			if err != nil {
				return fmt.Errorf("count %s orders: %w", b.Key, err)
			}
			counts[i].Count = page.TotalCount
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

// ExportTable fetches every page of the bucket and lays it out for export
func (s *Service) ExportTable(ctx context.Context, bucketKey string, params models.ListParams) (export.Table, error) {
	bucket, ok := BucketFor(bucketKey)
	if !ok {
		return export.Table{}, ErrUnknownBucket
	}

	params, err := Normalize(params)
	if err != nil {
		return export.Table{}, err
	}
	params.Status = string(bucket.Status)
	params.Limit = exportPageSize

	table := export.Table{
		Dataset: datasetName(bucket),
		Columns: []export.Column{
			{Header: "Order ID", Width: 38},
			{Header: "Customer", Width: 24},
			{Header: "Status", Width: 18},
			{Header: "Type", Width: 16},
			{Header: "Items", Width: 8},
			{Header: "Total", Width: 14, Currency: true},
			{Header: "Created At", Width: 22},
		},
	}

	for page := 1; page <= maxExportPages; page++ {
		params.Page = page
		result, err := s.orders.List(ctx, params)
		if err != nil {
			return export.Table{}, fmt.Errorf("export %s orders: %w", bucket.Key, err)
		}

		for _, o := range result.Items {
			table.Rows = append(table.Rows, []any{
				o.ID,
				o.CustomerName,
				string(o.Status),
				o.OrderType,
				o.ItemCount(),
				o.Total,
				o.CreatedAt,
			})
		}

		if len(result.Items) == 0 || page >= result.Pages {
			break
		}
	}

	s.log.Debug("order export prepared", "bucket", bucket.Key, "rows", len(table.Rows))
	return table, nil
}

func datasetName(b Bucket) string {
	if b.Status == "" {
		return "orders"
	}
	return b.Key + "_orders"
}
