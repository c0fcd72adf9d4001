// Package report answers the storefront's analytical questions by running
// fixed aggregation pipelines over the current contents of the collections.
// Nothing is cached: every call reads the store again.
package report

import (
	"context"
	"fmt"
	"time"

	"clothing-store/internal/models"
	"clothing-store/internal/pipeline"
	"clothing-store/internal/store"
	"clothing-store/internal/util"

	"github.com/mitchellh/mapstructure"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Service holds only read-only collaborators and is safe for concurrent use.
type Service struct {
	store  store.CollectionStore
	topN   int
	logger *zap.Logger
}

// NewService creates a report service returning at most topN rows from the
// ranking reports.
func NewService(st store.CollectionStore, topN int) *Service {
	return &Service{
		store:  st,
		topN:   topN,
		logger: util.Named("report"),
	}
}

type dataset map[store.Collection][]pipeline.Row

// plan describes one report: the collection the pipeline starts from, every
// collection it reads, and how to build its stages from the loaded data.
type plan struct {
	name  string
	from  store.Collection
	reads []store.Collection
	build func(data dataset) *pipeline.Pipeline
}

// execute loads every collection of the plan exactly once, runs the pipeline
// and decodes the rows. Any store failure fails the whole report.
func execute[T any](ctx context.Context, s *Service, p plan) ([]T, error) {
	ctx, span := util.StartSpan(ctx, "ReportService."+p.name)
	defer span.End()

	start := time.Now()
	defer func() {
		util.ReportDuration.WithLabelValues(p.name).Observe(time.Since(start).Seconds())
	}()

	data, err := s.load(ctx, p.reads...)
	if err != nil {
		util.ReportFailuresTotal.WithLabelValues(p.name).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("Report failed", zap.String("report", p.name), zap.Error(err))
		return nil, fmt.Errorf("report %s: %w", p.name, err)
	}

	rows := p.build(data).
		WithObserver(func(stage string, in, out int) {
			s.logger.Debug("Pipeline stage",
				zap.String("report", p.name),
				zap.String("stage", stage),
				zap.Int("rows_in", in),
				zap.Int("rows_out", out))
		}).
		Run(data[p.from])

	out, err := decodeRows[T](rows)
	if err != nil {
		util.ReportFailuresTotal.WithLabelValues(p.name).Inc()
		return nil, fmt.Errorf("report %s: %w", p.name, err)
	}

	util.ReportRows.WithLabelValues(p.name).Set(float64(len(out)))
	span.SetAttributes(attribute.Int("report.rows", len(out)))
	s.logger.Debug("Report computed", zap.String("report", p.name), zap.Int("rows", len(out)))
	return out, nil
}

// load reads the given collections concurrently.
func (s *Service) load(ctx context.Context, colls ...store.Collection) (dataset, error) {
	results := make([][]store.Document, len(colls))

	g, gctx := errgroup.WithContext(ctx)
	for i, coll := range colls {
		i, coll := i, coll
		g.Go(func() error {
			docs, err := s.store.Find(gctx, coll, nil)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", coll, err)
			}
			results[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	data := make(dataset, len(colls))
	for i, coll := range colls {
		data[coll] = pipeline.Rows(results[i])
	}
	return data, nil
}

func decodeRows[T any](rows []pipeline.Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		var item T
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &item,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(map[string]any(r)); err != nil {
			return nil, fmt.Errorf("failed to decode row: %w", err)
		}
		out = append(out, item)
	}
	return out, nil
}

// BrandsWithSales lists each brand with at least one sale of any of its
// products, once, in brand collection order.
func (s *Service) BrandsWithSales(ctx context.Context) ([]BrandWithSales, error) {
	return execute[BrandWithSales](ctx, s, plan{
		name:  ReportBrandsWithSales,
		from:  store.Brands,
		reads: []store.Collection{store.Brands, store.Products, store.Sales},
		build: func(data dataset) *pipeline.Pipeline {
			return pipeline.New(
				pipeline.Lookup{From: data[store.Products], LocalField: store.IDField, ForeignField: "brand_id", As: "product", Mode: pipeline.Inner},
				pipeline.Unwind{Path: "product"},
				pipeline.Lookup{From: data[store.Sales], LocalField: "product._id", ForeignField: "product_id", As: "sales", Mode: pipeline.Inner},
				pipeline.NonEmpty("sales"),
				pipeline.Dedupe{By: store.IDField},
				pipeline.Project{Fn: func(r pipeline.Row) pipeline.Row {
					return pipeline.Row{
						"brand_id": pipeline.IDString(r[store.IDField]),
						"name":     r["name"],
						"country":  r["country"],
					}
				}},
			)
		},
	})
}

// ProductsSoldAndStock returns one row per product, with zero sold for
// products that never sold.
func (s *Service) ProductsSoldAndStock(ctx context.Context) ([]ProductStock, error) {
	return execute[ProductStock](ctx, s, plan{
		name:  ReportProductsSoldAndStock,
		from:  store.Products,
		reads: []store.Collection{store.Products, store.Sales},
		build: func(data dataset) *pipeline.Pipeline {
			return pipeline.New(
				pipeline.Lookup{From: data[store.Sales], LocalField: store.IDField, ForeignField: "product_id", As: "sale", Mode: pipeline.LeftOuter},
				pipeline.Unwind{Path: "sale", PreserveEmpty: true},
				pipeline.Group{By: store.IDField, Accumulators: []pipeline.Accumulator{
					pipeline.First("name", "name"),
					pipeline.First("stock", "stock"),
					pipeline.Sum("sold_quantity", "sale.quantity"),
				}},
				pipeline.Project{Fn: func(r pipeline.Row) pipeline.Row {
					stock, _ := pipeline.Int(r["stock"])
					sold, _ := pipeline.Int(r["sold_quantity"])
					return pipeline.Row{
						"product_id":      pipeline.IDString(r[pipeline.GroupIDField]),
						"name":            r["name"],
						"stock":           stock,
						"sold_quantity":   sold,
						"remaining_stock": stock - sold,
					}
				}},
			)
		},
	})
}

// TopBrands ranks brands by units sold. Brands without sales never appear.
func (s *Service) TopBrands(ctx context.Context) ([]TopBrand, error) {
	return execute[TopBrand](ctx, s, plan{
		name:  ReportTopBrands,
		from:  store.Brands,
		reads: []store.Collection{store.Brands, store.Products, store.Sales},
		build: func(data dataset) *pipeline.Pipeline {
			return pipeline.New(
				pipeline.Lookup{From: data[store.Products], LocalField: store.IDField, ForeignField: "brand_id", As: "product", Mode: pipeline.Inner},
				pipeline.Unwind{Path: "product"},
				pipeline.Lookup{From: data[store.Sales], LocalField: "product._id", ForeignField: "product_id", As: "sale", Mode: pipeline.Inner},
				pipeline.Unwind{Path: "sale"},
				pipeline.Group{By: store.IDField, Accumulators: []pipeline.Accumulator{
					pipeline.First("name", "name"),
					pipeline.Sum("total_sold", "sale.quantity"),
				}},
				pipeline.Sort{By: "total_sold", Desc: true},
				pipeline.Limit{N: s.topN},
				pipeline.Project{Fn: func(r pipeline.Row) pipeline.Row {
					return pipeline.Row{
						"brand_id":   pipeline.IDString(r[pipeline.GroupIDField]),
						"name":       r["name"],
						"total_sold": r["total_sold"],
					}
				}},
			)
		},
	})
}

// TopUsers ranks users by number of sale records. Users without purchases
// stay eligible with a count of zero.
func (s *Service) TopUsers(ctx context.Context) ([]TopUser, error) {
	return execute[TopUser](ctx, s, plan{
		name:  ReportTopUsers,
		from:  store.Users,
		reads: []store.Collection{store.Users, store.Sales},
		build: func(data dataset) *pipeline.Pipeline {
			return pipeline.New(
				pipeline.Lookup{From: data[store.Sales], LocalField: store.IDField, ForeignField: "user_id", As: "sale", Mode: pipeline.LeftOuter},
				pipeline.Unwind{Path: "sale", PreserveEmpty: true},
				pipeline.Group{By: store.IDField, Accumulators: []pipeline.Accumulator{
					pipeline.First("username", "username"),
					pipeline.First("email", "email"),
					pipeline.Count("total_purchases", "sale"),
				}},
				pipeline.Project{Fn: func(r pipeline.Row) pipeline.Row {
					return pipeline.Row{
						"user_id":         pipeline.IDString(r[pipeline.GroupIDField]),
						"username":        r["username"],
						"email":           r["email"],
						"total_purchases": r["total_purchases"],
					}
				}},
				pipeline.Sort{By: "total_purchases", Desc: true},
				pipeline.Limit{N: s.topN},
			)
		},
	})
}

// AverageRatings returns each product's mean rating rounded to two places,
// best first. Products without reviews have no rating and sort last.
func (s *Service) AverageRatings(ctx context.Context) ([]ProductRating, error) {
	return execute[ProductRating](ctx, s, plan{
		name:  ReportAverageRatings,
		from:  store.Products,
		reads: []store.Collection{store.Products, store.Reviews},
		build: func(data dataset) *pipeline.Pipeline {
			return pipeline.New(
				pipeline.Lookup{From: data[store.Reviews], LocalField: store.IDField, ForeignField: "product_id", As: "review", Mode: pipeline.LeftOuter},
				pipeline.Unwind{Path: "review", PreserveEmpty: true},
				pipeline.Group{By: store.IDField, Accumulators: []pipeline.Accumulator{
					pipeline.First("name", "name"),
					pipeline.Avg("avg_rating", "review.rating"),
					pipeline.Count("total_reviews", "review"),
				}},
				pipeline.Project{Fn: func(r pipeline.Row) pipeline.Row {
					var avg any
					if v, ok := pipeline.Float(r["avg_rating"]); ok {
						avg = pipeline.Round(v, 2)
					}
					return pipeline.Row{
						"product_id":    pipeline.IDString(r[pipeline.GroupIDField]),
						"name":          r["name"],
						"avg_rating":    avg,
						"total_reviews": r["total_reviews"],
					}
				}},
				pipeline.Sort{By: "avg_rating", Desc: true},
			)
		},
	})
}

// SalesByDate returns the sales recorded on the given day. The day match is
// pushed down to the store, so dates stored as text or as timestamps both
// count.
func (s *Service) SalesByDate(ctx context.Context, date time.Time) ([]models.Sale, error) {
	ctx, span := util.StartSpan(ctx, "ReportService."+ReportSalesByDate)
	defer span.End()

	day := date.UTC().Format(models.SaleDateLayout)
	span.SetAttributes(attribute.String("report.date", day))

	docs, err := s.store.Find(ctx, store.Sales, store.Filter{"sale_date": store.OnDay(date)})
	if err != nil {
		util.ReportFailuresTotal.WithLabelValues(ReportSalesByDate).Inc()
		return nil, fmt.Errorf("report %s: %w", ReportSalesByDate, err)
	}

	sales := make([]models.Sale, 0, len(docs))
	if err := models.DecodeDocuments(docs, &sales); err != nil {
		return nil, fmt.Errorf("report %s: %w", ReportSalesByDate, err)
	}

	util.ReportRows.WithLabelValues(ReportSalesByDate).Set(float64(len(sales)))
	return sales, nil
}

// SoldQuantityByDate totals the units sold on the given day. A day without
// sales totals zero.
func (s *Service) SoldQuantityByDate(ctx context.Context, date time.Time) (*DailySales, error) {
	ctx, span := util.StartSpan(ctx, "ReportService."+ReportSoldQuantityByDate)
	defer span.End()

	day := date.UTC().Format(models.SaleDateLayout)

	docs, err := s.store.Find(ctx, store.Sales, store.Filter{"sale_date": store.OnDay(date)})
	if err != nil {
		util.ReportFailuresTotal.WithLabelValues(ReportSoldQuantityByDate).Inc()
		return nil, fmt.Errorf("report %s: %w", ReportSoldQuantityByDate, err)
	}

	rows := pipeline.New(
		pipeline.Project{Fn: func(r pipeline.Row) pipeline.Row {
			saleDay, _ := models.SaleDay(r["sale_date"])
			return r.With("sale_date", saleDay)
		}},
		pipeline.Equals("sale_date", day),
		pipeline.Group{By: "sale_date", Accumulators: []pipeline.Accumulator{
			pipeline.Sum("total_sold", "quantity"),
			pipeline.Count("sale_count", ""),
		}},
	).Run(pipeline.Rows(docs))

	result := &DailySales{Date: day}
	if len(rows) > 0 {
		result.TotalSold, _ = pipeline.Int(rows[0]["total_sold"])
		result.SaleCount, _ = pipeline.Int(rows[0]["sale_count"])
	}
	return result, nil
}
