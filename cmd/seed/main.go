package main

import (
	"context"
	"flag"
	"log"
	"time"

	"clothing-store/config"
	"clothing-store/internal/models"
	"clothing-store/internal/report"
	"clothing-store/internal/service"
	"clothing-store/internal/store"
	"clothing-store/internal/util"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "seed an in-memory store instead of the configured one")
	date := flag.String("date", "2025-07-10", "day used by the sold quantity report")
	flag.Parse()

	cfg := config.Load()
	if *dryRun {
		cfg.Store.Driver = config.StoreDriverMemory
	}

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()
	logger := util.Named("seed")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer st.Close()

	catalog := service.NewCatalogService(st, nil, nil, 0)
	if err := seed(ctx, catalog, logger); err != nil {
		logger.Fatal("Failed to seed catalog", zap.Error(err))
	}
	if err := crudExample(ctx, catalog, logger); err != nil {
		logger.Fatal("CRUD example failed", zap.Error(err))
	}

	day, err := report.ParseDate(*date)
	if err != nil {
		logger.Fatal("Invalid date", zap.Error(err))
	}
	if err := printReports(ctx, report.NewService(st, cfg.Business.ReportTopN), day, logger); err != nil {
		logger.Fatal("Failed to compute reports", zap.Error(err))
	}
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

func seed(ctx context.Context, catalog *service.CatalogService, logger *zap.Logger) error {
	brands := []map[string]any{
		{"_id": newID(), "name": "Nike", "country": "USA"},
		{"_id": newID(), "name": "Adidas", "country": "Germany"},
		{"_id": newID(), "name": "Puma", "country": "Germany"},
		{"_id": newID(), "name": "Under Armour", "country": "USA"},
		{"_id": newID(), "name": "Reebok", "country": "USA"},
	}
	products := []map[string]any{
		{"_id": newID(), "name": "Air Max", "brand_id": brands[0]["_id"], "price": 120.0, "stock": 50},
		{"_id": newID(), "name": "Ultraboost", "brand_id": brands[1]["_id"], "price": 150.0, "stock": 40},
		{"_id": newID(), "name": "Suede Classic", "brand_id": brands[2]["_id"], "price": 80.0, "stock": 30},
		{"_id": newID(), "name": "Charged Assert", "brand_id": brands[3]["_id"], "price": 90.0, "stock": 20},
		{"_id": newID(), "name": "Nano 9", "brand_id": brands[4]["_id"], "price": 110.0, "stock": 25},
	}
	users := []map[string]any{
		{"_id": newID(), "username": "juan01", "email": "juan01@example.com", "password": "pass123", "role": models.RoleCustomer, "created_at": "2025-07-01T00:00:00Z"},
		{"_id": newID(), "username": "maria02", "email": "maria02@example.com", "password": "pass456", "role": models.RoleCustomer, "created_at": "2025-07-02T00:00:00Z"},
		{"_id": newID(), "username": "admin", "email": "admin@example.com", "password": "adminpass", "role": models.RoleAdmin, "created_at": "2025-06-30T00:00:00Z"},
		{"_id": newID(), "username": "pedro03", "email": "pedro03@example.com", "password": "pass789", "role": models.RoleCustomer, "created_at": "2025-07-03T00:00:00Z"},
		{"_id": newID(), "username": "laura04", "email": "laura04@example.com", "password": "passabc", "role": models.RoleCustomer, "created_at": "2025-07-04T00:00:00Z"},
	}
	reviews := []map[string]any{
		{"product_id": products[0]["_id"], "user_id": users[0]["_id"], "rating": 5, "comment": "Excellent quality", "review_date": "2025-07-05T00:00:00Z"},
		{"product_id": products[1]["_id"], "user_id": users[1]["_id"], "rating": 4, "comment": "Very comfortable", "review_date": "2025-07-06T00:00:00Z"},
		{"product_id": products[2]["_id"], "user_id": users[2]["_id"], "rating": 3, "comment": "Nice design", "review_date": "2025-07-07T00:00:00Z"},
		{"product_id": products[3]["_id"], "user_id": users[3]["_id"], "rating": 5, "comment": "Loved it", "review_date": "2025-07-08T00:00:00Z"},
		{"product_id": products[4]["_id"], "user_id": users[4]["_id"], "rating": 4, "comment": "Durable", "review_date": "2025-07-09T00:00:00Z"},
	}
	sales := []map[string]any{
		{"product_id": products[0]["_id"], "user_id": users[0]["_id"], "sale_date": "2025-07-10", "quantity": 5, "total": 600.0},
		{"product_id": products[1]["_id"], "user_id": users[1]["_id"], "sale_date": "2025-07-11", "quantity": 3, "total": 450.0},
		{"product_id": products[2]["_id"], "user_id": users[2]["_id"], "sale_date": "2025-07-10", "quantity": 7, "total": 560.0},
		{"product_id": products[3]["_id"], "user_id": users[3]["_id"], "sale_date": "2025-07-12", "quantity": 2, "total": 180.0},
		{"product_id": products[4]["_id"], "user_id": users[4]["_id"], "sale_date": "2025-07-10", "quantity": 4, "total": 440.0},
	}

	for _, batch := range []struct {
		collection string
		docs       []map[string]any
	}{
		{"brands", brands},
		{"products", products},
		{"users", users},
		{"reviews", reviews},
		{"sales", sales},
	} {
		ids := make([]string, 0, len(batch.docs))
		for _, doc := range batch.docs {
			res, err := catalog.Create(ctx, batch.collection, doc, "")
			if err != nil {
				return err
			}
			ids = append(ids, res.InsertedID)
		}
		logger.Info("Inserted documents", zap.String("collection", batch.collection), zap.Strings("ids", ids))
	}
	return nil
}

// crudExample inserts, updates and deletes a throwaway user.
func crudExample(ctx context.Context, catalog *service.CatalogService, logger *zap.Logger) error {
	res, err := catalog.Create(ctx, "users", map[string]any{
		"username": "ana05",
		"email":    "ana05@example.com",
		"password": "ana123",
		"role":     models.RoleCustomer,
	}, "")
	if err != nil {
		return err
	}
	logger.Info("Inserted user", zap.String("id", res.InsertedID))

	if err := catalog.Update(ctx, "users", res.InsertedID, map[string]any{"email": "ana05_updated@example.com"}); err != nil {
		return err
	}
	logger.Info("Updated user email", zap.String("id", res.InsertedID))

	if err := catalog.Delete(ctx, "users", res.InsertedID); err != nil {
		return err
	}
	logger.Info("Deleted user", zap.String("id", res.InsertedID))
	return nil
}

func printReports(ctx context.Context, reports *report.Service, day time.Time, logger *zap.Logger) error {
	sold, err := reports.SoldQuantityByDate(ctx, day)
	if err != nil {
		return err
	}
	if sold.SaleCount == 0 {
		logger.Info("No sales found for date", zap.String("date", sold.Date))
	} else {
		logger.Info("Sold quantity by date", zap.String("date", sold.Date), zap.Int64("total_sold", sold.TotalSold))
	}

	brands, err := reports.BrandsWithSales(ctx)
	if err != nil {
		return err
	}
	for _, b := range brands {
		logger.Info("Brand with sales", zap.String("brand", b.Name))
	}

	stock, err := reports.ProductsSoldAndStock(ctx)
	if err != nil {
		return err
	}
	for _, p := range stock {
		if p.SoldQuantity == 0 {
			continue
		}
		logger.Info("Product stock",
			zap.String("product", p.Name),
			zap.Int64("sold", p.SoldQuantity),
			zap.Int64("remaining_stock", p.RemainingStock))
	}

	top, err := reports.TopBrands(ctx)
	if err != nil {
		return err
	}
	for _, b := range top {
		logger.Info("Top brand", zap.String("brand", b.Name), zap.Int64("total_sold", b.TotalSold))
	}
	return nil
}
