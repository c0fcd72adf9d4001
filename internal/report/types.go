package report

// Report names, used for spans, logs and metric labels.
const (
	ReportBrandsWithSales      = "brands_with_sales"
	ReportProductsSoldAndStock = "products_sold_and_stock"
	ReportTopBrands            = "top_brands"
	ReportTopUsers             = "top_users"
	ReportAverageRatings       = "average_ratings"
	ReportSalesByDate          = "sales_by_date"
	ReportSoldQuantityByDate   = "sold_quantity_by_date"
)

// BrandWithSales is a brand with at least one recorded sale.
type BrandWithSales struct {
	BrandID string `json:"brand_id" mapstructure:"brand_id"`
	Name    string `json:"name" mapstructure:"name"`
	Country string `json:"country" mapstructure:"country"`
}

// ProductStock reports units sold against the stock on record. RemainingStock
// is derived and goes negative when sales exceed recorded stock.
type ProductStock struct {
	ProductID      string `json:"product_id" mapstructure:"product_id"`
	Name           string `json:"name" mapstructure:"name"`
	Stock          int64  `json:"stock" mapstructure:"stock"`
	SoldQuantity   int64  `json:"sold_quantity" mapstructure:"sold_quantity"`
	RemainingStock int64  `json:"remaining_stock" mapstructure:"remaining_stock"`
}

type TopBrand struct {
	BrandID   string `json:"brand_id" mapstructure:"brand_id"`
	Name      string `json:"name" mapstructure:"name"`
	TotalSold int64  `json:"total_sold" mapstructure:"total_sold"`
}

// TopUser counts sale records, not units.
type TopUser struct {
	UserID         string `json:"user_id" mapstructure:"user_id"`
	Username       string `json:"username" mapstructure:"username"`
	Email          string `json:"email" mapstructure:"email"`
	TotalPurchases int64  `json:"total_purchases" mapstructure:"total_purchases"`
}

// ProductRating carries a nil AvgRating when the product has no reviews.
type ProductRating struct {
	ProductID    string   `json:"product_id" mapstructure:"product_id"`
	Name         string   `json:"name" mapstructure:"name"`
	AvgRating    *float64 `json:"avg_rating" mapstructure:"avg_rating"`
	TotalReviews int64    `json:"total_reviews" mapstructure:"total_reviews"`
}

type DailySales struct {
	Date      string `json:"date" mapstructure:"date"`
	TotalSold int64  `json:"total_sold" mapstructure:"total_sold"`
	SaleCount int64  `json:"sale_count" mapstructure:"sale_count"`
}
