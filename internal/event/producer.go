package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/retrosole/storefront/internal/domain"
	pkgkafka "github.com/retrosole/storefront/pkg/kafka"
	"github.com/retrosole/storefront/pkg/logger"
)

// Kafka topic constants for storefront domain events.
const (
	TopicProductCreated = "storefront.catalog.product_created"
	TopicProductUpdated = "storefront.catalog.product_updated"
	TopicProductDeleted = "storefront.catalog.product_deleted"
	TopicStockAdjusted  = "storefront.inventory.stock_adjusted"
	TopicLowStock       = "storefront.inventory.low_stock"
	TopicFeedback       = "storefront.feedback.submitted"
)

// Aggregate type constants.
const (
	AggregateTypeProduct  = "product"
	AggregateTypeFeedback = "feedback"
)

// Source identifier for events originating from this service.
const Source = "storefront"

// ProductData is the payload for catalog product events.
type ProductData struct {
	ProductID  string  `json:"product_id"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Price      float64 `json:"price"`
	TotalStock int     `json:"total_stock"`
}

// StockAdjustedData is the payload for an inventory.stock_adjusted event.
type StockAdjustedData struct {
	SizeID    string `json:"size_id"`
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Change    int    `json:"change"`
	Inventory int    `json:"inventory"`
}

// LowStockData is the payload for an inventory.low_stock event.
type LowStockData struct {
	SizeID    string `json:"size_id"`
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Inventory int    `json:"inventory"`
	Threshold int    `json:"threshold"`
}

// FeedbackData is the payload for a feedback.submitted event.
type FeedbackData struct {
	FeedbackID string `json:"feedback_id"`
	Rating     int    `json:"rating"`
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// ProductCreated publishes a catalog.product_created event.
func (p *Producer) ProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publishProduct(ctx, TopicProductCreated, product)
}

// ProductUpdated publishes a catalog.product_updated event.
func (p *Producer) ProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publishProduct(ctx, TopicProductUpdated, product)
}

// ProductDeleted publishes a catalog.product_deleted event.
func (p *Producer) ProductDeleted(ctx context.Context, product *domain.Product) error {
	return p.publishProduct(ctx, TopicProductDeleted, product)
}

func (p *Producer) publishProduct(ctx context.Context, topic string, product *domain.Product) error {
	data := ProductData{
		ProductID:  product.ID,
		Name:       product.Name,
		Category:   product.Category,
		Price:      product.Price,
		TotalStock: product.TotalStock(),
	}

	event, err := pkgkafka.NewEvent(topic, product.ID, AggregateTypeProduct, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	return nil
}

// StockAdjusted publishes an inventory.stock_adjusted event.
func (p *Producer) StockAdjusted(ctx context.Context, size *domain.SizeStock, change int) error {
	data := StockAdjustedData{
		SizeID:    size.ID,
		ProductID: size.ProductID,
		Size:      size.Size,
		Change:    change,
		Inventory: size.Inventory,
	}

	event, err := pkgkafka.NewEvent(TopicStockAdjusted, size.ProductID, AggregateTypeProduct, Source, data)
	if err != nil {
		return fmt.Errorf("create stock_adjusted event: %w", err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, TopicStockAdjusted, event); err != nil {
		return fmt.Errorf("publish stock_adjusted event: %w", err)
	}

	return nil
}

// LowStock publishes an inventory.low_stock event.
func (p *Producer) LowStock(ctx context.Context, size *domain.SizeStock) error {
	data := LowStockData{
		SizeID:    size.ID,
		ProductID: size.ProductID,
		Size:      size.Size,
		Inventory: size.Inventory,
		Threshold: domain.LowStockThreshold,
	}

	event, err := pkgkafka.NewEvent(TopicLowStock, size.ProductID, AggregateTypeProduct, Source, data)
	if err != nil {
		return fmt.Errorf("create low_stock event: %w", err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, TopicLowStock, event); err != nil {
		return fmt.Errorf("publish low_stock event: %w", err)
	}

	p.logger.WarnContext(ctx, "low stock",
		slog.String("product_id", size.ProductID),
		slog.String("size", size.Size),
		slog.Int("inventory", size.Inventory),
	)

	return nil
}

// FeedbackSubmitted publishes a feedback.submitted event.
func (p *Producer) FeedbackSubmitted(ctx context.Context, feedback *domain.Feedback) error {
	data := FeedbackData{
		FeedbackID: feedback.ID,
		Rating:     feedback.Rating,
	}

	event, err := pkgkafka.NewEvent(TopicFeedback, feedback.ID, AggregateTypeFeedback, Source, data)
	if err != nil {
		return fmt.Errorf("create feedback event: %w", err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, TopicFeedback, event); err != nil {
		return fmt.Errorf("publish feedback event: %w", err)
	}

	return nil
}
