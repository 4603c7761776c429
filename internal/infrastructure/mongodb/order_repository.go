package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/ec-store/internal/domain/order"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type lineItemDocument struct {
	ProductID string               `bson:"product_id"`
	Name      string               `bson:"name"`
	Quantity  int                  `bson:"qty"`
	UnitPrice primitive.Decimal128 `bson:"price"`
}

type addressDocument struct {
	FullName    string `bson:"full_name"`
	Address     string `bson:"address"`
	City        string `bson:"city"`
	State       string `bson:"state"`
	Country     string `bson:"country"`
	PostalCode  string `bson:"postal_code"`
	PhoneNumber string `bson:"phone_number"`
}

type paymentResultDocument struct {
	ID           string `bson:"id"`
	Status       string `bson:"status"`
	UpdateTime   string `bson:"update_time"`
	EmailAddress string `bson:"email_address"`
}

type orderDocument struct {
	ID              string                 `bson:"_id"`
	UserID          string                 `bson:"user_id"`
	Items           []lineItemDocument     `bson:"items"`
	ShippingAddress addressDocument        `bson:"shipping_address"`
	PaymentMethod   string                 `bson:"payment_method"`
	PaymentResult   *paymentResultDocument `bson:"payment_result,omitempty"`
	ItemsPrice      primitive.Decimal128   `bson:"items_price"`
	TaxPrice        primitive.Decimal128   `bson:"tax_price"`
	ShippingPrice   primitive.Decimal128   `bson:"shipping_price"`
	TotalPrice      primitive.Decimal128   `bson:"total_price"`
	Status          string                 `bson:"status"`
	IsPaid          bool                   `bson:"is_paid"`
	PaidAt          *time.Time             `bson:"paid_at,omitempty"`
	IsDelivered     bool                   `bson:"is_delivered"`
	DeliveredAt     *time.Time             `bson:"delivered_at,omitempty"`
	CreatedAt       time.Time              `bson:"created_at"`
	UpdatedAt       time.Time              `bson:"updated_at"`
	Version         int                    `bson:"version"`
}

func newOrderDocument(o *order.Order) (*orderDocument, error) {
	var codec decimalCodec
	doc := &orderDocument{
		ID:     o.ID,
		UserID: o.UserID,
		Items:  make([]lineItemDocument, 0, len(o.Items)),
		ShippingAddress: addressDocument{
			FullName:    o.ShippingAddress.FullName,
			Address:     o.ShippingAddress.Address,
			City:        o.ShippingAddress.City,
			State:       o.ShippingAddress.State,
			Country:     o.ShippingAddress.Country,
			PostalCode:  o.ShippingAddress.PostalCode,
			PhoneNumber: o.ShippingAddress.PhoneNumber,
		},
		PaymentMethod: string(o.PaymentMethod),
		ItemsPrice:    codec.encode(o.ItemsPrice),
		TaxPrice:      codec.encode(o.TaxPrice),
		ShippingPrice: codec.encode(o.ShippingPrice),
		TotalPrice:    codec.encode(o.TotalPrice),
		Status:        string(o.Status),
		IsPaid:        o.IsPaid,
		PaidAt:        o.PaidAt,
		IsDelivered:   o.IsDelivered,
		DeliveredAt:   o.DeliveredAt,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
		Version:       o.Version,
	}
	for _, item := range o.Items {
		doc.Items = append(doc.Items, lineItemDocument{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: codec.encode(item.UnitPrice),
		})
	}
	if pr := o.PaymentResult; pr != nil {
		doc.PaymentResult = &paymentResultDocument{
			ID:           pr.ID,
			Status:       pr.Status,
			UpdateTime:   pr.UpdateTime,
			EmailAddress: pr.EmailAddress,
		}
	}
	if codec.err != nil {
		return nil, codec.err
	}
	return doc, nil
}

func (d *orderDocument) toDomain() (*order.Order, error) {
	var codec decimalCodec
	o := &order.Order{
		ID:     d.ID,
		UserID: d.UserID,
		Items:  make([]order.LineItem, 0, len(d.Items)),
		ShippingAddress: order.ShippingAddress{
			FullName:    d.ShippingAddress.FullName,
			Address:     d.ShippingAddress.Address,
			City:        d.ShippingAddress.City,
			State:       d.ShippingAddress.State,
			Country:     d.ShippingAddress.Country,
			PostalCode:  d.ShippingAddress.PostalCode,
			PhoneNumber: d.ShippingAddress.PhoneNumber,
		},
		PaymentMethod: order.PaymentMethod(d.PaymentMethod),
		ItemsPrice:    codec.decode(d.ItemsPrice),
		TaxPrice:      codec.decode(d.TaxPrice),
		ShippingPrice: codec.decode(d.ShippingPrice),
		TotalPrice:    codec.decode(d.TotalPrice),
		Status:        order.Status(d.Status),
		IsPaid:        d.IsPaid,
		PaidAt:        d.PaidAt,
		IsDelivered:   d.IsDelivered,
		DeliveredAt:   d.DeliveredAt,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		Version:       d.Version,
	}
	for _, item := range d.Items {
		o.Items = append(o.Items, order.LineItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: codec.decode(item.UnitPrice),
		})
	}
	if pr := d.PaymentResult; pr != nil {
		o.PaymentResult = &order.PaymentResult{
			ID:           pr.ID,
			Status:       pr.Status,
			UpdateTime:   pr.UpdateTime,
			EmailAddress: pr.EmailAddress,
		}
	}
	if codec.err != nil {
		return nil, fmt.Errorf("order %s: %w", d.ID, codec.err)
	}
	return o, nil
}

// OrderRepository stores orders with per-document optimistic versioning
type OrderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{collection: db.Collection(ordersCollection)}
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	doc, err := newOrderDocument(o)
	if err != nil {
		return err
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	var doc orderDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return doc.toDomain()
}

// Update replaces the document only while its version still matches.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	doc, err := newOrderDocument(o)
	if err != nil {
		return err
	}
	doc.Version = o.Version + 1

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": o.ID, "version": o.Version}, doc)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if result.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": o.ID})
		if err != nil {
			return fmt.Errorf("failed to check order: %w", err)
		}
		if count == 0 {
			return order.ErrOrderNotFound
		}
		return order.ErrVersionConflict
	}

	o.Version = doc.Version
	return nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*order.Order, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *OrderRepository) List(ctx context.Context, f order.Filter) ([]*order.Order, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	return r.find(ctx, filter)
}

func (r *OrderRepository) find(ctx context.Context, filter bson.M) ([]*order.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	orders := make([]*order.Order, 0, len(docs))
	for i := range docs {
		o, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}
