package mongo

import (
	"context"
	"errors"
	"time"

	"storefront/domain/order"
	"storefront/domain/shared"
	"storefront/infrastructure/persistence/record"
	"storefront/infrastructure/persistence/specification"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type paymentDocument struct {
	GatewayOrderID   string `bson:"gateway_order_id,omitempty"`
	GatewayPaymentID string `bson:"gateway_payment_id,omitempty"`
	Signature        string `bson:"signature,omitempty"`
}

type orderDocument struct {
	ID            string                      `bson:"_id"`
	UserID        string                      `bson:"user_id"`
	Status        string                      `bson:"status"`
	PaymentMethod string                      `bson:"payment_method"`
	PaymentStatus string                      `bson:"payment_status"`
	Payment       *paymentDocument            `bson:"payment,omitempty"`
	Currency      string                      `bson:"currency"`
	Subtotal      int64                       `bson:"subtotal"`
	Discount      int64                       `bson:"discount"`
	GrandTotal    int64                       `bson:"grand_total"`
	Items         []record.ItemRecord         `bson:"items"`
	Shipping      record.ShippingRecord       `bson:"shipping"`
	StatusHistory []record.StatusChangeRecord `bson:"status_history"`
	Notes         []record.NoteRecord         `bson:"notes"`
	Outcome       *record.OutcomeRecord       `bson:"outcome,omitempty"`
	Version       int                         `bson:"version"`
	CreatedAt     time.Time                   `bson:"created_at"`
	UpdatedAt     time.Time                   `bson:"updated_at"`
}

func newOrderDocument(o *order.Order) *orderDocument {
	dto := o.ToDTO()
	values := record.NewOrderDocument(dto)
	doc := &orderDocument{
		ID:            dto.ID,
		UserID:        dto.UserID,
		Status:        string(dto.Status),
		PaymentMethod: string(dto.PaymentMethod),
		PaymentStatus: string(dto.PaymentStatus),
		Currency:      dto.GrandTotal.Currency(),
		Subtotal:      dto.Subtotal.Amount(),
		Discount:      dto.Discount.Amount(),
		GrandTotal:    dto.GrandTotal.Amount(),
		Items:         values.Items,
		Shipping:      values.Shipping,
		StatusHistory: values.StatusHistory,
		Notes:         values.Notes,
		Outcome:       values.Outcome,
		Version:       dto.Version,
		CreatedAt:     dto.CreatedAt,
		UpdatedAt:     dto.UpdatedAt,
	}
	if p := dto.Payment; p != nil {
		doc.Payment = &paymentDocument{
			GatewayOrderID:   p.GatewayOrderID,
			GatewayPaymentID: p.GatewayPaymentID,
			Signature:        p.Signature,
		}
	}
	return doc
}

func (doc *orderDocument) toDomain() *order.Order {
	dto := order.ReconstructionDTO{
		ID:            doc.ID,
		UserID:        doc.UserID,
		PaymentMethod: order.PaymentMethod(doc.PaymentMethod),
		PaymentStatus: order.PaymentStatus(doc.PaymentStatus),
		Status:        order.Status(doc.Status),
		Subtotal:      *shared.NewMoney(doc.Subtotal, doc.Currency),
		Discount:      *shared.NewMoney(doc.Discount, doc.Currency),
		GrandTotal:    *shared.NewMoney(doc.GrandTotal, doc.Currency),
		Version:       doc.Version,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
	if p := doc.Payment; p != nil {
		dto.Payment = &order.PaymentDetails{
			GatewayOrderID:   p.GatewayOrderID,
			GatewayPaymentID: p.GatewayPaymentID,
			Signature:        p.Signature,
		}
	}
	record.OrderDocument{
		Items:         doc.Items,
		Shipping:      doc.Shipping,
		StatusHistory: doc.StatusHistory,
		Notes:         doc.Notes,
		Outcome:       doc.Outcome,
	}.Apply(&dto, doc.Currency)
	return order.RebuildFromDTO(dto)
}

// OrderRepository order.Repository on the orders collection.
// Inside UnitOfWork.Execute the ctx carries the session, so writes join the transaction.
type OrderRepository struct {
	coll       *mongo.Collection
	translator *specification.BSONTranslator
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{
		coll:       db.Collection(ordersCollection),
		translator: specification.NewBSONTranslator(),
	}
}

func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	doc := newOrderDocument(o)

	if o.IsNew() {
		doc.Version = o.Version() + 1
		if _, err := r.coll.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return order.NewConcurrentModificationError(o.ID())
			}
			return err
		}
	} else {
		expectedVersion := o.Version()
		doc.Version = expectedVersion + 1
		result, err := r.coll.ReplaceOne(ctx, bson.M{"_id": o.ID(), "version": expectedVersion}, doc)
		if err != nil {
			return err
		}
		if result.MatchedCount == 0 {
			count, err := r.coll.CountDocuments(ctx, bson.M{"_id": o.ID()})
			if err != nil {
				return err
			}
			if count == 0 {
				return order.NewOrderNotFoundError(o.ID())
			}
			return order.NewConcurrentModificationError(o.ID())
		}
	}

	o.IncrementVersionForSave()
	o.MarkPersisted()
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	return r.findOne(ctx, bson.M{"_id": id}, id)
}

func (r *OrderRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*order.Order, error) {
	return r.findOne(ctx, bson.M{"payment.gateway_order_id": gatewayOrderID}, "razorpay:"+gatewayOrderID)
}

func (r *OrderRepository) findOne(ctx context.Context, filter bson.M, label string) (*order.Order, error) {
	var doc orderDocument
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, order.NewOrderNotFoundError(label)
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// Search newest first; criteria.All disables paging.
func (r *OrderRepository) Search(ctx context.Context, criteria order.SearchCriteria) ([]*order.Order, int64, error) {
	filter, err := r.translator.Translate(criteria.Spec)
	if err != nil {
		return nil, 0, err
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if !criteria.All {
		criteria = criteria.Normalize()
		opts.SetSkip(int64(criteria.Offset())).SetLimit(int64(criteria.PageSize))
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, err
	}

	orders := make([]*order.Order, len(docs))
	for i := range docs {
		orders[i] = docs[i].toDomain()
	}
	return orders, total, nil
}

var _ order.Repository = (*OrderRepository)(nil)
