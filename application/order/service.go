/*
Package order Application Layer - Order Lifecycle Orchestration

Responsibilities of Application Layer:
1. Receive requests from controllers together with the authenticated principal
2. Enforce ownership and admin checks
3. Call aggregate root methods to execute business operations
4. Use a per-call UnitOfWork to manage transactions and event collection (Outbox pattern)
5. Return response DTOs

Application services never send notifications directly; the UoW hands the
aggregate's events to the outbox (or the in-process bus) once the work commits.
*/
package order

import (
	"context"
	"errors"
	"math"
	"time"

	"storefront/domain/catalog"
	"storefront/domain/order"
	"storefront/domain/payment"
	"storefront/domain/shared"
	"storefront/domain/user"
	"storefront/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "storefront/application/order"

// Dependencies collaborators of the order application service
type Dependencies struct {
	Orders     order.Repository
	Catalog    catalog.Catalog
	UnitOfWork shared.UnitOfWorkFactory
	Access     *user.AccessPolicy
	Shipping   *order.ShippingPolicy
	Verifier   *payment.SignatureVerifier

	// Gateway optional; used for refunds when RefundViaGateway is set
	Gateway          payment.Gateway
	RefundViaGateway bool

	Currency string
	Clock    func() time.Time
}

// ApplicationService Order application service - coordinates the order lifecycle
type ApplicationService struct {
	orders             order.Repository
	catalog            catalog.Catalog
	uowFactory         shared.UnitOfWorkFactory
	access             *user.AccessPolicy
	shipping           *order.ShippingPolicy
	verifier           *payment.SignatureVerifier
	gateway            payment.Gateway
	refundViaGateway   bool
	orderDomainService *order.DomainService
	currency           string
	clock              func() time.Time
	tracer             trace.Tracer
}

// NewApplicationService Create order application service
func NewApplicationService(deps Dependencies) *ApplicationService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	shipping := deps.Shipping
	if shipping == nil {
		shipping = order.NewShippingPolicy(clock, nil)
	}
	currency := deps.Currency
	if currency == "" {
		currency = shared.DefaultCurrency
	}
	return &ApplicationService{
		orders:             deps.Orders,
		catalog:            deps.Catalog,
		uowFactory:         deps.UnitOfWork,
		access:             deps.Access,
		shipping:           shipping,
		verifier:           deps.Verifier,
		gateway:            deps.Gateway,
		refundViaGateway:   deps.RefundViaGateway,
		orderDomainService: order.NewDomainService(deps.Catalog),
		currency:           currency,
		clock:              clock,
		tracer:             otel.Tracer(tracerName),
	}
}

// ============================================================================
// Commands
// ============================================================================

// CreateOrder places an order for the principal: catalog snapshot, stock
// pre-check, shipping assignment, persist, then stock reservation.
func (s *ApplicationService) CreateOrder(ctx context.Context, principal user.Principal, req CreateOrderRequest) (resp *OrderResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "order.CreateOrder", trace.WithAttributes(attribute.String("user.id", principal.ID)))
	defer func() { endSpan(span, err) }()

	if err := requireAuthenticated(principal); err != nil {
		return nil, err
	}
	method, err := order.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}
	if req.Discount.IsNegative() {
		return nil, order.NewInvalidDiscountError("discount cannot be negative")
	}
	discount, err := shared.MoneyFromDecimal(req.Discount, s.currency)
	if err != nil {
		return nil, err
	}
	shippingCost, err := shared.MoneyFromDecimal(req.Shipping.ShippingCost, s.currency)
	if err != nil {
		return nil, err
	}
	details, err := s.checkPayment(req.Payment)
	if err != nil {
		return nil, err
	}

	address := toAddress(req.ShippingAddress)
	if err := address.Validate(); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	uow := s.uowFactory.New()
	compensate := shared.RequiresCompensation(uow)

	var (
		o            *order.Order
		placementErr error
	)
	err = uow.Execute(ctx, func(ctx context.Context) error {
		placementErr = nil

		items, err := s.orderDomainService.ResolveItems(ctx, toLineRequests(req.Items))
		if err != nil {
			return err
		}

		now := s.clock()
		o, err = order.NewOrder(order.PlaceOptions{
			UserID:        principal.ID,
			Items:         items,
			PaymentMethod: method,
			Payment:       details,
			Shipping:      s.shipping.Assign(address, req.Shipping.Method, *shippingCost, now),
			Discount:      *discount,
			PlacedAt:      now,
		})
		if err != nil {
			return err
		}
		o.AddNote(req.Notes, principal.ID, false, now)

		if err := s.orders.Save(ctx, o); err != nil {
			return err
		}
		uow.RegisterNew(o)

		reservation := newStockReservation(s.catalog)
		if err := reservation.Reserve(ctx, o.Items()); err != nil {
			if !compensate {
				return err
			}
			// 非事务存储：归还已扣库存并取消订单，确认事件不再发出
			reservation.Release(ctx, log)
			o.PullEvents()
			o.AbortPlacement(order.StockShortageReason, s.clock())
			if saveErr := s.orders.Save(ctx, o); saveErr != nil {
				return saveErr
			}
			placementErr = err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if placementErr != nil {
		log.Warn("Order placement aborted", zap.String("order_id", o.ID()), zap.Error(placementErr))
		return nil, placementErr
	}

	log.Info("Order placed",
		zap.String("order_id", o.ID()),
		zap.String("user_id", o.UserID()),
		zap.String("grand_total", o.GrandTotal().String()))
	return toOrderResponse(o, false), nil
}

// checkPayment a full triple must carry a valid signature; a bare gateway
// order id is kept for later reconciliation.
func (s *ApplicationService) checkPayment(req *PaymentRequest) (*order.PaymentDetails, error) {
	details := toPaymentDetails(req)
	if details == nil {
		return nil, nil
	}
	if details.IsComplete() {
		if s.verifier == nil {
			return nil, errors.New("payment signature verifier is not configured")
		}
		if err := s.verifier.Verify(details.GatewayOrderID, details.GatewayPaymentID, details.Signature); err != nil {
			return nil, err
		}
		return details, nil
	}
	if details.GatewayOrderID == "" {
		return nil, shared.NewValidationError("order", "payment.razorpay_order_id", "razorpay_order_id is required")
	}
	return &order.PaymentDetails{GatewayOrderID: details.GatewayOrderID}, nil
}

// UpdateStatus admin only; any status of the enumeration is accepted.
func (s *ApplicationService) UpdateStatus(ctx context.Context, principal user.Principal, orderID string, req UpdateOrderStatusRequest) (resp *OrderResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "order.UpdateStatus", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.status", req.Status)))
	defer func() { endSpan(span, err) }()

	if err := s.requireAdmin(ctx, principal); err != nil {
		return nil, err
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	o, err := s.mutate(ctx, orderID, func(o *order.Order, now time.Time) error {
		if err := o.UpdateStatus(status, req.Note, now); err != nil {
			return err
		}
		o.AddNote(req.Note, principal.ID, true, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("Order status updated",
		zap.String("order_id", orderID),
		zap.String("status", string(status)),
		zap.String("admin_id", principal.ID))
	return toOrderResponse(o, true), nil
}

// CancelOrder owner only, while the order is pending or processing.
func (s *ApplicationService) CancelOrder(ctx context.Context, principal user.Principal, orderID string, req CancelOrderRequest) (resp *OrderResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "order.CancelOrder", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer func() { endSpan(span, err) }()

	if err := requireAuthenticated(principal); err != nil {
		return nil, err
	}
	o, err := s.mutate(ctx, orderID, func(o *order.Order, now time.Time) error {
		if !o.IsOwnedBy(principal.ID) {
			return order.NewAccessDeniedError("Access denied")
		}
		return o.Cancel(req.Reason, now)
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Order cancelled", zap.String("order_id", orderID))
	return toOrderResponse(o, false), nil
}

// RequestReturn owner only, delivered orders only; status stays delivered.
func (s *ApplicationService) RequestReturn(ctx context.Context, principal user.Principal, orderID string, req ReturnOrderRequest) (resp *OrderResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "order.RequestReturn", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer func() { endSpan(span, err) }()

	if err := requireAuthenticated(principal); err != nil {
		return nil, err
	}
	o, err := s.mutate(ctx, orderID, func(o *order.Order, now time.Time) error {
		if !o.IsOwnedBy(principal.ID) {
			return order.NewAccessDeniedError("Access denied")
		}
		return o.RequestReturn(req.Reason, req.TrackingNumber, now)
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Return requested", zap.String("order_id", orderID))
	return toOrderResponse(o, false), nil
}

// ProcessRefund admin only; completes the pending refund of the active outcome.
func (s *ApplicationService) ProcessRefund(ctx context.Context, principal user.Principal, orderID string, req RefundRequest) (resp *OrderResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "order.ProcessRefund", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer func() { endSpan(span, err) }()

	if err := s.requireAdmin(ctx, principal); err != nil {
		return nil, err
	}

	// 重试时不重复调用网关退款
	var receipt *payment.RefundReceipt
	var refunded shared.Money
	o, err := s.mutate(ctx, orderID, func(o *order.Order, now time.Time) error {
		var amount *shared.Money
		if req.Amount != nil {
			m, err := shared.MoneyFromDecimal(*req.Amount, o.GrandTotal().Currency())
			if err != nil {
				return order.NewInvalidRefundAmountError(err.Error())
			}
			amount = m
		}

		var err error
		refunded, err = o.ProcessRefund(amount, now)
		if err != nil {
			return err
		}
		if receipt == nil && s.shouldRefundViaGateway(o, refunded) {
			receipt, err = s.gateway.Refund(ctx, o.Payment().GatewayPaymentID, refunded)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if receipt != nil {
			// 网关已退款但订单未保存，需人工对账
			logger.FromContext(ctx).Error("Gateway refund not recorded",
				zap.String("order_id", orderID),
				zap.String("gateway_refund_id", receipt.ID),
				zap.String("amount", receipt.Amount.String()),
				zap.Error(err))
		}
		return nil, err
	}

	fields := []zap.Field{zap.String("order_id", orderID), zap.String("amount", refunded.String())}
	if receipt != nil {
		fields = append(fields, zap.String("gateway_refund_id", receipt.ID))
	}
	logger.FromContext(ctx).Info("Refund processed", fields...)
	return toOrderResponse(o, true), nil
}

func (s *ApplicationService) shouldRefundViaGateway(o *order.Order, amount shared.Money) bool {
	if !s.refundViaGateway || s.gateway == nil || amount.Amount() == 0 {
		return false
	}
	p := o.Payment()
	return p != nil && p.GatewayPaymentID != ""
}

// mutate loads the order inside a fresh unit of work, applies fn and saves.
// The UoW may retry the whole closure on optimistic-lock conflicts.
func (s *ApplicationService) mutate(ctx context.Context, orderID string, fn func(o *order.Order, now time.Time) error) (*order.Order, error) {
	uow := s.uowFactory.New()
	var o *order.Order
	err := uow.Execute(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := fn(o, s.clock()); err != nil {
			return err
		}
		if err := s.orders.Save(ctx, o); err != nil {
			return err
		}
		uow.RegisterDirty(o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// ============================================================================
// Queries
// ============================================================================

// ListOrders admin listing, newest first, optional status filter.
func (s *ApplicationService) ListOrders(ctx context.Context, principal user.Principal, query ListOrdersQuery) (resp *ListOrdersResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "order.ListOrders")
	defer func() { endSpan(span, err) }()

	if err := s.requireAdmin(ctx, principal); err != nil {
		return nil, err
	}

	criteria := order.SearchCriteria{Page: query.Page, PageSize: query.Limit}.Normalize()
	if query.Status != "" {
		status, err := order.ParseStatus(query.Status)
		if err != nil {
			return nil, err
		}
		criteria.Spec = order.NewByStatusSpecification(status)
	}

	orders, total, err := s.orders.Search(ctx, criteria)
	if err != nil {
		return nil, err
	}
	return &ListOrdersResponse{
		Orders: toOrderResponses(orders, true),
		Pagination: Pagination{
			CurrentPage: criteria.Page,
			TotalPages:  int(math.Ceil(float64(total) / float64(criteria.PageSize))),
			TotalOrders: total,
		},
	}, nil
}

// ListOrdersForUser userID defaults to the principal; another user's id is forbidden.
func (s *ApplicationService) ListOrdersForUser(ctx context.Context, principal user.Principal, userID string) (resp []*OrderResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "order.ListOrdersForUser")
	defer func() { endSpan(span, err) }()

	if err := requireAuthenticated(principal); err != nil {
		return nil, err
	}
	if userID == "" {
		userID = principal.ID
	}
	if userID != principal.ID {
		return nil, order.NewAccessDeniedError("Access denied")
	}

	orders, _, err := s.orders.Search(ctx, order.SearchCriteria{
		Spec: order.NewByUserIDSpecification(userID),
		All:  true,
	})
	if err != nil {
		return nil, err
	}
	return toOrderResponses(orders, false), nil
}

// GetTracking owner or admin.
func (s *ApplicationService) GetTracking(ctx context.Context, principal user.Principal, orderID string) (resp *TrackingResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "order.GetTracking", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer func() { endSpan(span, err) }()

	if err := requireAuthenticated(principal); err != nil {
		return nil, err
	}
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedBy(principal.ID) {
		isAdmin, err := s.access.IsAdmin(ctx, principal)
		if err != nil {
			return nil, err
		}
		if !isAdmin {
			return nil, order.NewAccessDeniedError("Access denied")
		}
	}
	return toTrackingResponse(o), nil
}

// GetHistory owner only; newest entry first.
func (s *ApplicationService) GetHistory(ctx context.Context, principal user.Principal, orderID string) (resp []HistoryEntry, err error) {
	ctx, span := s.tracer.Start(ctx, "order.GetHistory", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer func() { endSpan(span, err) }()

	if err := requireAuthenticated(principal); err != nil {
		return nil, err
	}
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsOwnedBy(principal.ID) {
		return nil, order.NewAccessDeniedError("Access denied")
	}
	return buildHistory(o), nil
}

// ============================================================================
// Helpers
// ============================================================================

func requireAuthenticated(principal user.Principal) error {
	if !principal.IsAuthenticated() {
		return shared.NewUnauthorizedError("authentication required")
	}
	return nil
}

func (s *ApplicationService) requireAdmin(ctx context.Context, principal user.Principal) error {
	if err := requireAuthenticated(principal); err != nil {
		return err
	}
	isAdmin, err := s.access.IsAdmin(ctx, principal)
	if err != nil {
		return err
	}
	if !isAdmin {
		return shared.NewForbiddenError("order", "Admin access required")
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
