package memory

import (
	"context"
	"testing"
	"time"

	"storefront/domain/catalog"
	"storefront/domain/order"
	"storefront/domain/shared"
	"storefront/domain/user"
	"storefront/infrastructure/persistence/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newOrder(t *testing.T, userID string, placedAt time.Time, payment *order.PaymentDetails) *order.Order {
	t.Helper()
	o, err := order.NewOrder(order.PlaceOptions{
		UserID: userID,
		Items: []order.ItemRequest{
			{ProductID: "p1", Name: "Shirt", Price: *shared.NewMoney(49900, "INR"), Quantity: 1},
		},
		PaymentMethod: order.PaymentMethodCard,
		Payment:       payment,
		Shipping: order.Shipping{
			Cost:    shared.Zero("INR"),
			Address: order.Address{FullName: "Asha", Line1: "1 Main St", City: "Pune", PostalCode: "411001"},
		},
		PlacedAt: placedAt,
	})
	require.NoError(t, err)
	return o
}

func TestOrderRepositoryOptimisticLocking(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	o := newOrder(t, "user-1", day, nil)

	require.NoError(t, repo.Save(ctx, o))
	assert.False(t, o.IsNew())
	assert.Equal(t, 1, o.Version())

	first, err := repo.FindByID(ctx, o.ID())
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, o.ID())
	require.NoError(t, err)

	require.NoError(t, first.UpdateStatus(order.StatusProcessing, "", day.Add(time.Hour)))
	require.NoError(t, repo.Save(ctx, first))

	require.NoError(t, second.UpdateStatus(order.StatusShipped, "", day.Add(time.Hour)))
	assert.ErrorIs(t, repo.Save(ctx, second), order.ErrConcurrentModification)

	stored, err := repo.FindByID(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, order.StatusProcessing, stored.Status())

	// mutating the loaded aggregate without saving leaves the stored copy intact
	require.NoError(t, stored.UpdateStatus(order.StatusDelivered, "", day.Add(2*time.Hour)))
	again, err := repo.FindByID(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, order.StatusProcessing, again.Status())

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestOrderRepositorySearch(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	var ids []string
	for i := 0; i < 5; i++ {
		userID := "user-1"
		if i%2 == 1 {
			userID = "user-2"
		}
		o := newOrder(t, userID, day.Add(time.Duration(i)*time.Hour), nil)
		require.NoError(t, repo.Save(ctx, o))
		ids = append(ids, o.ID())
	}

	page, total, err := repo.Search(ctx, order.SearchCriteria{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, ids[2], page[0].ID())
	assert.Equal(t, ids[1], page[1].ID())

	beyond, total, err := repo.Search(ctx, order.SearchCriteria{Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Empty(t, beyond)

	huge, total, err := repo.Search(ctx, order.SearchCriteria{Page: 1<<62 + 1, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Empty(t, huge)

	mine, total, err := repo.Search(ctx, order.SearchCriteria{Spec: order.NewByUserIDSpecification("user-2"), All: true})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []string{ids[3], ids[1]}, []string{mine[0].ID(), mine[1].ID()})
}

func TestOrderRepositoryFindByGatewayOrderID(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository()
	o := newOrder(t, "user-1", day, &order.PaymentDetails{GatewayOrderID: "order_abc"})
	require.NoError(t, repo.Save(ctx, o))
	require.NoError(t, repo.Save(ctx, newOrder(t, "user-1", day, nil)))

	found, err := repo.FindByGatewayOrderID(ctx, "order_abc")
	require.NoError(t, err)
	assert.Equal(t, o.ID(), found.ID())

	_, err = repo.FindByGatewayOrderID(ctx, "order_zzz")
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
	_, err = repo.FindByGatewayOrderID(ctx, "")
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestCatalogAdjustStock(t *testing.T) {
	ctx := context.Background()
	c := NewCatalog(catalog.Product{ID: "p1", Name: "Shirt", Price: *shared.NewMoney(49900, "INR"), Stock: 3})

	require.NoError(t, c.AdjustStock(ctx, "p1", -2))
	err := c.AdjustStock(ctx, "p1", -2)
	require.ErrorIs(t, err, catalog.ErrInsufficientStock)
	assert.Equal(t, "Insufficient stock for Shirt", err.Error())
	require.NoError(t, c.AdjustStock(ctx, "p1", 5))

	p, err := c.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 6, p.Stock)

	assert.ErrorIs(t, c.AdjustStock(ctx, "nope", 1), catalog.ErrProductNotFound)
	_, err = c.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	u, err := user.NewUser("Ops", "ops@example.com", user.RoleAdmin)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, u))

	byID, err := repo.FindByID(ctx, u.ID())
	require.NoError(t, err)
	assert.True(t, byID.IsAdmin())

	byEmail, err := repo.FindByEmail(ctx, "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID(), byEmail.ID())

	stale := user.RebuildFromDTO(user.ReconstructionDTO{ID: u.ID(), Name: "Ops", Email: "ops@example.com", Version: 0})
	assert.ErrorIs(t, repo.Save(ctx, stale), user.ErrConcurrentModification)

	_, err = repo.FindByID(ctx, "ghost")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUnitOfWorkSavesEventsOnSuccessOnly(t *testing.T) {
	ctx := context.Background()
	store := NewOutboxStore()
	repo := NewOrderRepository()
	factory := NewUnitOfWorkFactory(store, retry.Config{})

	uow := factory.New()
	assert.True(t, shared.RequiresCompensation(uow))

	failing := newOrder(t, "user-1", day, nil)
	err := uow.Execute(ctx, func(ctx context.Context) error {
		uow.RegisterNew(failing)
		return order.NewInvalidOrderStateError("boom")
	})
	require.Error(t, err)
	assert.Zero(t, store.Pending())

	placed := newOrder(t, "user-1", day, nil)
	uow = factory.New()
	require.NoError(t, uow.Execute(ctx, func(ctx context.Context) error {
		if err := repo.Save(ctx, placed); err != nil {
			return err
		}
		uow.RegisterNew(placed)
		return nil
	}))
	assert.Equal(t, 1, store.Pending())
	assert.Empty(t, placed.PullEvents())
}
