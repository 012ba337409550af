package orders

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-settlement/pkg/db"
	"github.com/angelmondragon/packfinderz-settlement/pkg/db/models"
	"github.com/angelmondragon/packfinderz-settlement/pkg/enums"
	"github.com/angelmondragon/packfinderz-settlement/pkg/migrate"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := db.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, migrate.AutoMigrate(conn))
	return conn
}

func newOrder(buyerID uuid.UUID, status enums.OrderStatus) *models.BuyerOrder {
	return &models.BuyerOrder{
		BuyerID:       buyerID,
		Status:        status,
		PaymentMethod: enums.PaymentMethodCardGateway,
		SubtotalCents: 5000,
		TotalCents:    5460,
	}
}

func TestCountCompletedIgnoresCancelledAndRefunded(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	buyerID := uuid.New()

	for _, status := range []enums.OrderStatus{
		enums.OrderStatusCompleted,
		enums.OrderStatusCompleted,
		enums.OrderStatusCancelled,
		enums.OrderStatusRefunded,
	} {
		require.NoError(t, repo.Create(ctx, newOrder(buyerID, status)))
	}
	require.NoError(t, repo.Create(ctx, newOrder(uuid.New(), enums.OrderStatusCompleted)))

	count, err := repo.CountCompleted(ctx, buyerID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCreateDefaults(t *testing.T) {
	repo := NewRepository(setupOrdersTestDB(t))
	order := &models.BuyerOrder{BuyerID: uuid.New(), PaymentMethod: enums.PaymentMethodChatPay}
	require.NoError(t, repo.Create(context.Background(), order))
	assert.NotEqual(t, uuid.Nil, order.ID)
	assert.Equal(t, enums.OrderStatusCompleted, order.Status)
}

func TestMarkRefundedOnce(t *testing.T) {
	conn := setupOrdersTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := newOrder(uuid.New(), enums.OrderStatusCompleted)
	require.NoError(t, repo.Create(ctx, order))

	require.NoError(t, repo.MarkRefunded(ctx, order.ID, "damaged"))
	err := repo.MarkRefunded(ctx, order.ID, "again")
	require.True(t, errors.Is(err, ErrNotRefundable))

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusRefunded, stored.Status)
	require.NotNil(t, stored.RefundReason)
	assert.Equal(t, "damaged", *stored.RefundReason)

	err = conn.Transaction(func(tx *gorm.DB) error {
		locked, err := repo.WithTx(tx).FindByIDForUpdate(ctx, order.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, order.ID, locked.ID)
		return nil
	})
	require.NoError(t, err)

	_, err = repo.FindByID(ctx, uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
