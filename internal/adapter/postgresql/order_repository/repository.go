package order_repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"orderflow/internal/adapter/postgresql"
	"orderflow/internal/core/domain/models"
	"orderflow/pkg/config"
)

// OrderRepository persists orders, line items, components and the
// append-only status history.
type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(ctx context.Context, cfg config.Config) (*OrderRepository, error) {
	pool, err := pgxpool.New(ctx, postgresql.BuildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &OrderRepository{
		pool: pool,
	}, nil
}

// CreateOrder inserts the order, its items and the initial history entry in
// one transaction. The order number is assigned by the database.
func (repo *OrderRepository) CreateOrder(ctx context.Context, newOrder models.CreateOrder) (models.Order, error) {
	tx, err := repo.pool.Begin(ctx)
	if err != nil {
		return models.Order{}, fmt.Errorf("%w: %v", models.ErrorDbTransactionFailed, err)
	}
	defer tx.Rollback(ctx)

	query := `
INSERT INTO orders (customer_name, status)
VALUES ($1, $2)
RETURNING id, number, created_at
`

	order := models.Order{Status: models.OrderLogged}
	err = tx.QueryRow(ctx, query, newOrder.CustomerName, models.OrderLogged).
		Scan(&order.ID, &order.Number, &order.CreatedAt)
	if err != nil {
		return models.Order{}, fmt.Errorf("%w: %v", models.ErrorDbTransactionFailed, err)
	}

	itemQuery := `
INSERT INTO order_items (order_id, name, quantity, price, markup_percent, approved)
VALUES ($1, $2, $3, $4, $5, false)
RETURNING id
`

	for _, item := range newOrder.Items {
		var itemID int64
		err = tx.QueryRow(ctx, itemQuery, order.ID, item.Name, item.Quantity, item.Price, item.MarkupPercent).
			Scan(&itemID)
		if err != nil {
			return models.Order{}, fmt.Errorf("%w: %v", models.ErrorDbTransactionFailed, err)
		}
		order.Items = append(order.Items, models.OrderItem{
			ID:            itemID,
			Name:          item.Name,
			Quantity:      item.Quantity,
			Price:         item.Price,
			MarkupPercent: item.MarkupPercent,
		})
	}

	historyQuery := `
INSERT INTO status_history (order_id, entity_kind, status, actor, note, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`

	_, err = tx.Exec(ctx, historyQuery,
		order.ID, models.KindOrder, models.OrderLogged, newOrder.Actor, "order acquired", order.CreatedAt)
	if err != nil {
		return models.Order{}, fmt.Errorf("%w: %v", models.ErrorDbTransactionFailed, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Order{}, fmt.Errorf("%w: %v", models.ErrorDbTransactionFailed, err)
	}

	order.StatusHistory = []models.HistoryEntry{{
		EntityKind: models.KindOrder,
		Status:     models.OrderLogged,
		Timestamp:  order.CreatedAt,
		Actor:      newOrder.Actor,
		Note:       "order acquired",
	}}

	return order, nil
}

// GetOrder loads one order with items, components and full status history.
func (repo *OrderRepository) GetOrder(ctx context.Context, number string) (models.Order, error) {
	query := `
SELECT id, number, status, previous_status, created_at
FROM orders
WHERE number = $1
`

	var (
		order    models.Order
		status   string
		previous *string
	)
	err := repo.pool.QueryRow(ctx, query, number).
		Scan(&order.ID, &order.Number, &status, &previous, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Order{}, models.ErrorOrderNotFound
		}
		return models.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	order.Status = models.OrderStatus(status)
	if previous != nil {
		prev := models.OrderStatus(*previous)
		order.PreviousStatus = &prev
	}

	if err := repo.loadDetails(ctx, &order); err != nil {
		return models.Order{}, err
	}

	return order, nil
}

// ListOpenOrders returns every order outside the terminal statuses, fully
// loaded for a sweep pass.
func (repo *OrderRepository) ListOpenOrders(ctx context.Context) ([]models.Order, error) {
	query := `
SELECT id, number, status, previous_status, created_at
FROM orders
WHERE status NOT IN ($1, $2)
ORDER BY id
`

	rows, err := repo.pool.Query(ctx, query, models.OrderFulfilled, models.OrderRejected)
	if err != nil {
		return nil, fmt.Errorf("failed to list open orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var (
			order    models.Order
			status   string
			previous *string
		)
		if err := rows.Scan(&order.ID, &order.Number, &status, &previous, &order.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		order.Status = models.OrderStatus(status)
		if previous != nil {
			prev := models.OrderStatus(*previous)
			order.PreviousStatus = &prev
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list open orders: %w", err)
	}

	for i := range orders {
		if err := repo.loadDetails(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

func (repo *OrderRepository) loadDetails(ctx context.Context, order *models.Order) error {
	itemQuery := `
SELECT id, name, quantity, price, markup_percent, approved
FROM order_items
WHERE order_id = $1
ORDER BY id
`

	rows, err := repo.pool.Query(ctx, itemQuery, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	order.Items = order.Items[:0]
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Quantity, &item.Price, &item.MarkupPercent, &item.Approved); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}

	compQuery := `
SELECT id, name, status, status_updated_at, source, supplier_id, created_at
FROM components
WHERE order_item_id = $1
ORDER BY id
`

	for i := range order.Items {
		item := &order.Items[i]
		compRows, err := repo.pool.Query(ctx, compQuery, item.ID)
		if err != nil {
			return fmt.Errorf("failed to load components: %w", err)
		}
		for compRows.Next() {
			var (
				comp   models.Component
				status string
				source string
			)
			if err := compRows.Scan(&comp.ID, &comp.Name, &status, &comp.StatusUpdatedAt, &source, &comp.SupplierID, &comp.CreatedAt); err != nil {
				compRows.Close()
				return fmt.Errorf("failed to scan component: %w", err)
			}
			comp.Status = models.ComponentStatus(status)
			comp.Source = models.Source(source)
			item.Components = append(item.Components, comp)
		}
		if err := compRows.Err(); err != nil {
			compRows.Close()
			return fmt.Errorf("failed to load components: %w", err)
		}
		compRows.Close()
	}

	historyQuery := `
SELECT entity_kind, status, actor, note, created_at
FROM status_history
WHERE order_id = $1
ORDER BY created_at, id
`

	histRows, err := repo.pool.Query(ctx, historyQuery, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load status history: %w", err)
	}
	defer histRows.Close()

	order.StatusHistory = order.StatusHistory[:0]
	for histRows.Next() {
		var (
			entry  models.HistoryEntry
			kind   string
			status string
			note   *string
		)
		if err := histRows.Scan(&kind, &status, &entry.Actor, &note, &entry.Timestamp); err != nil {
			return fmt.Errorf("failed to scan history entry: %w", err)
		}
		entry.EntityKind = models.EntityKind(kind)
		entry.Status = models.OrderStatus(status)
		if note != nil {
			entry.Note = *note
		}
		order.StatusHistory = append(order.StatusHistory, entry)
	}
	if err := histRows.Err(); err != nil {
		return fmt.Errorf("failed to load status history: %w", err)
	}

	return nil
}

// ApplyOrderTransition commits the status update and the history append
// together. The update is conditional on the expected current status, so a
// concurrent transition fails the transaction instead of silently winning.
func (repo *OrderRepository) ApplyOrderTransition(ctx context.Context, number string, from, to models.OrderStatus, previous *models.OrderStatus, entry models.HistoryEntry) error {
	tx, err := repo.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrorDbTransactionFailed, err)
	}
	defer tx.Rollback(ctx)

	query := `
UPDATE orders
SET status = $1, previous_status = $2, updated_at = $3
WHERE number = $4 AND status = $5
RETURNING id
`

	var prevStr *string
	if previous != nil {
		s := string(*previous)
		prevStr = &s
	}

	var orderID int64
	err = tx.QueryRow(ctx, query, to, prevStr, entry.Timestamp, number, from).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: order %s is no longer in status %s", models.ErrorDbTransactionFailed, number, from)
		}
		return fmt.Errorf("%w: %v", models.ErrorDbTransactionFailed, err)
	}

	historyQuery := `
INSERT INTO status_history (order_id, entity_kind, status, actor, note, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`

	_, err = tx.Exec(ctx, historyQuery,
		orderID, entry.EntityKind, entry.Status, entry.Actor, entry.Note, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrorDbTransactionFailed, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %v", models.ErrorDbTransactionFailed, err)
	}

	return nil
}

// GetComponent loads one component by id.
func (repo *OrderRepository) GetComponent(ctx context.Context, componentID int64) (models.Component, error) {
	query := `
SELECT id, name, status, status_updated_at, source, supplier_id, created_at
FROM components
WHERE id = $1
`

	var (
		comp   models.Component
		status string
		source string
	)
	err := repo.pool.QueryRow(ctx, query, componentID).
		Scan(&comp.ID, &comp.Name, &status, &comp.StatusUpdatedAt, &source, &comp.SupplierID, &comp.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Component{}, models.ErrorComponentNotFound
		}
		return models.Component{}, fmt.Errorf("failed to get component: %w", err)
	}

	comp.Status = models.ComponentStatus(status)
	comp.Source = models.Source(source)
	return comp, nil
}

// ApplyComponentTransition updates the component status and its transition
// timestamp, conditionally on the expected current status. A reset clears
// the supplier assignment in the same statement.
func (repo *OrderRepository) ApplyComponentTransition(ctx context.Context, componentID int64, from, to models.ComponentStatus, clearSupplier bool, at time.Time) error {
	query := `
UPDATE components
SET status = $1,
    status_updated_at = $2,
    supplier_id = CASE WHEN $3 THEN NULL ELSE supplier_id END
WHERE id = $4 AND status = $5
`

	tag, err := repo.pool.Exec(ctx, query, to, at, clearSupplier, componentID, from)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrorDbTransactionFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: component %d is no longer in status %s", models.ErrorDbTransactionFailed, componentID, from)
	}

	return nil
}

func (repo *OrderRepository) Close() {
	repo.pool.Close()
}
