package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/magicgame/topup-store/internal/domain/models"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrOrderIDConflict = errors.New("order id already exists")
)

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	// CreateOrder вставляет новый заказ; id назначается вызывающей стороной.
	CreateOrder(ctx context.Context, order *models.Order) error
	// GetOrderByID возвращает заказ по его идентификатору.
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	// GetAllOrders возвращает все заказы, новые первыми.
	GetAllOrders(ctx context.Context) ([]*models.Order, error)
	// GetOrdersByPubgID возвращает заказы одного покупателя, новые первыми.
	GetOrdersByPubgID(ctx context.Context, pubgID string) ([]*models.Order, error)
	// UpdateOrderStatus меняет статус заказа.
	UpdateOrderStatus(ctx context.Context, id int64, status string) error
	// DeleteOrder удаляет заказ безвозвратно.
	DeleteOrder(ctx context.Context, id int64) error
	// ReplaceAllOrders атомарно замещает весь набор заказов содержимым snapshot.
	ReplaceAllOrders(ctx context.Context, orders []*models.Order) error
}

// orderRepository — конкретная реализация OrderStorage.
type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

const orderColumns = "id, date, pubg_id, pseudo, pack, price, payment_method, reference, status"

func scanOrder(row interface{ Scan(...any) error }) (*models.Order, error) {
	order := &models.Order{}
	err := row.Scan(&order.ID, &order.Date, &order.PubgID, &order.Pseudo,
		&order.Pack, &order.Price, &order.PaymentMethod, &order.Reference, &order.Status)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `INSERT INTO orders (id, date, pubg_id, pseudo, pack, price, payment_method, reference, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query,
		order.ID, order.Date, order.PubgID, order.Pseudo,
		order.Pack, order.Price, order.PaymentMethod, order.Reference, order.Status)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				return ErrOrderIDConflict
			}
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetAllOrders(ctx context.Context) ([]*models.Order, error) {
	return r.queryOrders(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY date DESC")
}

func (r *orderRepository) GetOrdersByPubgID(ctx context.Context, pubgID string) ([]*models.Order, error) {
	return r.queryOrders(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE pubg_id = $1 ORDER BY date DESC", pubgID)
}

func (r *orderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE orders SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) DeleteOrder(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// ReplaceAllOrders выполняет delete-all + bulk insert в одной транзакции:
// читатель никогда не видит пустой набор в середине восстановления.
func (r *orderRepository) ReplaceAllOrders(ctx context.Context, orders []*models.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM orders"); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (after: %w)", rbErr, err)
		}
		return fmt.Errorf("failed to clear orders: %w", err)
	}

	query := `INSERT INTO orders (id, date, pubg_id, pseudo, pack, price, payment_method, reference, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for _, order := range orders {
		_, err := tx.ExecContext(ctx, query,
			order.ID, order.Date, order.PubgID, order.Pseudo,
			order.Pack, order.Price, order.PaymentMethod, order.Reference, order.Status)
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("rollback failed: %v (after: %w)", rbErr, err)
			}
			return fmt.Errorf("failed to insert order %d: %w", order.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
