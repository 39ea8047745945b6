package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/magicgame/topup-store/internal/domain/models"
	"github.com/magicgame/topup-store/internal/storage"
)

// lastOrdersLimit — сколько последних заказов попадает в сводку.
const lastOrdersLimit = 10

// StatsResponse — агрегированная сводка для панели администратора.
type StatsResponse struct {
	TotalOrders  int             `json:"totalOrders"`
	TotalRevenue int             `json:"totalRevenue"`
	StatusCount  map[string]int  `json:"statusCount"`
	LastOrders   []*models.Order `json:"lastOrders"`
}

type StatsService interface {
	ComputeStats(ctx context.Context) (*StatsResponse, error)
}

type statsService struct {
	log       *slog.Logger
	orderRepo storage.OrderStorage
}

func NewStatsService(log *slog.Logger, orderRepo storage.OrderStorage) StatsService {
	return &statsService{log: log, orderRepo: orderRepo}
}

// priceDigits выделяет из ценовой метки числовую часть: все нецифровые
// символы (валютный суффикс, разделители) отбрасываются. Метка без цифр
// даёт 0.
func priceDigits(price string) int {
	digits := make([]byte, 0, len(price))
	for i := 0; i < len(price); i++ {
		if price[i] >= '0' && price[i] <= '9' {
			digits = append(digits, price[i])
		}
	}
	if len(digits) == 0 {
		return 0
	}
	n, err := strconv.Atoi(string(digits))
	if err != nil {
		return 0
	}
	return n
}

// ComputeStats считает сводку по всему набору заказов. Заказы со статусом
// вне канонического набора ни в одну корзину statusCount не попадают.
func (s *statsService) ComputeStats(ctx context.Context) (*StatsResponse, error) {
	const op = "service.StatsService.ComputeStats"

	orders, err := s.orderRepo.GetAllOrders(ctx)
	if err != nil {
		s.log.Error("failed to get orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	statusCount := map[string]int{
		models.StatusPending:   0,
		models.StatusDelivered: 0,
		models.StatusCancelled: 0,
	}

	totalRevenue := 0
	for _, order := range orders {
		totalRevenue += priceDigits(order.Price)
		if _, ok := statusCount[order.Status]; ok {
			statusCount[order.Status]++
		}
	}

	// Заказы уже отсортированы по дате по убыванию
	lastOrders := orders
	if len(lastOrders) > lastOrdersLimit {
		lastOrders = lastOrders[:lastOrdersLimit]
	}
	if lastOrders == nil {
		lastOrders = []*models.Order{}
	}

	return &StatsResponse{
		TotalOrders:  len(orders),
		TotalRevenue: totalRevenue,
		StatusCount:  statusCount,
		LastOrders:   lastOrders,
	}, nil
}
