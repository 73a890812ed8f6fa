package repository

import (
	"context"

	"github.com/fastfire9/empire-backend/internal/model"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id uint64) (*model.Order, error)
	FindByReference(ctx context.Context, ref string) (*model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	// ListLive returns orders still matchable against a payment screenshot.
	ListLive(ctx context.Context) ([]model.Order, error)
	// UpdateStatusIfCurrent performs the guarded transition from -> to and
	// reports the number of rows moved (0 means a concurrent transition won).
	UpdateStatusIfCurrent(ctx context.Context, id uint64, from, to model.OrderStatus) (int64, error)
	// DeleteIfStatus removes the order only while it still has the given
	// status; completed and declined orders leave no row behind.
	DeleteIfStatus(ctx context.Context, id uint64, status model.OrderStatus) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, o *model.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id uint64) (*model.Order, error) {
	var o model.Order
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) FindByReference(ctx context.Context, ref string) (*model.Order, error) {
	var o model.Order
	if err := r.db.WithContext(ctx).Where("reference = ?", ref).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) ListAll(ctx context.Context) ([]model.Order, error) {
	var list []model.Order
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepository) ListLive(ctx context.Context) ([]model.Order, error) {
	var list []model.Order
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []model.OrderStatus{model.OrderStatusPending, model.OrderStatusPaymentPending}).
		Order("id").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepository) UpdateStatusIfCurrent(ctx context.Context, id uint64, from, to model.OrderStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *orderRepository) DeleteIfStatus(ctx context.Context, id uint64, status model.OrderStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, status).
		Delete(&model.Order{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
