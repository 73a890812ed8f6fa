package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fastfire9/empire-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNoFreeSlot means every slot for the product is already assigned.
	ErrNoFreeSlot = errors.New("no unassigned credential slot")
	// ErrOrderMoved means a concurrent transition changed the order before
	// the fulfillment transaction could remove it.
	ErrOrderMoved = errors.New("order status changed concurrently")
)

// Claim holds the result of a successful allocation.
type Claim struct {
	Slot *model.CredentialSlot
	// Remaining is the number of free slots left for the product after the
	// claim, read inside the same transaction.
	Remaining int64
}

type CredentialRepository interface {
	Create(ctx context.Context, s *model.CredentialSlot) error
	ListByProduct(ctx context.Context, productID uint64) ([]model.CredentialSlot, error)
	CountFree(ctx context.Context, productID uint64) (int64, error)
	// ClaimFirstUnassigned atomically selects one unassigned slot for the
	// product and marks it assigned. Fails with ErrNoFreeSlot leaving all
	// state unchanged.
	ClaimFirstUnassigned(ctx context.Context, productID uint64) (*Claim, error)
	// ClaimAndCompleteOrder is ClaimFirstUnassigned plus removal of the
	// fulfilled order, in one transaction: a concurrent transition on the
	// order rolls the claim back.
	ClaimAndCompleteOrder(ctx context.Context, productID, orderID uint64, orderStatus model.OrderStatus) (*Claim, error)
}

type credentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) Create(ctx context.Context, s *model.CredentialSlot) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *credentialRepository) ListByProduct(ctx context.Context, productID uint64) ([]model.CredentialSlot, error) {
	var list []model.CredentialSlot
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *credentialRepository) CountFree(ctx context.Context, productID uint64) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&model.CredentialSlot{}).
		Where("product_id = ? AND assigned = ?", productID, false).
		Count(&cnt).Error
	return cnt, err
}

func (r *credentialRepository) ClaimFirstUnassigned(ctx context.Context, productID uint64) (*Claim, error) {
	var claim *Claim
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		claim, err = claimSlot(tx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

func (r *credentialRepository) ClaimAndCompleteOrder(ctx context.Context, productID, orderID uint64, orderStatus model.OrderStatus) (*Claim, error) {
	var claim *Claim
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		claim, err = claimSlot(tx, productID)
		if err != nil {
			return err
		}
		res := tx.Where("id = ? AND status = ?", orderID, orderStatus).Delete(&model.Order{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOrderMoved
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// claimSlot locks the first unassigned slot for the product and flips its
// assigned flag, all inside the caller's transaction. The FOR UPDATE lock
// serializes concurrent claims for the same product; the guarded update is a
// second line of defense against lost locks.
func claimSlot(tx *gorm.DB, productID uint64) (*Claim, error) {
	var slot model.CredentialSlot
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND assigned = ?", productID, false).
		Order("id").
		First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoFreeSlot
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	res := tx.Model(&model.CredentialSlot{}).
		Where("id = ? AND assigned = ?", slot.ID, false).
		Updates(map[string]interface{}{"assigned": true, "assigned_at": now})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNoFreeSlot
	}
	slot.Assigned = true
	slot.AssignedAt = &now

	var remaining int64
	if err := tx.Model(&model.CredentialSlot{}).
		Where("product_id = ? AND assigned = ?", productID, false).
		Count(&remaining).Error; err != nil {
		return nil, err
	}
	return &Claim{Slot: &slot, Remaining: remaining}, nil
}
