package repo

import (
	"context"
	"errors"
	"time"

	"github.com/KNICEX/spot-trader/internal/entity"
	"gorm.io/gorm"
)

// TraderRepo 交易员注册表
type TraderRepo interface {
	Create(ctx context.Context, trader entity.Trader) error
	FindById(ctx context.Context, id string) (entity.Trader, error)
	List(ctx context.Context) ([]entity.Trader, error)
	UpdateStatus(ctx context.Context, id string, status string) error
	// ResetRunning 将所有 running 状态重置为 stopped, 返回受影响行数
	ResetRunning(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id string) error
}

type traderRepo struct {
	db *gorm.DB
}

func NewTraderRepo(db *gorm.DB) TraderRepo {
	return &traderRepo{
		db: db,
	}
}

func (r *traderRepo) Create(ctx context.Context, trader entity.Trader) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entity.Trader{}).Where("id = ?", trader.Id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateId
		}
		return tx.Create(&trader).Error
	})
}

func (r *traderRepo) FindById(ctx context.Context, id string) (entity.Trader, error) {
	var trader entity.Trader
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&trader).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.Trader{}, ErrTraderNotFound
	}
	if err != nil {
		return entity.Trader{}, err
	}
	return trader, nil
}

func (r *traderRepo) List(ctx context.Context) ([]entity.Trader, error) {
	var traders []entity.Trader
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&traders).Error
	if err != nil {
		return nil, err
	}
	return traders, nil
}

func (r *traderRepo) UpdateStatus(ctx context.Context, id string, status string) error {
	res := r.db.WithContext(ctx).Model(&entity.Trader{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTraderNotFound
	}
	return nil
}

func (r *traderRepo) ResetRunning(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Model(&entity.Trader{}).
		Where("status = ?", entity.TraderStatusRunning).
		Updates(map[string]any{"status": entity.TraderStatusStopped, "updated_at": time.Now()})
	return res.RowsAffected, res.Error
}

func (r *traderRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Trader{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTraderNotFound
	}
	return nil
}
