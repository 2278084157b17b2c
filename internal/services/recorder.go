package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/NEBULA-33/nebula-1/internal/models"
	"github.com/NEBULA-33/nebula-1/internal/permissions"
)

// Recorder appends history rows and audit entries.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record stamps rows with the actor's shop and user and inserts them into
// the history table for kind, using tx so they commit with the stock change.
func (r *Recorder) Record(ctx context.Context, tx *gorm.DB, actor permissions.Actor, kind models.HistoryKind, rows interface{}) error {
	count := 0
	switch v := rows.(type) {
	case []models.Sale:
		if kind != models.HistoryKindSale && kind != models.HistoryKindReturn {
			return kindMismatch(kind, rows)
		}
		for i := range v {
			v[i].ShopID, v[i].UserID = actor.ShopID, actor.UserID
		}
		count = len(v)
	case []models.ReturnHistory:
		if kind != models.HistoryKindReturn {
			return kindMismatch(kind, rows)
		}
		for i := range v {
			v[i].ShopID, v[i].UserID = actor.ShopID, actor.UserID
		}
		count = len(v)
	case []models.WastageHistory:
		if kind != models.HistoryKindWastage {
			return kindMismatch(kind, rows)
		}
		for i := range v {
			v[i].ShopID, v[i].UserID = actor.ShopID, actor.UserID
		}
		count = len(v)
	case []models.StockInHistory:
		if kind != models.HistoryKindStockIn {
			return kindMismatch(kind, rows)
		}
		for i := range v {
			v[i].ShopID, v[i].UserID = actor.ShopID, actor.UserID
		}
		count = len(v)
	case []models.ButcheringHistory:
		if kind != models.HistoryKindButchering {
			return kindMismatch(kind, rows)
		}
		for i := range v {
			v[i].ShopID, v[i].UserID = actor.ShopID, actor.UserID
		}
		count = len(v)
	default:
		return kindMismatch(kind, rows)
	}

	if count == 0 {
		return nil
	}
	if err := tx.WithContext(ctx).Create(rows).Error; err != nil {
		return fmt.Errorf("failed to record %s history: %w", kind, err)
	}
	return nil
}

// Audit writes one audit_log row outside any transaction. It never fails the
// caller; the mutation it describes has already been committed.
func (r *Recorder) Audit(ctx context.Context, actor permissions.Actor, action string, details models.JSONB) {
	entry := &models.AuditLog{
		ShopID:     actor.ShopID,
		UserID:     actor.UserID,
		ActionType: action,
		Details:    details,
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"action":  action,
			"shop_id": actor.ShopID,
			"user_id": actor.UserID,
		}).Error("Failed to write audit log")
	}
}

func kindMismatch(kind models.HistoryKind, rows interface{}) error {
	return fmt.Errorf("cannot record %T as %s history", rows, kind)
}
