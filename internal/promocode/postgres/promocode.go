package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/frahmantamala/course-platform/internal/core"
	"github.com/frahmantamala/course-platform/internal/entitlement"
	"github.com/frahmantamala/course-platform/internal/promocode"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PromoCodeRepository struct {
	db *gorm.DB
}

func NewPromoCodeRepository(db *gorm.DB) promocode.Repository {
	return &PromoCodeRepository{db: db}
}

func (r *PromoCodeRepository) Create(ctx context.Context, p *promocode.PromoCode, courses []core.CourseID) error {
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate key") {
				return promocode.ErrDuplicate
			}
			return err
		}
		for _, courseID := range courses {
			binding := &promocode.PromoCodeCourse{
				PromoCodeID: p.ID,
				CourseID:    courseID.Int64(),
			}
			if err := tx.Create(binding).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PromoCodeRepository) GetByCode(ctx context.Context, code string) (*promocode.PromoCode, []core.CourseID, error) {
	var p promocode.PromoCode
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, promocode.ErrNotFound
		}
		return nil, nil, err
	}

	var raw []int64
	err = r.db.WithContext(ctx).
		Model(&promocode.PromoCodeCourse{}).
		Where("promo_code_id = ?", p.ID).
		Order("course_id ASC").
		Pluck("course_id", &raw).Error
	if err != nil {
		return nil, nil, err
	}

	courses := make([]core.CourseID, len(raw))
	for i, id := range raw {
		courses[i] = core.CourseID(id)
	}
	return &p, courses, nil
}

func (r *PromoCodeRepository) List(ctx context.Context, limit, offset int) ([]*promocode.PromoCode, error) {
	var codes []*promocode.PromoCode
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&codes).Error
	return codes, err
}

func (r *PromoCodeRepository) Update(ctx context.Context, p *promocode.PromoCode) error {
	return r.db.WithContext(ctx).
		Model(&promocode.PromoCode{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"expires_at": p.ExpiresAt,
			"max_uses":   p.MaxUses,
			"is_active":  p.IsActive,
			"updated_at": time.Now(),
		}).Error
}

func (r *PromoCodeRepository) Deactivate(ctx context.Context, code string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&promocode.PromoCode{}).
		Where("code = ?", code).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Redeem is the only path that increments uses. The claim-once insert and
// the guarded increment decide the two race outcomes; the surrounding
// transaction guarantees the use-count and the grants move together.
func (r *PromoCodeRepository) Redeem(ctx context.Context, userID int64, p *promocode.PromoCode, courses []core.CourseID) error {
	now := time.Now()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim := &entitlement.RedeemedCode{
			UserID:     userID,
			Code:       p.Code,
			RedeemedAt: now,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "code"}},
			DoNothing: true,
		}).Create(claim)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return promocode.ErrAlreadyRedeemed
		}

		// the WHERE clause re-checks capacity and the kill switch under the
		// transaction, so concurrent activations of the same code by
		// different users serialize on this row and uses never overcounts
		res = tx.Model(&promocode.PromoCode{}).
			Where("id = ? AND is_active = ? AND (max_uses = 0 OR uses < max_uses)", p.ID, true).
			Updates(map[string]interface{}{
				"uses":       gorm.Expr("uses + 1"),
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return promocode.ErrExhausted
		}

		for _, courseID := range courses {
			grant := &entitlement.Entitlement{
				UserID:    userID,
				CourseID:  courseID.Int64(),
				Source:    entitlement.SourcePromo,
				CreatedAt: now,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
				DoNothing: true,
			}).Create(grant).Error; err != nil {
				return err
			}
		}

		if p.OneShot {
			if err := tx.Model(&promocode.PromoCode{}).
				Where("id = ?", p.ID).
				Updates(map[string]interface{}{
					"is_active":  false,
					"updated_at": now,
				}).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
