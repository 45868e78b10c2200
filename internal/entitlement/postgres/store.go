package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/course-platform/internal/core"
	"github.com/frahmantamala/course-platform/internal/entitlement"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EntitlementStore implements entitlement.Store over the three persisted
// sets (entitlements, redeemed codes, override tokens). Set-add semantics
// come from unique indexes plus ON CONFLICT DO NOTHING, so every write is
// safe to retry.
type EntitlementStore struct {
	db *gorm.DB
}

func NewEntitlementStore(db *gorm.DB) entitlement.Store {
	return &EntitlementStore{db: db}
}

func (s *EntitlementStore) AddEntitlement(ctx context.Context, userID int64, courseID core.CourseID, source string) error {
	row := &entitlement.Entitlement{
		UserID:    userID,
		CourseID:  courseID.Int64(),
		Source:    source,
		CreatedAt: time.Now(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(row).Error
}

func (s *EntitlementStore) HasEntitlement(ctx context.Context, userID int64, courseID core.CourseID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&entitlement.Entitlement{}).
		Where("user_id = ? AND course_id = ?", userID, courseID.Int64()).
		Count(&count).Error
	return count > 0, err
}

func (s *EntitlementStore) ListEntitlements(ctx context.Context, userID int64) ([]core.CourseID, error) {
	var raw []int64
	err := s.db.WithContext(ctx).
		Model(&entitlement.Entitlement{}).
		Where("user_id = ?", userID).
		Order("course_id ASC").
		Pluck("course_id", &raw).Error
	if err != nil {
		return nil, err
	}
	ids := make([]core.CourseID, len(raw))
	for i, id := range raw {
		ids[i] = core.CourseID(id)
	}
	return ids, nil
}

func (s *EntitlementStore) AddRedeemedCode(ctx context.Context, userID int64, code string) (bool, error) {
	row := &entitlement.RedeemedCode{
		UserID:     userID,
		Code:       code,
		RedeemedAt: time.Now(),
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "code"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *EntitlementStore) HasRedeemedCode(ctx context.Context, userID int64, code string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&entitlement.RedeemedCode{}).
		Where("user_id = ? AND code = ?", userID, code).
		Count(&count).Error
	return count > 0, err
}

func (s *EntitlementStore) ListRedeemedCodes(ctx context.Context, userID int64) ([]string, error) {
	var codes []string
	err := s.db.WithContext(ctx).
		Model(&entitlement.RedeemedCode{}).
		Where("user_id = ?", userID).
		Order("redeemed_at ASC").
		Pluck("code", &codes).Error
	return codes, err
}

func (s *EntitlementStore) RedeemedCodesForCourse(ctx context.Context, userID int64, courseID core.CourseID) ([]string, error) {
	// Redemption already happened, so validity/expiry of the code is
	// irrelevant here: any redeemed code bound to the course proves access.
	var codes []string
	err := s.db.WithContext(ctx).Raw(`
		SELECT rc.code
		FROM redeemed_codes rc
		JOIN promo_codes pc ON pc.code = rc.code
		JOIN promo_code_courses pcc ON pcc.promo_code_id = pc.id
		WHERE rc.user_id = ? AND pcc.course_id = ?
		ORDER BY rc.redeemed_at ASC`,
		userID, courseID.Int64()).
		Scan(&codes).Error
	return codes, err
}

func (s *EntitlementStore) SaveOverrideToken(ctx context.Context, token *entitlement.OverrideToken) error {
	return s.db.WithContext(ctx).Create(token).Error
}

func (s *EntitlementStore) GetOverrideToken(ctx context.Context, token string) (*entitlement.OverrideToken, error) {
	var stored entitlement.OverrideToken
	err := s.db.WithContext(ctx).
		Where("token = ?", token).
		First(&stored).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &stored, nil
}

func (s *EntitlementStore) SaveGrantAudit(ctx context.Context, audit *entitlement.GrantAudit) error {
	return s.db.WithContext(ctx).Create(audit).Error
}
