package promocode

import (
	"errors"
	"strings"
	"time"

	"github.com/frahmantamala/course-platform/internal/core"
)

// PromoCode is a redeemable code bound to a set of courses. max_uses == 0
// means unlimited. One-shot codes deactivate themselves on first successful
// activation regardless of max_uses.
type PromoCode struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Code      string    `json:"code" gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"column:expires_at;not null"`
	MaxUses   int64     `json:"max_uses" gorm:"column:max_uses;default:0"`
	Uses      int64     `json:"uses" gorm:"default:0"`
	IsActive  bool      `json:"is_active" gorm:"column:is_active;default:true"`
	OneShot   bool      `json:"one_shot" gorm:"column:one_shot;default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (PromoCode) TableName() string {
	return "promo_codes"
}

// ValidAt is the single validity formula. Every activation decision and
// every admin listing uses it; there is no second definition anywhere.
func (p *PromoCode) ValidAt(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if !now.Before(p.ExpiresAt) {
		return false
	}
	if p.MaxUses > 0 && p.Uses >= p.MaxUses {
		return false
	}
	return true
}

// PromoCodeCourse binds a code to one course.
type PromoCodeCourse struct {
	ID          int64 `gorm:"primaryKey"`
	PromoCodeID int64 `gorm:"column:promo_code_id;not null;uniqueIndex:idx_promo_course"`
	CourseID    int64 `gorm:"column:course_id;not null;uniqueIndex:idx_promo_course"`
}

func (PromoCodeCourse) TableName() string {
	return "promo_code_courses"
}

type ActivateDTO struct {
	Code     string `json:"code"`
	CourseID string `json:"course_id,omitempty"`
}

func (dto ActivateDTO) Validate() error {
	if strings.TrimSpace(dto.Code) == "" {
		return errors.New("code is required")
	}
	return nil
}

// ActivationResult reports every course the activation granted.
type ActivationResult struct {
	Code           string          `json:"code"`
	CoursesGranted []core.CourseID `json:"courses_granted"`
}

type CreatePromoCodeDTO struct {
	Code      string    `json:"code"`
	CourseIDs []int64   `json:"course_ids"`
	ExpiresAt time.Time `json:"expires_at"`
	MaxUses   int64     `json:"max_uses"`
	OneShot   bool      `json:"one_shot"`
}

func (dto CreatePromoCodeDTO) Validate() error {
	if strings.TrimSpace(dto.Code) == "" {
		return errors.New("code is required")
	}
	if len(dto.CourseIDs) == 0 {
		return errors.New("at least one course is required")
	}
	for _, id := range dto.CourseIDs {
		if id <= 0 {
			return errors.New("course ids must be positive")
		}
	}
	if dto.ExpiresAt.IsZero() || dto.ExpiresAt.Before(time.Now()) {
		return errors.New("expires_at must be in the future")
	}
	if dto.MaxUses < 0 {
		return errors.New("max_uses cannot be negative")
	}
	return nil
}

// BoundCourseIDs converts the boundary representation into canonical ids.
func (dto CreatePromoCodeDTO) BoundCourseIDs() []core.CourseID {
	ids := make([]core.CourseID, len(dto.CourseIDs))
	for i, id := range dto.CourseIDs {
		ids[i] = core.CourseID(id)
	}
	return ids
}

type UpdatePromoCodeDTO struct {
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	MaxUses   *int64     `json:"max_uses,omitempty"`
	IsActive  *bool      `json:"is_active,omitempty"`
}
