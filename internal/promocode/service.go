package promocode

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/course-platform/internal"
	"github.com/frahmantamala/course-platform/internal/auth"
	"github.com/frahmantamala/course-platform/internal/core"
)

// Repository-level sentinels, mapped onto AppErrors by the service.
var (
	ErrNotFound        = errors.New("promo code not found")
	ErrDuplicate       = errors.New("promo code already exists")
	ErrAlreadyRedeemed = errors.New("promo code already redeemed by user")
	ErrExhausted       = errors.New("promo code capacity exhausted")
)

type Repository interface {
	Create(ctx context.Context, p *PromoCode, courses []core.CourseID) error
	GetByCode(ctx context.Context, code string) (*PromoCode, []core.CourseID, error)
	List(ctx context.Context, limit, offset int) ([]*PromoCode, error)
	Update(ctx context.Context, p *PromoCode) error
	Deactivate(ctx context.Context, code string) (bool, error)
	// Redeem performs the activation effect as one transaction: claim-once
	// insert of (userID, code), guarded atomic increment of uses, set-union
	// of the bound courses into the user's entitlements, and the one-shot
	// kill switch. It returns ErrAlreadyRedeemed or ErrExhausted when the
	// corresponding guard loses a race.
	Redeem(ctx context.Context, userID int64, p *PromoCode, courses []core.CourseID) error
}

type CourseChecker interface {
	CourseExists(id core.CourseID) (bool, error)
}

type Service struct {
	repo    Repository
	catalog CourseChecker
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo Repository, catalog CourseChecker, timeout time.Duration, logger *slog.Logger) *Service {
	if timeout <= 0 {
		timeout = internal.DefaultStoreTimeout
	}
	return &Service{
		repo:    repo,
		catalog: catalog,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Activate redeems a code for a user. Rejections are checked in a fixed
// order: unknown code, invalid code, code not applicable to the requested
// course, code already redeemed by this user. The effect is transactional:
// the use-count never moves without the grants landing, and vice versa.
func (s *Service) Activate(ctx context.Context, userID int64, dto ActivateDTO) (*ActivationResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	code := strings.TrimSpace(dto.Code)

	var requestedCourse core.CourseID
	if dto.CourseID != "" {
		parsed, err := core.ParseCourseID(dto.CourseID)
		if err != nil {
			return nil, internal.NewValidationError(err.Error(), internal.ErrCodeInvalidCourseID)
		}
		requestedCourse = parsed
	}

	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	promo, courses, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrPromoNotFound
		}
		return nil, internal.NewStoreUnavailableError(err)
	}

	if !promo.ValidAt(s.now()) {
		return nil, internal.ErrPromoExpiredOrExhausted
	}

	if requestedCourse != 0 && !core.ContainsCourse(courses, requestedCourse) {
		return nil, internal.ErrPromoNotApplicable
	}

	if err := s.repo.Redeem(ctx, userID, promo, courses); err != nil {
		switch {
		case errors.Is(err, ErrAlreadyRedeemed):
			return nil, internal.ErrAlreadyRedeemed
		case errors.Is(err, ErrExhausted):
			// a concurrent activation took the last use between our read
			// and the guarded increment
			return nil, internal.ErrPromoExpiredOrExhausted
		default:
			s.logger.Error("promo activation failed", "error", err, "user_id", userID, "code", code)
			return nil, internal.NewStoreUnavailableError(err)
		}
	}

	s.logger.Info("promo code activated",
		"user_id", userID,
		"code", code,
		"courses_granted", len(courses))

	return &ActivationResult{Code: code, CoursesGranted: courses}, nil
}

// CreatePromoCode registers a new code. Admin only; every bound course must
// exist in the catalog.
func (s *Service) CreatePromoCode(ctx context.Context, operator *auth.Principal, dto CreatePromoCodeDTO) (*PromoCode, error) {
	if operator == nil || !operator.IsAdmin {
		return nil, internal.ErrAdminRequired
	}

	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	courses := dto.BoundCourseIDs()
	for _, id := range courses {
		exists, err := s.catalog.CourseExists(id)
		if err != nil {
			return nil, internal.NewStoreUnavailableError(err)
		}
		if !exists {
			return nil, internal.ErrCourseNotFound
		}
	}

	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	promo := &PromoCode{
		Code:      strings.ToUpper(strings.TrimSpace(dto.Code)),
		ExpiresAt: dto.ExpiresAt,
		MaxUses:   dto.MaxUses,
		IsActive:  true,
		OneShot:   dto.OneShot,
	}

	if err := s.repo.Create(ctx, promo, courses); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, internal.ErrPromoAlreadyExists
		}
		s.logger.Error("failed to create promo code", "error", err, "code", promo.Code)
		return nil, internal.NewStoreUnavailableError(err)
	}

	s.logger.Info("promo code created",
		"operator_id", operator.ID,
		"code", promo.Code,
		"courses", len(courses),
		"max_uses", promo.MaxUses,
		"expires_at", promo.ExpiresAt)

	return promo, nil
}

func (s *Service) GetPromoCode(ctx context.Context, code string) (*PromoCode, []core.CourseID, error) {
	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	promo, courses, err := s.repo.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, internal.ErrPromoNotFound
		}
		return nil, nil, internal.NewStoreUnavailableError(err)
	}
	return promo, courses, nil
}

func (s *Service) ListPromoCodes(ctx context.Context, limit, offset int) ([]*PromoCode, error) {
	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.repo.List(ctx, limit, offset)
}

// UpdatePromoCode edits expiry, capacity or the kill switch. The use counter
// is never writable through this path.
func (s *Service) UpdatePromoCode(ctx context.Context, operator *auth.Principal, code string, dto UpdatePromoCodeDTO) (*PromoCode, error) {
	if operator == nil || !operator.IsAdmin {
		return nil, internal.ErrAdminRequired
	}

	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	promo, _, err := s.repo.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrPromoNotFound
		}
		return nil, internal.NewStoreUnavailableError(err)
	}

	if dto.ExpiresAt != nil {
		promo.ExpiresAt = *dto.ExpiresAt
	}
	if dto.MaxUses != nil {
		if *dto.MaxUses < 0 {
			return nil, internal.NewValidationError("max_uses cannot be negative", internal.ErrCodeInvalidMaxUses)
		}
		promo.MaxUses = *dto.MaxUses
	}
	if dto.IsActive != nil {
		promo.IsActive = *dto.IsActive
	}

	if err := s.repo.Update(ctx, promo); err != nil {
		s.logger.Error("failed to update promo code", "error", err, "code", promo.Code)
		return nil, internal.NewStoreUnavailableError(err)
	}

	s.logger.Info("promo code updated", "operator_id", operator.ID, "code", promo.Code)
	return promo, nil
}

func (s *Service) DeactivatePromoCode(ctx context.Context, operator *auth.Principal, code string) error {
	if operator == nil || !operator.IsAdmin {
		return internal.ErrAdminRequired
	}

	ctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	found, err := s.repo.Deactivate(ctx, strings.TrimSpace(code))
	if err != nil {
		return internal.NewStoreUnavailableError(err)
	}
	if !found {
		return internal.ErrPromoNotFound
	}

	s.logger.Info("promo code deactivated", "operator_id", operator.ID, "code", code)
	return nil
}
