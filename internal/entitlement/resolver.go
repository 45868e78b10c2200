package entitlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/course-platform/internal"
	"github.com/frahmantamala/course-platform/internal/auth"
	"github.com/frahmantamala/course-platform/internal/core"
)

// Resolver decides whether a principal may view a course. Check order:
// admin, override token, direct entitlement, reconciliation from redeemed
// codes, deny. Reconciliation is the self-healing step: a redeemed code
// bound to the course proves access even when the entitlement row was never
// materialized, and the resolver materializes it on the spot so the next
// check takes the direct path.
type Resolver struct {
	store   Store
	catalog CourseChecker
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

func NewResolver(store Store, catalog CourseChecker, timeout time.Duration, logger *slog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = internal.DefaultStoreTimeout
	}
	return &Resolver{
		store:   store,
		catalog: catalog,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock overrides the resolver's clock, for tests exercising override
// token expiry.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// CheckAccess resolves access for (principal, courseID). overrideToken may be
// empty. A store failure denies with StoreUnavailable: no error path ever
// grants.
func (r *Resolver) CheckAccess(ctx context.Context, principal *auth.Principal, courseID core.CourseID, overrideToken string) (*AccessResult, error) {
	ctx, cancel := internal.WithTimeout(ctx, r.timeout)
	defer cancel()

	if principal == nil {
		return nil, internal.ErrAdminRequired
	}

	if principal.IsAdmin {
		return &AccessResult{Granted: true, Method: MethodAdmin}, nil
	}

	if overrideToken != "" {
		granted, err := r.checkOverride(ctx, principal.ID, courseID, overrideToken)
		if err != nil {
			return nil, internal.NewStoreUnavailableError(err)
		}
		if granted {
			return &AccessResult{Granted: true, Method: MethodOverride}, nil
		}
	}

	exists, err := r.catalog.CourseExists(courseID)
	if err != nil {
		return nil, internal.NewStoreUnavailableError(err)
	}
	if !exists {
		return nil, internal.ErrCourseNotFound
	}

	has, err := r.store.HasEntitlement(ctx, principal.ID, courseID)
	if err != nil {
		return nil, internal.NewStoreUnavailableError(err)
	}
	if has {
		return &AccessResult{Granted: true, Method: MethodDirect}, nil
	}

	matching, err := r.store.RedeemedCodesForCourse(ctx, principal.ID, courseID)
	if err != nil {
		return nil, internal.NewStoreUnavailableError(err)
	}
	if len(matching) > 0 {
		// Materialize the derived entitlement. The write is an idempotent
		// set-add; if it fails the current request is still granted and the
		// next denied check retries the materialization.
		if err := r.store.AddEntitlement(ctx, principal.ID, courseID, SourceReconciled); err != nil {
			r.logger.Error("self-heal write failed, granting for this request only",
				"error", err,
				"user_id", principal.ID,
				"course_id", courseID,
				"matching_codes", matching)
		} else {
			r.logger.Info("entitlement reconciled from redeemed code",
				"user_id", principal.ID,
				"course_id", courseID,
				"matching_codes", matching)
		}
		return &AccessResult{Granted: true, Method: MethodReconciled}, nil
	}

	return r.deny(ctx, principal.ID)
}

func (r *Resolver) checkOverride(ctx context.Context, userID int64, courseID core.CourseID, token string) (bool, error) {
	stored, err := r.store.GetOverrideToken(ctx, token)
	if err != nil {
		return false, err
	}
	if stored == nil {
		return false, nil
	}
	if !stored.Valid(r.now(), userID, courseID) {
		r.logger.Warn("override token rejected",
			"user_id", userID,
			"course_id", courseID,
			"token_issued_at", stored.IssuedAt)
		return false, nil
	}
	return true, nil
}

// deny assembles the diagnostic payload: which codes were checked and what
// the direct set contained.
func (r *Resolver) deny(ctx context.Context, userID int64) (*AccessResult, error) {
	checked, err := r.store.ListRedeemedCodes(ctx, userID)
	if err != nil {
		return nil, internal.NewStoreUnavailableError(err)
	}
	owned, err := r.store.ListEntitlements(ctx, userID)
	if err != nil {
		return nil, internal.NewStoreUnavailableError(err)
	}
	return &AccessResult{
		Granted:      false,
		Method:       MethodNone,
		CheckedCodes: checked,
		OwnedCourses: owned,
	}, nil
}
