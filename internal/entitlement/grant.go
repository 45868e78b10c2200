package entitlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/course-platform/internal"
	"github.com/frahmantamala/course-platform/internal/auth"
	"github.com/frahmantamala/course-platform/internal/core"
)

// Grants is the single administrative force-write path. It replaces what used
// to be several overlapping emergency endpoints: one idempotent entitlement
// write, optionally paired with a short-lived override token for the cases
// where store reconciliation itself is suspect.
type Grants struct {
	store   Store
	catalog CourseChecker
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

func NewGrants(store Store, catalog CourseChecker, timeout time.Duration, logger *slog.Logger) *Grants {
	if timeout <= 0 {
		timeout = internal.DefaultStoreTimeout
	}
	return &Grants{
		store:   store,
		catalog: catalog,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

func (g *Grants) WithClock(now func() time.Time) *Grants {
	g.now = now
	return g
}

// GrantDirect force-writes an entitlement for (userID, courseID). Only
// administrators may call it. The write is a set-add: repeating it leaves
// the entitlement set unchanged. When issueToken is set, a 24h override
// token is minted as well; a token-mint failure is reported in the result,
// never by rolling back the grant.
func (g *Grants) GrantDirect(ctx context.Context, operator *auth.Principal, userID int64, courseID core.CourseID, issueToken bool) (*GrantResult, error) {
	if operator == nil || !operator.IsAdmin {
		return nil, internal.ErrAdminRequired
	}

	ctx, cancel := internal.WithTimeout(ctx, g.timeout)
	defer cancel()

	exists, err := g.catalog.CourseExists(courseID)
	if err != nil {
		return nil, internal.NewStoreUnavailableError(err)
	}
	if !exists {
		return nil, internal.ErrCourseNotFound
	}

	if err := g.store.AddEntitlement(ctx, userID, courseID, SourceDirect); err != nil {
		g.logger.Error("direct grant failed",
			"error", err,
			"operator_id", operator.ID,
			"user_id", userID,
			"course_id", courseID)
		return nil, internal.NewStoreUnavailableError(err)
	}

	result := &GrantResult{Granted: true}

	if issueToken {
		token := NewOverrideToken(userID, courseID, g.now())
		if err := g.store.SaveOverrideToken(ctx, token); err != nil {
			// the grant itself stands; report the partial failure
			g.logger.Error("override token mint failed",
				"error", err,
				"operator_id", operator.ID,
				"user_id", userID,
				"course_id", courseID)
			result.TokenError = "override token could not be issued"
		} else {
			result.OverrideToken = token.Token
		}
	}

	g.logger.Info("direct grant applied",
		"operator_id", operator.ID,
		"user_id", userID,
		"course_id", courseID,
		"token_issued", result.OverrideToken != "",
		"granted_at", g.now())

	audit := &GrantAudit{
		OperatorID:  operator.ID,
		UserID:      userID,
		CourseID:    courseID.Int64(),
		TokenIssued: result.OverrideToken != "",
		CreatedAt:   g.now(),
	}
	if err := g.store.SaveGrantAudit(ctx, audit); err != nil {
		// the structured log above is the fallback audit trail
		g.logger.Error("grant audit write failed",
			"error", err,
			"operator_id", operator.ID,
			"user_id", userID,
			"course_id", courseID)
	}

	return result, nil
}
