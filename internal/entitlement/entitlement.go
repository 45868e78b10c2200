package entitlement

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/frahmantamala/course-platform/internal/core"
	"github.com/google/uuid"
)

// Method reports which rule granted (or denied) access on a check.
type Method string

const (
	MethodAdmin      Method = "admin"
	MethodOverride   Method = "override"
	MethodDirect     Method = "direct"
	MethodReconciled Method = "reconciled"
	MethodNone       Method = "none"
)

// Entitlement sources, recorded so desync incidents can be traced back to
// the path that wrote the row.
const (
	SourcePromo      = "promo"
	SourceDirect     = "direct"
	SourceReconciled = "reconciled"
)

// Entitlement is one row of the per-user owned-course set. The unique index
// on (user_id, course_id) is what makes AddEntitlement idempotent.
type Entitlement struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    int64     `json:"user_id" gorm:"column:user_id;not null;uniqueIndex:idx_entitlements_user_course"`
	CourseID  int64     `json:"course_id" gorm:"column:course_id;not null;uniqueIndex:idx_entitlements_user_course"`
	Source    string    `json:"source" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (Entitlement) TableName() string {
	return "entitlements"
}

// RedeemedCode is one row of the per-user consumed-code set. The unique index
// on (user_id, code) is the claim-once guarantee: of any number of concurrent
// activations by the same user, exactly one insert lands.
type RedeemedCode struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	UserID     int64     `json:"user_id" gorm:"column:user_id;not null;uniqueIndex:idx_redeemed_user_code"`
	Code       string    `json:"code" gorm:"not null;uniqueIndex:idx_redeemed_user_code"`
	RedeemedAt time.Time `json:"redeemed_at" gorm:"column:redeemed_at;default:now()"`
}

func (RedeemedCode) TableName() string {
	return "redeemed_codes"
}

// OverrideTokenTTL is fixed: override tokens expire by time check alone and
// are never renewed or revoked early.
const OverrideTokenTTL = 24 * time.Hour

// OverrideToken is a break-glass bypass credential scoped to exactly one
// (user, course) pair. The resolver verifies presented tokens against this
// side table, not by decoding alone.
type OverrideToken struct {
	ID       int64     `json:"id" gorm:"primaryKey"`
	UserID   int64     `json:"user_id" gorm:"column:user_id;not null"`
	CourseID int64     `json:"course_id" gorm:"column:course_id;not null"`
	Token    string    `json:"token" gorm:"uniqueIndex;not null"`
	IssuedAt time.Time `json:"issued_at" gorm:"column:issued_at;not null"`
}

func (OverrideToken) TableName() string {
	return "override_tokens"
}

// Valid reports whether the token covers the given pair and is unexpired.
func (t *OverrideToken) Valid(now time.Time, userID int64, courseID core.CourseID) bool {
	if t.UserID != userID || t.CourseID != courseID.Int64() {
		return false
	}
	return now.Before(t.IssuedAt.Add(OverrideTokenTTL))
}

// NewOverrideToken mints a token for the pair. The encoded form carries the
// pair and issuance instant plus a nonce so tokens for the same pair are
// distinct; verification always goes through the persisted row.
func NewOverrideToken(userID int64, courseID core.CourseID, now time.Time) *OverrideToken {
	raw := fmt.Sprintf("%d:%s:%d:%s", userID, courseID, now.UnixNano(), uuid.NewString())
	return &OverrideToken{
		UserID:   userID,
		CourseID: courseID.Int64(),
		Token:    base64.URLEncoding.EncodeToString([]byte(raw)),
		IssuedAt: now,
	}
}

// GrantAudit records every direct-grant invocation: who forced the write,
// for whom, and whether a bypass token was issued.
type GrantAudit struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	OperatorID  int64     `json:"operator_id" gorm:"column:operator_id;not null"`
	UserID      int64     `json:"user_id" gorm:"column:user_id;not null"`
	CourseID    int64     `json:"course_id" gorm:"column:course_id;not null"`
	TokenIssued bool      `json:"token_issued" gorm:"column:token_issued"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (GrantAudit) TableName() string {
	return "grant_audits"
}

// AccessResult is the resolver's answer. On a denial, CheckedCodes and
// OwnedCourses carry enough detail for the caller to decide whether to
// prompt for a promo code.
type AccessResult struct {
	Granted      bool            `json:"granted"`
	Method       Method          `json:"method"`
	CheckedCodes []string        `json:"checked_codes,omitempty"`
	OwnedCourses []core.CourseID `json:"owned_courses,omitempty"`
}

// GrantResult reports the direct-grant sub-effects explicitly: the
// entitlement write and the token mint succeed or fail independently and
// neither failure is swallowed.
type GrantResult struct {
	Granted       bool   `json:"granted"`
	OverrideToken string `json:"override_token,omitempty"`
	TokenError    string `json:"token_error,omitempty"`
}

// Store is the single strongly-typed interface over the persisted
// entitlement state. All writes are idempotent set-adds, safe to retry.
type Store interface {
	AddEntitlement(ctx context.Context, userID int64, courseID core.CourseID, source string) error
	HasEntitlement(ctx context.Context, userID int64, courseID core.CourseID) (bool, error)
	ListEntitlements(ctx context.Context, userID int64) ([]core.CourseID, error)

	AddRedeemedCode(ctx context.Context, userID int64, code string) (added bool, err error)
	HasRedeemedCode(ctx context.Context, userID int64, code string) (bool, error)
	ListRedeemedCodes(ctx context.Context, userID int64) ([]string, error)
	// RedeemedCodesForCourse returns the user's redeemed codes that are bound
	// to the given course, the input to the resolver's reconciliation step.
	RedeemedCodesForCourse(ctx context.Context, userID int64, courseID core.CourseID) ([]string, error)

	SaveOverrideToken(ctx context.Context, token *OverrideToken) error
	GetOverrideToken(ctx context.Context, token string) (*OverrideToken, error)

	SaveGrantAudit(ctx context.Context, audit *GrantAudit) error
}

// CourseChecker is the slice of the catalog the core consumes.
type CourseChecker interface {
	CourseExists(id core.CourseID) (bool, error)
}
