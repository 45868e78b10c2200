package postgres

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/frahmantamala/course-platform/internal/core"
	"github.com/frahmantamala/course-platform/internal/entitlement"
)

func TestEntitlementStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "EntitlementStore Suite")
}

// SQLite shadow models: same tables and unique indexes as the postgres
// schema, without the postgres-only column defaults.
type SQLiteEntitlement struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:idx_entitlements_user_course"`
	CourseID  int64     `gorm:"column:course_id;not null;uniqueIndex:idx_entitlements_user_course"`
	Source    string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (SQLiteEntitlement) TableName() string { return "entitlements" }

type SQLiteRedeemedCode struct {
	ID         int64     `gorm:"primaryKey"`
	UserID     int64     `gorm:"column:user_id;not null;uniqueIndex:idx_redeemed_user_code"`
	Code       string    `gorm:"not null;uniqueIndex:idx_redeemed_user_code"`
	RedeemedAt time.Time `gorm:"column:redeemed_at"`
}

func (SQLiteRedeemedCode) TableName() string { return "redeemed_codes" }

type SQLiteOverrideToken struct {
	ID       int64     `gorm:"primaryKey"`
	UserID   int64     `gorm:"column:user_id;not null"`
	CourseID int64     `gorm:"column:course_id;not null"`
	Token    string    `gorm:"uniqueIndex;not null"`
	IssuedAt time.Time `gorm:"column:issued_at"`
}

func (SQLiteOverrideToken) TableName() string { return "override_tokens" }

type SQLiteGrantAudit struct {
	ID          int64     `gorm:"primaryKey"`
	OperatorID  int64     `gorm:"column:operator_id;not null"`
	UserID      int64     `gorm:"column:user_id;not null"`
	CourseID    int64     `gorm:"column:course_id;not null"`
	TokenIssued bool      `gorm:"column:token_issued"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (SQLiteGrantAudit) TableName() string { return "grant_audits" }

type SQLitePromoCode struct {
	ID        int64     `gorm:"primaryKey"`
	Code      string    `gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at"`
	MaxUses   int64     `gorm:"column:max_uses"`
	Uses      int64     `gorm:"column:uses"`
	IsActive  bool      `gorm:"column:is_active"`
	OneShot   bool      `gorm:"column:one_shot"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (SQLitePromoCode) TableName() string { return "promo_codes" }

type SQLitePromoCodeCourse struct {
	ID          int64 `gorm:"primaryKey"`
	PromoCodeID int64 `gorm:"column:promo_code_id;not null;uniqueIndex:idx_promo_course"`
	CourseID    int64 `gorm:"column:course_id;not null;uniqueIndex:idx_promo_course"`
}

func (SQLitePromoCodeCourse) TableName() string { return "promo_code_courses" }

var _ = Describe("EntitlementStore", func() {
	var (
		db    *gorm.DB
		store entitlement.Store
		ctx   context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(
			&SQLiteEntitlement{},
			&SQLiteRedeemedCode{},
			&SQLiteOverrideToken{},
			&SQLiteGrantAudit{},
			&SQLitePromoCode{},
			&SQLitePromoCodeCourse{},
		)
		Expect(err).NotTo(HaveOccurred())

		store = NewEntitlementStore(db)
		ctx = context.Background()
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("AddEntitlement", func() {
		It("should insert a row and report it via HasEntitlement", func() {
			err := store.AddEntitlement(ctx, 1, 101, entitlement.SourceDirect)
			Expect(err).NotTo(HaveOccurred())

			has, err := store.HasEntitlement(ctx, 1, 101)
			Expect(err).NotTo(HaveOccurred())
			Expect(has).To(BeTrue())
		})

		It("should be idempotent and keep the first source", func() {
			Expect(store.AddEntitlement(ctx, 1, 101, entitlement.SourcePromo)).To(Succeed())
			Expect(store.AddEntitlement(ctx, 1, 101, entitlement.SourceDirect)).To(Succeed())
			Expect(store.AddEntitlement(ctx, 1, 101, entitlement.SourceReconciled)).To(Succeed())

			var rows []SQLiteEntitlement
			Expect(db.Find(&rows).Error).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].Source).To(Equal(entitlement.SourcePromo))
		})

		It("should keep rows per (user, course) pair distinct", func() {
			Expect(store.AddEntitlement(ctx, 1, 101, entitlement.SourceDirect)).To(Succeed())
			Expect(store.AddEntitlement(ctx, 1, 202, entitlement.SourceDirect)).To(Succeed())
			Expect(store.AddEntitlement(ctx, 2, 101, entitlement.SourceDirect)).To(Succeed())

			owned, err := store.ListEntitlements(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(owned).To(Equal([]core.CourseID{101, 202}))

			has, err := store.HasEntitlement(ctx, 2, 202)
			Expect(err).NotTo(HaveOccurred())
			Expect(has).To(BeFalse())
		})
	})

	Describe("AddRedeemedCode", func() {
		It("should report whether the claim landed", func() {
			added, err := store.AddRedeemedCode(ctx, 1, "FREE2023")
			Expect(err).NotTo(HaveOccurred())
			Expect(added).To(BeTrue())

			added, err = store.AddRedeemedCode(ctx, 1, "FREE2023")
			Expect(err).NotTo(HaveOccurred())
			Expect(added).To(BeFalse())

			var count int64
			Expect(db.Model(&SQLiteRedeemedCode{}).Count(&count).Error).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(1)))
		})

		It("should allow the same code for different users", func() {
			added, err := store.AddRedeemedCode(ctx, 1, "FREE2023")
			Expect(err).NotTo(HaveOccurred())
			Expect(added).To(BeTrue())

			added, err = store.AddRedeemedCode(ctx, 2, "FREE2023")
			Expect(err).NotTo(HaveOccurred())
			Expect(added).To(BeTrue())
		})
	})

	Describe("RedeemedCodesForCourse", func() {
		seedPromo := func(code string, active bool, expiresAt time.Time, courseIDs ...int64) {
			p := &SQLitePromoCode{Code: code, IsActive: active, ExpiresAt: expiresAt}
			Expect(db.Create(p).Error).NotTo(HaveOccurred())
			for _, id := range courseIDs {
				Expect(db.Create(&SQLitePromoCodeCourse{PromoCodeID: p.ID, CourseID: id}).Error).NotTo(HaveOccurred())
			}
		}

		It("should return only the user's codes bound to the course", func() {
			seedPromo("MATH", true, time.Now().Add(time.Hour), 101)
			seedPromo("BIO", true, time.Now().Add(time.Hour), 202)

			added, err := store.AddRedeemedCode(ctx, 1, "MATH")
			Expect(err).NotTo(HaveOccurred())
			Expect(added).To(BeTrue())
			added, err = store.AddRedeemedCode(ctx, 2, "BIO")
			Expect(err).NotTo(HaveOccurred())
			Expect(added).To(BeTrue())

			codes, err := store.RedeemedCodesForCourse(ctx, 1, 101)
			Expect(err).NotTo(HaveOccurred())
			Expect(codes).To(Equal([]string{"MATH"}))

			codes, err = store.RedeemedCodesForCourse(ctx, 1, 202)
			Expect(err).NotTo(HaveOccurred())
			Expect(codes).To(BeEmpty())
		})

		It("should count codes that have since expired or been deactivated", func() {
			// redemption already happened; later expiry must not revoke it
			seedPromo("OLD", false, time.Now().Add(-time.Hour), 101)

			added, err := store.AddRedeemedCode(ctx, 1, "OLD")
			Expect(err).NotTo(HaveOccurred())
			Expect(added).To(BeTrue())

			codes, err := store.RedeemedCodesForCourse(ctx, 1, 101)
			Expect(err).NotTo(HaveOccurred())
			Expect(codes).To(Equal([]string{"OLD"}))
		})
	})

	Describe("override tokens", func() {
		It("should round-trip a token", func() {
			issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			token := entitlement.NewOverrideToken(1, 101, issuedAt)

			Expect(store.SaveOverrideToken(ctx, token)).To(Succeed())

			stored, err := store.GetOverrideToken(ctx, token.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).NotTo(BeNil())
			Expect(stored.UserID).To(Equal(int64(1)))
			Expect(stored.CourseID).To(Equal(int64(101)))
			Expect(stored.IssuedAt).To(BeTemporally("==", issuedAt))
		})

		It("should return nil for an unknown token", func() {
			stored, err := store.GetOverrideToken(ctx, "no-such-token")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).To(BeNil())
		})
	})

	Describe("SaveGrantAudit", func() {
		It("should persist the audit row", func() {
			audit := &entitlement.GrantAudit{
				OperatorID:  9,
				UserID:      1,
				CourseID:    101,
				TokenIssued: true,
				CreatedAt:   time.Now(),
			}
			Expect(store.SaveGrantAudit(ctx, audit)).To(Succeed())

			var rows []SQLiteGrantAudit
			Expect(db.Find(&rows).Error).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].OperatorID).To(Equal(int64(9)))
		})
	})
})
