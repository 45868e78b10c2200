package entitlement_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/course-platform/internal"
	"github.com/frahmantamala/course-platform/internal/auth"
	"github.com/frahmantamala/course-platform/internal/core"
	"github.com/frahmantamala/course-platform/internal/entitlement"
)

var _ = Describe("Grants", func() {
	var (
		store   *mockStore
		catalog *mockCatalog
		grants  *entitlement.Grants
		ctx     context.Context

		admin *auth.Principal
		user  *auth.Principal

		course core.CourseID = 101
	)

	BeforeEach(func() {
		store = newMockStore()
		catalog = newMockCatalog(course)
		grants = entitlement.NewGrants(store, catalog, time.Second, testLogger())
		ctx = context.Background()

		admin = &auth.Principal{ID: 9, Email: "admin@mail.com", IsAdmin: true}
		user = &auth.Principal{ID: 1, Email: "rani@mail.com"}
	})

	It("should write the entitlement with the direct source", func() {
		result, err := grants.GrantDirect(ctx, admin, user.ID, course, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Granted).To(BeTrue())
		Expect(result.OverrideToken).To(BeEmpty())

		Expect(store.entitlements[pairKey(user.ID, course)]).To(Equal(entitlement.SourceDirect))
	})

	It("should be idempotent and keep the original source", func() {
		Expect(store.AddEntitlement(ctx, user.ID, course, entitlement.SourcePromo)).To(Succeed())

		result, err := grants.GrantDirect(ctx, admin, user.ID, course, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Granted).To(BeTrue())

		// set-add: the existing row is untouched
		Expect(store.entitlements[pairKey(user.ID, course)]).To(Equal(entitlement.SourcePromo))
	})

	It("should refuse non-admin operators", func() {
		_, err := grants.GrantDirect(ctx, user, 2, course, false)
		Expect(err).To(Equal(internal.ErrAdminRequired))

		_, err = grants.GrantDirect(ctx, nil, 2, course, false)
		Expect(err).To(Equal(internal.ErrAdminRequired))
	})

	It("should refuse unknown courses", func() {
		_, err := grants.GrantDirect(ctx, admin, user.ID, core.CourseID(999), false)
		Expect(err).To(Equal(internal.ErrCourseNotFound))
	})

	It("should mint and persist an override token on request", func() {
		issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		grants.WithClock(func() time.Time { return issuedAt })

		result, err := grants.GrantDirect(ctx, admin, user.ID, course, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.OverrideToken).NotTo(BeEmpty())
		Expect(result.TokenError).To(BeEmpty())

		stored := store.tokens[result.OverrideToken]
		Expect(stored).NotTo(BeNil())
		Expect(stored.UserID).To(Equal(user.ID))
		Expect(stored.CourseID).To(Equal(course.Int64()))
		Expect(stored.IssuedAt).To(Equal(issuedAt))
	})

	It("should keep the grant when the token mint fails", func() {
		store.tokenSaveError = errors.New("token table gone")

		result, err := grants.GrantDirect(ctx, admin, user.ID, course, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Granted).To(BeTrue())
		Expect(result.OverrideToken).To(BeEmpty())
		Expect(result.TokenError).NotTo(BeEmpty())

		Expect(store.entitlements).To(HaveKey(pairKey(user.ID, course)))
	})

	It("should record an audit row for every grant", func() {
		_, err := grants.GrantDirect(ctx, admin, user.ID, course, true)
		Expect(err).NotTo(HaveOccurred())

		Expect(store.audits).To(HaveLen(1))
		audit := store.audits[0]
		Expect(audit.OperatorID).To(Equal(admin.ID))
		Expect(audit.UserID).To(Equal(user.ID))
		Expect(audit.CourseID).To(Equal(course.Int64()))
		Expect(audit.TokenIssued).To(BeTrue())
	})

	It("should not fail the grant when the audit write fails", func() {
		store.auditError = errors.New("audit table gone")

		result, err := grants.GrantDirect(ctx, admin, user.ID, course, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Granted).To(BeTrue())
	})

	It("should fail closed when the entitlement write fails", func() {
		store.addEntitlementError = errors.New("write refused")

		_, err := grants.GrantDirect(ctx, admin, user.ID, course, false)
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeStoreUnavailable))
	})
})
