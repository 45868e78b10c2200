package entitlement_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/course-platform/internal/auth"
	"github.com/frahmantamala/course-platform/internal/core"
	"github.com/frahmantamala/course-platform/internal/entitlement"
)

var _ = Describe("Entitlement Handler", func() {
	var (
		store   *mockStore
		catalog *mockCatalog
		handler *entitlement.Handler
		router  *chi.Mux

		user  *auth.Principal
		admin *auth.Principal

		course core.CourseID = 101
	)

	withPrincipal := func(p *auth.Principal) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if p != nil {
					r = r.WithContext(auth.ContextWithPrincipal(r.Context(), p))
				}
				next.ServeHTTP(w, r)
			})
		}
	}

	buildRouter := func(p *auth.Principal) *chi.Mux {
		r := chi.NewRouter()
		r.Use(withPrincipal(p))
		r.Get("/courses/{id}/access", handler.CheckAccess)
		r.Post("/admin/grants", handler.GrantDirect)
		return r
	}

	BeforeEach(func() {
		store = newMockStore()
		catalog = newMockCatalog(course)
		resolver := entitlement.NewResolver(store, catalog, time.Second, testLogger())
		grants := entitlement.NewGrants(store, catalog, time.Second, testLogger())
		handler = entitlement.NewHandler(resolver, grants)

		user = &auth.Principal{ID: 1, Email: "rani@mail.com"}
		admin = &auth.Principal{ID: 9, Email: "admin@mail.com", IsAdmin: true}
	})

	Describe("GET /courses/{id}/access", func() {
		It("should return the access decision as JSON", func() {
			Expect(store.AddEntitlement(context.Background(), user.ID, course, entitlement.SourceDirect)).To(Succeed())
			router = buildRouter(user)

			req := httptest.NewRequest(http.MethodGet, "/courses/101/access", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))

			var result entitlement.AccessResult
			Expect(json.Unmarshal(rec.Body.Bytes(), &result)).To(Succeed())
			Expect(result.Granted).To(BeTrue())
			Expect(result.Method).To(Equal(entitlement.MethodDirect))
		})

		It("should include denial diagnostics", func() {
			router = buildRouter(user)

			req := httptest.NewRequest(http.MethodGet, "/courses/101/access", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))

			var result entitlement.AccessResult
			Expect(json.Unmarshal(rec.Body.Bytes(), &result)).To(Succeed())
			Expect(result.Granted).To(BeFalse())
			Expect(result.Method).To(Equal(entitlement.MethodNone))
		})

		It("should pass the override token header to the resolver", func() {
			issuedAt := time.Now()
			token := entitlement.NewOverrideToken(user.ID, course, issuedAt)
			Expect(store.SaveOverrideToken(context.Background(), token)).To(Succeed())
			router = buildRouter(user)

			req := httptest.NewRequest(http.MethodGet, "/courses/101/access", nil)
			req.Header.Set(entitlement.OverrideTokenHeader, token.Token)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))

			var result entitlement.AccessResult
			Expect(json.Unmarshal(rec.Body.Bytes(), &result)).To(Succeed())
			Expect(result.Method).To(Equal(entitlement.MethodOverride))
		})

		It("should reject a malformed course id", func() {
			router = buildRouter(user)

			req := httptest.NewRequest(http.MethodGet, "/courses/abc/access", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should return 404 for an unknown course", func() {
			router = buildRouter(user)

			req := httptest.NewRequest(http.MethodGet, "/courses/999/access", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("should return 401 without a principal", func() {
			router = buildRouter(nil)

			req := httptest.NewRequest(http.MethodGet, "/courses/101/access", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("POST /admin/grants", func() {
		It("should grant and return the minted token", func() {
			router = buildRouter(admin)

			body := `{"user_id": 1, "course_id": "101", "issue_token": true}`
			req := httptest.NewRequest(http.MethodPost, "/admin/grants", strings.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))

			var result entitlement.GrantResult
			Expect(json.Unmarshal(rec.Body.Bytes(), &result)).To(Succeed())
			Expect(result.Granted).To(BeTrue())
			Expect(result.OverrideToken).NotTo(BeEmpty())
		})

		It("should return 403 for a non-admin operator", func() {
			router = buildRouter(user)

			body := `{"user_id": 2, "course_id": "101"}`
			req := httptest.NewRequest(http.MethodPost, "/admin/grants", strings.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusForbidden))
		})

		It("should reject a body without a user id", func() {
			router = buildRouter(admin)

			body := `{"course_id": "101"}`
			req := httptest.NewRequest(http.MethodPost, "/admin/grants", strings.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should reject a string course id that is not numeric", func() {
			router = buildRouter(admin)

			body := `{"user_id": 1, "course_id": "abc"}`
			req := httptest.NewRequest(http.MethodPost, "/admin/grants", strings.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
