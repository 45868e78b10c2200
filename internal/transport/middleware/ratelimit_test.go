package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMiddleware(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Transport Middleware Suite")
}

var _ = Describe("ActivationRateLimiter", func() {
	var (
		rl      *ActivationRateLimiter
		handler http.Handler
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		rl = NewActivationRateLimiter(1, 2, logger)
		handler = rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
	})

	AfterEach(func() {
		rl.Stop()
	})

	doRequest := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodPost, "/promocodes/activate", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	It("should allow requests within the burst", func() {
		Expect(doRequest("10.0.0.1:1234")).To(Equal(http.StatusOK))
		Expect(doRequest("10.0.0.1:1234")).To(Equal(http.StatusOK))
	})

	It("should return 429 past the burst", func() {
		Expect(doRequest("10.0.0.2:1234")).To(Equal(http.StatusOK))
		Expect(doRequest("10.0.0.2:1234")).To(Equal(http.StatusOK))
		Expect(doRequest("10.0.0.2:1234")).To(Equal(http.StatusTooManyRequests))
	})

	It("should key limits by client host, not port", func() {
		Expect(doRequest("10.0.0.3:1000")).To(Equal(http.StatusOK))
		Expect(doRequest("10.0.0.3:2000")).To(Equal(http.StatusOK))
		Expect(doRequest("10.0.0.3:3000")).To(Equal(http.StatusTooManyRequests))
	})

	It("should not throttle one client because of another", func() {
		Expect(doRequest("10.0.0.4:1234")).To(Equal(http.StatusOK))
		Expect(doRequest("10.0.0.4:1234")).To(Equal(http.StatusOK))
		Expect(doRequest("10.0.0.4:1234")).To(Equal(http.StatusTooManyRequests))

		Expect(doRequest("10.0.0.5:1234")).To(Equal(http.StatusOK))
	})
})
