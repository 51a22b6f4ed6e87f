package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T) string {
	t.Helper()
	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("scrape status = %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"1", "2"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest("GET", "/orders/"+id, nil))
	}

	want := `sahar_http_requests_total{method="GET",route="/orders/{id}",status="418"} 2`
	if body := scrape(t); !strings.Contains(body, want) {
		t.Errorf("exposition missing %q", want)
	}
}

func TestRecordCheckoutAndReconciled(t *testing.T) {
	RecordCheckout(CheckoutReplayed)
	RecordReconciled("abandoned")

	body := scrape(t)
	for _, want := range []string{
		`sahar_checkouts_total{result="replayed"} 1`,
		`sahar_reconciled_checkouts_total{outcome="abandoned"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
