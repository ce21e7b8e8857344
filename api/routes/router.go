package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lumenacademy/lumenpay-backend/api/controllers"
	"github.com/lumenacademy/lumenpay-backend/api/controllers/webhooks"
	"github.com/lumenacademy/lumenpay-backend/api/middleware"
	"github.com/lumenacademy/lumenpay-backend/internal/ledger"
	"github.com/lumenacademy/lumenpay-backend/internal/orders"
	"github.com/lumenacademy/lumenpay-backend/internal/reconcile"
	"github.com/lumenacademy/lumenpay-backend/pkg/logger"
	"github.com/lumenacademy/lumenpay-backend/pkg/metrics"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Logger          *logger.Logger
	Gateway         ConfirmationGateway
	Orders          orders.Repository
	Ledger          ledger.Service
	Auditor         reconcile.Auditor
	Metrics         *metrics.WebhookMetrics
	Registry        *prometheus.Registry
	SignatureHeader string
	Pingers         map[string]controllers.Pinger
}

// ConfirmationGateway joins the two controller-facing gateway surfaces.
type ConfirmationGateway interface {
	webhooks.ConfirmationGateway
	controllers.ClientReturnGateway
}

// New assembles the chi router for the payment reconciliation API.
func New(params RouterParams) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(params.Logger))
	r.Use(middleware.RequestID(params.Logger))
	r.Use(middleware.Logging(params.Logger))

	r.Get("/health/live", controllers.HealthLive())
	r.Get("/health/ready", controllers.HealthReady(params.Logger, params.Pingers))

	if params.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/webhooks/payments", webhooks.PaymentsWebhook(params.Gateway, params.SignatureHeader, params.Metrics, params.Logger))
		r.Post("/checkout/{orderId}/return", controllers.CheckoutReturn(params.Gateway, params.Metrics, params.Logger))
		r.Get("/orders/{orderId}", controllers.GetOrder(params.Orders, params.Ledger, params.Logger))
		r.Get("/orders/{orderId}/audit", controllers.GetOrderAudit(params.Auditor, params.Logger))
	})

	return r
}
