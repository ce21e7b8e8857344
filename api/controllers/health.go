package controllers

import (
	"context"
	"net/http"

	"github.com/lumenacademy/lumenpay-backend/api/responses"
	pkgerrors "github.com/lumenacademy/lumenpay-backend/pkg/errors"
	"github.com/lumenacademy/lumenpay-backend/pkg/logger"
)

// Pinger is satisfied by the database and redis clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthLive reports process liveness only.
func HealthLive() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

// HealthReady reports readiness by pinging the backing stores. A nil pinger
// is skipped so dev setups without redis still come up ready.
func HealthReady(logg *logger.Logger, pingers map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		status := map[string]string{}
		healthy := true
		for name, pinger := range pingers {
			if pinger == nil {
				status[name] = "skipped"
				continue
			}
			if err := pinger.Ping(ctx); err != nil {
				status[name] = "unreachable"
				healthy = false
				if logg != nil {
					logg.Warn(ctx, "readiness check failed for "+name)
				}
				continue
			}
			status[name] = "ok"
		}

		if !healthy {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "service not ready").WithDetails(status))
			return
		}
		responses.WriteSuccess(w, status)
	}
}
