package middleware

import (
	"fmt"
	"net/http"

	"github.com/lumenacademy/lumenpay-backend/api/responses"
	pkgerrors "github.com/lumenacademy/lumenpay-backend/pkg/errors"
	"github.com/lumenacademy/lumenpay-backend/pkg/logger"
)

// Recoverer converts handler panics into a 500 envelope. The provider treats
// 5xx as retryable, so a panicked delivery comes back instead of being lost.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				err := fmt.Errorf("recovered panic: %v", rec)
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithField(ctx, "panic", rec)
					logg.Error(ctx, "request panicked", err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "request panicked"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
