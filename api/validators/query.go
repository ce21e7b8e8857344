package validators

import (
	"net/http"
	"strconv"

	pkgerrors "github.com/lumenacademy/lumenpay-backend/pkg/errors"
)

// ParseQueryInt reads an optional integer query parameter, returning the
// fallback when the parameter is absent.
func ParseQueryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter "+name+" must be an integer")
	}
	return value, nil
}
