package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kevinaaaquil/library/circulation"
	"github.com/kevinaaaquil/library/middleware"
	"github.com/kevinaaaquil/library/projection"
	"github.com/kevinaaaquil/library/service"
	"github.com/kevinaaaquil/library/store"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// decode reads a JSON body into dst and runs its validate tags.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid json")
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "email":
		return fmt.Errorf("%s must be a valid email", field)
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", field, fe.Param())
	case "min":
		return fmt.Errorf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Errorf("%s must be at most %s characters", field, fe.Param())
	}
	return fmt.Errorf("%s is invalid", field)
}

// writeDeskError maps desk and policy errors to status codes. Anything
// unrecognised is a 500 and is logged.
func writeDeskError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, `{"error":"book not found"}`, http.StatusNotFound)
	case errors.Is(err, circulation.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, circulation.ErrInvalidState), errors.Is(err, service.ErrLoanLimit):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, circulation.ErrInvalidRequest), errors.Is(err, service.ErrUnknownBorrower):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		if logger != nil {
			logger.Error("request failed", zap.Error(err))
		}
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
	}
}

// viewer is the authenticated caller as the projections see them.
func viewer(r *http.Request) projection.Viewer {
	ref, _ := middleware.UserIDFromContext(r.Context())
	name := projection.DisplayName(middleware.NameFromContext(r.Context()), middleware.EmailFromContext(r.Context()))
	return projection.Viewer{Role: middleware.RoleFromContext(r.Context()), Ref: ref, Name: name}
}
