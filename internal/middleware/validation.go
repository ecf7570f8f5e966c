package middleware

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "ewscli/internal/errors"
	"ewscli/pkg/contracts/domain"
)

// Validator decodes JSON bodies and checks their validate tags
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator registers the domain tags: notblank rejects whitespace-only
// strings, and domain.Value validates as its number or, when missing, as
// an empty field.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}

	v := validator.New()
	v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if val, ok := field.Interface().(domain.Value); ok && val.Valid {
			return val.Float
		}
		return nil
	}, domain.Value{})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{
		validate: v,
		logger:   logger.With(slog.String("component", "validation")),
	}
}

// DecodeJSON decodes r's body into dst and validates it. Every error is an
// APIError.
func (v *Validator) DecodeJSON(r *http.Request, dst interface{}) error {
	err := render.DecodeJSON(r.Body, dst)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		return v.Struct(dst)
	case errors.As(err, &tooLarge):
		return apierrors.ErrPayloadTooLarge
	case errors.Is(err, io.EOF):
		return apierrors.New(http.StatusBadRequest, apierrors.CodeInvalidRequest, "Request body is empty")
	default:
		v.logger.DebugContext(r.Context(), "request body rejected", slog.String("error", err.Error()))
		return apierrors.InvalidRequestWithError(err)
	}
}

// Struct validates s, collecting one ValidationError per failed field
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	out := make([]apierrors.ValidationError, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = apierrors.ValidationError{Field: fieldPath(fe), Message: describe(fe)}
	}
	return apierrors.NewValidationErrors(out)
}

// fieldPath drops the root struct name: "records[0].region"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

var tagMessages = map[string]string{
	"required": "is required",
	"notblank": "must not be blank",
	"min":      "must have at least %s",
	"max":      "must have at most %s",
	"gte":      "must be at least %s",
	"lte":      "must be at most %s",
	"oneof":    "must be one of: %s",
	"uuid":     "must be a valid UUID",
}

func describe(fe validator.FieldError) string {
	tmpl, ok := tagMessages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
	if strings.Contains(tmpl, "%s") {
		param := fe.Param()
		if fe.Tag() == "oneof" {
			param = strings.ReplaceAll(param, " ", ", ")
		}
		tmpl = fmt.Sprintf(tmpl, param)
	}
	return fe.Field() + " " + tmpl
}

// ContentTypeValidator rejects bodies whose media type is not listed.
// Bodyless methods pass through.
func ContentTypeValidator(errorHandler *apierrors.ErrorHandler, mediaTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Content-Type")
			if header == "" {
				errorHandler.HandleError(w, r, apierrors.ErrValidation("Content-Type", "header is required"))
				return
			}
			mediaType, _, err := mime.ParseMediaType(header)
			if err == nil && slices.Contains(mediaTypes, mediaType) {
				next.ServeHTTP(w, r)
				return
			}

			errorHandler.HandleError(w, r, apierrors.NewWithDetails(http.StatusUnsupportedMediaType,
				apierrors.CodeUnsupportedExport, "Unsupported content type",
				map[string]interface{}{"content_type": header, "allowed": mediaTypes}))
		})
	}
}

// QueryParamValidator parses query parameters, answering 400 itself when
// one is invalid
type QueryParamValidator struct {
	errorHandler *apierrors.ErrorHandler
}

func NewQueryParamValidator(errorHandler *apierrors.ErrorHandler) *QueryParamValidator {
	return &QueryParamValidator{errorHandler: errorHandler}
}

// ValidateInt returns param within [min, max], or def when absent. ok is
// false once the error response is written.
func (v *QueryParamValidator) ValidateInt(w http.ResponseWriter, r *http.Request, param string, min, max, def int) (int, bool) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return def, true
	}

	n, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, param+" must be a valid integer"))
		return 0, false
	case n < min || n > max:
		v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, fmt.Sprintf("%s must be between %d and %d", param, min, max)))
		return 0, false
	}
	return n, true
}

// ValidateEnum returns param when it is one of allowed, or def when absent
func (v *QueryParamValidator) ValidateEnum(w http.ResponseWriter, r *http.Request, param string, allowed []string, def string) (string, bool) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return def, true
	}
	if slices.Contains(allowed, raw) {
		return raw, true
	}
	v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param,
		fmt.Sprintf("%s must be one of: %s", param, strings.Join(allowed, ", "))))
	return "", false
}
