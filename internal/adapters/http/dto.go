package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

const maxBodyBytes = 1 << 20

type credentialRequest struct {
	Credential string `json:"credential" validate:"required"`
}

type toggleCategoryRequest struct {
	Path *string `json:"path" validate:"required"`
}

type scrollRequest struct {
	Panel  string   `json:"panel" validate:"required"`
	Offset *float64 `json:"offset" validate:"required,gte=0"`
}

type scrollResponse struct {
	Synced  bool                 `json:"synced"`
	Offsets []domain.PanelOffset `json:"offsets"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// decodeJSON reads a JSON body into dst and validates its tags. Every failure
// is an ErrInvalidInput.
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "decode request", errors.New("invalid json"))
	}
	if err := requestValidator().Struct(dst); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "validate request", describeValidation(err))
	}
	return nil
}

func describeValidation(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	parts := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		switch fieldErr.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fieldErr.Field()))
		default:
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fieldErr.Field(), fieldErr.Tag(), fieldErr.Param()))
		}
	}
	return errors.New(strings.Join(parts, "; "))
}
