package httpadapter

import (
	"net/http"

	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrModelNotFound), domain.IsKind(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrLoadFailed), domain.IsKind(err, domain.ErrTaxonomyUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
