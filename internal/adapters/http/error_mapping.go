package httpadapter

import (
	"net/http"

	"github.com/ratatutor/backend/internal/core/domain"
)

// mapErrorToHTTPStatus translates domain error kinds to status codes.
// Timeout and upstream-model kinds are checked before the generation
// wrapper because wrapped errors carry both kinds.
func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput),
		domain.IsKind(err, domain.ErrEmptyMessage),
		domain.IsKind(err, domain.ErrNoAttachments):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrNoExtractableText):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrAIServiceTimeout):
		return http.StatusGatewayTimeout
	case domain.IsKind(err, domain.ErrAIService):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrMalformedAIOutput),
		domain.IsKind(err, domain.ErrGenerationFailed):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
