package llm

import (
	"net/http"

	"github.com/vasifvortex/azercell-project3/domain"
)

func kindForStatus(status int) domain.ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.KindAuth
	case status == http.StatusTooManyRequests:
		return domain.KindThrottled
	case status == http.StatusPaymentRequired:
		return domain.KindQuota
	case status >= 400 && status < 500:
		return domain.KindInvalidRequest
	case status >= 500:
		return domain.KindUnavailable
	default:
		return domain.KindUnknown
	}
}
