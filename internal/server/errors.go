package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	accountdomain "github.com/lekhabooks/lekha/internal/account/domain"
	auditdomain "github.com/lekhabooks/lekha/internal/audit/domain"
	billdomain "github.com/lekhabooks/lekha/internal/billwise/domain"
	einvoicedomain "github.com/lekhabooks/lekha/internal/einvoice/domain"
	"github.com/lekhabooks/lekha/internal/sequence"
	"github.com/lekhabooks/lekha/internal/tax/calc"
	taxdomain "github.com/lekhabooks/lekha/internal/tax/domain"
	tenantdomain "github.com/lekhabooks/lekha/internal/tenant/domain"
	voucherdomain "github.com/lekhabooks/lekha/internal/voucher/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type      string            `json:"type"`
	Message   string            `json:"message"`
	Retryable bool              `json:"retryable,omitempty"`
	Errors    []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{Field: field, Code: code, Message: message},
		},
	}
}

var validationErrors = []error{
	ErrInvalidRequest,
	voucherdomain.ErrInvalidTenant,
	voucherdomain.ErrInvalidType,
	voucherdomain.ErrInvalidDate,
	voucherdomain.ErrInvalidAmount,
	voucherdomain.ErrPartyRequired,
	voucherdomain.ErrCounterRequired,
	voucherdomain.ErrItemsRequired,
	voucherdomain.ErrEntriesRequired,
	voucherdomain.ErrMissingLineData,
	voucherdomain.ErrTDSNotApplicable,
	voucherdomain.ErrUnbalancedVoucher,
	voucherdomain.ErrTooFewEntries,
	voucherdomain.ErrEntryLedgerRequired,
	voucherdomain.ErrNegativeEntryAmount,
	voucherdomain.ErrEntrySideExclusive,
	calc.ErrInvalidJurisdiction,
	calc.ErrInvalidRate,
	calc.ErrInvalidAmount,
	taxdomain.ErrInvalidHSNCode,
	taxdomain.ErrInvalidTaxRate,
	sequence.ErrInvalidRequest,
	billdomain.ErrInvalidAmount,
	billdomain.ErrEmptyBatch,
	billdomain.ErrNotPaymentVoucher,
	billdomain.ErrVoucherNotPosted,
	accountdomain.ErrInvalidName,
	accountdomain.ErrInvalidNature,
	accountdomain.ErrInvalidSide,
	accountdomain.ErrInvalidOpeningBalance,
	accountdomain.ErrGroupRequired,
	accountdomain.ErrGroupCycle,
	tenantdomain.ErrInvalidSlug,
	einvoicedomain.ErrMissingIRN,
	einvoicedomain.ErrVoucherNotPosted,
	auditdomain.ErrInvalidAction,
	auditdomain.ErrInvalidTimeRange,
}

var notFoundErrors = []error{
	voucherdomain.ErrVoucherNotFound,
	voucherdomain.ErrLedgerNotFound,
	billdomain.ErrBillNotFound,
	billdomain.ErrVoucherNotFound,
	accountdomain.ErrGroupNotFound,
	accountdomain.ErrLedgerNotFound,
	einvoicedomain.ErrVoucherNotFound,
	einvoicedomain.ErrAckNotFound,
	tenantdomain.ErrTenantNotFound,
	gorm.ErrRecordNotFound,
}

var conflictErrors = []error{
	voucherdomain.ErrInvalidTransition,
	voucherdomain.ErrCancelNotAllowed,
	voucherdomain.ErrNotDraft,
	billdomain.ErrBillAllocated,
	tenantdomain.ErrSlugTaken,
}

func errorsIsAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func mapError(err error) (int, errorPayload) {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	switch {
	case errorsIsAny(err, validationErrors):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case errorsIsAny(err, notFoundErrors):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}
	case errors.Is(err, tenantdomain.ErrTenantInactive),
		errors.Is(err, tenantdomain.ErrTenantNotProvisioned):
		return http.StatusForbidden, errorPayload{
			Type:    "tenant_unavailable",
			Message: err.Error(),
		}
	case errors.Is(err, sequence.ErrConcurrencyConflict):
		return http.StatusConflict, errorPayload{
			Type:      "concurrency_conflict",
			Message:   err.Error(),
			Retryable: true,
		}
	case errorsIsAny(err, conflictErrors):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, billdomain.ErrOverAllocation):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "over_allocation",
			Message: err.Error(),
		}
	case errors.Is(err, voucherdomain.ErrSystemLedgerMissing):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "system_ledger_missing",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}
