package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/invoicedesk/internal/auth/domain"
	clientdomain "github.com/smallbiznis/invoicedesk/internal/client/domain"
	deliverydomain "github.com/smallbiznis/invoicedesk/internal/delivery/domain"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/invoicedesk/internal/payment/domain"
	recurringdomain "github.com/smallbiznis/invoicedesk/internal/recurring/domain"
	settingsdomain "github.com/smallbiznis/invoicedesk/internal/settings/domain"
	"gorm.io/gorm"
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
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

var validationErrors = []error{
	ErrInvalidRequest,

	clientdomain.ErrInvalidName,
	clientdomain.ErrInvalidEmail,
	clientdomain.ErrInvalidID,

	invoicedomain.ErrInvalidInvoiceID,
	invoicedomain.ErrInvalidClient,
	invoicedomain.ErrMissingItems,
	invoicedomain.ErrInvalidItemDescription,
	invoicedomain.ErrInvalidItemQuantity,
	invoicedomain.ErrInvalidItemUnitPrice,
	invoicedomain.ErrInvalidTaxPercentage,
	invoicedomain.ErrInvalidDiscount,
	invoicedomain.ErrInvalidCurrency,
	invoicedomain.ErrInvalidCategory,
	invoicedomain.ErrInvalidStatus,
	invoicedomain.ErrInvalidDates,

	paymentdomain.ErrInvalidAmount,
	paymentdomain.ErrInvalidPaymentMethod,

	recurringdomain.ErrInvalidID,
	recurringdomain.ErrInvalidDayOfMonth,

	settingsdomain.ErrInvalidCompanyName,
	settingsdomain.ErrInvalidPrefix,
	settingsdomain.ErrInvalidDigits,
	settingsdomain.ErrInvalidCurrency,
	settingsdomain.ErrInvalidTax,
	settingsdomain.ErrInvalidTerms,

	deliverydomain.ErrMissingEmail,
	deliverydomain.ErrMissingPhone,
	deliverydomain.ErrInvalidPhone,
}

// validationFields covers codes whose field is not "invalid_<field>".
var validationFields = map[string]string{
	"invalid_request":              "request",
	"missing_items":                "items",
	"invalid_recurring_invoice_id": "id",
	"invalid_invoice_id":           "id",
	"invalid_item_description":     "items.description",
	"invalid_item_quantity":        "items.quantity",
	"invalid_item_unit_price":      "items.unit_price",
	"client_email_missing":         "client.email",
	"client_phone_missing":         "client.phone",
	"client_phone_invalid":         "client.phone",
}

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
		if status == http.StatusUnauthorized {
			c.Header("WWW-Authenticate", `Basic realm="invoicedesk"`)
		}
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
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if sentinel := matchValidationError(err); sentinel != nil {
		code := sentinel.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrNotConfigured):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authdomain.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case errors.Is(err, deliverydomain.ErrDeliveryFailed):
		return http.StatusBadGateway, errorPayload{
			Type:    "delivery_failed",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the response type and code logged with a
// failed request.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	} else if sentinel := conflictSentinel(err); sentinel != nil {
		code = sentinel.Error()
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func matchValidationError(err error) error {
	for _, sentinel := range validationErrors {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, clientdomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrInvoiceNotFound),
		errors.Is(err, recurringdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

var conflictErrors = []error{
	invoicedomain.ErrInvalidTransition,
	invoicedomain.ErrInvoiceLocked,
	invoicedomain.ErrInvoiceNumberConflict,
	paymentdomain.ErrInvoiceClosed,
	gorm.ErrDuplicatedKey,
}

func conflictSentinel(err error) error {
	for _, sentinel := range conflictErrors {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

func isConflictError(err error) bool {
	return conflictSentinel(err) != nil
}

func conflictMessage(err error) string {
	switch conflictSentinel(err) {
	case invoicedomain.ErrInvalidTransition:
		return "status transition not allowed"
	case invoicedomain.ErrInvoiceLocked:
		return "paid or cancelled invoices cannot be edited"
	case invoicedomain.ErrInvoiceNumberConflict:
		return "could not allocate a unique invoice number, retry the request"
	case paymentdomain.ErrInvoiceClosed:
		return "invoice no longer accepts payments"
	default:
		return "conflict"
	}
}

func validationErrorField(code string) string {
	if field, ok := validationFields[code]; ok {
		return field
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "missing_items":
		return "at least one item is required"
	case "client_email_missing":
		return "client has no email address"
	case "client_phone_missing":
		return "client has no phone number"
	case "client_phone_invalid":
		return "client phone number is not a valid WhatsApp number"
	case "invalid_day_of_month":
		return "day of month must be between 1 and 28"
	default:
		return "invalid value"
	}
}
