package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo pairs an error code with a user-facing message.
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError converts a storage or service error into an ErrorInfo without
// leaking driver internals to the caller. context names the resource being
// operated on ("product", "variant", "cart", ...).
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "Something went wrong"}
	}

	errStr := err.Error()
	errLower := strings.ToLower(errStr)

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: notFoundMessage(context)}
	}

	// Unique constraint violation (Postgres 23505, SQLite "UNIQUE constraint failed")
	if strings.Contains(errLower, "duplicate key") || strings.Contains(errLower, "unique constraint") {
		return parseDuplicateKeyError(errLower)
	}

	// Foreign key violation (23503)
	if strings.Contains(errLower, "foreign key constraint") {
		return ErrorInfo{
			Code:    ValidationInvalidID,
			Message: "A referenced resource does not exist",
		}
	}

	// Serialization / deadlock failures (40001, 40P01) surface here only if a
	// caller skipped the retry wrapper; classify as retry exhaustion.
	if IsTransientTxError(err) {
		return ErrorInfo{
			Code:    StoreRetryExhausted,
			Message: "The request could not be completed due to high contention. Please try again",
		}
	}

	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "An upstream service is unavailable. Please try again later",
		}
	}

	return ErrorInfo{Code: InternalServerError, Message: "Something went wrong"}
}

// IsDuplicateKeyError reports whether err is a unique-constraint violation
// from the storage layer (Postgres 23505, SQLite UNIQUE constraint).
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint")
}

// IsTransientTxError reports whether err is a transaction failure that may
// succeed if retried. It is the default classifier for the retry wrapper;
// storage backends with richer error types can substitute their own.
func IsTransientTxError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "could not serialize access") || // PG 40001
		strings.Contains(s, "deadlock detected") || // PG 40P01
		strings.Contains(s, "sqlstate 40001") ||
		strings.Contains(s, "sqlstate 40p01") ||
		strings.Contains(s, "database is locked") || // SQLite contention
		strings.Contains(s, "database table is locked")
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	if strings.Contains(errLower, "sku") {
		return ErrorInfo{Code: CatalogSKUConflict, Message: "SKU already exists in the catalog"}
	}
	if strings.Contains(errLower, "slug") {
		return ErrorInfo{Code: CatalogSlugConflict, Message: "Product slug already in use"}
	}
	if strings.Contains(errLower, "color") || strings.Contains(errLower, "idx_variants_product_color") {
		return ErrorInfo{Code: CatalogColorConflict, Message: "This product already has a variant in that color"}
	}
	if strings.Contains(errLower, "email") {
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "Email already in use"}
	}
	if strings.Contains(errLower, "phone") {
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "Phone number already in use"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "Resource already exists"}
}

func notFoundMessage(context string) string {
	switch context {
	case "product":
		return "Product not found"
	case "variant":
		return "Variant not found"
	case "size":
		return "Size not found"
	case "cart":
		return "Cart not found"
	case "cart_item":
		return "Cart item not found"
	case "order":
		return "Order not found"
	case "user":
		return "User not found"
	case "review":
		return "Review not found"
	case "address":
		return "Address not found"
	default:
		return "Resource not found"
	}
}
