package errors

// Error code constants returned in API responses.
// Format: CATEGORY_SPECIFIC_DETAIL. The storefront maps these to messages.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized   = "AUTH_UNAUTHORIZED"    // login required
	AuthTokenExpired   = "AUTH_TOKEN_EXPIRED"   // token expired
	AuthTokenInvalid   = "AUTH_TOKEN_INVALID"   // malformed or forged token
	AuthCodeInvalid    = "AUTH_CODE_INVALID"    // wrong one-time code
	AuthCodeExpired    = "AUTH_CODE_EXPIRED"    // one-time code expired
	AuthTooManyCodes   = "AUTH_TOO_MANY_CODES"  // resend cooldown or daily cap hit
	AuthBadIdentifier  = "AUTH_BAD_IDENTIFIER"  // not a valid email or phone

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"      // role lacks access
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"     // admin-only endpoint
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND" // role information missing from context

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationRequired     = "VALIDATION_REQUIRED"
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Catalog (CATALOG_) ====================
	CatalogProductNotFound = "CATALOG_PRODUCT_NOT_FOUND"
	CatalogVariantNotFound = "CATALOG_VARIANT_NOT_FOUND"
	CatalogSizeNotFound    = "CATALOG_SIZE_NOT_FOUND"
	CatalogSKUConflict     = "CATALOG_SKU_CONFLICT"     // SKU already in use somewhere in the catalog
	CatalogSlugConflict    = "CATALOG_SLUG_CONFLICT"    // product slug already in use
	CatalogColorConflict   = "CATALOG_COLOR_CONFLICT"   // variant color already on this product

	// ==================== Cart (CART_) ====================
	CartNotFound      = "CART_NOT_FOUND"
	CartItemNotFound  = "CART_ITEM_NOT_FOUND"
	CartInvalidQty    = "CART_INVALID_QUANTITY"

	// ==================== Orders (ORDER_) ====================
	OrderNotFound          = "ORDER_NOT_FOUND"
	OrderInvalidStatus     = "ORDER_INVALID_STATUS"
	OrderInsufficientStock = "ORDER_INSUFFICIENT_STOCK"
	OrderEmptyCart         = "ORDER_EMPTY_CART"

	// ==================== Reviews (REVIEW_) ====================
	ReviewNotFound      = "REVIEW_NOT_FOUND"
	ReviewAlreadyExists = "REVIEW_ALREADY_EXISTS"
	ReviewInvalidRating = "REVIEW_INVALID_RATING"

	// ==================== Uploads (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Shipping (SHIPPING_) ====================
	ShippingInvalidPincode = "SHIPPING_INVALID_PINCODE"
	ShippingUnavailable    = "SHIPPING_UNAVAILABLE"

	// ==================== Internal (INTERNAL_, STORE_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
	StoreRetryExhausted   = "STORE_RETRY_EXHAUSTED" // transient conflict persisted across retries
)
