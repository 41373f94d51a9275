package errors

// API error codes. Format: CATEGORY_SPECIFIC_DETAIL.
// Clients map these to their own copy; messages are a fallback.

const (
	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// ==================== Resource (RESOURCE_) ====================
	ResourceNotFound = "RESOURCE_NOT_FOUND"

	// ==================== Catalog (CATALOG_) ====================
	CatalogProductNotFound = "CATALOG_PRODUCT_NOT_FOUND"
	CatalogInvalidSort     = "CATALOG_INVALID_SORT"

	// ==================== Cart (CART_) ====================
	CartInvalidProduct = "CART_INVALID_PRODUCT"

	// ==================== Checkout (CHECKOUT_) ====================
	CheckoutEmptyCart      = "CHECKOUT_EMPTY_CART"
	CheckoutDeliveryFailed = "CHECKOUT_DELIVERY_FAILED"

	// ==================== Session (SESSION_) ====================
	SessionInvalid = "SESSION_INVALID"
	SessionMissing = "SESSION_MISSING"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError = "INTERNAL_SERVER_ERROR"
	InternalExternalAPI = "INTERNAL_EXTERNAL_API_ERROR"
)
