package errors

// Reasons carried by every catalog error. Clients switch on reason, never on message.
const (
	// 认证/鉴权
	ReasonUnauthenticated   = "UNAUTHENTICATED"
	ReasonInvalidCredential = "INVALID_CREDENTIAL"
	ReasonForbidden         = "FORBIDDEN"

	// 请求
	ReasonValidationFailed = "VALIDATION_FAILED"
	ReasonTooManyRequests  = "TOO_MANY_REQUESTS"
	ReasonPayloadTooLarge  = "PAYLOAD_TOO_LARGE"

	// 存储
	ReasonIngestPartialFailure = "INGEST_PARTIAL_FAILURE"
	ReasonStoreError           = "STORE_ERROR"

	ReasonInternalServerError = "INTERNAL_SERVER_ERROR"
)
