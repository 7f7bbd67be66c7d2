package errors

import (
	"bytes"
	stderrors "errors"
	"strings"
)

// ErrorCode represents a specific error code in the system.
type ErrorCode string

// String returns the code as plain string, the form stored on ErrorDetails.
func (c ErrorCode) String() string {
	return string(c)
}

const (
	// GeneralInternalServerError represents a generic internal server error.
	GeneralInternalServerError ErrorCode = "general_internal_server_error"
	// GeneralBadRequestError represents a generic bad request error.
	GeneralBadRequestError ErrorCode = "general_bad_request_error"

	// UpstreamError is returned when the price provider cannot be reached,
	// times out or reports a non-zero status code.
	UpstreamError ErrorCode = "upstream_error"
	// StoreWriteError is returned when appending a sample to a series fails.
	StoreWriteError ErrorCode = "store_write_error"
	// StoreReadError is returned when reading a series window fails.
	StoreReadError ErrorCode = "store_read_error"
	// StoreInitError is returned when series creation or probing fails at startup.
	StoreInitError ErrorCode = "store_init_error"
	// InvalidResolution is returned for a resolution outside the catalog.
	InvalidResolution ErrorCode = "invalid_resolution"

	// RedisConfigError represents an error when the Redis configuration is invalid or nil.
	RedisConfigError ErrorCode = "redis_config_error"
	// RedisConnectionError represents an error when connecting to Redis.
	RedisConnectionError ErrorCode = "redis_connection_error"
	// RedisDisconnectionError represents an error when disconnecting from Redis.
	RedisDisconnectionError ErrorCode = "redis_disconnection_error"
	// RedisPingError represents an error when pinging Redis.
	RedisPingError ErrorCode = "redis_pinging_error"
	// RedisDelError represents an error when deleting a value from Redis.
	RedisDelError ErrorCode = "redis_del_error"
	// RedisExistsError represents an error when probing a key in Redis.
	RedisExistsError ErrorCode = "redis_exists_error"
	// RedisScanError represents an error when iterating keys in Redis.
	RedisScanError ErrorCode = "redis_scan_error"
	// RedisTSCreateError represents an error when creating a time series.
	RedisTSCreateError ErrorCode = "redis_ts_create_error"
	// RedisTSAddError represents an error when adding a sample to a time series.
	RedisTSAddError ErrorCode = "redis_ts_add_error"
	// RedisTSRangeError represents an error when querying a time series range.
	RedisTSRangeError ErrorCode = "redis_ts_range_error"
)

// BaseError is an `error` type containing an array of ErrorDetails.
// The aggregation engine uses it to report every failed write of a rollup
// triple at once.
type BaseError struct {
	details []*ErrorDetails
}

// NewBaseError create BaseError with ErrorDetails
func NewBaseError(details ...*ErrorDetails) *BaseError {
	return &BaseError{details: details}
}

// AddErrorDetails add more ErrorDetails to BaseError
func (b *BaseError) AddErrorDetails(errors ...*ErrorDetails) {
	b.details = append(b.details, errors...)
}

// GetDetails get array ErrorDetails on BaseError
func (b *BaseError) GetDetails() []*ErrorDetails {
	return b.details
}

// HasDetails reports whether at least one detail was collected.
func (b *BaseError) HasDetails() bool {
	return len(b.details) > 0
}

// Fields returns the field of every detail in insertion order.
func (b *BaseError) Fields() []string {
	fields := make([]string, 0, len(b.details))
	for _, d := range b.details {
		fields = append(fields, d.Field)
	}
	return fields
}

// Error implement error interface
func (b *BaseError) Error() string {
	buff := bytes.NewBufferString("")

	buff.WriteString("Error on\n")
	for _, err := range b.details {
		buff.WriteString("code: ")
		buff.WriteString(err.Code)
		buff.WriteString("; error: ")
		buff.WriteString(err.Error())
		buff.WriteString("; field: ")
		buff.WriteString(err.Field)
		buff.WriteString("\n")
	}

	return strings.TrimSpace(buff.String())
}

// IsAllCodeEqual check if all ErrorDetails code is equal with given code
func (b *BaseError) IsAllCodeEqual(code string) bool {
	if len(b.details) == 0 {
		return false
	}

	for _, d := range b.GetDetails() {
		if d.Code != code {
			return false
		}
	}
	return true
}

// IsAnyCodeEqual check if any ErrorDetails code is equal with given code
func (b *BaseError) IsAnyCodeEqual(code string) bool {
	for _, d := range b.GetDetails() {
		if d.Code == code {
			return true
		}
	}
	return false
}

// HasCode walks the chain of err and reports whether any ErrorDetails or
// BaseError in it carries code.
func HasCode(err error, code ErrorCode) bool {
	var details *ErrorDetails
	if stderrors.As(err, &details) && details.Code == code.String() {
		return true
	}

	var base *BaseError
	if stderrors.As(err, &base) && base.IsAnyCodeEqual(code.String()) {
		return true
	}

	return false
}
