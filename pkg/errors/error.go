package errors

import (
	"bytes"
	"strings"
)

// ErrorCode represents a specific error code in the system.
type ErrorCode string

const (
	// GeneralInternalServerError represents a generic internal error.
	GeneralInternalServerError ErrorCode = "general_internal_server_error"
	// GeneralBadRequestError represents a generic bad request error.
	GeneralBadRequestError ErrorCode = "general_bad_request_error"
	// GeneralNotFoundError represents a generic not found error.
	GeneralNotFoundError ErrorCode = "general_not_found_error"
	// GeneralRepositoryError represents a generic repository error.
	GeneralRepositoryError ErrorCode = "general_repository_error"

	// ErrInvalidPrice represents a request with a non-positive or non-representable price.
	ErrInvalidPrice ErrorCode = "invalid_price"
	// ErrInvalidQty represents a request with a non-positive quantity.
	ErrInvalidQty ErrorCode = "invalid_qty"
	// ErrInvalidSide represents a request whose side is neither buy nor sell.
	ErrInvalidSide ErrorCode = "invalid_side"
	// ErrUnknownOperation represents a request with an unrecognized operation.
	ErrUnknownOperation ErrorCode = "unknown_operation"
	// ErrUnknownOrder represents a modify or cancel that targets an order not live in the book.
	ErrUnknownOrder ErrorCode = "unknown_order"
	// ErrDuplicateOrder represents an insert whose order id is already live in the book.
	ErrDuplicateOrder ErrorCode = "duplicate_order"

	// WALAppendError represents a failure appending a record to the write-ahead log.
	WALAppendError ErrorCode = "wal_append_error"
	// WALFlushError represents a failure flushing the write-ahead log to stable storage.
	WALFlushError ErrorCode = "wal_flush_error"
	// WALCorruptError represents a checksum mismatch in the middle of the log.
	WALCorruptError ErrorCode = "wal_corrupt_error"
	// WALLockError represents a failed attempt to take exclusive ownership of the log directory.
	WALLockError ErrorCode = "wal_lock_error"

	// BookInvariantError represents a violated order book invariant.
	BookInvariantError ErrorCode = "book_invariant_error"

	// CheckpointSaveError represents a failure persisting a checkpoint.
	CheckpointSaveError ErrorCode = "checkpoint_save_error"
	// CheckpointLoadError represents a failure loading a checkpoint.
	CheckpointLoadError ErrorCode = "checkpoint_load_error"

	// KafkaReadError represents an error reading from the ingress topic.
	KafkaReadError ErrorCode = "kafka_read_error"
	// KafkaWriteError represents an error writing to a downstream topic.
	KafkaWriteError ErrorCode = "kafka_write_error"
	// KafkaCommitError represents an error committing consumed offsets.
	KafkaCommitError ErrorCode = "kafka_commit_error"

	// RedisConfigError represents an error when the Redis configuration is invalid or nil.
	RedisConfigError ErrorCode = "redis_config_error"
	// RedisConnectionError represents an error when connecting to Redis.
	RedisConnectionError ErrorCode = "redis_connection_error"
	// RedisDisconnectionError represents an error when disconnecting from Redis.
	RedisDisconnectionError ErrorCode = "redis_disconnection_error"
	// RedisPingError represents an error when pinging Redis.
	RedisPingError ErrorCode = "redis_pinging_error"
	// RedisGetError represents an error when getting a value from Redis.
	RedisGetError ErrorCode = "redis_get_error"
	// RedisSetError represents an error when setting a value in Redis.
	RedisSetError ErrorCode = "redis_set_error"
	// RedisDelError represents an error when deleting a value from Redis.
	RedisDelError ErrorCode = "redis_del_error"
	// RedisSubscribeError represents an error when subscribing to channels in Redis.
	RedisSubscribeError ErrorCode = "redis_subscribe_error"
	// RedisPublishError represents an error when publishing messages to channels in Redis.
	RedisPublishError ErrorCode = "redis_publish_error"
)

// BaseError is an `error` type containing an array of ErrorDetails.
// This error provides basic functions for performing transformations
// on a list of ErrorDetails.
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

// IsAnyCodeEqual check if any ErrorDetails code is equal with given code
func (b *BaseError) IsAnyCodeEqual(code string) bool {
	for _, d := range b.GetDetails() {
		if d.Code == code {
			return true
		}
	}
	return false
}
