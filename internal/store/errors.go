package store

import "codeberg.org/mutker/powermon/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrorCode("store_invalid_config")
	ErrInvalidDBPath = errors.ErrorCode("store_invalid_db_path")

	// Storage Errors
	ErrStorageAccess = errors.ErrorCode("store_access_failed")
	ErrStorageInit   = errors.ErrorCode("store_init_failed")
	ErrStorageClose  = errors.ErrorCode("store_close_failed")
	ErrSchemaInit    = errors.ErrorCode("store_schema_init_failed")

	// Lookup Errors
	ErrMeterNotFound = errors.ErrorCode("store_meter_not_found")
)
