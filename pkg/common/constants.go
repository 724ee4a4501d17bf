package common

const (
	// RedisKeyPipelineLock is the lease key that serializes pipeline runs.
	// The Excel backend has no row-level locking, so at most one
	// orchestrator run may be active at a time.
	RedisKeyPipelineLock = "recommendation.pipeline.lock"

	// RedisKeyLastRun stores the completion timestamp of the last pipeline
	// run per week, keyed by week id.
	RedisKeyLastRun = "recommendation.pipeline.last_run:%s"

	// StorageBackendExcel and StorageBackendDocument are the values accepted
	// by the storage.backend config switch.
	StorageBackendExcel    = "excel"
	StorageBackendDocument = "document"
)
