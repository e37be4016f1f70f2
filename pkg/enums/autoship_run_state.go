package enums

// AutoshipRunState is the terminal outcome of one subscription in one batch run.
type AutoshipRunState string

const (
	AutoshipRunStateCompleted AutoshipRunState = "completed"
	AutoshipRunStateFailed    AutoshipRunState = "failed"
	AutoshipRunStateSkipped   AutoshipRunState = "skipped"
)
