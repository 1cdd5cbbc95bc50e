package scanner

import "time"

const (
	defaultWorkerCount  = 4
	defaultProgressStep = 10

	transferBatcherCapacity      = 1000
	transferBatcherFlushInterval = 5 * time.Second
	transferBatcherRPS           = 10
)
