// Package queue models recovery items and holds the FIFO of items waiting to
// be processed.
//
// Items move through queued, processing and completed exactly once. An item
// whose unit of work aborts is marked failed instead of completed. The Queue
// type is not safe for concurrent use: the workflow manager owns it and guards
// every call with its own mutex.
package queue
