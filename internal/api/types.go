package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Item describes a device item in a transport-friendly format.
type Item struct {
	ID                 string             `json:"id"`
	Category           string             `json:"category"`
	Status             string             `json:"status"`
	Progress           float64            `json:"progress"`
	CreatedAt          string             `json:"createdAt,omitempty"`
	StartedAt          string             `json:"startedAt,omitempty"`
	CompletedAt        string             `json:"completedAt,omitempty"`
	ElapsedSeconds     float64            `json:"elapsedSeconds,omitempty"`
	MaterialsRecovered map[string]float64 `json:"materialsRecovered,omitempty"`
	RecoveryEfficiency *float64           `json:"recoveryEfficiency,omitempty"`
	ErrorMessage       string             `json:"errorMessage,omitempty"`
}

// CategoryBreakdown is the per-category completion summary.
type CategoryBreakdown struct {
	Count     int                `json:"count"`
	Materials map[string]float64 `json:"materials"`
}

// Stats summarizes facility state.
type Stats struct {
	GeneratedAt       string                       `json:"generatedAt"`
	Status            string                       `json:"status"`
	QueueLength       int                          `json:"queueLength"`
	ActiveCount       int                          `json:"activeCount"`
	MaxConcurrent     int                          `json:"maxConcurrent"`
	CompletedToday    int                          `json:"completedToday"`
	TotalCompleted    int                          `json:"totalCompleted"`
	FailedCount       int                          `json:"failedCount"`
	MaterialTotals    map[string]float64           `json:"materialTotals"`
	CategoryBreakdown map[string]CategoryBreakdown `json:"categoryBreakdown"`
	Queue             []Item                       `json:"queue"`
	Active            []Item                       `json:"active"`
	Recent            []Item                       `json:"recent"`
	Failed            []Item                       `json:"failed"`
}

// QueueResponse lists the pending items.
type QueueResponse struct {
	Items  []Item `json:"items"`
	Length int    `json:"length"`
}

// EnqueueRequest adds quantity items of a category. An omitted quantity
// means one item.
type EnqueueRequest struct {
	Category string `json:"category"`
	Quantity *int   `json:"quantity,omitempty"`
}

// QuantityOrDefault returns the requested quantity, or 1 when none was sent.
func (r EnqueueRequest) QuantityOrDefault() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

// EnqueueResponse returns the ids assigned by an enqueue.
type EnqueueResponse struct {
	IDs         []string `json:"ids"`
	QueueLength int      `json:"queueLength"`
}

// ProcessRequest admits the next item, or as many as fit when All is set.
type ProcessRequest struct {
	All bool `json:"all"`
}

// ProcessResponse lists the items admitted for processing.
type ProcessResponse struct {
	Started []Item `json:"started"`
	Message string `json:"message,omitempty"`
}

// ConcurrencyRequest changes the concurrency cap.
type ConcurrencyRequest struct {
	MaxConcurrent int `json:"maxConcurrent"`
}

// ConcurrencyResponse reports the concurrency cap.
type ConcurrencyResponse struct {
	MaxConcurrent int `json:"maxConcurrent"`
}

// Category describes a catalog entry.
type Category struct {
	ID              string   `json:"id"`
	Materials       []string `json:"materials"`
	DurationSeconds int      `json:"durationSeconds"`
	RecoveryRate    float64  `json:"recoveryRate"`
	Hazard          string   `json:"hazard"`
}

// CategoriesResponse wraps the catalog.
type CategoriesResponse struct {
	Categories []Category `json:"categories"`
}

// CompositionPart is one constituent of a composition.
type CompositionPart struct {
	Material string `json:"material"`
	Percent  int    `json:"percent"`
	Hazard   int    `json:"hazard"`
}

// Composition is the percentage breakdown of a category.
type Composition struct {
	Category    string            `json:"category"`
	Parts       []CompositionPart `json:"parts"`
	HazardScore float64           `json:"hazardScore"`
}

// ProcessedResponse is one page of finished items.
type ProcessedResponse struct {
	Items  []Item `json:"items"`
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// ChatRequest carries a question for the responder.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// Event is one facility event.
type Event struct {
	Sequence    uint64 `json:"sequence"`
	Type        string `json:"type"`
	Timestamp   string `json:"timestamp"`
	ItemID      string `json:"itemId,omitempty"`
	Item        *Item  `json:"item,omitempty"`
	Queue       []Item `json:"queue,omitempty"`
	QueueLength int    `json:"queueLength"`
	ActiveCount int    `json:"activeCount"`
	Status      string `json:"status"`
	Step        int    `json:"step,omitempty"`
	Error       string `json:"error,omitempty"`
}

// EventsResponse is a page of events. Next is the cursor for the following
// request; First is the oldest sequence still buffered.
type EventsResponse struct {
	Events []Event `json:"events"`
	Next   uint64  `json:"next"`
	First  uint64  `json:"first"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running       bool   `json:"running"`
	PID           int    `json:"pid"`
	LockFilePath  string `json:"lockFilePath"`
	AutoProcess   bool   `json:"autoProcess"`
	DriverRunning bool   `json:"driverRunning"`
	MaxConcurrent int    `json:"maxConcurrent"`
	Notifications bool   `json:"notifications"`
	Subscribers   int    `json:"subscribers"`
	LedgerRows    int    `json:"ledgerRows"`
}

// StreamFrame is one WebSocket message. The first frame of a connection is a
// snapshot; every later frame carries one event.
type StreamFrame struct {
	Kind  string `json:"kind"`
	Stats *Stats `json:"stats,omitempty"`
	Event *Event `json:"event,omitempty"`
}

// Stream frame kinds.
const (
	FrameSnapshot = "snapshot"
	FrameEvent    = "event"
)
