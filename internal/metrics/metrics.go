package metrics

import (
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Record operation metrics, keyed by op (list, get, create, replace, status, delete)
	recordOpsTotal   map[string]int64
	recordOpErrors   map[string]int64
	recordsByStatus  map[string]int
	totalRecords     int
	ChangesBroadcast int64

	// WebSocket metrics
	WebSocketConnectionsTotal    int64
	WebSocketDisconnectionsTotal int64
	WebSocketMessagesTotal       int64
	WebSocketErrorsTotal         int64
	activeConnections            int64

	// HTTP metrics
	httpRequestsTotal    map[string]map[int]int64 // endpoint -> status -> count
	httpRequestDurations map[string][]float64     // endpoint -> durations

	// Timing
	startTime time.Time
}

// Global metrics instance
var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = New()
	})
	return instance
}

// New returns an empty, independent metrics set
func New() *Metrics {
	return &Metrics{
		recordOpsTotal:       make(map[string]int64),
		recordOpErrors:       make(map[string]int64),
		recordsByStatus:      make(map[string]int),
		httpRequestsTotal:    make(map[string]map[int]int64),
		httpRequestDurations: make(map[string][]float64),
		startTime:            time.Now(),
	}
}

// RecordOp counts a store operation and whether it failed
func (m *Metrics) RecordOp(op string, err error) {
	m.mu.Lock()
	m.recordOpsTotal[op]++
	if err != nil {
		m.recordOpErrors[op]++
	}
	m.mu.Unlock()
}

// RecordChangeBroadcast counts a change notification pushed to the hub
func (m *Metrics) RecordChangeBroadcast() {
	m.mu.Lock()
	m.ChangesBroadcast++
	m.mu.Unlock()
}

// UpdateRecordStats replaces the per-status gauge from a full listing
func (m *Metrics) UpdateRecordStats(statuses []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recordsByStatus = make(map[string]int)
	m.totalRecords = len(statuses)
	for _, s := range statuses {
		m.recordsByStatus[s]++
	}
}

// OpCount returns how many times op was recorded
func (m *Metrics) OpCount(op string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.recordOpsTotal[op]
}

// RecordWebSocketConnect increments connection counters
func (m *Metrics) RecordWebSocketConnect() {
	m.mu.Lock()
	m.WebSocketConnectionsTotal++
	m.activeConnections++
	m.mu.Unlock()
}

// RecordWebSocketDisconnect increments disconnection counter
func (m *Metrics) RecordWebSocketDisconnect() {
	m.mu.Lock()
	m.WebSocketDisconnectionsTotal++
	m.activeConnections--
	m.mu.Unlock()
}

// RecordWebSocketMessage increments message counter
func (m *Metrics) RecordWebSocketMessage() {
	m.mu.Lock()
	m.WebSocketMessagesTotal++
	m.mu.Unlock()
}

// RecordWebSocketError increments WebSocket error counter
func (m *Metrics) RecordWebSocketError() {
	m.mu.Lock()
	m.WebSocketErrorsTotal++
	m.mu.Unlock()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(endpoint string, statusCode int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpRequestsTotal[endpoint] == nil {
		m.httpRequestsTotal[endpoint] = make(map[int]int64)
	}
	m.httpRequestsTotal[endpoint][statusCode]++

	// Keep last 100 durations
	if len(m.httpRequestDurations[endpoint]) >= 100 {
		m.httpRequestDurations[endpoint] = m.httpRequestDurations[endpoint][1:]
	}
	m.httpRequestDurations[endpoint] = append(m.httpRequestDurations[endpoint], duration.Seconds())
}

// GetActiveConnections returns current WebSocket connections
func (m *Metrics) GetActiveConnections() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeConnections
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		write := func(name string, value interface{}, labels ...string) {
			labelStr := ""
			if len(labels) > 0 {
				labelStr = "{"
				for i := 0; i < len(labels); i += 2 {
					if i > 0 {
						labelStr += ","
					}
					labelStr += labels[i] + "=\"" + labels[i+1] + "\""
				}
				labelStr += "}"
			}

			switch v := value.(type) {
			case int:
				w.Write([]byte(name + labelStr + " " + strconv.Itoa(v) + "\n"))
			case int64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatInt(v, 10) + "\n"))
			case float64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatFloat(v, 'f', 6, 64) + "\n"))
			}
		}

		write("calldesk_uptime_seconds", time.Since(m.startTime).Seconds())

		for _, op := range sortedKeys(m.recordOpsTotal) {
			write("calldesk_record_ops_total", m.recordOpsTotal[op], "op", op)
		}
		for _, op := range sortedKeys(m.recordOpErrors) {
			write("calldesk_record_op_errors_total", m.recordOpErrors[op], "op", op)
		}
		write("calldesk_records_total", m.totalRecords)
		for status, count := range m.recordsByStatus {
			write("calldesk_records_by_status", count, "status", status)
		}
		write("calldesk_changes_broadcast_total", m.ChangesBroadcast)

		write("calldesk_websocket_connections_total", m.WebSocketConnectionsTotal)
		write("calldesk_websocket_disconnections_total", m.WebSocketDisconnectionsTotal)
		write("calldesk_websocket_active_connections", m.activeConnections)
		write("calldesk_websocket_messages_total", m.WebSocketMessagesTotal)
		write("calldesk_websocket_errors_total", m.WebSocketErrorsTotal)

		for endpoint, statusCodes := range m.httpRequestsTotal {
			for status, count := range statusCodes {
				write("calldesk_http_requests_total", count, "endpoint", endpoint, "status", strconv.Itoa(status))
			}
		}
	}
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
