package world

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	recordBufferSize   = 1024                   // circular buffer slots
	maxRecordsPerSec   = 10000                  // global rate limit
	batchFlushSize     = 64                     // records per batch write
	batchFlushInterval = 100 * time.Millisecond // flush cadence
)

// RecordKind classifies an event-log record.
type RecordKind uint8

const (
	RecordSpawn RecordKind = iota + 1
	RecordDespawn
	RecordEvent
)

// String returns the record kind name.
func (k RecordKind) String() string {
	switch k {
	case RecordSpawn:
		return "spawn"
	case RecordDespawn:
		return "despawn"
	case RecordEvent:
		return "event"
	default:
		return "unknown"
	}
}

// recordVersion allows the JSONL format to evolve.
const recordVersion uint8 = 1

// Record is one line of the registry lifecycle log.
type Record struct {
	Version   uint8      `json:"version"`
	Kind      RecordKind `json:"kind"`
	Timestamp int64      `json:"timestamp"` // unix nano
	Sequence  uint64     `json:"sequence"`  // monotonic
	ManagerID int        `json:"managerId"`
	EntityID  int        `json:"entityId"`
	Event     string     `json:"event,omitempty"` // event kind name for RecordEvent
	Value     string     `json:"value,omitempty"` // event payload rendering
}

// EventLog is a bounded, rate-limited lifecycle log with an async JSONL
// writer. Under sustained overload it drops the oldest records rather
// than stalling the manager.
type EventLog struct {
	buffer    [recordBufferSize]Record
	writeHead uint64 // atomic, producer position
	readHead  uint64 // atomic, consumer position

	limiter *rate.Limiter

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	filePath string
	file     *os.File
	fileMu   sync.Mutex

	droppedCount uint64 // atomic
	totalCount   uint64 // atomic
}

// NewEventLog creates a stopped event log.
func NewEventLog() *EventLog {
	return &EventLog{
		limiter:  rate.NewLimiter(maxRecordsPerSec, maxRecordsPerSec/10),
		stopChan: make(chan struct{}),
	}
}

// Start opens the output file and begins the async writer.
func (el *EventLog) Start(filePath string) error {
	if el.running.Load() {
		return nil
	}

	el.filePath = filePath
	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		el.file = file
	}

	el.running.Store(true)
	el.writerWg.Add(1)
	go el.writerLoop()
	return nil
}

// Stop flushes remaining records and closes the file.
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		el.running.Store(false)
		close(el.stopChan)
		el.writerWg.Wait()

		el.fileMu.Lock()
		if el.file != nil {
			el.file.Close()
		}
		el.fileMu.Unlock()
	})
}

// Emit appends a record. Returns false if the log is stopped, rate
// limited, or the record displaced an unread one.
func (el *EventLog) Emit(rec Record) bool {
	if !el.running.Load() {
		return false
	}
	if !el.limiter.Allow() {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}

	head := atomic.AddUint64(&el.writeHead, 1) - 1 // claimed slot
	tail := atomic.LoadUint64(&el.readHead)

	// Rolling window: full buffer drops the oldest record.
	if head-tail >= recordBufferSize {
		atomic.AddUint64(&el.readHead, 1)
		atomic.AddUint64(&el.droppedCount, 1)
	}

	rec.Version = recordVersion
	rec.Sequence = head
	rec.Timestamp = time.Now().UnixNano()
	el.buffer[head%recordBufferSize] = rec

	atomic.AddUint64(&el.totalCount, 1)
	return true
}

// Hooks returns manager callbacks that feed this log. The host installs
// these with Manager.SetCallbacks.
func (el *EventLog) Hooks(managerID int) Callbacks {
	return Callbacks{
		OnSpawn: func(id int, _ *Entity) {
			el.Emit(Record{Kind: RecordSpawn, ManagerID: managerID, EntityID: id})
		},
		OnDespawn: func(id int) {
			el.Emit(Record{Kind: RecordDespawn, ManagerID: managerID, EntityID: id})
		},
		OnEvent: func(id int, kind EventKind, value Value) {
			el.Emit(Record{
				Kind:      RecordEvent,
				ManagerID: managerID,
				EntityID:  id,
				Event:     kind.String(),
				Value:     value.String(),
			})
		},
	}
}

// writerLoop batches and writes records to disk asynchronously.
func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(batchFlushInterval)
	defer ticker.Stop()

	batch := make([]Record, 0, batchFlushSize)

	for {
		select {
		case <-el.stopChan:
			// Drain everything still buffered before exiting.
			for {
				batch = el.collectBatch(batch[:0])
				if len(batch) == 0 {
					return
				}
				el.flushBatch(batch)
			}

		case <-ticker.C:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
		}
	}
}

// collectBatch reads available records from the circular buffer.
func (el *EventLog) collectBatch(batch []Record) []Record {
	head := atomic.LoadUint64(&el.writeHead)
	tail := atomic.LoadUint64(&el.readHead)

	for i := tail; i < head && len(batch) < batchFlushSize; i++ {
		batch = append(batch, el.buffer[i%recordBufferSize])
	}
	if len(batch) > 0 {
		atomic.AddUint64(&el.readHead, uint64(len(batch)))
	}
	return batch
}

// flushBatch appends records as newline-delimited JSON.
func (el *EventLog) flushBatch(batch []Record) {
	el.fileMu.Lock()
	defer el.fileMu.Unlock()

	if el.file == nil {
		return
	}
	for _, rec := range batch {
		data, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		el.file.Write(data)
		el.file.Write([]byte("\n"))
	}
}

// Stats reports counters for monitoring.
func (el *EventLog) Stats() map[string]any {
	head := atomic.LoadUint64(&el.writeHead)
	tail := atomic.LoadUint64(&el.readHead)
	return map[string]any{
		"total":   atomic.LoadUint64(&el.totalCount),
		"dropped": atomic.LoadUint64(&el.droppedCount),
		"pending": head - tail,
		"running": el.running.Load(),
	}
}
