package logger

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Publisher ships aggregated log batches, typically to Kafka.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type CollectionConfig struct {
	TimeInterval   time.Duration // flush interval (e.g., 30s)
	CountThreshold int           // max unique logs before flush (e.g., 100)
	Topic          string        // topic to send aggregated logs
	Publisher      Publisher     // interface to send aggregated logs
}

type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogCollector deduplicates warn and error logs and ships them in batches,
// so a failing dependency produces one entry with a count instead of a flood.
type LogCollector struct {
	config *CollectionConfig
	logMap map[string]*AggregatedLogEntry
	mutex  sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewLogCollector(config *CollectionConfig) *LogCollector {
	if config.TimeInterval <= 0 {
		config.TimeInterval = 30 * time.Second
	}
	if config.CountThreshold <= 0 {
		config.CountThreshold = 100
	}
	ctx, cancel := context.WithCancel(context.Background())

	collector := &LogCollector{
		config: config,
		logMap: make(map[string]*AggregatedLogEntry),
		ctx:    ctx,
		cancel: cancel,
	}

	// Start periodic flush goroutine
	collector.wg.Add(1)
	go collector.periodicFlush()

	return collector
}

func (d *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := d.generateKey(level, message, fields, caller)

	d.mutex.Lock()
	if entry, exists := d.logMap[key]; exists {
		entry.Count++
		entry.LastSeen = now
	} else {
		d.logMap[key] = &AggregatedLogEntry{
			Level:     level,
			Message:   message,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}
	var batch []AggregatedLogEntry
	if len(d.logMap) >= d.config.CountThreshold {
		batch = d.drain()
	}
	d.mutex.Unlock()

	if batch != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.send(batch)
		}()
	}
}

func (d *LogCollector) generateKey(level, message string, fields map[string]interface{}, caller string) string {
	// Create a consistent hash from level + message + fields + caller
	data := struct {
		Level   string                 `json:"level"`
		Message string                 `json:"message"`
		Fields  map[string]interface{} `json:"fields"`
		Caller  string                 `json:"caller"`
	}{
		Level:   level,
		Message: message,
		Fields:  fields,
		Caller:  caller,
	}

	jsonData, _ := json.Marshal(data)
	hash := sha256.Sum256(jsonData)
	return fmt.Sprintf("%x", hash)
}

func (d *LogCollector) periodicFlush() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.TimeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.Flush()
		case <-d.ctx.Done():
			// Final flush before shutdown
			d.Flush()
			return
		}
	}
}

// Flush ships everything collected so far.
func (d *LogCollector) Flush() {
	d.mutex.Lock()
	batch := d.drain()
	d.mutex.Unlock()
	if batch != nil {
		d.send(batch)
	}
}

// drain empties the map; callers hold the mutex.
func (d *LogCollector) drain() []AggregatedLogEntry {
	if len(d.logMap) == 0 {
		return nil
	}
	logs := make([]AggregatedLogEntry, 0, len(d.logMap))
	for _, entry := range d.logMap {
		logs = append(logs, *entry)
	}
	d.logMap = make(map[string]*AggregatedLogEntry)
	return logs
}

func (d *LogCollector) send(logs []AggregatedLogEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := d.config.Publisher.PublishMessage(ctx, d.config.Topic, logs); err != nil {
		fmt.Fprintf(os.Stderr, "failed to send aggregated logs: %v\n", err)
	}
}

// Close stops the flusher after a final flush and waits for in-flight sends.
func (d *LogCollector) Close() {
	d.cancel()
	d.wg.Wait()
}
