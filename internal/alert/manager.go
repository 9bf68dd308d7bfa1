// Package alert delivers important trading events to an external notifier
// without ever blocking the trading loop.
package alert

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"cryptrade/internal/logging"
)

type Notifier interface {
	Notify(ctx context.Context, msg string) error
}

// Alerter is what the trading loop sees: fire-and-forget important events.
type Alerter interface {
	Important(event string, fields map[string]string)
}

const (
	defaultQueueSize          = 64
	defaultDropReportInterval = time.Minute
)

type ManagerOptions struct {
	QueueSize          int
	DropReportInterval time.Duration
}

// Manager queues events and ships them to the notifier from a single worker.
// When the queue is full events are dropped and the drops are accounted for,
// never waited on.
type Manager struct {
	exchange string
	product  string
	notifier Notifier
	log      *logging.Logger
	queue    chan event
	stop     chan struct{}
	done     chan struct{}

	dropInterval   time.Duration
	droppedTotal   uint64
	droppedPending uint64

	mu     sync.RWMutex
	closed bool
}

type event struct {
	name   string
	fields map[string]string
}

func NewManager(exchange, product string, notifier Notifier, log *logging.Logger) *Manager {
	return NewManagerWithOptions(exchange, product, notifier, log, ManagerOptions{
		QueueSize:          defaultQueueSize,
		DropReportInterval: defaultDropReportInterval,
	})
}

func NewManagerWithOptions(exchange, product string, notifier Notifier, log *logging.Logger, opts ManagerOptions) *Manager {
	if notifier == nil {
		return nil
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	m := &Manager{
		exchange:     exchange,
		product:      product,
		notifier:     notifier,
		log:          log,
		queue:        make(chan event, queueSize),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
		dropInterval: opts.DropReportInterval,
	}
	go m.loop()
	return m
}

func (m *Manager) Important(name string, fields map[string]string) {
	if m == nil {
		return
	}
	ev := event{name: name, fields: cloneFields(fields)}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}
	select {
	case m.queue <- ev:
	default:
		total := atomic.AddUint64(&m.droppedTotal, 1)
		if atomic.AddUint64(&m.droppedPending, 1) == 1 {
			m.log.Warn("alert_dropped", map[string]string{
				"target_event":  name,
				"reason":        "queue_full",
				"dropped_total": strconv.FormatUint(total, 10),
			})
		}
	}
}

// Close drains the queue and waits for in-flight deliveries, bounded by ctx.
func (m *Manager) Close(ctx context.Context) error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.stop)
	m.mu.Unlock()

	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) loop() {
	defer close(m.done)
	var ticker *time.Ticker
	var tick <-chan time.Time
	if m.dropInterval > 0 {
		ticker = time.NewTicker(m.dropInterval)
		tick = ticker.C
		defer ticker.Stop()
	}
	for {
		select {
		case ev := <-m.queue:
			m.send(ev)
		case <-tick:
			m.reportDrops()
		case <-m.stop:
			for {
				select {
				case ev := <-m.queue:
					m.send(ev)
				default:
					m.reportDrops()
					return
				}
			}
		}
	}
}

func (m *Manager) reportDrops() {
	dropped := atomic.SwapUint64(&m.droppedPending, 0)
	if dropped == 0 {
		return
	}
	m.log.Warn("alert_drop_report", map[string]string{
		"dropped_since_last": strconv.FormatUint(dropped, 10),
		"dropped_total":      strconv.FormatUint(atomic.LoadUint64(&m.droppedTotal), 10),
	})
}

func (m *Manager) send(ev event) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := m.notifier.Notify(ctx, m.buildMessage(ev.name, ev.fields)); err != nil {
		m.log.Error("alert_notify_failed", map[string]string{
			"target_event": ev.name,
			"error":        err.Error(),
		})
	}
}

func (m *Manager) buildMessage(name string, fields map[string]string) string {
	lines := []string{
		"[cryptrade] " + name,
		"time: " + time.Now().UTC().Format(time.RFC3339),
		"exchange: " + m.exchange,
		"product: " + m.product,
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, k+": "+fields[k])
	}
	return strings.Join(lines, "\n")
}

func cloneFields(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
