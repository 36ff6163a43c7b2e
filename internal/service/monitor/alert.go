package monitor

import (
	"sync"
	"time"
)

type AlertKind string

const (
	AlertLowBalance     AlertKind = "low_balance"
	AlertCritical       AlertKind = "critical"
	AlertStaleHeartbeat AlertKind = "stale_heartbeat"
)

type Alert struct {
	Kind      AlertKind `json:"kind"`
	TraderId  string    `json:"trader_id,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertBuffer 定长环形缓冲, 满了覆盖最旧的告警
type AlertBuffer struct {
	mu    sync.RWMutex
	buf   []Alert
	start int
	size  int
}

func NewAlertBuffer(capacity int) *AlertBuffer {
	if capacity <= 0 {
		capacity = 100
	}
	return &AlertBuffer{buf: make([]Alert, capacity)}
}

func (b *AlertBuffer) Add(alert Alert) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.size < len(b.buf) {
		b.buf[(b.start+b.size)%len(b.buf)] = alert
		b.size++
		return
	}
	b.buf[b.start] = alert
	b.start = (b.start + 1) % len(b.buf)
}

// List 按时间顺序, 最新的在最后
func (b *AlertBuffer) List() []Alert {
	b.mu.RLock()
	defer b.mu.RUnlock()
	res := make([]Alert, b.size)
	for i := 0; i < b.size; i++ {
		res[i] = b.buf[(b.start+i)%len(b.buf)]
	}
	return res
}
