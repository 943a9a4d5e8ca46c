package sweeper

import (
	"container/heap"
	"log"
	"os"
	"sync"
	"time"

	"github.com/Arthur2500/ConvertZ/internal/metrics"
)

type entry struct {
	path string
	due  time.Time
}

type entryHeap []entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].due.Before(h[j].due) }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x interface{}) { *h = append(*h, x.(entry)) }
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Sweeper is the retention backstop: every produced artifact is registered
// here at creation and deleted a fixed delay later if it still exists.
// Earlier deletion (after a completed download) just makes the sweep a
// no-op. One goroutine and one timer serve all entries via a time-ordered
// min-heap.
type Sweeper struct {
	retention time.Duration

	mu   sync.Mutex
	h    entryHeap
	wake chan struct{}
	done chan struct{}
	once sync.Once
}

func New(retention time.Duration) *Sweeper {
	s := &Sweeper{
		retention: retention,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	go s.run()
	return s
}

// Schedule registers path for best-effort deletion after the configured
// retention delay.
func (s *Sweeper) Schedule(path string) {
	s.ScheduleAfter(path, s.retention)
}

// ScheduleAfter registers path for best-effort deletion after delay.
func (s *Sweeper) ScheduleAfter(path string, delay time.Duration) {
	s.mu.Lock()
	heap.Push(&s.h, entry{path: path, due: time.Now().Add(delay)})
	metrics.SweepQueueSize.Set(float64(s.h.Len()))
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Sweeper) Stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *Sweeper) run() {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		s.mu.Lock()
		var wait time.Duration = time.Hour
		if s.h.Len() > 0 {
			wait = time.Until(s.h[0].due)
		}
		s.mu.Unlock()

		if wait < 0 {
			wait = 0
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-s.done:
			return
		case <-s.wake:
		case <-timer.C:
			s.sweepDue()
		}
	}
}

func (s *Sweeper) sweepDue() {
	now := time.Now()
	for {
		s.mu.Lock()
		if s.h.Len() == 0 || s.h[0].due.After(now) {
			metrics.SweepQueueSize.Set(float64(s.h.Len()))
			s.mu.Unlock()
			return
		}
		e := heap.Pop(&s.h).(entry)
		metrics.SweepQueueSize.Set(float64(s.h.Len()))
		s.mu.Unlock()

		s.remove(e.path)
	}
}

func (s *Sweeper) remove(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return
	}
	if err := os.Remove(path); err != nil {
		log.Printf("[Sweep] Failed to delete %s: %v", path, err)
		return
	}
	metrics.SweptFiles.Inc()
	log.Printf("[Sweep] Deleted expired artifact: %s", path)
}
