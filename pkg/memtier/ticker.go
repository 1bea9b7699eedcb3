package memtier

import (
	"sync"
	"time"
)

// StartTicker runs s.Tick every interval on its own goroutine until the
// returned stop function is called. The store itself never schedules its
// own cleanup; callers that want background eviction under pressure (rather
// than relying solely on Put's own preemptive eviction) use this.
func StartTicker(s *Store, interval time.Duration) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				s.Tick()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once

	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}
