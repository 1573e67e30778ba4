package mainthread

import "sync"

// Coalesce wraps fn so that reports from any goroutine keep at most one
// callback pending on q. The callback delivers the latest value reported
// before it runs; intermediate values are skipped.
func Coalesce[T any](q *Queue, fn func(T)) func(T) {
	var (
		mu      sync.Mutex
		latest  T
		pending bool
	)
	return func(v T) {
		mu.Lock()
		latest = v
		if pending {
			mu.Unlock()
			return
		}
		pending = true
		mu.Unlock()

		q.Post(func() {
			mu.Lock()
			v := latest
			pending = false
			mu.Unlock()
			fn(v)
		})
	}
}
