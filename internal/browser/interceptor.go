// File: internal/browser/interceptor.go
package browser

import "sync"

// InterceptResponse waits for the first response to method + url on src. The
// match is delivered exactly once on the returned channel, after which the
// subscription is removed. stop removes it early and may be called any number
// of times.
func InterceptResponse(src ResponseSource, method, url string) (<-chan Response, func()) {
	ch := make(chan Response, 1)

	var (
		mu          sync.Mutex
		unsubscribe func()
		delivered   bool
	)
	stop := func() {
		mu.Lock()
		defer mu.Unlock()
		if unsubscribe != nil {
			unsubscribe()
			unsubscribe = nil
		}
	}

	mu.Lock()
	unsubscribe = src.OnResponse(func(res Response) {
		if res.Method != method || res.URL != url {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if delivered {
			return
		}
		delivered = true
		ch <- res
		if unsubscribe != nil {
			unsubscribe()
			unsubscribe = nil
		}
	})
	mu.Unlock()

	return ch, stop
}
