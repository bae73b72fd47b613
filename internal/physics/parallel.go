package physics

import "sync"

// parallelFor splits [0, n) into contiguous chunks and runs fn on each chunk
// from its own goroutine. Ranges of at most minChunk elements, or a single
// worker, run inline.
func parallelFor(n, workers, minChunk int, fn func(start, end int)) {
	if n <= minChunk || workers <= 1 {
		fn(0, n)
		return
	}

	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
