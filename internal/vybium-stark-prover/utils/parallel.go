package utils

import "sync"

// Execute splits the half-open range [0, count) into contiguous chunks
// and runs work on each chunk concurrently, using at most maxWorkers
// goroutines. With a single worker the work runs on the calling
// goroutine. Chunk boundaries depend only on count and maxWorkers, so
// callers that write results into per-index slots produce identical
// output for any worker count.
func Execute(count, maxWorkers int, work func(start, end int)) {
	if count <= 0 {
		return
	}
	workers := maxWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > count {
		workers = count
	}
	if workers == 1 {
		work(0, count)
		return
	}

	perWorker := count / workers
	extra := count % workers

	var wg sync.WaitGroup
	start := 0
	for i := 0; i < workers; i++ {
		end := start + perWorker
		if i < extra {
			end++
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			work(s, e)
		}(start, end)
		start = end
	}
	wg.Wait()
}
