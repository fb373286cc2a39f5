package dynamo

import "sync"

// numWorkers is fixed so that the split of a reduction, and with it the
// floating-point summation order, is the same on every machine.
const numWorkers = 4

// splitRange returns the number of chunks and the chunk size used for n
// items with at least minChunk items per chunk.
func splitRange(n, minChunk int) (workers, chunkSize int) {
	if n <= minChunk || numWorkers <= 1 {
		return 1, n
	}
	workers = numWorkers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}
	return workers, (n + workers - 1) / workers
}

// ParallelFor executes a function in parallel over a range [0, n)
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	workers, chunkSize := splitRange(n, minChunk)
	if workers == 1 {
		fn(0, n)
		return
	}

	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
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

// parallelSums accumulates the grid sums over [0, n) chunk by chunk and
// merges the partial results in chunk order.
func parallelSums(n, minChunk, nAmp int, fill func(acc *sums, start, end int)) *sums {
	workers, chunkSize := splitRange(n, minChunk)
	partial := make([]*sums, workers)
	for w := range partial {
		partial[w] = newSums(nAmp)
	}

	ParallelFor(n, minChunk, func(start, end int) {
		w := 0
		if chunkSize > 0 {
			w = start / chunkSize
		}
		fill(partial[w], start, end)
	})

	total := partial[0]
	for _, p := range partial[1:] {
		total.add(p)
	}
	return total
}
