package rfm

import (
	"hash/fnv"
	"sync"

	"github.com/dvloznov/rfm-insights/internal/domain"
)

// aggregatePartitioned spreads the grouping work across workers by hashing the
// customer identifier. Each customer's transactions land in exactly one
// partition, so the partitions aggregate independently with no locking and the
// merged result matches the sequential path exactly.
func aggregatePartitioned(txs []domain.Transaction, workers int) map[string]*domain.CustomerMetrics {
	partitions := make([][]domain.Transaction, workers)
	for _, tx := range txs {
		p := partitionFor(tx.CustomerID, workers)
		partitions[p] = append(partitions[p], tx)
	}

	results := make([]map[string]*domain.CustomerMetrics, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = aggregate(partitions[i])
		}(i)
	}
	wg.Wait()

	merged := make(map[string]*domain.CustomerMetrics)
	for _, part := range results {
		for id, m := range part {
			merged[id] = m
		}
	}
	return merged
}

func partitionFor(customerID string, workers int) int {
	h := fnv.New32a()
	h.Write([]byte(customerID))
	return int(h.Sum32() % uint32(workers))
}
