package batch

// Partition splits items into consecutive chunks of size n, preserving order.
// The final chunk may be shorter. n <= 0 yields a single chunk.
func Partition[T any](items []T, n int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if n <= 0 || n >= len(items) {
		return [][]T{items}
	}

	chunks := make([][]T, 0, (len(items)+n-1)/n)
	for start := 0; start < len(items); start += n {
		end := min(start+n, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}

// Count returns how many chunks Partition would produce for total items.
func Count(total, n int) int {
	if total <= 0 {
		return 0
	}
	if n <= 0 {
		return 1
	}
	return (total + n - 1) / n
}
