package query

// pageSkip computes the store offset for a page index.
func pageSkip(page uint32, size int) int {
	return int(page) * size
}

// totalPages is total/size by integer division. The final partial page is
// not separately flagged: a page index >= the returned value yields an
// empty window.
func totalPages(total uint64, size int) uint64 {
	return total / uint64(size)
}
