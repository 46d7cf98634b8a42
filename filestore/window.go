package filestore

// ResolveWindow normalizes the inclusive byte window [start, end] against a blob of
// size bytes. A negative end selects everything from start to the end of the blob.
// It returns the resolved end and the number of bytes in the window.
//
// An empty blob only satisfies the open window starting at 0, which yields zero bytes.
func ResolveWindow(start, end, size int64) (int64, int64, error) {
	if end < 0 {
		end = size - 1
	}
	if size == 0 && start == 0 && end == -1 {
		return end, 0, nil
	}
	if start < 0 || start >= size || end >= size || start > end {
		return 0, 0, InvalidRange(start, end, size)
	}
	return end, end - start + 1, nil
}
