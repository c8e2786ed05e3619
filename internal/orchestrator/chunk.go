package orchestrator

// SplitChunks splits text into overlapping fixed-size windows (spec §4.7's
// "fan-out over its text chunks", parameterized by the run's chunking
// config, §A.3). An overlap that is negative or not less than size is
// treated as 0; a non-positive size
// disables splitting and returns text as the sole chunk.
func SplitChunks(text string, size, overlap int) []string {
	if size <= 0 || len(text) <= size {
		return []string{text}
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	step := size - overlap
	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
	}
	return chunks
}
