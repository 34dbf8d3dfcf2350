package tools

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseRanges expands a 1-based range string like "1-3,5,7-9" into
// 0-based page indices. Out-of-range pages are dropped; an empty result
// is an error.
func ParseRanges(s string, pageCount int) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "-") {
			bounds := strings.SplitN(part, "-", 2)
			start, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
			if err != nil {
				return nil, fmt.Errorf("invalid page range %q", part)
			}
			end, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
			if err != nil {
				return nil, fmt.Errorf("invalid page range %q", part)
			}
			for p := start; p <= end; p++ {
				if p >= 1 && p <= pageCount {
					out = append(out, p-1)
				}
			}
		} else {
			p, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid page number %q", part)
			}
			if p >= 1 && p <= pageCount {
				out = append(out, p-1)
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no valid pages in range %q", s)
	}
	return out, nil
}

// ChunkRanges expands a range string into one chunk of 0-based indices
// per comma group. Empty groups are skipped; a group that is malformed
// or selects no pages fails the whole string.
func ChunkRanges(s string, pageCount int) ([][]int, error) {
	var chunks [][]int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		chunk, err := ParseRanges(part, pageCount)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no valid pages in range %q", s)
	}
	return chunks, nil
}

// ChunkEveryN partitions page indices 0..pageCount-1 into consecutive
// chunks of n pages; the last chunk may be shorter.
func ChunkEveryN(pageCount, n int) [][]int {
	var chunks [][]int
	for i := 0; i < pageCount; i += n {
		var chunk []int
		for j := i; j < i+n && j < pageCount; j++ {
			chunk = append(chunk, j)
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// pdfcpuPages renders 0-based indices as the 1-based page selection
// strings pdfcpu expects.
func pdfcpuPages(indices []int) []string {
	out := make([]string, len(indices))
	for i, idx := range indices {
		out[i] = strconv.Itoa(idx + 1)
	}
	return out
}

// clampIndices keeps only indices within [0, pageCount).
func clampIndices(indices []int, pageCount int) []int {
	var out []int
	for _, idx := range indices {
		if idx >= 0 && idx < pageCount {
			out = append(out, idx)
		}
	}
	return out
}
