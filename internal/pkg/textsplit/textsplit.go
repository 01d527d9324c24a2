// Package textsplit provides structure-aware splitting of text into
// overlapping chunks for retrieval indexing.
package textsplit

import "unicode"

const (
	DefaultWindow  = 1000
	DefaultOverlap = 100
)

// Split divides text into chunks of at most window runes. A chunk boundary
// prefers a paragraph break, then a line break, then any whitespace, looking
// back at most a quarter of the window; failing all of those the cut is hard.
// Every chunk after the first starts with the final overlap runes of its
// predecessor, so stripping that prefix and concatenating reconstructs the
// input exactly.
func Split(text string, window, overlap int) []string {
	if window <= 0 {
		window = DefaultWindow
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap*2 >= window {
		overlap = window / 5
	}

	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}
	if n <= window {
		return []string{text}
	}

	var chunks []string
	start := 0
	for {
		end := start + window
		if end >= n {
			end = n
		} else {
			end = boundary(runes, start, end)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end >= n {
			break
		}
		start = end - overlap
	}
	return chunks
}

// boundary moves end back to the nearest structural break, scanning at most
// a quarter of the chunk. Paragraph breaks win over line breaks, line breaks
// over plain whitespace.
func boundary(runes []rune, start, end int) int {
	min := end - (end-start)/4
	if min <= start {
		min = start + 1
	}

	for i := end; i > min; i-- {
		if runes[i-1] == '\n' && i >= 2 && runes[i-2] == '\n' {
			return i
		}
	}
	for i := end; i > min; i-- {
		if runes[i-1] == '\n' {
			return i
		}
	}
	for i := end; i > min; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}
