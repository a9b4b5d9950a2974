package utils

import "strings"

// SplitText splits a long string into chunks of approximately 'chunkSize' characters.
// It includes an 'overlap' to preserve context at boundaries and prefers breaking
// on paragraph or sentence boundaries near the cut point.
func SplitText(text string, chunkSize int, overlap int) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	totalLen := len(runes)

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize // fallback if overlap >= chunkSize
	}

	for i := 0; i < totalLen; i += step {
		end := i + chunkSize
		if end > totalLen {
			end = totalLen
		} else {
			end = snapToBoundary(runes, i, end)
		}

		chunk := strings.TrimSpace(string(runes[i:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end == totalLen {
			break
		}
	}

	return chunks
}

// snapToBoundary walks back from 'end' looking for a paragraph break or
// sentence end within the last 15% of the chunk. Falls back to a hard cut.
func snapToBoundary(runes []rune, start, end int) int {
	window := (end - start) * 15 / 100
	limit := end - window
	if limit <= start {
		return end
	}
	for i := end - 1; i >= limit; i-- {
		switch runes[i] {
		case '\n':
			return i + 1
		case '.', '!', '?':
			if i+1 < len(runes) && (runes[i+1] == ' ' || runes[i+1] == '\n') {
				return i + 2
			}
		}
	}
	return end
}
