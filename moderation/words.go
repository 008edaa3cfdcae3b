package moderation

import (
	"bufio"
	"bytes"
	"embed"
	"strings"
)

//go:embed words/default.txt
var wordsFS embed.FS

// DefaultWords returns the embedded forbidden-words list, one word per
// line, blank lines and '#' comments skipped.
func DefaultWords() ([]string, error) {
	data, err := wordsFS.ReadFile("words/default.txt")
	if err != nil {
		return nil, err
	}

	var words []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words, scanner.Err()
}
