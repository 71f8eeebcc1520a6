package parser

import (
	"math"
	"strings"
)

// DefaultWordsPerMinute is the reading speed behind read-time estimates.
const DefaultWordsPerMinute = 200

var markdownChars = strings.NewReplacer(
	"#", "", "*", "", "_", "", "`", "", "~", "",
	">", "", "[", "", "]", "", "(", "", ")", "", "|", "",
)

// WordCount counts whitespace-separated words after removing Markdown
// formatting characters.
func WordCount(text string) int {
	plain := markdownChars.Replace(text)
	plain = strings.ReplaceAll(plain, "\n", " ")
	return len(strings.Fields(plain))
}

// ReadTime estimates reading minutes, never less than one. Halves round to even.
func ReadTime(words, wpm int) int {
	if wpm <= 0 {
		wpm = DefaultWordsPerMinute
	}
	return max(1, int(math.RoundToEven(float64(words)/float64(wpm))))
}
