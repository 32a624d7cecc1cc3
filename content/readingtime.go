package content

import (
	"math"
	"strings"
)

// WordsPerMinute is the reading speed used by ReadingTime.
const WordsPerMinute = 200

// ReadingTime estimates the minutes needed to read sections. Words are
// whitespace-separated runs in each heading and in the plain text of each
// body; empty strings count as zero words.
func ReadingTime(sections []Section) int {
	words := 0
	for _, s := range sections {
		words += len(strings.Fields(s.Heading))
		words += len(strings.Fields(BodyText(s.Body)))
	}
	return int(math.Ceil(float64(words) / WordsPerMinute))
}

// BodyText returns the plain-text rendering of a section body: paragraph
// texts joined by single spaces.
func BodyText(body []Paragraph) string {
	parts := make([]string, 0, len(body))
	for _, p := range body {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, " ")
}
