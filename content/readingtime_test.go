package content

import (
	"strings"
	"testing"
)

func TestReadingTimeSingleSection(t *testing.T) {
	sections := []Section{{
		Heading: "Intro",
		Body:    []Paragraph{{Text: "one two three four five"}},
	}}
	if got := ReadingTime(sections); got != 1 {
		t.Errorf("ReadingTime = %d, want 1", got)
	}
}

func TestReadingTimeEmpty(t *testing.T) {
	if got := ReadingTime(nil); got != 0 {
		t.Errorf("ReadingTime(nil) = %d, want 0", got)
	}
	empty := []Section{{Heading: "", Body: []Paragraph{{Text: ""}}}}
	if got := ReadingTime(empty); got != 0 {
		t.Errorf("ReadingTime(empty strings) = %d, want 0", got)
	}
}

func TestReadingTimeRoundsUp(t *testing.T) {
	words := strings.Repeat("word ", 200)
	sections := []Section{{Heading: "", Body: []Paragraph{{Text: words}}}}
	if got := ReadingTime(sections); got != 1 {
		t.Errorf("200 words: got %d, want 1", got)
	}
	sections[0].Heading = "one more"
	if got := ReadingTime(sections); got != 2 {
		t.Errorf("202 words: got %d, want 2", got)
	}
}

func TestReadingTimeCountsAcrossParagraphs(t *testing.T) {
	// "end" and "start" must not merge into one word.
	body := []Paragraph{{Text: strings.Repeat("a ", 199) + "end"}, {Text: "start"}}
	if got := ReadingTime([]Section{{Body: body}}); got != 2 {
		t.Errorf("got %d, want 2", got)
	}
}

func TestReadingTimeMonotonic(t *testing.T) {
	sections := []Section{{Heading: "h", Body: []Paragraph{{Text: ""}}}}
	prev := ReadingTime(sections)
	for i := 0; i < 450; i++ {
		if i%2 == 0 {
			sections[0].Heading += " w"
		} else {
			sections[0].Body[0].Text += " w"
		}
		got := ReadingTime(sections)
		if got < prev {
			t.Fatalf("reading time decreased from %d to %d after %d words", prev, got, i+1)
		}
		prev = got
	}
}

func TestBodyText(t *testing.T) {
	got := BodyText([]Paragraph{{Text: "first"}, {Text: "second"}})
	if got != "first second" {
		t.Errorf("BodyText = %q", got)
	}
}
