package renderer

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/conneroisu/folio/internal/richtext"
)

// WordsPerMinute is the reading speed used by ReadingTime.
const WordsPerMinute = 200

// PlainText flattens elements to text. Blocks are separated by blank lines
// and list entries are prefixed with a bullet or their ordinal.
func PlainText(elements []richtext.Element) string {
	var blocks []string
	for _, el := range elements {
		if s := strings.TrimSpace(blockText(el)); s != "" {
			blocks = append(blocks, s)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func blockText(el richtext.Element) string {
	switch el.Kind {
	case richtext.ElementList:
		var lines []string
		for i, item := range el.Children {
			prefix := "- "
			if el.Ordered {
				prefix = strconv.Itoa(i+1) + ". "
			}
			lines = append(lines, prefix+strings.TrimSpace(blockText(item)))
		}
		return strings.Join(lines, "\n")
	case richtext.ElementQuote:
		return "> " + inlineText(el)
	}
	if !el.Kind.IsBlock() {
		return el.TextContent()
	}
	return inlineText(el)
}

// inlineText joins children, putting nested blocks on their own lines.
func inlineText(el richtext.Element) string {
	var sb strings.Builder
	for _, c := range el.Children {
		if c.Kind.IsBlock() {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(blockText(c))
			continue
		}
		sb.WriteString(c.TextContent())
	}
	return sb.String()
}

// Excerpt returns at most maxRunes runes of the document text, cut at a word
// boundary and suffixed with an ellipsis when truncated.
func Excerpt(elements []richtext.Element, maxRunes int) string {
	text := strings.Join(strings.Fields(PlainText(elements)), " ")
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:maxRunes])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

// ReadingTime estimates minutes to read the document, never less than one.
func ReadingTime(elements []richtext.Element) int {
	words := len(strings.Fields(PlainText(elements)))
	minutes := int(math.Ceil(float64(words) / WordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}
