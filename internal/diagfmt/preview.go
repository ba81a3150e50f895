package diagfmt

import (
	"bytes"
	"strings"

	"github.com/mattn/go-runewidth"

	"stateful/internal/source"
)

// sourceLine returns line (1-based) of f without the newline.
func sourceLine(f *source.File, line uint32) (string, bool) {
	if f == nil || line == 0 {
		return "", false
	}
	content := f.Content
	for i := uint32(1); i < line; i++ {
		nl := bytes.IndexByte(content, '\n')
		if nl < 0 {
			return "", false
		}
		content = content[nl+1:]
	}
	if nl := bytes.IndexByte(content, '\n'); nl >= 0 {
		content = content[:nl]
	}
	return string(content), true
}

// caretPad returns the blank prefix that puts a caret under col, keeping
// tabs and wide runes aligned.
func caretPad(text string, col uint32) string {
	if col <= 1 {
		return ""
	}
	var sb strings.Builder
	n := uint32(1)
	for _, r := range text {
		if n >= col {
			break
		}
		if r == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
		}
		n++
	}
	return sb.String()
}
