package utils

import (
	"bytes"
	"fmt"
	"html"
	"strconv"
	"unicode/utf8"
)

func CleanToValidUTF8(s string) string {
	var buf bytes.Buffer
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			i++
			continue
		}
		buf.WriteRune(r)
		i += size
	}
	return buf.String()
}

// SafeHTML escapes text for Telegram's HTML parse mode.
func SafeHTML(text string) string {
	return html.EscapeString(CleanToValidUTF8(text))
}

// RunSafe runs fn in the current goroutine and turns a panic into an error.
func RunSafe(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic recovered: %v", r)
		}
	}()
	return fn()
}

func ToPointer[T any](value T) *T {
	return &value
}

// FormatNumber renders a float without trailing zeros, e.g. 100 -> "100", 0.125 -> "0.125".
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
