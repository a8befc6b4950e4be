package fix

import "doccheck/internal/diag"

// Replace returns a fix that replaces the bytes [start, end) with text.
func Replace(start, end int, text string) *diag.Fix {
	return &diag.Fix{Range: [2]int{start, end}, Text: text}
}

// Delete returns a fix that removes the bytes [start, end).
func Delete(start, end int) *diag.Fix {
	return Replace(start, end, "")
}
