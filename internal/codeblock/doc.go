// Package codeblock turns fenced code samples inside documentation comments
// into standalone virtual documents.
//
// Extraction yields an ordered document list: index 0 is always the real
// file text, index i >= 1 is the i-th non-empty code block in source order.
// Anchors[i-1] holds what is needed to move a position found in document i
// back into the real file:
//
//	real line   = LineOffset + virtual line
//	real offset = CharacterOffset + virtual offset
//
// Columns need no adjustment because code blocks are taken verbatim, line by
// line, from the comment body.
package codeblock
