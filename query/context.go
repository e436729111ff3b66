package query

import (
	"strings"
	"unicode/utf8"

	"github.com/poiesic/ragcore/core"
)

const blockSeparator = "\n\n"

// Delimiter returns the line that introduces a chunk in the assembled context.
func Delimiter(c core.Chunk) string {
	return "--- chunk " + c.ID + " (" + c.DocumentID + ") ---"
}

// AssembleContext renders hits, in order, as delimited blocks separated by a
// blank line. Blocks are added while the total stays within maxChars code
// points; the first block that would exceed it is dropped together with every
// block after it. The returned hits are the ones actually included.
func AssembleContext(hits []core.SearchHit, maxChars int) (string, []core.SearchHit) {
	var sb strings.Builder
	total := 0
	used := 0
	for _, hit := range hits {
		block := Delimiter(hit.Entry.Chunk) + "\n" + hit.Entry.Chunk.Text
		size := utf8.RuneCountInString(block)
		if used > 0 {
			size += utf8.RuneCountInString(blockSeparator)
		}
		if total+size > maxChars {
			break
		}
		if used > 0 {
			sb.WriteString(blockSeparator)
		}
		sb.WriteString(block)
		total += size
		used++
	}
	return sb.String(), hits[:used]
}
