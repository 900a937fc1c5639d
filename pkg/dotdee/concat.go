package dotdee

import "bytes"

// Concatenate joins blocks with a blank line between each, strips trailing
// whitespace from the result and terminates it with a single newline.
// Leading whitespace and whitespace inside blocks is preserved.
func Concatenate(blocks [][]byte) []byte {
	joined := bytes.Join(blocks, []byte("\n\n"))
	trimmed := bytes.TrimRight(joined, whitespace)
	out := make([]byte, 0, len(trimmed)+1)
	out = append(out, trimmed...)
	return append(out, '\n')
}
