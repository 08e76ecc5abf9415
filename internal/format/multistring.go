package format

// SplitMultiString splits a REG_MULTI_SZ payload into its component
// UTF-16LE strings. Each string is terminated by a 0x0000 code unit; the
// whole sequence is conventionally terminated by an extra empty string
// (i.e. two consecutive 0x0000 units), but real-world hives routinely omit
// the final terminator. Rather than treat that as fatal, the remaining
// bytes are folded into one last segment and the second return value
// reports whether the terminator was actually present.
//
// Grounded in libregf's tolerant multi-string reader, which marks such
// data corrupted and keeps what it has instead of discarding the value.
func SplitMultiString(data []byte) ([][]byte, bool) {
	if len(data)%2 != 0 && len(data) > 0 {
		data = data[:len(data)-1]
	}
	if len(data) == 0 {
		return nil, true
	}

	var out [][]byte
	start := 0
	for i := 0; i+1 < len(data); i += 2 {
		if data[i] != 0 || data[i+1] != 0 {
			continue
		}
		if i == start {
			// An empty segment is the list's own empty-string
			// terminator, not a string in its own right.
			return out, true
		}
		out = append(out, data[start:i])
		start = i + 2
	}

	if start < len(data) {
		out = append(out, data[start:])
	}
	return out, false
}
