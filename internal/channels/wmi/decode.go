package wmi

// Helpers for the loosely typed values that come back from COM variant
// arrays. Element types vary with the marshaller (uint8 for byte
// arrays, int32 or uint16 for character arrays), so both decoders
// accept whatever integral type shows up.

// bytesFromValues converts a variant array to raw bytes.
func bytesFromValues(values []any) []byte {
	out := make([]byte, 0, len(values))
	for _, v := range values {
		switch n := v.(type) {
		case uint8:
			out = append(out, n)
		case int8:
			out = append(out, byte(n))
		case uint16:
			out = append(out, byte(n))
		case int16:
			out = append(out, byte(n))
		case int32:
			out = append(out, byte(n))
		case uint32:
			out = append(out, byte(n))
		case int64:
			out = append(out, byte(n))
		}
	}
	return out
}

// stringFromCodepoints converts a variant array of character codes to a
// string, stopping at the first NUL terminator.
func stringFromCodepoints(values []any) string {
	runes := make([]rune, 0, len(values))
	for _, v := range values {
		var r rune
		switch n := v.(type) {
		case uint8:
			r = rune(n)
		case uint16:
			r = rune(n)
		case int16:
			r = rune(uint16(n))
		case int32:
			r = rune(n)
		case uint32:
			r = rune(n)
		case int64:
			r = rune(n)
		default:
			continue
		}
		if r == 0 {
			break
		}
		runes = append(runes, r)
	}
	return string(runes)
}
