package common

// WipeByteArray zeroes the buffer in place. Callers use it to drop password
// bytes from memory as soon as they are no longer needed.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
