package db

import (
	"strconv"
	"strings"
)

// VectorLiteral formats an embedding as a pgvector text literal suitable for
// binding as a parameter with a ::vector cast, e.g. "[0.1,0.2,0.3]".
func VectorLiteral(vec []float32) string {
	var b strings.Builder
	b.Grow(len(vec)*10 + 2)
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
