package lang

import (
	"encoding/binary"
	"math"

	"github.com/zeebo/xxh3"
)

// Expression encoding tags fed to the hasher.
const (
	tagInteger byte = iota
	tagFloat
	tagBinary
	tagParen
)

// Hash returns a structural hash of e. Expressions that are [Equal] hash
// equal; source spans and whitespace do not contribute.
func Hash(e Expr) uint64 {
	h := xxh3.New()

	var buf [9]byte

	Walk(e, func(e Expr) bool {
		switch e := e.(type) {
		case *IntegerExpr:
			buf[0] = tagInteger
			binary.LittleEndian.PutUint64(buf[1:], uint64(e.Value))
			_, _ = h.Write(buf[:])

		case *FloatExpr:
			buf[0] = tagFloat
			binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(e.Value))
			_, _ = h.Write(buf[:])

		case *BinaryExpr:
			_, _ = h.Write([]byte{tagBinary, byte(e.Op)})

		case *ParenExpr:
			_, _ = h.Write([]byte{tagParen})
		}

		return true
	})

	return h.Sum64()
}
