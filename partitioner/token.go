// Package partitioner supplies token arithmetic for the consistent
// hashing ring: token ordering, canonical string (de)serialization,
// and the split/midpoint arithmetic the bootstrap token chooser and
// ring delta calculator depend on.
package partitioner

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math/big"
)

// Token is an opaque, ordered position on the ring. It is compared
// byte-wise, and can be constructed directly from a literal
// (Token([]byte{0,1,2,...})).
type Token []byte

// Compare returns -1, 0 or 1 the way bytes.Compare does.
func (t Token) Compare(o Token) int {
	return bytes.Compare(t, o)
}

func (t Token) Equal(o Token) bool {
	return bytes.Equal(t, o)
}

// String renders the token as its canonical hex form.
func (t Token) String() string {
	return hex.EncodeToString(t)
}

// FromString parses a token previously rendered by String. Decode
// failure indicates the bytes were never a token to begin with -
// treated as a malformed-message condition by callers, not a panic.
func FromString(s string) (Token, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("malformed token %q: %w", s, err)
	}
	return Token(b), nil
}

func (t Token) toInt() *big.Int {
	return new(big.Int).SetBytes(t)
}

func fromInt(i *big.Int, width int) Token {
	b := i.Bytes()
	if len(b) >= width {
		return Token(b[len(b)-width:])
	}
	out := make([]byte, width)
	copy(out[width-len(b):], b)
	return Token(out)
}

// Midpoint returns the token halfway between a and b, wrapping through
// the ring modulus if b < a (i.e. the arc (a,b] wraps the zero point).
func Midpoint(a, b Token, modulus *big.Int) Token {
	width := len(a)
	ai := a.toInt()
	bi := b.toInt()

	var span *big.Int
	if bi.Cmp(ai) > 0 {
		span = new(big.Int).Sub(bi, ai)
	} else {
		// wraps: distance is (modulus - a) + b
		span = new(big.Int).Sub(modulus, ai)
		span.Add(span, bi)
	}

	half := new(big.Int).Rsh(span, 1)
	mid := new(big.Int).Add(ai, half)
	mid.Mod(mid, modulus)
	return fromInt(mid, width)
}

// Splits returns n+1 tokens partitioning the arc (left,right] into n
// roughly equal shards: left, then n-1 interior split points, then
// right. GetSplits(2) — the shape the token chooser uses — returns
// exactly 3 tokens: start, midpoint, end. Interior points are rendered
// at the full byte width of modulus, so they are not cut down to a
// shorter left token's width.
func Splits(left, right Token, n int, modulus *big.Int) []Token {
	if n < 1 {
		panic("partitioner: split count must be >= 1")
	}
	width := (modulus.BitLen() + 6) / 8
	li := left.toInt()
	ri := right.toInt()

	var span *big.Int
	if ri.Cmp(li) > 0 {
		span = new(big.Int).Sub(ri, li)
	} else {
		span = new(big.Int).Sub(modulus, li)
		span.Add(span, ri)
	}

	out := make([]Token, 0, n+1)
	out = append(out, left)
	step := new(big.Int).Div(span, big.NewInt(int64(n)))
	for i := 1; i < n; i++ {
		delta := new(big.Int).Mul(step, big.NewInt(int64(i)))
		pt := new(big.Int).Add(li, delta)
		pt.Mod(pt, modulus)
		out = append(out, fromInt(pt, width))
	}
	out = append(out, right)
	return out
}
