package partitioner

import (
	"crypto/md5"
	"math/big"
)

// Partitioner hashes keys onto the ring and supplies the token
// arithmetic (successor/predecessor, splitting) that the ring delta
// calculator and token chooser build on. This is the "partitioner"
// collaborator of the bootstrap spec: a minimal concrete stand-in, not
// a production hash ring.
type Partitioner interface {
	// GetToken hashes a key onto the ring.
	GetToken(key string) Token

	// Modulus returns the size of the ring's value space, used for
	// wraparound arithmetic.
	Modulus() *big.Int

	// MinToken returns the lowest-valued token in the space.
	MinToken() Token

	// Width is the fixed byte width of a token in this space.
	Width() int
}

// MD5Partitioner hashes keys with MD5, producing 16-byte tokens.
type MD5Partitioner struct {
	modulus *big.Int
}

func NewMD5Partitioner() *MD5Partitioner {
	width := md5.Size
	max := new(big.Int).Lsh(big.NewInt(1), uint(width*8))
	return &MD5Partitioner{modulus: max}
}

func (p *MD5Partitioner) GetToken(key string) Token {
	sum := md5.Sum([]byte(key))
	return Token(sum[:])
}

func (p *MD5Partitioner) Modulus() *big.Int {
	return new(big.Int).Set(p.modulus)
}

func (p *MD5Partitioner) MinToken() Token {
	return Token(make([]byte, md5.Size))
}

func (p *MD5Partitioner) Width() int {
	return md5.Size
}

// GetSplits returns the n+1 tokens splitting the partitioner's arc
// (left,right] into n roughly equal shards.
func GetSplits(p Partitioner, left, right Token, n int) []Token {
	return Splits(left, right, n, p.Modulus())
}
