package slot

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
	mrand "math/rand/v2"
	"sync"
)

// CryptoRandomGenerator 加密安全的随机数生成器，可并发使用
type CryptoRandomGenerator struct{}

// NewCryptoRandomGenerator 创建加密随机数生成器
func NewCryptoRandomGenerator() *CryptoRandomGenerator {
	return &CryptoRandomGenerator{}
}

// Next 生成 [0,1) 的随机数，53位精度
func (g *CryptoRandomGenerator) Next() float64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return float64(binary.BigEndian.Uint64(b[:])>>11) / float64(1<<53)
}

// NextInt 生成 [min,max) 范围内的随机整数
func (g *CryptoRandomGenerator) NextInt(min, max int) int {
	if min >= max {
		return min
	}
	diff := big.NewInt(int64(max - min))
	n, err := rand.Int(rand.Reader, diff)
	if err != nil {
		return min
	}
	return min + int(n.Int64())
}

// SeededRandomGenerator 带种子的伪随机数生成器，用于模拟和回放
// 内部加锁，可在多个旋转间共享。
type SeededRandomGenerator struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewSeededRandomGenerator 创建带种子的随机数生成器
func NewSeededRandomGenerator(seed uint64) *SeededRandomGenerator {
	return &SeededRandomGenerator{
		rng: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Next 生成 [0,1) 的随机数
func (g *SeededRandomGenerator) Next() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

// NextInt 生成 [min,max) 范围内的随机整数
func (g *SeededRandomGenerator) NextInt(min, max int) int {
	if min >= max {
		return min
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return min + g.rng.IntN(max-min)
}

// shuffleInts Fisher-Yates 洗牌
func shuffleInts(rng RandomGenerator, s []int) {
	for i := len(s) - 1; i > 0; i-- {
		j := rng.NextInt(0, i+1)
		s[i], s[j] = s[j], s[i]
	}
}
