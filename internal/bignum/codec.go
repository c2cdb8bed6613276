// Package bignum stores arbitrary-precision integers in linear memory and
// implements the arithmetic and comparison operators over them.
//
// A record is laid out as consecutive signed words:
//
//	[0]      signed digit count n (sign of the value, |n| digits follow)
//	[1..|n|] base 2^31 digits, least significant first
//
// Zero is the record {0}. The most significant digit of a non-zero value is
// never 0, so every value has exactly one encoding.
package bignum

import (
	"math"
	"math/big"

	"pyrite/internal/diag"
	"pyrite/internal/memory"
)

// DigitBits is the width of one digit.
const DigitBits = 31

// Base is the digit radix, 2^31.
const Base = 1 << DigitBits

var digitMask = big.NewInt(Base - 1)

// DigitCount returns how many digits the magnitude of v occupies.
func DigitCount(v *big.Int) int {
	return (v.BitLen() + DigitBits - 1) / DigitBits
}

// Encode writes v into a freshly allocated record and returns its address.
// The size is computed before allocating so only one allocation is made.
func Encode(mem memory.Memory, v *big.Int) (memory.Addr, error) {
	n := DigitCount(v)
	if n >= math.MaxInt32 {
		return memory.NoneAddr, diag.Runtimef(diag.OutOfMemory, "integer with %d digits cannot be stored", n)
	}
	addr, err := mem.Alloc(int32(n) + 1)
	if err != nil {
		return memory.NoneAddr, err
	}

	mag := new(big.Int).Abs(v)
	digit := new(big.Int)
	for i := 1; i <= n; i++ {
		digit.And(mag, digitMask)
		if err := mem.Store(addr, int32(i), int32(digit.Int64())); err != nil {
			return memory.NoneAddr, err
		}
		mag.Rsh(mag, DigitBits)
	}

	count := int32(n)
	if v.Sign() < 0 {
		count = -count
	}
	if err := mem.Store(addr, 0, count); err != nil {
		return memory.NoneAddr, err
	}
	return addr, nil
}

// EncodeInt64 is Encode for a machine integer.
func EncodeInt64(mem memory.Memory, v int64) (memory.Addr, error) {
	return Encode(mem, big.NewInt(v))
}

// Decode reads the record at addr.
func Decode(mem memory.Memory, addr memory.Addr) (*big.Int, error) {
	count, err := mem.Load(addr, 0)
	if err != nil {
		return nil, err
	}
	if count == math.MinInt32 {
		return nil, diag.Runtimef(diag.CorruptRecord, "record at %d has invalid digit count", addr)
	}
	n := count
	if n < 0 {
		n = -n
	}

	// Horner's rule from the most significant digit down is the same sum
	// as digit_i * Base^(i-1).
	v := new(big.Int)
	for i := n; i >= 1; i-- {
		d, err := mem.Load(addr, i)
		if err != nil {
			return nil, err
		}
		if d < 0 {
			return nil, diag.Runtimef(diag.CorruptRecord, "record at %d has negative digit %d at %d", addr, d, i)
		}
		v.Lsh(v, DigitBits)
		v.Or(v, big.NewInt(int64(d)))
	}
	if count < 0 {
		v.Neg(v)
	}
	return v, nil
}

// Parse converts a decimal literal to an integer.
func Parse(text string) (*big.Int, bool) {
	return new(big.Int).SetString(text, 10)
}
