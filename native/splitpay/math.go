package splitpay

import "github.com/holiman/uint256"

// MaxBalance is the ceiling of every balance and counter (2^128-1). All
// arithmetic clamps to it instead of wrapping or failing, trading precision
// at the extreme for availability.
var MaxBalance = func() *uint256.Int {
	max := new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	return max.Sub(max, uint256.NewInt(1))
}()

const percentDenominator = 100

func cloneAmount(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(v)
}

func clamp(v *uint256.Int) *uint256.Int {
	if v.Gt(MaxBalance) {
		return v.Set(MaxBalance)
	}
	return v
}

// saturatingAdd returns min(a+b, MaxBalance).
func saturatingAdd(a, b *uint256.Int) *uint256.Int {
	sum, overflow := new(uint256.Int).AddOverflow(cloneAmount(a), cloneAmount(b))
	if overflow {
		return new(uint256.Int).Set(MaxBalance)
	}
	return clamp(sum)
}

// saturatingSub returns max(a-b, 0).
func saturatingSub(a, b *uint256.Int) *uint256.Int {
	a, b = cloneAmount(a), cloneAmount(b)
	if a.Lt(b) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(a, b)
}

// saturatingMul returns min(a*b, MaxBalance).
func saturatingMul(a, b *uint256.Int) *uint256.Int {
	product, overflow := new(uint256.Int).MulOverflow(cloneAmount(a), cloneAmount(b))
	if overflow {
		return new(uint256.Int).Set(MaxBalance)
	}
	return clamp(product)
}

// shareOf computes floor(amount * percentage / 100) with the multiplication
// clamped to MaxBalance before dividing.
func shareOf(amount *uint256.Int, percentage uint8) *uint256.Int {
	product := saturatingMul(amount, uint256.NewInt(uint64(percentage)))
	return product.Div(product, uint256.NewInt(percentDenominator))
}

// ValidAmount reports whether v fits the 128-bit balance domain.
func ValidAmount(v *uint256.Int) bool {
	return v != nil && !v.Gt(MaxBalance)
}
