// Package realnum provides the interpreter's exact rational number.
package realnum

import (
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// maxIrrationalDigits bounds the fraction digits printed for a decimal
// expansion that has not started repeating yet.
const maxIrrationalDigits = 15

// maxExponentDigits bounds the size of an integer exponent.
const maxExponentDigits = 18

// maxLiteralExponent bounds the exponent of a parsed literal.
const maxLiteralExponent = 10000

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrExponent       = errors.New("exponent too large")
	ErrPower          = errors.New("invalid power operation")
	ErrNegativeSqrt   = errors.New("sqrt of negative number")
	ErrSyntax         = errors.New("invalid number")
)

var (
	bigTwo  = big.NewInt(2)
	bigFive = big.NewInt(5)
	bigTen  = big.NewInt(10)
	half    = big.NewRat(1, 2)
)

// RealNumber wraps a reduced *big.Rat. Values are immutable: every operation
// returns a fresh number.
type RealNumber struct {
	r *big.Rat
}

// Zero is the additive identity.
var Zero = FromInt64(0)

// One is the multiplicative identity.
var One = FromInt64(1)

func FromInt64(i int64) RealNumber {
	return RealNumber{r: big.NewRat(i, 1)}
}

func fromRat(r *big.Rat) RealNumber {
	return RealNumber{r: r}
}

func (n RealNumber) rat() *big.Rat {
	if n.r == nil {
		return new(big.Rat)
	}
	return n.r
}

// Parse reads -?digits(.digits?)?([eE][+-]?digits)?, the literal syntax
// produced by the lexer and accepted by parse_num.
func Parse(s string) (RealNumber, error) {
	str := s
	negative := false
	if strings.HasPrefix(str, "-") {
		negative = true
		str = str[1:]
	}

	exponent := int64(0)
	if epos := strings.IndexAny(str, "eE"); epos >= 0 {
		expStr := str[epos+1:]
		digits := strings.TrimLeft(expStr, "+-")
		if len(expStr)-len(digits) > 1 || !allDigits(digits) {
			return RealNumber{}, ErrSyntax
		}
		e, err := strconv.ParseInt(expStr, 10, 64)
		if err != nil || e > maxLiteralExponent || e < -maxLiteralExponent {
			return RealNumber{}, ErrExponent
		}
		exponent = e
		str = str[:epos]
	}

	intPart, fracPart, hasDot := strings.Cut(str, ".")
	if !allDigits(intPart) || (hasDot && fracPart != "" && !allDigits(fracPart)) {
		return RealNumber{}, ErrSyntax
	}

	num, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		return RealNumber{}, ErrSyntax
	}
	den := new(big.Int).Exp(bigTen, big.NewInt(int64(len(fracPart))), nil)

	if exponent > 0 {
		num.Mul(num, new(big.Int).Exp(bigTen, big.NewInt(exponent), nil))
	} else if exponent < 0 {
		den.Mul(den, new(big.Int).Exp(bigTen, big.NewInt(-exponent), nil))
	}
	if negative {
		num.Neg(num)
	}

	return fromRat(new(big.Rat).SetFrac(num, den)), nil
}

// MustParse is Parse for literals already validated by the lexer.
func MustParse(s string) RealNumber {
	n, err := Parse(s)
	if err != nil {
		panic("'" + s + "' is not a valid number")
	}
	return n
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (n RealNumber) Add(o RealNumber) RealNumber {
	return fromRat(new(big.Rat).Add(n.rat(), o.rat()))
}

func (n RealNumber) Sub(o RealNumber) RealNumber {
	return fromRat(new(big.Rat).Sub(n.rat(), o.rat()))
}

func (n RealNumber) Mul(o RealNumber) RealNumber {
	return fromRat(new(big.Rat).Mul(n.rat(), o.rat()))
}

func (n RealNumber) Div(o RealNumber) (RealNumber, error) {
	if o.IsZero() {
		return RealNumber{}, ErrDivisionByZero
	}
	return fromRat(new(big.Rat).Quo(n.rat(), o.rat())), nil
}

// Mod returns n - o*q where q is the magnitude quotient |n|/|o| truncated,
// negated when the signs differ. The result takes the sign of n.
func (n RealNumber) Mod(o RealNumber) (RealNumber, error) {
	if o.IsZero() {
		return RealNumber{}, ErrDivisionByZero
	}
	a, b := n.rat(), o.rat()

	x := new(big.Int).Mul(a.Num(), b.Denom())
	y := new(big.Int).Mul(b.Num(), a.Denom())
	q := new(big.Int).Quo(x.Abs(x), y.Abs(y))
	if a.Sign()*b.Sign() < 0 {
		q.Neg(q)
	}

	prod := new(big.Rat).Mul(b, new(big.Rat).SetInt(q))
	return fromRat(new(big.Rat).Sub(a, prod)), nil
}

// Pow raises n to o. Integer exponents are exact; anything else goes through
// float64 and is rounded to ten decimals.
func (n RealNumber) Pow(o RealNumber) (RealNumber, error) {
	e := o.rat()
	if !e.IsInt() {
		return fromFloat(math.Pow(n.Float64(), o.Float64()), ErrPower)
	}

	if len(new(big.Int).Abs(e.Num()).String()) > maxExponentDigits {
		return RealNumber{}, ErrExponent
	}
	exp := e.Num().Int64()
	if exp == 0 {
		return One, nil
	}

	base := new(big.Rat).Set(n.rat())
	if exp < 0 {
		if base.Sign() == 0 {
			return RealNumber{}, ErrDivisionByZero
		}
		base.Inv(base)
		exp = -exp
	}

	result := big.NewRat(1, 1)
	for exp > 0 {
		if exp&1 == 1 {
			result.Mul(result, base)
		}
		base.Mul(base, base)
		exp >>= 1
	}
	return fromRat(result), nil
}

// fromFloat formats f with ten decimals, trims trailing zeros and reparses it.
func fromFloat(f float64, invalid error) (RealNumber, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return RealNumber{}, invalid
	}
	s := strconv.FormatFloat(f, 'f', 10, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "" || s == "-" || s == "-0" {
		return Zero, nil
	}
	return Parse(s)
}

func (n RealNumber) Neg() RealNumber {
	return fromRat(new(big.Rat).Neg(n.rat()))
}

func (n RealNumber) Abs() RealNumber {
	return fromRat(new(big.Rat).Abs(n.rat()))
}

// Floor rounds toward negative infinity.
func (n RealNumber) Floor() RealNumber {
	r := n.rat()
	q, m := new(big.Int).QuoRem(r.Num(), r.Denom(), new(big.Int))
	if r.Sign() < 0 && m.Sign() != 0 {
		q.Sub(q, big.NewInt(1))
	}
	return fromRat(new(big.Rat).SetInt(q))
}

func (n RealNumber) Ceil() RealNumber {
	return n.Neg().Floor().Neg()
}

// Round rounds half away from zero.
func (n RealNumber) Round() RealNumber {
	r := n.Abs().rat()
	rounded := fromRat(new(big.Rat).Add(r, half)).Floor()
	if n.Sign() < 0 {
		return rounded.Neg()
	}
	return rounded
}

func (n RealNumber) Sqrt() (RealNumber, error) {
	if n.Sign() < 0 {
		return RealNumber{}, ErrNegativeSqrt
	}
	return fromFloat(math.Sqrt(n.Float64()), ErrNegativeSqrt)
}

func (n RealNumber) Cmp(o RealNumber) int {
	return n.rat().Cmp(o.rat())
}

func (n RealNumber) Equal(o RealNumber) bool {
	return n.Cmp(o) == 0
}

func (n RealNumber) Sign() int {
	return n.rat().Sign()
}

func (n RealNumber) IsZero() bool {
	return n.Sign() == 0
}

func (n RealNumber) IsInteger() bool {
	return n.rat().IsInt()
}

// Int64 truncates toward zero, saturating at the int64 range.
func (n RealNumber) Int64() int64 {
	r := n.rat()
	q := new(big.Int).Quo(r.Num(), r.Denom())
	if q.IsInt64() {
		return q.Int64()
	}
	if q.Sign() < 0 {
		return math.MinInt64
	}
	return math.MaxInt64
}

func (n RealNumber) Float64() float64 {
	f, _ := n.rat().Float64()
	return f
}

// String renders the number in decimal. A detected repeating cycle is
// wrapped in parentheses (1/3 is "0.(3)"); an expansion that neither ends
// nor repeats within maxIrrationalDigits digits is truncated.
func (n RealNumber) String() string {
	r := n.rat()
	var sb strings.Builder

	if r.Sign() < 0 {
		sb.WriteByte('-')
	}
	num := new(big.Int).Abs(r.Num())
	den := r.Denom()

	q, rem := new(big.Int).QuoRem(num, den, new(big.Int))
	sb.WriteString(q.String())
	if rem.Sign() == 0 {
		return sb.String()
	}
	sb.WriteByte('.')

	finite := terminates(den)
	seen := map[string]int{}
	digits := make([]byte, 0, maxIrrationalDigits)
	periodic := false
	cycleStart := 0

	for rem.Sign() != 0 {
		if !finite {
			key := rem.String()
			if pos, ok := seen[key]; ok {
				periodic = true
				cycleStart = pos
				break
			}
			seen[key] = len(digits)
			if len(digits) >= maxIrrationalDigits {
				break
			}
		}
		rem.Mul(rem, bigTen)
		d, m := new(big.Int).QuoRem(rem, den, new(big.Int))
		digits = append(digits, byte('0'+d.Int64()))
		rem = m
	}

	if periodic {
		sb.Write(digits[:cycleStart])
		sb.WriteByte('(')
		sb.Write(digits[cycleStart:])
		sb.WriteByte(')')
	} else {
		sb.Write(digits)
	}
	return sb.String()
}

// terminates reports whether 1/den has a finite decimal expansion.
func terminates(den *big.Int) bool {
	d := new(big.Int).Set(den)
	m := new(big.Int)
	for _, p := range []*big.Int{bigTwo, bigFive} {
		for {
			q, r := new(big.Int).QuoRem(d, p, m)
			if r.Sign() != 0 {
				break
			}
			d = q
		}
	}
	return d.Cmp(big.NewInt(1)) == 0
}
