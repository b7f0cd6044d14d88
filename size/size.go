/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package size models a binary (1024-based) byte count, with human-readable
// formatting and parsing so byte thresholds (bandwidth caps, extraction
// limits, nested-archive quotas) can be expressed as "500MB" instead of a
// raw integer.
package size

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
)

// Size is a count of bytes, formatted and parsed using binary (1024-based)
// multiples.
type Size uint64

const (
	SizeNul  Size = 0
	SizeUnit Size = 1
	SizeKilo Size = SizeUnit << 10
	SizeMega Size = SizeKilo << 10
	SizeGiga Size = SizeMega << 10
	SizeTera Size = SizeGiga << 10
	SizePeta Size = SizeTera << 10
	SizeExa  Size = SizePeta << 10
)

const (
	FormatRound0 = "%.0f"
	FormatRound1 = "%.1f"
	FormatRound2 = "%.2f"
	FormatRound3 = "%.3f"
)

var _defaultUnit uint32 = uint32('B')

// SetDefaultUnit sets the rune appended after the scale letter (K, M, G...)
// by Code when its own unit argument is 0. A zero rune resets it to 'B'.
func SetDefaultUnit(r rune) {
	if r == 0 {
		r = 'B'
	}
	atomic.StoreUint32(&_defaultUnit, uint32(r))
}

func defaultUnit() rune {
	return rune(atomic.LoadUint32(&_defaultUnit))
}

// scale identifies one of the binary magnitudes Size understands.
type scale struct {
	prefix string
	size   Size
}

var scales = []scale{
	{"E", SizeExa},
	{"P", SizePeta},
	{"T", SizeTera},
	{"G", SizeGiga},
	{"M", SizeMega},
	{"K", SizeKilo},
	{"", SizeUnit},
}

func (s Size) scale() scale {
	for _, sc := range scales {
		if s >= sc.size {
			return sc
		}
	}
	return scale{"", SizeUnit}
}

// Uint64 returns the raw byte count.
func (s Size) Uint64() uint64 {
	return uint64(s)
}

// Uint32 returns the byte count, saturating at math.MaxUint32.
func (s Size) Uint32() uint32 {
	if uint64(s) > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(s)
}

// Uint returns the byte count, saturating at the platform's uint max.
func (s Size) Uint() uint {
	if uint64(s) > math.MaxUint {
		return math.MaxUint
	}
	return uint(s)
}

// Int64 returns the byte count, saturating at math.MaxInt64.
func (s Size) Int64() int64 {
	if uint64(s) > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(s)
}

// Int32 returns the byte count, saturating at math.MaxInt32.
func (s Size) Int32() int32 {
	if uint64(s) > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(s)
}

// Int returns the byte count, saturating at the platform's int max.
func (s Size) Int() int {
	if uint64(s) > math.MaxInt {
		return math.MaxInt
	}
	return int(s)
}

// Float64 returns the byte count as a float64, saturating at math.MaxFloat64
// (never actually reached given uint64's range, kept for symmetry).
func (s Size) Float64() float64 {
	f := float64(s)
	if f > math.MaxFloat64 {
		return math.MaxFloat64
	}
	return f
}

// Float32 returns the byte count as a float32, saturating at math.MaxFloat32.
func (s Size) Float32() float32 {
	f := s.Float64()
	if f > math.MaxFloat32 {
		return math.MaxFloat32
	}
	return float32(f)
}

// KiloBytes returns the size expressed in whole kilobytes, floored.
func (s Size) KiloBytes() uint64 {
	return uint64(s / SizeKilo)
}

// MegaBytes returns the size expressed in whole megabytes, floored.
func (s Size) MegaBytes() uint64 {
	return uint64(s / SizeMega)
}

// GigaBytes returns the size expressed in whole gigabytes, floored.
func (s Size) GigaBytes() uint64 {
	return uint64(s / SizeGiga)
}

// TeraBytes returns the size expressed in whole terabytes, floored.
func (s Size) TeraBytes() uint64 {
	return uint64(s / SizeTera)
}

// PetaBytes returns the size expressed in whole petabytes, floored.
func (s Size) PetaBytes() uint64 {
	return uint64(s / SizePeta)
}

// ExaBytes returns the size expressed in whole exabytes, floored.
func (s Size) ExaBytes() uint64 {
	return uint64(s / SizeExa)
}

// Mul multiplies s by f in place, rounding to the nearest byte. Negative
// factors are treated as zero. Overflow saturates at math.MaxUint64; use
// MulErr to detect it.
func (s *Size) Mul(f float64) {
	_ = s.MulErr(f)
}

// MulErr is Mul reporting an error when the result overflows math.MaxUint64.
func (s *Size) MulErr(f float64) error {
	if f < 0 {
		f = 0
	}
	v := math.Round(float64(*s) * f)
	if v > math.MaxUint64 {
		*s = Size(math.MaxUint64)
		return fmt.Errorf("size: multiplication overflow")
	}
	*s = Size(v)
	return nil
}

// Div divides s by f in place, rounding to the nearest byte. f <= 0 leaves
// s unchanged; use DivErr to detect that case.
func (s *Size) Div(f float64) {
	_ = s.DivErr(f)
}

// DivErr is Div reporting an error for a zero or negative divisor.
func (s *Size) DivErr(f float64) error {
	if f <= 0 {
		return fmt.Errorf("size: invalid diviser %v", f)
	}
	*s = Size(math.Round(float64(*s) / f))
	return nil
}

// Add adds v to s in place. Overflow saturates at math.MaxUint64; use
// AddErr to detect it.
func (s *Size) Add(v uint64) {
	_ = s.AddErr(v)
}

// AddErr is Add reporting an error when the result overflows math.MaxUint64.
func (s *Size) AddErr(v uint64) error {
	cur := uint64(*s)
	if v > math.MaxUint64-cur {
		*s = Size(math.MaxUint64)
		return fmt.Errorf("size: addition overflow")
	}
	*s = Size(cur + v)
	return nil
}

// Sub subtracts v from s in place, capping at zero on underflow. Use SubErr
// to detect that case.
func (s *Size) Sub(v uint64) {
	_ = s.SubErr(v)
}

// SubErr is Sub reporting an error when v exceeds the current size.
func (s *Size) SubErr(v uint64) error {
	cur := uint64(*s)
	if v > cur {
		*s = SizeNul
		return fmt.Errorf("size: invalid substractor: %d exceeds current size %d", v, cur)
	}
	*s = Size(cur - v)
	return nil
}

// Unit returns the scale prefix (K, M, G...) followed by r, or by 'B' when
// r is 0.
func (s Size) Unit(r rune) string {
	if r == 0 {
		r = 'B'
	}
	return s.scale().prefix + string(r)
}

// Code is Unit using the process-wide default unit rune (see SetDefaultUnit)
// when r is 0.
func (s Size) Code(r rune) string {
	if r == 0 {
		r = defaultUnit()
	}
	return s.scale().prefix + string(r)
}

// Format renders the numeric magnitude (scaled to the largest binary unit
// that keeps it >= 1) using a printf verb such as FormatRound2, without a
// unit suffix.
func (s Size) Format(format string) string {
	sc := s.scale()
	v := float64(s) / float64(sc.size)
	return fmt.Sprintf(format, v)
}

// String renders the size as "<value><unit>", e.g. "5.50MB".
func (s Size) String() string {
	return s.Format(FormatRound2) + s.Unit(0)
}

// MarshalText implements encoding.TextMarshaler, rendering the size in
// human-readable form so it round-trips through JSON and YAML.
func (s Size) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using Parse.
func (s *Size) UnmarshalText(b []byte) error {
	v, err := ParseByte(b)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// MarshalTOML renders the size the same way MarshalText does, for decoders
// that call this convention instead of encoding.TextMarshaler.
func (s Size) MarshalTOML() ([]byte, error) {
	return s.MarshalText()
}

// UnmarshalTOML accepts a string or []byte holding a human-readable size,
// for decoders that call this convention instead of encoding.TextUnmarshaler.
func (s *Size) UnmarshalTOML(v interface{}) error {
	switch t := v.(type) {
	case string:
		return s.UnmarshalText([]byte(t))
	case []byte:
		return s.UnmarshalText(t)
	default:
		return fmt.Errorf("size: value %v is not in valid format", v)
	}
}

var unitMultiplier = map[string]Size{
	"B":  SizeUnit,
	"K":  SizeKilo,
	"KB": SizeKilo,
	"M":  SizeMega,
	"MB": SizeMega,
	"G":  SizeGiga,
	"GB": SizeGiga,
	"T":  SizeTera,
	"TB": SizeTera,
	"P":  SizePeta,
	"PB": SizePeta,
	"E":  SizeExa,
	"EB": SizeExa,
}

// Parse converts a human-readable size such as "5MB", "1.5GB" or "100" (with
// a unit) into a Size. Surrounding whitespace and a single pair of quotes
// are stripped; a leading '+' is allowed, a leading '-' is rejected.
func Parse(in string) (Size, error) {
	raw := strings.TrimSpace(in)

	if len(raw) >= 2 {
		if (raw[0] == '"' && raw[len(raw)-1] == '"') || (raw[0] == '\'' && raw[len(raw)-1] == '\'') {
			raw = strings.TrimSpace(raw[1 : len(raw)-1])
		}
	}

	if raw == "" {
		return 0, fmt.Errorf("invalid size: empty value")
	}

	if raw[0] == '-' {
		return 0, fmt.Errorf("invalid size %q: negative values are not allowed", in)
	}
	if raw[0] == '+' {
		raw = raw[1:]
	}

	i := 0
	for i < len(raw) && (raw[i] == '.' || (raw[i] >= '0' && raw[i] <= '9')) {
		i++
	}

	if i == 0 {
		return 0, fmt.Errorf("invalid size %q: missing numeric value", in)
	}

	numPart := raw[:i]
	unitPart := strings.ToUpper(strings.TrimSpace(raw[i:]))

	if unitPart == "" {
		return 0, fmt.Errorf("invalid size %q: missing unit", in)
	}

	mul, ok := unitMultiplier[unitPart]
	if !ok {
		return 0, fmt.Errorf("invalid size %q: unknown unit %q", in, unitPart)
	}

	f, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", in, err)
	}

	v := f * float64(mul)
	if v > math.MaxUint64 {
		return 0, fmt.Errorf("invalid size %q: value overflows", in)
	}

	return Size(v), nil
}

// ParseByte is Parse over a byte slice.
func ParseByte(b []byte) (Size, error) {
	return Parse(string(b))
}

// ParseSize is a deprecated alias for Parse.
func ParseSize(in string) (Size, error) {
	return Parse(in)
}

// ParseByteAsSize is a deprecated alias for ParseByte.
func ParseByteAsSize(b []byte) (Size, error) {
	return ParseByte(b)
}

// GetSize is a deprecated alias for Parse that reports success as a bool
// instead of an error.
func GetSize(in string) (Size, bool) {
	s, err := Parse(in)
	if err != nil {
		return SizeNul, false
	}
	return s, true
}

// ParseInt64 returns the Size matching the absolute value of i.
func ParseInt64(i int64) Size {
	if i < 0 {
		if i == math.MinInt64 {
			return Size(uint64(math.MaxInt64) + 1)
		}
		i = -i
	}
	return Size(i)
}

// SizeFromInt64 is an alias of ParseInt64.
func SizeFromInt64(i int64) Size {
	return ParseInt64(i)
}

// ParseUint64 returns the Size matching u.
func ParseUint64(u uint64) Size {
	return Size(u)
}

// ParseFloat64 returns the Size matching the absolute, floored value of f,
// saturating at math.MaxUint64.
func ParseFloat64(f float64) Size {
	f = math.Floor(f)
	if f < 0 {
		f = -f
	}
	if f > math.MaxUint64 {
		return Size(math.MaxUint64)
	}
	return Size(f)
}

// SizeFromFloat64 is an alias of ParseFloat64.
func SizeFromFloat64(f float64) Size {
	return ParseFloat64(f)
}
