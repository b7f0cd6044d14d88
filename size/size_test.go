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

package size_test

import (
	"encoding/json"
	"math"

	. "github.com/nabbar/logsieve/size"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"
)

var _ = Describe("Size", func() {
	Describe("Constants", func() {
		It("follows binary powers of 1024", func() {
			Expect(SizeKilo).To(Equal(Size(1024)))
			Expect(SizeMega).To(Equal(1024 * SizeKilo))
			Expect(SizeGiga).To(Equal(1024 * SizeMega))
			Expect(SizeTera).To(Equal(1024 * SizeGiga))
			Expect(SizePeta).To(Equal(1024 * SizeTera))
			Expect(SizeExa).To(Equal(1024 * SizePeta))
		})
	})

	Describe("Parse", func() {
		It("parses single and two letter units case-insensitively", func() {
			for _, in := range []string{"1b", "1B"} {
				s, err := Parse(in)
				Expect(err).ToNot(HaveOccurred())
				Expect(s).To(Equal(SizeUnit))
			}

			s, err := Parse("5mb")
			Expect(err).ToNot(HaveOccurred())
			Expect(s).To(Equal(5 * SizeMega))
		})

		It("parses fractional values and trims whitespace/quotes", func() {
			s, err := Parse(`  "1.5KB"  `)
			Expect(err).ToNot(HaveOccurred())
			Expect(s).To(BeNumerically("~", Size(1.5*float64(SizeKilo)), 10))
		})

		It("rejects negative, empty, unitless and unknown-unit input", func() {
			_, err := Parse("-5MB")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("negative"))

			_, err = Parse("")
			Expect(err).To(HaveOccurred())

			_, err = Parse("123")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("missing unit"))

			_, err = Parse("5QQ")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown unit"))
		})

		It("rejects overflowing values", func() {
			_, err := Parse("99999999999999999999EB")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Conversions", func() {
		It("saturates narrower integer conversions instead of overflowing", func() {
			s := Size(math.MaxUint64)
			Expect(s.Uint32()).To(Equal(uint32(math.MaxUint32)))
			Expect(s.Int64()).To(Equal(int64(math.MaxInt64)))
			Expect(s.Int32()).To(Equal(int32(math.MaxInt32)))
		})

		It("floors whole-unit conversions", func() {
			Expect((SizeKilo + 512).KiloBytes()).To(Equal(uint64(1)))
			Expect((5 * SizeGiga).MegaBytes()).To(Equal(uint64(5 * 1024)))
		})

		It("round-trips ParseInt64/ParseFloat64/ParseUint64", func() {
			Expect(ParseInt64(-1024)).To(Equal(Size(1024)))
			Expect(ParseUint64(uint64(SizeMega))).To(Equal(SizeMega))
			Expect(ParseFloat64(-1024.9)).To(Equal(Size(1025)))
		})
	})

	Describe("Formatting", func() {
		It("renders scale-appropriate unit suffixes", func() {
			Expect((5 * SizeMega).String()).To(ContainSubstring("MB"))
			Expect(Size(100).Unit(0)).To(Equal("B"))
			Expect((10 * SizeKilo).Unit('i')).To(Equal("Ki"))
		})

		It("honors SetDefaultUnit for Code but not Unit", func() {
			SetDefaultUnit('o')
			defer SetDefaultUnit('B')

			Expect(SizeKilo.Code(0)).To(Equal("Ko"))
			Expect(SizeKilo.Unit(0)).To(Equal("KB"))
		})

		It("formats with the requested precision", func() {
			s := 5*SizeKilo + 512
			Expect(s.Format(FormatRound0)).To(MatchRegexp(`^\d+$`))
			Expect(s.Format(FormatRound2)).To(MatchRegexp(`^\d+\.\d{2}$`))
		})
	})

	Describe("Arithmetic", func() {
		It("multiplies and divides with rounding", func() {
			s := SizeKilo
			s.Mul(2.5)
			Expect(s).To(Equal(Size(2560)))

			s = Size(5)
			s.Div(2)
			Expect(s).To(Equal(Size(3)))
		})

		It("saturates Add on overflow and Sub on underflow", func() {
			s := Size(math.MaxUint64 - 10)
			err := s.AddErr(20)
			Expect(err).To(HaveOccurred())
			Expect(s).To(Equal(Size(math.MaxUint64)))

			s = Size(10)
			err = s.SubErr(20)
			Expect(err).To(HaveOccurred())
			Expect(s).To(Equal(SizeNul))
		})

		It("rejects a zero or negative divisor", func() {
			s := Size(100)
			err := s.DivErr(0)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("invalid diviser"))
		})
	})

	Describe("Text, JSON and YAML round-tripping", func() {
		type wrapper struct {
			Size Size `json:"size" yaml:"size"`
		}

		It("round-trips through MarshalText/UnmarshalText", func() {
			s := 3 * SizeKilo
			b, err := s.MarshalText()
			Expect(err).ToNot(HaveOccurred())

			var s2 Size
			Expect(s2.UnmarshalText(b)).ToNot(HaveOccurred())
			Expect(s2).To(BeNumerically("~", s, float64(s)*0.01))
		})

		It("rejects invalid text", func() {
			var s Size
			Expect(s.UnmarshalText([]byte("invalid"))).To(HaveOccurred())
		})

		It("round-trips through JSON via a wrapper struct", func() {
			w := wrapper{Size: 5 * SizeMega}
			b, err := json.Marshal(w)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(b)).To(ContainSubstring("MB"))

			var w2 wrapper
			Expect(json.Unmarshal(b, &w2)).ToNot(HaveOccurred())
			Expect(w2.Size).To(BeNumerically("~", w.Size, float64(w.Size)*0.01))
		})

		It("rejects invalid JSON size text", func() {
			var w wrapper
			Expect(json.Unmarshal([]byte(`{"size":"invalid"}`), &w)).To(HaveOccurred())
		})

		It("round-trips through YAML via a wrapper struct", func() {
			w := wrapper{Size: 10 * SizeGiga}
			b, err := yaml.Marshal(w)
			Expect(err).ToNot(HaveOccurred())

			var w2 wrapper
			Expect(yaml.Unmarshal(b, &w2)).ToNot(HaveOccurred())
			Expect(w2.Size).To(BeNumerically("~", w.Size, float64(w.Size)*0.01))
		})
	})

	Describe("Default unit reset", func() {
		It("SetDefaultUnit resets on zero rune", func() {
			SetDefaultUnit('o')
			SetDefaultUnit(0)
			Expect(SizeKilo.Code(0)).To(ContainSubstring("B"))
		})
	})
})
