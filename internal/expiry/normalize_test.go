package expiry

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Normalizer", func() {
	var (
		normalizer *Normalizer
		input      string
		output     string
	)

	BeforeEach(func() {
		normalizer = NewNormalizer(DefaultConfig().Confusions)
	})

	JustBeforeEach(func() {
		output = normalizer.Normalize(input)
	})

	When("the text has OCR digit/letter confusions", func() {
		BeforeEach(func() {
			input = "exp o5/o1/2o26"
		})

		It("corrects them after upper-casing", func() {
			Expect(output).To(Equal("EXP 05/01/2026"))
		})
	})

	When("the text has stray symbols", func() {
		BeforeEach(func() {
			input = "Best Before: 05-Jan-2026!"
		})

		It("replaces each with a space and keeps date punctuation", func() {
			Expect(output).To(Equal("BEST BEF0RE: 05-JAN-2026 "))
		})
	})

	When("the text mixes letters that look like digits", func() {
		BeforeEach(func() {
			input = "Lot#42"
		})

		It("accepts corrupting genuine letters", func() {
			Expect(output).To(Equal("10T 42"))
		})
	})

	When("the text contains non-ASCII letters", func() {
		BeforeEach(func() {
			input = "Café Straße"
		})

		It("upper-cases with full case mapping and blanks what remains outside ASCII", func() {
			Expect(output).To(Equal("CAF  STRASSE"))
		})
	})

	When("the text is empty", func() {
		BeforeEach(func() {
			input = ""
		})

		It("returns an empty string", func() {
			Expect(output).To(BeEmpty())
		})
	})

	When("the text keeps line structure", func() {
		BeforeEach(func() {
			input = "mfd 01.03.24\r\n\texp 01.03.25"
		})

		It("keeps ASCII whitespace", func() {
			Expect(output).To(Equal("MFD 01.03.24\r\n\tEXP 01.03.25"))
		})
	})

	Describe("idempotence", func() {
		DescribeTable("normalizing twice equals normalizing once",
			func(raw string) {
				once := normalizer.Normalize(raw)
				Expect(normalizer.Normalize(once)).To(Equal(once))
			},
			Entry("plain", "EXP 05/01/2026"),
			Entry("lower case with confusions", "mfg: o1 jul 2o24 | exp: 3l dec 2o25"),
			Entry("symbols", "@@ use by ~ 12*12*2026 $$"),
			Entry("unicode", "ﬁne Ǆ İstanbul ß ı 日本"),
			Entry("whitespace", "\x00\x7f  \t\n"),
			Entry("empty", ""),
		)
	})

	It("does not share the caller's confusion map", func() {
		confusions := map[rune]rune{'O': '0'}
		n := NewNormalizer(confusions)
		confusions['S'] = '5'
		Expect(n.Normalize("SO")).To(Equal("S0"))
	})
})
