package expiry

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Date", func() {
	Describe("NewDate", func() {
		It("accepts a real calendar date", func() {
			d, err := NewDate(2024, time.February, 29)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.String()).To(Equal("2024-02-29"))
		})

		It("rejects a day that does not exist", func() {
			_, err := NewDate(2026, time.February, 30)
			Expect(err).To(MatchError(ContainSubstring("invalid calendar date")))
		})

		It("rejects a month out of range", func() {
			_, err := NewDate(2026, 13, 1)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ParseISODate", func() {
		It("parses canonical form", func() {
			d, err := ParseISODate("2026-01-05")
			Expect(err).NotTo(HaveOccurred())
			Expect(d).To(Equal(mustDate(2026, time.January, 5)))
		})

		It("rejects non-padded fields", func() {
			_, err := ParseISODate("2026-1-5")
			Expect(err).To(HaveOccurred())
		})

		It("rejects impossible dates", func() {
			_, err := ParseISODate("2026-02-30")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("DateOf", func() {
		It("uses the calendar day in the time's own location", func() {
			loc := time.FixedZone("UTC+10", 10*60*60)
			t := time.Date(2026, time.January, 2, 3, 0, 0, 0, loc)
			Expect(DateOf(t)).To(Equal(mustDate(2026, time.January, 2)))
		})
	})

	Describe("DaysUntil", func() {
		It("is signed", func() {
			a := mustDate(2025, time.March, 1)
			b := mustDate(2025, time.June, 1)
			Expect(a.DaysUntil(b)).To(Equal(92))
			Expect(b.DaysUntil(a)).To(Equal(-92))
		})

		It("spans the whole calendar without overflow", func() {
			first := mustDate(1, time.January, 1)
			last := mustDate(9999, time.December, 31)
			Expect(first.DaysUntil(last)).To(Equal(3652058))
		})
	})

	Describe("JSON", func() {
		type wrapper struct {
			When  Date  `json:"when"`
			Maybe *Date `json:"maybe"`
		}

		It("encodes ISO strings and null for absence", func() {
			data, err := json.Marshal(wrapper{When: mustDate(2026, time.January, 5)})
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(MatchJSON(`{"when":"2026-01-05","maybe":null}`))
		})

		It("decodes ISO strings", func() {
			var w wrapper
			Expect(json.Unmarshal([]byte(`{"when":"2026-01-05","maybe":"2025-03-01"}`), &w)).To(Succeed())
			Expect(w.When).To(Equal(mustDate(2026, time.January, 5)))
			Expect(w.Maybe).To(Equal(datePtr(2025, time.March, 1)))
		})

		It("rejects invalid dates", func() {
			var w wrapper
			Expect(json.Unmarshal([]byte(`{"when":"2026-02-30"}`), &w)).NotTo(Succeed())
		})
	})
})
