package types_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ibeckermayer/elongatd/internal/types"
)

var _ = Describe("Pricing", func() {
	pricing := types.Pricing{InputCentsPerMTok: 300, OutputCentsPerMTok: 1500}

	It("prices each side in millicents", func() {
		u := pricing.Price(types.Usage{Model: "m", InputTokens: 120, OutputTokens: 80})
		Expect(u.Model).To(Equal("m"))
		Expect(u.InputCostMillicents).To(BeEquivalentTo(36))
		Expect(u.OutputCostMillicents).To(BeEquivalentTo(120))
		Expect(u.TotalCostMillicents()).To(BeEquivalentTo(156))
	})

	It("scales to a million tokens", func() {
		u := pricing.Price(types.Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000})
		Expect(u.TotalCostMillicents()).To(BeEquivalentTo(1_800_000))
	})

	It("rounds small calls to the nearest millicent", func() {
		u := types.Pricing{InputCentsPerMTok: 15, OutputCentsPerMTok: 60}.Price(types.Usage{InputTokens: 10, OutputTokens: 30})
		Expect(u.InputCostMillicents).To(BeZero())
		Expect(u.OutputCostMillicents).To(BeEquivalentTo(2))
	})

	It("costs nothing without prices", func() {
		u := types.Pricing{}.Price(types.Usage{InputTokens: 500, OutputTokens: 500})
		Expect(u.TotalCostMillicents()).To(BeZero())
	})
})
