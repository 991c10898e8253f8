package blogify_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ibeckermayer/elongatd/internal/blogify"
)

var _ = Describe("ParseBlogResponse", func() {
	want := blogify.Response{Content: "Body {media:1}", Title: "Title", Summary: "Sum"}

	It("parses a bare object", func() {
		got, err := blogify.ParseBlogResponse(`{"content":"Body {media:1}","title":"Title","summary":"Sum"}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(want))
	})

	It("parses an object inside a json fence", func() {
		got, err := blogify.ParseBlogResponse("Here you go:\n```json\n{\"content\":\"Body {media:1}\",\"title\":\" Title \",\"summary\":\"Sum\"}\n```\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(want))
	})

	It("parses an object surrounded by prose", func() {
		got, err := blogify.ParseBlogResponse(`Sure! {"content":"Body {media:1}","title":"Title","summary":"Sum"} Enjoy.`)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(want))
	})

	It("rejects invalid json", func() {
		_, err := blogify.ParseBlogResponse("no json here")
		Expect(err).To(MatchError(ContainSubstring("failed to parse blog JSON")))
	})

	It("rejects a reply without content", func() {
		_, err := blogify.ParseBlogResponse(`{"title":"T","summary":"S"}`)
		Expect(err).To(MatchError(ContainSubstring("missing content or title")))
	})
})
