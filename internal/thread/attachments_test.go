package thread_test

import (
	"github.com/tidwall/gjson"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ibeckermayer/elongatd/internal/thread"
	tt "github.com/ibeckermayer/elongatd/internal/thread/threadtest"
	"github.com/ibeckermayer/elongatd/internal/types"
)

func extract(tweet tt.Object) []types.Attachment {
	return thread.ExtractAttachments(gjson.ParseBytes(tt.Marshal(tweet)))
}

var _ = Describe("ExtractAttachments", func() {
	var tweet tt.Object

	BeforeEach(func() {
		tweet = tt.Tweet("1", tt.User("alice"), tt.T0)
	})

	It("returns an empty list for a post without media or card", func() {
		got := extract(tweet)
		Expect(got).NotTo(BeNil())
		Expect(got).To(BeEmpty())
	})

	It("maps photos to images", func() {
		got := extract(tt.WithMedia(tweet, tt.Photo(1), tt.Photo(2)))
		Expect(got).To(Equal([]types.Attachment{
			{Type: types.AttachmentImage, URL: "https://pbs.twimg.com/media/photo1.jpg", OriginalURL: "https://t.co/p1", Width: 1200, Height: 800},
			{Type: types.AttachmentImage, URL: "https://pbs.twimg.com/media/photo2.jpg", OriginalURL: "https://t.co/p2", Width: 1200, Height: 800},
		}))
	})

	Describe("videos", func() {
		It("selects the highest-bitrate mp4 variant", func() {
			video := tt.Video("video",
				tt.Variant("video/mp4", "https://video.twimg.com/vid/avc1/480x270/low.mp4", 320000),
				tt.Variant("application/x-mpegURL", "https://video.twimg.com/pl/master.m3u8", 0),
				tt.Variant("video/mp4", "https://video.twimg.com/vid/avc1/1280x720/high.mp4", 2176000),
				tt.Variant("video/mp4", "https://video.twimg.com/vid/avc1/640x360/mid.mp4", 832000),
			)
			got := extract(tt.WithMedia(tweet, video))
			Expect(got).To(HaveLen(1))
			Expect(got[0].Type).To(Equal(types.AttachmentVideo))
			Expect(got[0].URL).To(Equal("https://video.twimg.com/vid/avc1/1280x720/high.mp4"))
			Expect(got[0].Bitrate).To(BeEquivalentTo(2176000))
			Expect(got[0].DurationMs).To(BeEquivalentTo(15000))
			Expect(got[0].ThumbnailURL).To(Equal("https://pbs.twimg.com/ext_tw_video_thumb/1/pu/img/thumb.jpg"))
		})

		It("falls back to dimensions encoded in the variant url", func() {
			video := tt.Video("video",
				tt.Variant("video/mp4", "https://video.twimg.com/vid/avc1/720x1280/abc.mp4?tag=12", 950000),
			)
			got := extract(tt.WithMedia(tweet, video))
			Expect(got).To(HaveLen(1))
			Expect(got[0].Width).To(Equal(720))
			Expect(got[0].Height).To(Equal(1280))
		})

		It("prefers original_info dimensions when present", func() {
			video := tt.Video("video",
				tt.Variant("video/mp4", "https://video.twimg.com/vid/avc1/720x1280/abc.mp4", 950000),
			)
			video["original_info"] = tt.Object{"width": 1080, "height": 1920}
			got := extract(tt.WithMedia(tweet, video))
			Expect(got[0].Width).To(Equal(1080))
			Expect(got[0].Height).To(Equal(1920))
		})

		It("keeps the first of equally ranked variants", func() {
			video := tt.Video("video",
				tt.Variant("video/mp4", "https://video.twimg.com/first.mp4", 832000),
				tt.Variant("video/mp4", "https://video.twimg.com/second.mp4", 832000),
			)
			got := extract(tt.WithMedia(tweet, video))
			Expect(got[0].URL).To(Equal("https://video.twimg.com/first.mp4"))
		})

		It("treats animated gifs as videos", func() {
			gif := tt.Video("animated_gif",
				tt.Variant("video/mp4", "https://video.twimg.com/tweet_video/loop.mp4", 0),
			)
			got := extract(tt.WithMedia(tweet, gif))
			Expect(got).To(HaveLen(1))
			Expect(got[0].Type).To(Equal(types.AttachmentVideo))
			Expect(got[0].URL).To(Equal("https://video.twimg.com/tweet_video/loop.mp4"))
		})

		It("drops a video without any mp4 variant", func() {
			video := tt.Video("video",
				tt.Variant("application/x-mpegURL", "https://video.twimg.com/pl/master.m3u8", 0),
			)
			got := extract(tt.WithMedia(tweet, video, tt.Photo(1)))
			Expect(got).To(HaveLen(1))
			Expect(got[0].Type).To(Equal(types.AttachmentImage))
		})

		It("drops a video whose best variant has no url", func() {
			video := tt.Video("video", tt.Variant("video/mp4", "", 2176000))
			Expect(extract(tt.WithMedia(tweet, video))).To(BeEmpty())
		})
	})

	Describe("link cards", func() {
		It("emits a link for a summary card after the media", func() {
			tt.WithMedia(tweet, tt.Photo(1))
			tt.WithCard(tweet, "summary_large_image", "https://example.com/post", map[string]string{
				"title":       "A post",
				"description": "About things",
			})
			got := extract(tweet)
			Expect(got).To(HaveLen(2))
			Expect(got[0].Type).To(Equal(types.AttachmentImage))
			Expect(got[1]).To(Equal(types.Attachment{
				Type:        types.AttachmentLink,
				URL:         "https://example.com/post",
				Title:       "A post",
				Description: "About things",
			}))
		})

		It("accepts namespaced card names", func() {
			tt.WithCard(tweet, "2586390716:summary", "https://example.com", nil)
			got := extract(tweet)
			Expect(got).To(HaveLen(1))
			Expect(got[0].Type).To(Equal(types.AttachmentLink))
		})

		It("ignores other card kinds", func() {
			tt.WithCard(tweet, "poll2choice_text_only", "https://example.com", nil)
			Expect(extract(tweet)).To(BeEmpty())
		})

		It("emits nothing for a player card", func() {
			tt.WithCard(tweet, "player", "https://youtube.com/watch?v=x", map[string]string{"title": "clip"})
			Expect(extract(tweet)).To(BeEmpty())
		})

		It("defaults a missing title to empty", func() {
			tt.WithCard(tweet, "summary", "https://t.co/card", map[string]string{"description": "only this"})
			got := extract(tweet)
			Expect(got).To(Equal([]types.Attachment{{
				Type:        types.AttachmentLink,
				URL:         "https://t.co/card",
				Description: "only this",
			}}))
		})

		It("falls back to the card_url binding", func() {
			tt.WithCard(tweet, "summary", "", map[string]string{"card_url": "https://example.com/bound"})
			got := extract(tweet)
			Expect(got).To(HaveLen(1))
			Expect(got[0].URL).To(Equal("https://example.com/bound"))
		})

		It("falls back to the post's first expanded url", func() {
			tt.WithCard(tweet, "summary", "", map[string]string{"title": "t"})
			tt.WithExpandedURL(tweet, "https://example.com/expanded")
			got := extract(tweet)
			Expect(got).To(HaveLen(1))
			Expect(got[0].URL).To(Equal("https://example.com/expanded"))
		})

		It("omits a card with no resolvable url", func() {
			tt.WithCard(tweet, "summary", "", map[string]string{"title": "t"})
			Expect(extract(tweet)).To(BeEmpty())
		})
	})
})

var _ = Describe("BestVariant", func() {
	It("reports no variant for an empty list", func() {
		_, ok := thread.BestVariant(gjson.Parse(`[]`))
		Expect(ok).To(BeFalse())
	})

	It("treats a missing bitrate as zero", func() {
		v, ok := thread.BestVariant(gjson.Parse(`[{"content_type":"video/mp4","url":"a"},{"content_type":"video/mp4","url":"b","bitrate":1}]`))
		Expect(ok).To(BeTrue())
		Expect(v.URL).To(Equal("b"))
	})
})

var _ = Describe("FlattenBindings", func() {
	It("reads the list form", func() {
		got := thread.FlattenBindings(gjson.Parse(`[
			{"key":"title","value":{"type":"STRING","string_value":"T"}},
			{"key":"thumbnail_image","value":{"type":"IMAGE","image_value":{"url":"x"}}}
		]`))
		Expect(got).To(Equal(map[string]string{"title": "T"}))
	})

	It("reads the object form", func() {
		got := thread.FlattenBindings(gjson.Parse(`{
			"title":{"type":"STRING","string_value":"T"},
			"description":{"type":"STRING","string_value":"D"}
		}`))
		Expect(got).To(Equal(map[string]string{"title": "T", "description": "D"}))
	})

	It("returns an empty map for anything else", func() {
		Expect(thread.FlattenBindings(gjson.Parse(`null`))).To(BeEmpty())
	})
})

var _ = DescribeTable("DimensionsFromURL",
	func(raw string, w, h int, ok bool) {
		gw, gh, gok := thread.DimensionsFromURL(raw)
		Expect(gok).To(Equal(ok))
		Expect(gw).To(Equal(w))
		Expect(gh).To(Equal(h))
	},
	Entry("avc path segment", "https://video.twimg.com/ext_tw_video/1/pu/vid/avc1/1280x720/a.mp4?tag=12", 1280, 720, true),
	Entry("portrait", "https://video.twimg.com/vid/720x1280/b.mp4", 720, 1280, true),
	Entry("no segment", "https://video.twimg.com/tweet_video/loop.mp4", 0, 0, false),
	Entry("dimension in file name only", "https://video.twimg.com/vid/clip_720x1280.mp4", 0, 0, false),
	Entry("empty", "", 0, 0, false),
)
