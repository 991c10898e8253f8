package thread_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ibeckermayer/elongatd/internal/thread"
	tt "github.com/ibeckermayer/elongatd/internal/thread/threadtest"
	"github.com/ibeckermayer/elongatd/internal/types"
)

func postIDs(t *types.Thread) []string {
	ids := make([]string, len(t.Posts))
	for i, p := range t.Posts {
		ids[i] = p.ID
	}
	return ids
}

func expectMalformed(err error, reason string) {
	GinkgoHelper()
	Expect(err).To(HaveOccurred())
	Expect(errors.Is(err, thread.ErrMalformedPayload)).To(BeTrue())
	var mp *thread.MalformedPayloadError
	Expect(errors.As(err, &mp)).To(BeTrue())
	Expect(mp.Reason).To(Equal(reason))
}

var _ = Describe("Normalize", func() {
	var (
		alice tt.Object
		bob   tt.Object
	)

	BeforeEach(func() {
		alice = tt.User("alice")
		bob = tt.User("bob")
	})

	Describe("scenario A: mixed authors and out-of-order timestamps", func() {
		var result *types.Thread

		BeforeEach(func() {
			root := tt.Tweet("1", alice, tt.T0)
			payload := tt.ThreadPayload(root,
				tt.Tweet("2", alice, tt.T0.Add(time.Second)),
				tt.Tweet("3", bob, tt.T0.Add(2*time.Second)),
				tt.Tweet("4", alice, tt.T0.Add(-time.Second)),
			)
			var err error
			result, err = thread.Normalize(payload)
			Expect(err).NotTo(HaveOccurred())
		})

		It("keeps only the root author's posts, sorted ascending", func() {
			Expect(postIDs(result)).To(Equal([]string{"4", "1", "2"}))
		})

		It("takes thread id and created_at from the earliest post", func() {
			Expect(result.ThreadID).To(Equal("4"))
			Expect(result.CreatedAt).To(BeTemporally("==", tt.T0.Add(-time.Second)))
		})

		It("is actionable", func() {
			Expect(thread.IsActionable(result)).To(BeTrue())
		})

		It("derives the author from the root post", func() {
			Expect(result.Author.ID).To(Equal("alice"))
			Expect(result.Author.Username).To(Equal("alice"))
			Expect(result.Author.Name).To(Equal("Name alice"))
		})
	})

	Describe("scenario B: two posts by the author", func() {
		It("normalizes but is not actionable", func() {
			root := tt.Tweet("1", alice, tt.T0)
			payload := tt.ThreadPayload(root,
				tt.Tweet("2", alice, tt.T0.Add(time.Second)),
				tt.Tweet("3", bob, tt.T0.Add(2*time.Second)),
			)
			result, err := thread.Normalize(payload)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Posts).To(HaveLen(2))
			Expect(thread.IsActionable(result)).To(BeFalse())
		})
	})

	It("returns posts strictly ascending when timestamps are distinct", func() {
		root := tt.Tweet("10", alice, tt.T0.Add(5*time.Second))
		payload := tt.ThreadPayload(root,
			tt.Tweet("11", alice, tt.T0.Add(9*time.Second)),
			tt.Tweet("12", alice, tt.T0.Add(1*time.Second)),
			tt.Tweet("13", alice, tt.T0.Add(7*time.Second)),
		)
		result, err := thread.Normalize(payload)
		Expect(err).NotTo(HaveOccurred())
		for i := 1; i < len(result.Posts); i++ {
			Expect(result.Posts[i].CreatedAt.After(result.Posts[i-1].CreatedAt)).To(BeTrue())
		}
	})

	It("keeps input order for equal timestamps", func() {
		root := tt.Tweet("r", alice, tt.T0)
		payload := tt.ThreadPayload(root,
			tt.Tweet("a", alice, tt.T0),
			tt.Tweet("b", alice, tt.T0),
		)
		result, err := thread.Normalize(payload)
		Expect(err).NotTo(HaveOccurred())
		Expect(postIDs(result)).To(Equal([]string{"r", "a", "b"}))
	})

	It("never includes a foreign-author post", func() {
		root := tt.Tweet("1", alice, tt.T0)
		payload := tt.ThreadPayload(root,
			tt.Tweet("2", bob, tt.T0.Add(time.Second)),
			tt.Tweet("3", bob, tt.T0.Add(2*time.Second)),
		)
		result, err := thread.Normalize(payload)
		Expect(err).NotTo(HaveOccurred())
		Expect(postIDs(result)).To(Equal([]string{"1"}))
	})

	It("excludes continuation items without an author id", func() {
		orphan := tt.Tweet("2", alice, tt.T0.Add(time.Second))
		delete(orphan, "core")
		delete(tt.Legacy(orphan), "user_id_str")
		result, err := thread.Normalize(tt.ThreadPayload(tt.Tweet("1", alice, tt.T0), orphan))
		Expect(err).NotTo(HaveOccurred())
		Expect(postIDs(result)).To(Equal([]string{"1"}))
	})

	It("skips continuation items that carry no post", func() {
		root := tt.Tweet("1", alice, tt.T0)
		payload := tt.ThreadPayload(root,
			tt.Tweet("2", alice, tt.T0.Add(time.Second)),
			nil,
			tt.Tweet("3", alice, tt.T0.Add(2*time.Second)),
		)
		result, err := thread.Normalize(payload)
		Expect(err).NotTo(HaveOccurred())
		Expect(postIDs(result)).To(Equal([]string{"1", "2", "3"}))
	})

	It("unwraps visibility-wrapped results", func() {
		inner := tt.Tweet("2", alice, tt.T0.Add(time.Second))
		wrapped := tt.Object{"__typename": "TweetWithVisibilityResults", "tweet": inner}
		result, err := thread.Normalize(tt.ThreadPayload(tt.Tweet("1", alice, tt.T0), wrapped))
		Expect(err).NotTo(HaveOccurred())
		Expect(postIDs(result)).To(Equal([]string{"1", "2"}))
	})

	It("is idempotent", func() {
		root := tt.WithMedia(tt.Tweet("1", alice, tt.T0), tt.Photo(1))
		payload := tt.ThreadPayload(root,
			tt.Tweet("2", alice, tt.T0.Add(time.Second)),
			tt.Tweet("3", bob, tt.T0.Add(time.Second)),
		)
		first, err := thread.Normalize(payload)
		Expect(err).NotTo(HaveOccurred())
		second, err := thread.Normalize(payload)
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(first))
	})

	Describe("total metrics", func() {
		It("equals the field-wise sum over posts", func() {
			root := tt.Tweet("1", alice, tt.T0)
			other := tt.Tweet("2", alice, tt.T0.Add(time.Second))
			tt.Legacy(other)["favorite_count"] = 40
			other["views"] = tt.Object{"count": "2500"}
			result, err := thread.Normalize(tt.ThreadPayload(root, other))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.TotalMetrics).To(Equal(types.Metrics{
				Replies: 2, Retweets: 4, Likes: 43, Views: 2600, Bookmarks: 8,
			}))
			Expect(result.TotalMetrics).To(Equal(types.SumMetrics(result.Posts)))
		})

		It("defaults absent counters to zero", func() {
			root := tt.Tweet("1", alice, tt.T0)
			legacy := tt.Legacy(root)
			for _, k := range []string{"reply_count", "retweet_count", "favorite_count", "bookmark_count"} {
				delete(legacy, k)
			}
			delete(root, "views")
			result, err := thread.Normalize(tt.ThreadPayload(root))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Posts[0].Metrics).To(Equal(types.Metrics{}))
			Expect(result.TotalMetrics).To(Equal(types.Metrics{}))
			Expect(result.Posts[0].Attachments).To(BeEmpty())
		})
	})

	Describe("text", func() {
		It("prefers the long-form note text", func() {
			root := tt.WithNote(tt.Tweet("1", alice, tt.T0), "the whole long story")
			result, err := thread.Normalize(tt.ThreadPayload(root))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Posts[0].Text).To(Equal("the whole long story"))
		})

		It("falls back to full_text when the note is empty", func() {
			root := tt.WithNote(tt.Tweet("1", alice, tt.T0), "")
			result, err := thread.Normalize(tt.ThreadPayload(root))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Posts[0].Text).To(Equal("text of 1"))
		})
	})

	Describe("author", func() {
		It("fills every field from the legacy block", func() {
			result, err := thread.Normalize(tt.ThreadPayload(tt.Tweet("1", alice, tt.T0)))
			Expect(err).NotTo(HaveOccurred())
			a := result.Author
			Expect(a.ProfileImageURL).To(Equal("https://pbs.twimg.com/profile_images/alice_normal.jpg"))
			Expect(a.Description).To(Equal("bio of alice"))
			Expect(a.FollowersCount).To(BeEquivalentTo(1200))
			Expect(a.FollowingCount).To(BeEquivalentTo(300))
			Expect(a.Location).To(Equal("Lisbon"))
			Expect(a.URL).To(Equal("https://t.co/alice"))
			Expect(a.CreatedAt).To(BeTemporally("==", time.Date(2018, 10, 10, 20, 19, 24, 0, time.UTC)))
			Expect(a.Verified).To(BeFalse())
		})

		It("defaults optional fields", func() {
			legacy := tt.Legacy(alice)
			for _, k := range []string{"description", "location", "url", "followers_count", "friends_count"} {
				delete(legacy, k)
			}
			result, err := thread.Normalize(tt.ThreadPayload(tt.Tweet("1", alice, tt.T0)))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Author.Description).To(BeEmpty())
			Expect(result.Author.Location).To(BeEmpty())
			Expect(result.Author.URL).To(BeEmpty())
			Expect(result.Author.FollowersCount).To(BeZero())
			Expect(result.Author.FollowingCount).To(BeZero())
		})

		It("prefers the expanded profile url", func() {
			tt.Legacy(alice)["entities"] = tt.Object{"url": tt.Object{"urls": []tt.Object{
				{"url": "https://t.co/alice", "expanded_url": "https://alice.dev"},
			}}}
			result, err := thread.Normalize(tt.ThreadPayload(tt.Tweet("1", alice, tt.T0)))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Author.URL).To(Equal("https://alice.dev"))
		})

		It("reads relocated name fields from newer payloads", func() {
			alice["core"] = tt.Object{"name": "Alice A.", "screen_name": "alice_a"}
			alice["avatar"] = tt.Object{"image_url": "https://pbs.twimg.com/new.jpg"}
			result, err := thread.Normalize(tt.ThreadPayload(tt.Tweet("1", alice, tt.T0)))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Author.Name).To(Equal("Alice A."))
			Expect(result.Author.Username).To(Equal("alice_a"))
			Expect(result.Author.ProfileImageURL).To(Equal("https://pbs.twimg.com/new.jpg"))
		})
	})

	Describe("malformed payloads", func() {
		It("fails on an empty entries list", func() {
			_, err := thread.Normalize(tt.Payload())
			expectMalformed(err, thread.ReasonMainTweetMissing)
		})

		It("fails when there is no entries list at all", func() {
			_, err := thread.Normalize([]byte(`{"data":{"threaded_conversation_with_injections_v2":{"instructions":[{"type":"TimelineClearCache"}]}}}`))
			expectMalformed(err, thread.ReasonInvalidStructure)
		})

		It("fails on a payload without instructions", func() {
			_, err := thread.Normalize([]byte(`{"data":{}}`))
			expectMalformed(err, thread.ReasonInvalidStructure)
		})

		It("fails on invalid JSON", func() {
			_, err := thread.Normalize([]byte(`{"data":`))
			expectMalformed(err, thread.ReasonInvalidStructure)
		})

		It("fails when only a continuation group is present", func() {
			_, err := thread.Normalize(tt.Payload(tt.ThreadModule(tt.Tweet("2", alice, tt.T0))))
			expectMalformed(err, thread.ReasonMainTweetMissing)
		})

		It("fails when the root entry has no post result", func() {
			entry := tt.RootEntry(tt.Tweet("1", alice, tt.T0))
			delete(entry["content"].(tt.Object)["itemContent"].(tt.Object), "tweet_results")
			_, err := thread.Normalize(tt.Payload(entry))
			expectMalformed(err, thread.ReasonMainResultMissing)
		})

		It("fails when the root author has no legacy block", func() {
			delete(alice, "legacy")
			_, err := thread.Normalize(tt.ThreadPayload(tt.Tweet("1", alice, tt.T0)))
			expectMalformed(err, thread.ReasonMainAuthorMissing)
		})
	})

	It("returns a single-post thread when there is no continuation group", func() {
		result, err := thread.Normalize(tt.ThreadPayload(tt.Tweet("1", alice, tt.T0)))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Posts).To(HaveLen(1))
		Expect(result.ThreadID).To(Equal("1"))
	})

	It("prefers the tweet- entry over other items as root", func() {
		promoted := tt.RootEntry(tt.Tweet("ad", bob, tt.T0))
		promoted["entryId"] = "promoted-tweet-ad"
		payload := tt.Payload(promoted, tt.RootEntry(tt.Tweet("1", alice, tt.T0)))
		result, err := thread.Normalize(payload)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Author.ID).To(Equal("alice"))
	})

	It("builds a thread from the SelfThread fixture", func() {
		result, err := thread.NormalizeBytes(tt.SelfThread("carol", 4))
		Expect(err).NotTo(HaveOccurred())
		Expect(postIDs(result)).To(Equal([]string{"carol-0", "carol-1", "carol-2", "carol-3"}))
	})
})
