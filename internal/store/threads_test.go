package store_test

import (
	"context"
	"math"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ibeckermayer/elongatd/internal/store"
	"github.com/ibeckermayer/elongatd/internal/thread"
	tt "github.com/ibeckermayer/elongatd/internal/thread/threadtest"
	"github.com/ibeckermayer/elongatd/internal/types"
)

// tickingClock returns a clock advancing one second per call
func tickingClock() func() time.Time {
	t := tt.T0
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func openStore() *store.Store {
	GinkgoHelper()
	s, err := store.New(filepath.Join(GinkgoT().TempDir(), "db", "elongatd.db"))
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(s.Close)
	DeferCleanup(store.SetClock(tickingClock()))
	return s
}

func normalized(payload []byte) *types.Thread {
	GinkgoHelper()
	t, err := thread.Normalize(payload)
	Expect(err).NotTo(HaveOccurred())
	return t
}

var _ = Describe("Threads", func() {
	var (
		s   *store.Store
		ctx context.Context
	)

	BeforeEach(func() {
		s = openStore()
		ctx = context.Background()
	})

	It("stores oversized counters as the largest integer", func() {
		t := normalized(tt.SelfThread("alice", 3))
		t.Posts[0].Metrics.Views = math.MaxUint64
		t.Posts[1].Metrics.Likes = math.MaxInt64
		Expect(s.SaveThread(ctx, t)).To(Succeed())

		loaded, err := s.LoadThread(ctx, t.ThreadID)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Posts[0].Metrics.Views).To(BeEquivalentTo(uint64(math.MaxInt64)))
		Expect(loaded.Posts[1].Metrics.Likes).To(BeEquivalentTo(uint64(math.MaxInt64)))
	})

	It("round-trips a normalized thread", func() {
		alice := tt.User("alice")
		root := tt.WithMedia(tt.Tweet("1", alice, tt.T0), tt.Photo(1))
		second := tt.WithCard(tt.Tweet("2", alice, tt.T0.Add(time.Second)), "summary", "https://example.com", map[string]string{"title": "T"})
		third := tt.Tweet("3", alice, tt.T0.Add(-time.Second))
		original := normalized(tt.ThreadPayload(root, second, third))

		Expect(s.SaveThread(ctx, original)).To(Succeed())

		loaded, err := s.LoadThread(ctx, original.ThreadID)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(original))
	})

	It("keeps stored order and recomputes totals from posts", func() {
		original := normalized(tt.SelfThread("bob", 5))
		Expect(s.SaveThread(ctx, original)).To(Succeed())

		loaded, err := s.LoadThread(ctx, original.ThreadID)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Posts).To(HaveLen(5))
		for i, p := range loaded.Posts {
			Expect(p.ID).To(Equal(original.Posts[i].ID))
		}
		Expect(loaded.TotalMetrics).To(Equal(types.SumMetrics(loaded.Posts)))
		Expect(loaded.TotalMetrics.Likes).To(BeEquivalentTo(15))
	})

	It("replaces posts and refreshes metrics on re-save", func() {
		t := normalized(tt.SelfThread("carol", 3))
		Expect(s.SaveThread(ctx, t)).To(Succeed())

		t.Posts[1].Metrics.Likes = 999
		t.Posts = append(t.Posts, types.Post{ID: "carol-3", Text: "late", CreatedAt: tt.T0.Add(time.Hour), Attachments: []types.Attachment{}})
		t.RecomputeTotals()
		Expect(s.SaveThread(ctx, t)).To(Succeed())

		loaded, err := s.LoadThread(ctx, t.ThreadID)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Posts).To(HaveLen(4))
		Expect(loaded.Posts[1].Metrics.Likes).To(BeEquivalentTo(999))
		Expect(loaded.TotalMetrics).To(Equal(t.TotalMetrics))
	})

	It("reports missing threads", func() {
		_, err := s.LoadThread(ctx, "nope")
		Expect(err).To(MatchError(store.ErrNotFound))

		exists, err := s.ThreadExists(ctx, "nope")
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeFalse())
	})

	It("refuses an empty thread", func() {
		Expect(s.SaveThread(ctx, &types.Thread{ThreadID: "x"})).NotTo(Succeed())
	})

	It("lists the latest threads first with their opening post", func() {
		for _, author := range []string{"a", "b", "c"} {
			Expect(s.SaveThread(ctx, normalized(tt.SelfThread(author, 3)))).To(Succeed())
		}

		latest, err := s.LatestThreads(ctx, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(latest).To(HaveLen(2))
		Expect(latest[0].ThreadID).To(Equal("c-0"))
		Expect(latest[1].ThreadID).To(Equal("b-0"))
		Expect(latest[0].PostCount).To(Equal(3))
		Expect(latest[0].FirstPost.ID).To(Equal("c-0"))
		Expect(latest[0].Author.Username).To(Equal("c"))
		Expect(latest[0].UpdatedAt.After(latest[1].UpdatedAt)).To(BeTrue())
	})

	It("deletes a thread with its posts and blog", func() {
		t := normalized(tt.SelfThread("dan", 3))
		Expect(s.SaveThread(ctx, t)).To(Succeed())
		_, err := s.SaveBlog(ctx, &types.BlogPost{ThreadID: t.ThreadID, Title: "x"}, types.Usage{})
		Expect(err).NotTo(HaveOccurred())

		Expect(s.DeleteThread(ctx, t.ThreadID)).To(Succeed())

		exists, err := s.ThreadExists(ctx, t.ThreadID)
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeFalse())
		blogExists, err := s.BlogExists(ctx, t.ThreadID)
		Expect(err).NotTo(HaveOccurred())
		Expect(blogExists).To(BeFalse())

		Expect(s.DeleteThread(ctx, t.ThreadID)).To(MatchError(store.ErrNotFound))
	})
})
