package capture

import (
	"errors"
	"net/url"

	"github.com/chromedp/cdproto/network"
	"github.com/rs/zerolog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("listener", func() {
	const body = `{"data":{"threaded_conversation_with_injections_v2":{"instructions":[]}}}`

	var (
		l       *listener
		fetched chan network.RequestID
		bodies  map[network.RequestID]string
	)

	detail := func(focal string) string {
		v := url.Values{}
		v.Set("variables", `{"focalTweetId":"`+focal+`"}`)
		return "https://x.com/i/api/graphql/h/TweetDetail?" + v.Encode()
	}
	received := func(id network.RequestID, u string, status int64) {
		l.handle(&network.EventResponseReceived{RequestID: id, Response: &network.Response{URL: u, Status: status}})
	}
	finished := func(id network.RequestID) {
		l.handle(&network.EventLoadingFinished{RequestID: id})
	}

	BeforeEach(func() {
		fetched = make(chan network.RequestID, 10)
		bodies = map[network.RequestID]string{}
		l = newListener("100", func(id network.RequestID) ([]byte, error) {
			fetched <- id
			b, ok := bodies[id]
			if !ok {
				return nil, errors.New("no body")
			}
			return []byte(b), nil
		}, zerolog.Nop())
	})

	It("delivers the body of the focal TweetDetail response", func() {
		bodies["r1"] = body
		received("r1", detail("100"), 200)
		finished("r1")
		Eventually(l.result).Should(Receive(Equal([]byte(body))))
	})

	It("ignores responses for other posts and other endpoints", func() {
		received("r1", detail("999"), 200)
		received("r2", "https://x.com/i/api/graphql/h/HomeTimeline", 200)
		finished("r1")
		finished("r2")
		Consistently(fetched).ShouldNot(Receive())
	})

	It("ignores failed requests", func() {
		received("r1", detail("100"), 429)
		finished("r1")
		Consistently(fetched).ShouldNot(Receive())
	})

	It("waits for a body that carries a conversation", func() {
		bodies["r1"] = `{"errors":[{"message":"rate limited"}]}`
		bodies["r2"] = body
		received("r1", detail("100"), 200)
		finished("r1")
		Eventually(fetched).Should(Receive(Equal(network.RequestID("r1"))))
		Consistently(l.result).ShouldNot(Receive())

		received("r2", detail("100"), 200)
		finished("r2")
		Eventually(l.result).Should(Receive(Equal([]byte(body))))
	})

	It("delivers only once", func() {
		bodies["r1"] = body
		bodies["r2"] = body
		received("r1", detail("100"), 200)
		received("r2", detail("100"), 200)
		finished("r1")
		finished("r2")
		Eventually(l.result).Should(Receive())
		Eventually(fetched).Should(HaveLen(2))
		Consistently(l.result).ShouldNot(Receive())
	})

	It("forgets requests that failed to load", func() {
		received("r1", detail("100"), 200)
		l.handle(&network.EventLoadingFailed{RequestID: "r1"})
		finished("r1")
		Consistently(fetched).ShouldNot(Receive())
	})
})
