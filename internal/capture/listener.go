package capture

import (
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const conversationPath = "data.threaded_conversation_with_injections_v2"

type fetchFunc func(network.RequestID) ([]byte, error)

// listener watches CDP network events for the TweetDetail response of one
// post and delivers the first usable body on result.
type listener struct {
	postID string
	fetch  fetchFunc
	log    zerolog.Logger

	mu      sync.Mutex
	pending map[network.RequestID]string

	once   sync.Once
	result chan []byte
}

func newListener(postID string, fetch fetchFunc, log zerolog.Logger) *listener {
	return &listener{
		postID:  postID,
		fetch:   fetch,
		log:     log,
		pending: make(map[network.RequestID]string),
		result:  make(chan []byte, 1),
	}
}

// handle is called synchronously by chromedp; body fetches run elsewhere
func (l *listener) handle(ev any) {
	switch e := ev.(type) {
	case *network.EventResponseReceived:
		if e.Response == nil || !IsTweetDetailURL(e.Response.URL) {
			return
		}
		if focal := FocalPostID(e.Response.URL); l.postID != "" && focal != "" && focal != l.postID {
			return
		}
		if e.Response.Status != 200 {
			l.log.Warn().Int64("status", e.Response.Status).Msg("TweetDetail request failed")
			return
		}
		l.mu.Lock()
		l.pending[e.RequestID] = e.Response.URL
		l.mu.Unlock()

	case *network.EventLoadingFinished:
		l.mu.Lock()
		_, ok := l.pending[e.RequestID]
		delete(l.pending, e.RequestID)
		l.mu.Unlock()
		if ok {
			go l.collect(e.RequestID)
		}

	case *network.EventLoadingFailed:
		l.mu.Lock()
		delete(l.pending, e.RequestID)
		l.mu.Unlock()
	}
}

func (l *listener) collect(id network.RequestID) {
	body, err := l.fetch(id)
	if err != nil {
		l.log.Warn().Err(err).Str("request_id", string(id)).Msg("failed to read TweetDetail body")
		return
	}
	if !gjson.GetBytes(body, conversationPath).Exists() {
		l.log.Warn().Str("request_id", string(id)).Msg("TweetDetail body has no conversation")
		return
	}
	l.once.Do(func() {
		l.result <- body
	})
}
