// Package threadtest builds TweetDetail-shaped payloads for tests.
package threadtest

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Object is a JSON object under construction
type Object = map[string]any

// T0 is a fixed reference time for fixtures
var T0 = time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC)

// User returns a user result with a fully populated legacy block
func User(id string) Object {
	return Object{
		"__typename":       "User",
		"rest_id":          id,
		"is_blue_verified": false,
		"legacy": Object{
			"name":                    "Name " + id,
			"screen_name":             id,
			"profile_image_url_https": "https://pbs.twimg.com/profile_images/" + id + "_normal.jpg",
			"verified":                false,
			"description":             "bio of " + id,
			"followers_count":         1200,
			"friends_count":           300,
			"location":                "Lisbon",
			"created_at":              "Wed Oct 10 20:19:24 +0000 2018",
			"url":                     "https://t.co/" + id,
		},
	}
}

// Tweet returns a post result written by author at the given time
func Tweet(id string, author Object, created time.Time) Object {
	return Object{
		"__typename": "Tweet",
		"rest_id":    id,
		"core":       Object{"user_results": Object{"result": author}},
		"views":      Object{"count": "100", "state": "EnabledWithCount"},
		"legacy": Object{
			"id_str":         id,
			"full_text":      "text of " + id,
			"created_at":     created.UTC().Format(time.RubyDate),
			"reply_count":    1,
			"retweet_count":  2,
			"favorite_count": 3,
			"bookmark_count": 4,
			"user_id_str":    author["rest_id"],
		},
	}
}

// Legacy returns the legacy block of a tweet or user result for mutation
func Legacy(o Object) Object {
	return o["legacy"].(Object)
}

// WithNote attaches long-form note text to a tweet
func WithNote(tweet Object, text string) Object {
	tweet["note_tweet"] = Object{
		"is_expandable": true,
		"note_tweet_results": Object{
			"result": Object{"id": "note", "text": text},
		},
	}
	return tweet
}

// WithMedia sets the extended media list of a tweet
func WithMedia(tweet Object, media ...Object) Object {
	Legacy(tweet)["extended_entities"] = Object{"media": media}
	return tweet
}

// WithCard attaches a link card with list-form binding values
func WithCard(tweet Object, name, url string, bindings map[string]string) Object {
	values := make([]Object, 0, len(bindings))
	for _, k := range sortedKeys(bindings) {
		values = append(values, Object{
			"key":   k,
			"value": Object{"type": "STRING", "string_value": bindings[k]},
		})
	}
	card := Object{"name": name, "binding_values": values}
	if url != "" {
		card["url"] = url
	}
	tweet["card"] = Object{"rest_id": "card://1", "legacy": card}
	return tweet
}

// WithExpandedURL sets the post's first entity url
func WithExpandedURL(tweet Object, expanded string) Object {
	Legacy(tweet)["entities"] = Object{
		"urls": []Object{{"url": "https://t.co/abc", "expanded_url": expanded}},
	}
	return tweet
}

// Photo returns a photo media item
func Photo(n int) Object {
	return Object{
		"type":            "photo",
		"media_url_https": fmt.Sprintf("https://pbs.twimg.com/media/photo%d.jpg", n),
		"url":             fmt.Sprintf("https://t.co/p%d", n),
		"original_info":   Object{"width": 1200, "height": 800},
	}
}

// Variant is one entry of a video_info.variants list
func Variant(contentType, url string, bitrate int) Object {
	v := Object{"content_type": contentType, "url": url}
	if contentType == "video/mp4" {
		v["bitrate"] = bitrate
	}
	return v
}

// Video returns a video media item with the given variants
func Video(kind string, variants ...Object) Object {
	return Object{
		"type":            kind,
		"media_url_https": "https://pbs.twimg.com/ext_tw_video_thumb/1/pu/img/thumb.jpg",
		"url":             "https://t.co/v",
		"video_info": Object{
			"duration_millis": 15000,
			"variants":        variants,
		},
	}
}

// RootEntry wraps a tweet as the main timeline item
func RootEntry(tweet Object) Object {
	return Object{
		"entryId":   "tweet-" + tweet["rest_id"].(string),
		"sortIndex": "1",
		"content": Object{
			"entryType":  "TimelineTimelineItem",
			"__typename": "TimelineTimelineItem",
			"itemContent": Object{
				"itemType":      "TimelineTweet",
				"__typename":    "TimelineTweet",
				"tweet_results": Object{"result": tweet},
			},
		},
	}
}

// ThreadModule wraps tweets as the continuation group; a nil tweet becomes a
// non-post item such as a "show more" cursor
func ThreadModule(tweets ...Object) Object {
	items := make([]Object, 0, len(tweets))
	for i, t := range tweets {
		if t == nil {
			items = append(items, Object{
				"entryId": fmt.Sprintf("conversationthread-1-cursor-%d", i),
				"item": Object{"itemContent": Object{
					"itemType":   "TimelineTimelineCursor",
					"cursorType": "ShowMore",
					"value":      "cursor",
				}},
			})
			continue
		}
		items = append(items, Object{
			"entryId": fmt.Sprintf("conversationthread-1-tweet-%d", i),
			"item": Object{"itemContent": Object{
				"itemType":      "TimelineTweet",
				"tweet_results": Object{"result": t},
			}},
		})
	}
	return Object{
		"entryId": "conversationthread-1",
		"content": Object{
			"entryType":  "TimelineTimelineModule",
			"__typename": "TimelineTimelineModule",
			"items":      items,
		},
	}
}

// Payload assembles a full TweetDetail response around the entries
func Payload(entries ...Object) []byte {
	if entries == nil {
		entries = []Object{}
	}
	return Marshal(Object{
		"data": Object{
			"threaded_conversation_with_injections_v2": Object{
				"instructions": []Object{
					{"type": "TimelineClearCache"},
					{"type": "TimelineAddEntries", "entries": entries},
				},
			},
		},
	})
}

// ThreadPayload builds a payload with a root post by author and the given
// continuation tweets
func ThreadPayload(root Object, continuation ...Object) []byte {
	entries := []Object{RootEntry(root)}
	if len(continuation) > 0 {
		entries = append(entries, ThreadModule(continuation...))
	}
	return Payload(entries...)
}

// SelfThread builds a payload of n posts by one author, one second apart
func SelfThread(authorID string, n int) []byte {
	author := User(authorID)
	root := Tweet(authorID+"-0", author, T0)
	var rest []Object
	for i := 1; i < n; i++ {
		rest = append(rest, Tweet(fmt.Sprintf("%s-%d", authorID, i), author, T0.Add(time.Duration(i)*time.Second)))
	}
	return ThreadPayload(root, rest...)
}

// Marshal encodes v, panicking on failure since fixtures are always encodable
func Marshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
