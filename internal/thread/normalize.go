// Package thread turns a captured TweetDetail response into a canonical
// types.Thread. Everything here is pure: no I/O, no shared state, and the
// same payload always yields the same Thread.
package thread

import (
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ibeckermayer/elongatd/internal/types"
)

// RawPayload is the JSON body of a TweetDetail response
type RawPayload []byte

const (
	instructionsPath = "data.threaded_conversation_with_injections_v2.instructions"

	entryTypeItem   = "TimelineTimelineItem"
	entryTypeModule = "TimelineTimelineModule"
	itemTypeTweet   = "TimelineTweet"

	rootEntryPrefix   = "tweet-"
	threadEntryPrefix = "conversationthread-"
)

// Normalize extracts the thread rooted at the payload's main post.
//
// The root post supplies the author. Continuation items written by the same
// author are merged in, everything is sorted by creation time, and the
// earliest post becomes the thread's id and timestamp. A missing required
// anchor fails the whole call with a *MalformedPayloadError.
func Normalize(raw RawPayload) (*types.Thread, error) {
	if !gjson.ValidBytes(raw) {
		return nil, malformed(ReasonInvalidStructure)
	}
	doc := gjson.ParseBytes(raw)

	entries, ok := timelineEntries(doc)
	if !ok {
		return nil, malformed(ReasonInvalidStructure)
	}

	rootEntry, ok := findRootEntry(entries)
	if !ok {
		return nil, malformed(ReasonMainTweetMissing)
	}

	root := unwrapResult(rootEntry.Get("content.itemContent.tweet_results.result"))
	if !root.IsObject() {
		return nil, malformed(ReasonMainResultMissing)
	}

	user := root.Get("core.user_results.result")
	if !user.Get("legacy").IsObject() {
		return nil, malformed(ReasonMainAuthorMissing)
	}
	author := extractAuthor(user)

	posts := []types.Post{extractPost(root)}

	if group, ok := findContinuationGroup(entries); ok {
		group.Get("content.items").ForEach(func(_, item gjson.Result) bool {
			result := unwrapResult(item.Get("item.itemContent.tweet_results.result"))
			if !result.IsObject() {
				return true
			}
			if id := postAuthorID(result); id == "" || id != author.ID {
				return true
			}
			posts = append(posts, extractPost(result))
			return true
		})
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.Before(posts[j].CreatedAt)
	})

	return &types.Thread{
		Author:       author,
		ThreadID:     posts[0].ID,
		CreatedAt:    posts[0].CreatedAt,
		Posts:        posts,
		TotalMetrics: types.SumMetrics(posts),
	}, nil
}

// timelineEntries finds the entries list among the conversation instructions.
// A TimelineAddEntries instruction is preferred; otherwise the first
// instruction that carries an entries array is used.
func timelineEntries(doc gjson.Result) ([]gjson.Result, bool) {
	instructions := doc.Get(instructionsPath)
	if !instructions.IsArray() {
		return nil, false
	}

	var fallback gjson.Result
	for _, in := range instructions.Array() {
		entries := in.Get("entries")
		if !entries.IsArray() {
			continue
		}
		if in.Get("type").String() == "TimelineAddEntries" {
			return entries.Array(), true
		}
		if !fallback.Exists() {
			fallback = entries
		}
	}
	if !fallback.Exists() {
		return nil, false
	}
	return fallback.Array(), true
}

func entryType(entry gjson.Result) string {
	return firstString(entry, "content.entryType", "content.__typename")
}

func isTweetItem(entry gjson.Result) bool {
	if entryType(entry) != entryTypeItem {
		return false
	}
	return firstString(entry, "content.itemContent.itemType", "content.itemContent.__typename") == itemTypeTweet
}

// findRootEntry returns the main post entry. Entries whose id starts with
// "tweet-" win over other tweet items (promoted or injected ones).
func findRootEntry(entries []gjson.Result) (gjson.Result, bool) {
	var first gjson.Result
	found := false
	for _, e := range entries {
		if !isTweetItem(e) {
			continue
		}
		if strings.HasPrefix(e.Get("entryId").String(), rootEntryPrefix) {
			return e, true
		}
		if !found {
			first, found = e, true
		}
	}
	return first, found
}

// findContinuationGroup returns the module holding the main post's follow-ups
func findContinuationGroup(entries []gjson.Result) (gjson.Result, bool) {
	var first gjson.Result
	found := false
	for _, e := range entries {
		if entryType(e) != entryTypeModule {
			continue
		}
		if strings.HasPrefix(e.Get("entryId").String(), threadEntryPrefix) {
			return e, true
		}
		if !found {
			first, found = e, true
		}
	}
	return first, found
}

func extractAuthor(user gjson.Result) types.Author {
	legacy := user.Get("legacy")
	return types.Author{
		ID:              user.Get("rest_id").String(),
		Name:            firstString(user, "core.name", "legacy.name"),
		Username:        firstString(user, "core.screen_name", "legacy.screen_name"),
		ProfileImageURL: firstString(user, "avatar.image_url", "legacy.profile_image_url_https"),
		Verified:        ResolveVerified(user),
		Description:     legacy.Get("description").String(),
		FollowersCount:  counter(legacy, "followers_count"),
		FollowingCount:  counter(legacy, "friends_count"),
		Location:        firstString(user, "location.location", "legacy.location"),
		CreatedAt:       ParseTimestamp(firstString(user, "core.created_at", "legacy.created_at")),
		URL:             firstString(legacy, "entities.url.urls.0.expanded_url", "url"),
	}
}

func extractPost(post gjson.Result) types.Post {
	legacy := post.Get("legacy")
	return types.Post{
		ID:        postID(post),
		Text:      postText(post),
		CreatedAt: ParseTimestamp(legacy.Get("created_at").String()),
		Metrics: types.Metrics{
			Replies:   counter(legacy, "reply_count"),
			Retweets:  counter(legacy, "retweet_count"),
			Likes:     counter(legacy, "favorite_count"),
			Views:     counter(post, "views.count"),
			Bookmarks: counter(legacy, "bookmark_count"),
		},
		Attachments: ExtractAttachments(post),
	}
}

// NormalizeBytes is Normalize for callers holding a plain byte slice
func NormalizeBytes(b []byte) (*types.Thread, error) {
	return Normalize(RawPayload(b))
}
