package thread

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ibeckermayer/elongatd/internal/types"
)

const mp4ContentType = "video/mp4"

// card names that produce a link attachment
var linkCardNames = map[string]bool{
	"summary":             true,
	"summary_large_image": true,
}

// ExtractAttachments returns the media of a post result in media order,
// followed by its link card if any. It never fails: items that cannot be
// resolved are skipped and no attachment is emitted without a URL.
func ExtractAttachments(post gjson.Result) []types.Attachment {
	attachments := []types.Attachment{}

	post.Get("legacy.extended_entities.media").ForEach(func(_, media gjson.Result) bool {
		if a, ok := mediaAttachment(media); ok && a.URL != "" {
			attachments = append(attachments, a)
		}
		return true
	})

	if a, ok := cardAttachment(post); ok && a.URL != "" {
		attachments = append(attachments, a)
	}

	return attachments
}

func mediaAttachment(media gjson.Result) (types.Attachment, bool) {
	switch media.Get("type").String() {
	case "photo":
		return types.Attachment{
			Type:        types.AttachmentImage,
			URL:         media.Get("media_url_https").String(),
			OriginalURL: media.Get("url").String(),
			Width:       int(media.Get("original_info.width").Int()),
			Height:      int(media.Get("original_info.height").Int()),
		}, true

	case "video", "animated_gif":
		variant, ok := BestVariant(media.Get("video_info.variants"))
		if !ok {
			return types.Attachment{}, false
		}
		a := types.Attachment{
			Type:         types.AttachmentVideo,
			URL:          variant.URL,
			Bitrate:      variant.Bitrate,
			ThumbnailURL: media.Get("media_url_https").String(),
			DurationMs:   media.Get("video_info.duration_millis").Int(),
			Width:        int(media.Get("original_info.width").Int()),
			Height:       int(media.Get("original_info.height").Int()),
		}
		if a.Width == 0 || a.Height == 0 {
			if w, h, ok := DimensionsFromURL(variant.URL); ok {
				a.Width, a.Height = w, h
			}
		}
		return a, true
	}

	return types.Attachment{}, false
}

// Variant is one encoding of a video
type Variant struct {
	URL         string
	ContentType string
	Bitrate     int64
}

// BestVariant picks the mp4 variant with the highest bitrate. Equal bitrates
// keep the earliest one. ok is false when there is no mp4 variant.
func BestVariant(variants gjson.Result) (best Variant, ok bool) {
	variants.ForEach(func(_, v gjson.Result) bool {
		if v.Get("content_type").String() != mp4ContentType {
			return true
		}
		candidate := Variant{
			URL:         v.Get("url").String(),
			ContentType: mp4ContentType,
			Bitrate:     v.Get("bitrate").Int(),
		}
		if !ok || candidate.Bitrate > best.Bitrate {
			best, ok = candidate, true
		}
		return true
	})
	return best, ok
}

func cardAttachment(post gjson.Result) (types.Attachment, bool) {
	card := post.Get("card.legacy")
	if !card.Exists() || !linkCardNames[cardBaseName(card.Get("name").String())] {
		return types.Attachment{}, false
	}

	bindings := FlattenBindings(card.Get("binding_values"))

	return types.Attachment{
		Type:        types.AttachmentLink,
		URL:         cardURL(post, card, bindings),
		Title:       bindings["title"],
		Description: bindings["description"],
	}, true
}

// cardBaseName drops the namespace prefix of names like "2586390716:summary"
func cardBaseName(name string) string {
	if i := strings.LastIndex(name, ":"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// cardURL resolves the target of a link card: the card's own url, then the
// card_url binding, then the first expanded url of the post.
func cardURL(post, card gjson.Result, bindings map[string]string) string {
	if u := card.Get("url").String(); u != "" {
		return u
	}
	if u := bindings["card_url"]; u != "" {
		return u
	}
	return post.Get("legacy.entities.urls.0.expanded_url").String()
}

// FlattenBindings turns a card's binding values into a key/value map. Both the
// list form ([{key, value}]) and the object form ({key: value}) are accepted;
// only string values are kept.
func FlattenBindings(bindings gjson.Result) map[string]string {
	out := make(map[string]string)
	switch {
	case bindings.IsArray():
		bindings.ForEach(func(_, b gjson.Result) bool {
			key := b.Get("key").String()
			if v := b.Get("value.string_value"); key != "" && v.Exists() {
				out[key] = v.String()
			}
			return true
		})
	case bindings.IsObject():
		bindings.ForEach(func(key, b gjson.Result) bool {
			if v := b.Get("string_value"); v.Exists() {
				out[key.String()] = v.String()
			}
			return true
		})
	}
	return out
}
