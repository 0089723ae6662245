// Package normalize converts source-specific payloads (offset-indexed
// tweet entities, Telegram entity spans) into the uniform positional
// entity model used by the archive store.
package normalize

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gotd/td/tg"

	"github.com/0xpolarzero/nightwatch/internal/domain/archive/entities"
	"github.com/0xpolarzero/nightwatch/internal/infrastructure/twitterapi"
)

// Tweet converts a raw provider tweet into an archived tweet plus its
// author. Provider indices are pre-validated half-open codepoint
// offsets and are copied verbatim. Absent entity arrays become empty
// slices, never nil.
func Tweet(raw twitterapi.Tweet) (*entities.Tweet, *entities.Author, error) {
	id, err := strconv.ParseInt(raw.ID, 10, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid tweet id %q: %w", raw.ID, err)
	}

	authorID, err := strconv.ParseInt(raw.Author.ID, 10, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid author id %q: %w", raw.Author.ID, err)
	}

	var conversationID *int64
	if raw.ConversationID != "" {
		cid, err := strconv.ParseInt(raw.ConversationID, 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid conversation id %q: %w", raw.ConversationID, err)
		}
		conversationID = &cid
	}

	createdAt, err := twitterapi.ParseCreatedAt(raw.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid tweet timestamp %q: %w", raw.CreatedAt, err)
	}

	mentions := []entities.Mention{}
	urls := []entities.URL{}
	media := []entities.Media{}

	if raw.Entities != nil {
		mentions = mentionsFrom(raw.Entities.UserMentions)
		urls = urlsFrom(raw.Entities.URLs)
	}
	if raw.ExtendedEntities != nil {
		for _, m := range raw.ExtendedEntities.Media {
			media = append(media, mediaFrom(m))
		}
	}

	tweet := &entities.Tweet{
		ID:             id,
		URL:            raw.URL,
		Text:           raw.Text,
		AuthorID:       authorID,
		ConversationID: conversationID,
		CreatedAt:      createdAt,
		Mentions:       mentions,
		URLs:           urls,
		Media:          media,
	}

	author := &entities.Author{
		ID:             authorID,
		Username:       raw.Author.UserName,
		DisplayName:    raw.Author.Name,
		AvatarURL:      raw.Author.ProfilePicture,
		FollowerCount:  raw.Author.Followers,
		FollowingCount: raw.Author.Following,
		Bio: entities.Bio{
			Description: raw.Author.ProfileBio.Description,
			Mentions:    mentionsFrom(raw.Author.ProfileBio.Entities.Description.UserMentions),
			URLs:        urlsFrom(raw.Author.ProfileBio.Entities.URL.URLs),
		},
	}

	return tweet, author, nil
}

func mentionsFrom(raw []twitterapi.UserMention) []entities.Mention {
	out := make([]entities.Mention, 0, len(raw))
	for _, m := range raw {
		out = append(out, entities.Mention{
			Username:   m.ScreenName,
			StartIndex: m.Indices[0],
			EndIndex:   m.Indices[1],
		})
	}
	return out
}

func urlsFrom(raw []twitterapi.URLEntity) []entities.URL {
	out := make([]entities.URL, 0, len(raw))
	for _, u := range raw {
		out = append(out, entities.URL{
			DisplayURL:  u.DisplayURL,
			ExpandedURL: u.ExpandedURL,
			StartIndex:  u.Indices[0],
			EndIndex:    u.Indices[1],
		})
	}
	return out
}

func mediaFrom(raw twitterapi.MediaEntity) entities.Media {
	m := entities.Media{
		URL:        raw.MediaURLHTTPS,
		Kind:       raw.Type,
		StartIndex: raw.Indices[0],
		EndIndex:   raw.Indices[1],
	}
	if raw.Sizes.Large != nil {
		w, h := raw.Sizes.Large.W, raw.Sizes.Large.H
		m.Width = &w
		m.Height = &h
	}
	return m
}

// Message converts a raw Telegram message into an archived message for
// the given channel. ThreadID is left empty; the thread resolver
// assigns it before the batch is written. A message with no links
// keeps a nil URL slice: the stored column is JSON null rather than an
// empty array, a storage-format quirk kept for compatibility with
// existing rows.
func Message(raw *tg.Message, channel *entities.Channel) *entities.Message {
	msg := &entities.Message{
		ID:        entities.MessageKey(channel.ID, int64(raw.ID)),
		MessageID: int64(raw.ID),
		Text:      raw.Message,
		URL:       fmt.Sprintf("https://t.me/%s/%d", channel.ChannelUsername, raw.ID),
		ChannelID: channel.ID,
		CreatedAt: time.Unix(int64(raw.Date), 0).UTC(),
		URLs:      messageURLs(raw),
		HasMedia:  hasPhoto(raw),
	}

	if header, ok := raw.GetReplyTo(); ok {
		if h, ok := header.(*tg.MessageReplyHeader); ok {
			if replyTo, ok := h.GetReplyToMsgID(); ok {
				id := int64(replyTo)
				msg.ReplyToMessageID = &id
			}
		}
	}

	return msg
}

// messageURLs extracts link spans from the message entity list. Plain
// URL entities take their target from the body text itself; text-url
// entities carry the target explicitly.
func messageURLs(raw *tg.Message) []entities.URL {
	var urls []entities.URL
	text := []rune(raw.Message)

	for _, entity := range raw.Entities {
		switch e := entity.(type) {
		case *tg.MessageEntityURL:
			target := sliceText(text, e.Offset, e.Offset+e.Length)
			urls = append(urls, entities.URL{
				DisplayURL:  target,
				ExpandedURL: target,
				StartIndex:  e.Offset,
				EndIndex:    e.Offset + e.Length,
			})
		case *tg.MessageEntityTextURL:
			urls = append(urls, entities.URL{
				DisplayURL:  e.URL,
				ExpandedURL: e.URL,
				StartIndex:  e.Offset,
				EndIndex:    e.Offset + e.Length,
			})
		}
	}

	return urls
}

// sliceText slices by codepoint offsets, clamped to the text bounds
func sliceText(text []rune, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if start >= end {
		return ""
	}
	return string(text[start:end])
}

// hasPhoto reports whether the message carries a photo attachment.
// Media content itself is not ingested, only flagged.
func hasPhoto(raw *tg.Message) bool {
	if raw.Media == nil {
		return false
	}
	_, ok := raw.Media.(*tg.MessageMediaPhoto)
	return ok
}
