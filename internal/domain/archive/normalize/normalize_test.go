package normalize

import (
	"testing"
	"time"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xpolarzero/nightwatch/internal/domain/archive/entities"
	"github.com/0xpolarzero/nightwatch/internal/infrastructure/twitterapi"
)

func TestTweet_ConvertsFieldsAndEntities(t *testing.T) {
	raw := twitterapi.Tweet{
		ID:             "1234567890",
		URL:            "https://x.com/zachxbt/status/1234567890",
		Text:           "hello @alice see http://x",
		CreatedAt:      "Mon Jan 02 15:04:05 -0700 2006",
		ConversationID: "1234567000",
		Author: twitterapi.Author{
			ID:             "42",
			UserName:       "zachxbt",
			Name:           "ZachXBT",
			ProfilePicture: "https://pbs.twimg.com/profile.jpg",
			Followers:      100,
			Following:      50,
		},
		Entities: &twitterapi.Entities{
			UserMentions: []twitterapi.UserMention{
				{ScreenName: "alice", Indices: [2]int{6, 12}},
			},
			URLs: []twitterapi.URLEntity{
				{DisplayURL: "x", ExpandedURL: "http://x", Indices: [2]int{17, 25}},
			},
		},
	}

	tweet, author, err := Tweet(raw)
	require.NoError(t, err)

	assert.Equal(t, int64(1234567890), tweet.ID)
	assert.Equal(t, "hello @alice see http://x", tweet.Text)
	require.NotNil(t, tweet.ConversationID)
	assert.Equal(t, int64(1234567000), *tweet.ConversationID)
	assert.Equal(t, time.Date(2006, 1, 2, 22, 4, 5, 0, time.UTC), tweet.CreatedAt)

	// offsets survive the round trip untouched
	require.Len(t, tweet.Mentions, 1)
	assert.Equal(t, entities.Mention{Username: "alice", StartIndex: 6, EndIndex: 12}, tweet.Mentions[0])
	require.Len(t, tweet.URLs, 1)
	assert.Equal(t, 17, tweet.URLs[0].StartIndex)
	assert.Equal(t, 25, tweet.URLs[0].EndIndex)

	assert.Equal(t, int64(42), author.ID)
	assert.Equal(t, "zachxbt", author.Username)
	assert.Equal(t, tweet.AuthorID, author.ID)
}

func TestTweet_AbsentEntityArraysBecomeEmptySlices(t *testing.T) {
	raw := twitterapi.Tweet{
		ID:        "1",
		Text:      "plain",
		CreatedAt: "2024-05-01T10:00:00Z",
		Author:    twitterapi.Author{ID: "2", UserName: "u"},
	}

	tweet, _, err := Tweet(raw)
	require.NoError(t, err)

	assert.NotNil(t, tweet.Mentions)
	assert.Empty(t, tweet.Mentions)
	assert.NotNil(t, tweet.URLs)
	assert.NotNil(t, tweet.Media)
	assert.Nil(t, tweet.ConversationID)
}

func TestTweet_MediaSizeFromLargeVariant(t *testing.T) {
	raw := twitterapi.Tweet{
		ID:        "1",
		Text:      "pic",
		CreatedAt: "2024-05-01T10:00:00Z",
		Author:    twitterapi.Author{ID: "2", UserName: "u"},
		ExtendedEntities: &twitterapi.ExtendedEntities{
			Media: []twitterapi.MediaEntity{
				{
					MediaURLHTTPS: "https://pbs.twimg.com/media/a.jpg",
					Type:          entities.MediaKindPhoto,
					Sizes:         twitterapi.MediaSizes{Large: &twitterapi.MediaSize{W: 1200, H: 800}},
					Indices:       [2]int{4, 27},
				},
			},
		},
	}

	tweet, _, err := Tweet(raw)
	require.NoError(t, err)

	require.Len(t, tweet.Media, 1)
	m := tweet.Media[0]
	assert.Equal(t, entities.MediaKindPhoto, m.Kind)
	require.NotNil(t, m.Width)
	assert.Equal(t, 1200, *m.Width)
	require.NotNil(t, m.Height)
	assert.Equal(t, 800, *m.Height)
}

func TestTweet_RejectsMalformedIDs(t *testing.T) {
	raw := twitterapi.Tweet{
		ID:        "not-a-number",
		CreatedAt: "2024-05-01T10:00:00Z",
		Author:    twitterapi.Author{ID: "2"},
	}

	_, _, err := Tweet(raw)
	assert.Error(t, err)
}

func TestMessage_BuildsCompositeKeyAndURL(t *testing.T) {
	channel := &entities.Channel{ID: 777, ChannelUsername: "investigations"}
	raw := &tg.Message{ID: 42, Message: "breaking", Date: 1714557600}

	msg := Message(raw, channel)

	assert.Equal(t, "777-42", msg.ID)
	assert.Equal(t, int64(42), msg.MessageID)
	assert.Equal(t, int64(777), msg.ChannelID)
	assert.Equal(t, "https://t.me/investigations/42", msg.URL)
	assert.Equal(t, time.Unix(1714557600, 0).UTC(), msg.CreatedAt)
	assert.Nil(t, msg.ReplyToMessageID)
	// no links means a nil slice, stored as JSON null
	assert.Nil(t, msg.URLs)
	assert.Empty(t, msg.ThreadID)
}

func TestMessage_ExtractsURLEntitiesByRuneOffsets(t *testing.T) {
	channel := &entities.Channel{ID: 777, ChannelUsername: "investigations"}
	// cyrillic text forces rune-offset slicing, byte offsets would tear it
	text := "смотри http://x и wallet"
	raw := &tg.Message{
		ID:      7,
		Message: text,
		Entities: []tg.MessageEntityClass{
			&tg.MessageEntityURL{Offset: 7, Length: 8},
			&tg.MessageEntityTextURL{Offset: 18, Length: 6, URL: "https://etherscan.io/address/0xabc"},
		},
	}

	msg := Message(raw, channel)

	require.Len(t, msg.URLs, 2)
	assert.Equal(t, "http://x", msg.URLs[0].ExpandedURL)
	assert.Equal(t, 7, msg.URLs[0].StartIndex)
	assert.Equal(t, 15, msg.URLs[0].EndIndex)
	assert.Equal(t, "https://etherscan.io/address/0xabc", msg.URLs[1].ExpandedURL)
	assert.Equal(t, 18, msg.URLs[1].StartIndex)
}

func TestMessage_CarriesReplyHeaderAndPhotoFlag(t *testing.T) {
	channel := &entities.Channel{ID: 777, ChannelUsername: "investigations"}
	raw := &tg.Message{
		ID:      8,
		Message: "re",
		Media:   &tg.MessageMediaPhoto{},
	}
	header := &tg.MessageReplyHeader{}
	header.SetReplyToMsgID(3)
	raw.SetReplyTo(header)

	msg := Message(raw, channel)

	require.NotNil(t, msg.ReplyToMessageID)
	assert.Equal(t, int64(3), *msg.ReplyToMessageID)
	assert.True(t, msg.HasMedia)
}

func TestMessage_ClampsOutOfRangeOffsets(t *testing.T) {
	channel := &entities.Channel{ID: 777, ChannelUsername: "investigations"}
	raw := &tg.Message{
		ID:      9,
		Message: "short",
		Entities: []tg.MessageEntityClass{
			&tg.MessageEntityURL{Offset: 3, Length: 50},
		},
	}

	msg := Message(raw, channel)

	require.Len(t, msg.URLs, 1)
	assert.Equal(t, "rt", msg.URLs[0].ExpandedURL)
}
