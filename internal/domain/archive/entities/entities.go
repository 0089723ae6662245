package entities

import (
	"fmt"
	"time"
)

// Mention is a positional user mention inside a body text. Indices are
// codepoint offsets, half-open, copied verbatim from the provider.
type Mention struct {
	Username   string `json:"username"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
}

// URL is a positional link inside a body text
type URL struct {
	DisplayURL  string `json:"display_url"`
	ExpandedURL string `json:"expanded_url"`
	StartIndex  int    `json:"start_index"`
	EndIndex    int    `json:"end_index"`
}

// Media is a positional media attachment. Width/Height come from the
// provider's "large" size variant and are nil when not offered.
type Media struct {
	URL        string `json:"url"`
	Kind       string `json:"kind"`
	Width      *int   `json:"width"`
	Height     *int   `json:"height"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
}

// Media kinds as reported by the tweet provider
const (
	MediaKindPhoto       = "photo"
	MediaKindVideo       = "video"
	MediaKindAnimatedGif = "animated_gif"
)

// Bio is an author profile description with its own positional entities
type Bio struct {
	Description string    `json:"description"`
	Mentions    []Mention `json:"mentions"`
	URLs        []URL     `json:"urls"`
}

// Author is a tweet author profile. Identity comes from the source
// platform; mutable fields are overwritten on every sighting.
type Author struct {
	ID             int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Username       string `gorm:"not null;index" json:"username"`
	DisplayName    string `gorm:"not null" json:"display_name"`
	AvatarURL      string `json:"avatar_url"`
	FollowerCount  int    `json:"follower_count"`
	FollowingCount int    `json:"following_count"`
	Bio            Bio    `gorm:"type:jsonb;serializer:json" json:"bio"`
}

// TableName returns the table name for Author
func (Author) TableName() string {
	return "authors"
}

// Tweet is an archived tweet. Immutable once written; duplicate
// fetches are absorbed by conflict-tolerant inserts.
type Tweet struct {
	ID             int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	URL            string    `gorm:"not null" json:"url"`
	Text           string    `gorm:"type:text;not null" json:"text"`
	AuthorID       int64     `gorm:"not null;index" json:"author_id"`
	ConversationID *int64    `gorm:"index" json:"conversation_id"`
	CreatedAt      time.Time `gorm:"not null;index" json:"created_at"`
	Mentions       []Mention `gorm:"type:jsonb;serializer:json" json:"mentions"`
	URLs           []URL     `gorm:"type:jsonb;serializer:json" json:"urls"`
	Media          []Media   `gorm:"type:jsonb;serializer:json" json:"media"`

	Author *Author `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

// TableName returns the table name for Tweet
func (Tweet) TableName() string {
	return "tweets"
}

// Channel is a Telegram channel. Like Author, identity fields come
// from the platform and mutable fields are refreshed on every sync.
type Channel struct {
	ID              int64    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Title           string   `gorm:"not null" json:"title"`
	About           string   `gorm:"type:text" json:"about"`
	ChannelUsername string   `gorm:"not null;index" json:"channel_username"`
	AdminUsernames  []string `gorm:"type:jsonb;serializer:json" json:"admin_usernames"`
}

// TableName returns the table name for Channel
func (Channel) TableName() string {
	return "channels"
}

// Message is an archived Telegram channel message. The primary key is
// the composite "<channel_id>-<message_id>" because message IDs are
// only unique within a channel. ThreadID is computed at ingestion time
// and never recomputed once persisted.
type Message struct {
	ID               string    `gorm:"primaryKey" json:"id"`
	MessageID        int64     `gorm:"not null;index:idx_channel_message,unique" json:"message_id"`
	Text             string    `gorm:"type:text;not null" json:"text"`
	URL              string    `gorm:"not null" json:"url"`
	ChannelID        int64     `gorm:"not null;index:idx_channel_message,unique" json:"channel_id"`
	ReplyToMessageID *int64    `json:"reply_to_message_id"`
	ThreadID         string    `gorm:"index" json:"thread_id"`
	HasMedia         bool      `json:"has_media"`
	CreatedAt        time.Time `gorm:"not null;index" json:"created_at"`
	// URLs stays nil when the message carries no links; the column is
	// stored as JSON null rather than an empty array
	URLs []URL `gorm:"type:jsonb;serializer:json" json:"urls"`

	Channel *Channel `gorm:"foreignKey:ChannelID" json:"channel,omitempty"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}

// MessageKey builds the composite message primary key
func MessageKey(channelID, messageID int64) string {
	return fmt.Sprintf("%d-%d", channelID, messageID)
}
