package twitterapi

import "time"

// SearchPage is one page of the advanced search endpoint
type SearchPage struct {
	Tweets      []Tweet `json:"tweets"`
	HasNextPage bool    `json:"has_next_page"`
	NextCursor  string  `json:"next_cursor"`
}

// Tweet is a raw tweet as returned by the provider
type Tweet struct {
	ID               string            `json:"id"`
	URL              string            `json:"url"`
	Text             string            `json:"text"`
	CreatedAt        string            `json:"createdAt"`
	ConversationID   string            `json:"conversationId"`
	Author           Author            `json:"author"`
	Entities         *Entities         `json:"entities"`
	ExtendedEntities *ExtendedEntities `json:"extendedEntities"`
}

// Author is a raw tweet author profile
type Author struct {
	ID             string     `json:"id"`
	UserName       string     `json:"userName"`
	Name           string     `json:"name"`
	ProfilePicture string     `json:"profilePicture"`
	Followers      int        `json:"followers"`
	Following      int        `json:"following"`
	ProfileBio     ProfileBio `json:"profile_bio"`
}

// ProfileBio carries the author description plus its entity spans
type ProfileBio struct {
	Description string      `json:"description"`
	Entities    BioEntities `json:"entities"`
}

// BioEntities mirrors the provider's nested bio entity layout
type BioEntities struct {
	Description BioDescriptionEntities `json:"description"`
	URL         BioURLEntities         `json:"url"`
}

// BioDescriptionEntities holds mentions inside the bio description
type BioDescriptionEntities struct {
	UserMentions []UserMention `json:"user_mentions"`
}

// BioURLEntities holds links inside the bio
type BioURLEntities struct {
	URLs []URLEntity `json:"urls"`
}

// Entities holds a tweet's mention and link spans
type Entities struct {
	UserMentions []UserMention `json:"user_mentions"`
	URLs         []URLEntity   `json:"urls"`
}

// ExtendedEntities holds a tweet's media attachments
type ExtendedEntities struct {
	Media []MediaEntity `json:"media"`
}

// UserMention is an offset-indexed mention span
type UserMention struct {
	ScreenName string `json:"screen_name"`
	Indices    [2]int `json:"indices"`
}

// URLEntity is an offset-indexed link span
type URLEntity struct {
	DisplayURL  string `json:"display_url"`
	ExpandedURL string `json:"expanded_url"`
	Indices     [2]int `json:"indices"`
}

// MediaEntity is an offset-indexed media attachment
type MediaEntity struct {
	MediaURLHTTPS string     `json:"media_url_https"`
	Type          string     `json:"type"`
	Sizes         MediaSizes `json:"sizes"`
	Indices       [2]int     `json:"indices"`
}

// MediaSizes carries the provider's size variants; only "large" is used
type MediaSizes struct {
	Large *MediaSize `json:"large"`
}

// MediaSize is a single media resolution
type MediaSize struct {
	W int `json:"w"`
	H int `json:"h"`
}

// ParseCreatedAt parses the provider's timestamp format. The endpoint
// reports ruby-style dates; RFC3339 is accepted as a fallback.
func ParseCreatedAt(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RubyDate, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
