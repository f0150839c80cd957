package models

import "time"

// SourceType identifies which platform shape produced an event.
type SourceType string

const (
	SourceForumThread SourceType = "forum_thread"
	SourceChatBurst   SourceType = "chat_burst"
	SourcePostSurge   SourceType = "post_surge"
)

// Post is a forum/board submission with vote and comment counters (reddit listing shape).
type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	SelfText    string    `json:"selftext"`
	Author      string    `json:"author,omitempty"`
	Community   string    `json:"community,omitempty"`
	Score       int       `json:"score"`
	NumComments int       `json:"num_comments"`
	CreatedAt   time.Time `json:"created_at"` // zero when the platform did not report it
	URL         string    `json:"url,omitempty"`
}

// ChatMessage is one message of a symbol/channel stream (stocktwits shape).
type ChatMessage struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	User      string    `json:"user,omitempty"`
	Channel   string    `json:"channel"` // symbol or room the message was posted to
	Likes     int       `json:"likes,omitempty"`
	Sentiment string    `json:"sentiment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Thread is a board thread with a reply counter (4chan catalog, bitcointalk topic).
type Thread struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Comment   string    `json:"comment"`
	Replies   int       `json:"replies"`
	CreatedAt time.Time `json:"created_at"`
	URL       string    `json:"url,omitempty"`
}

// RawContent keeps the platform payload an event was built from.
// Exactly one variant is set, matching the event's SourceType.
type RawContent struct {
	Post     *Post         `json:"post,omitempty"`
	Messages []ChatMessage `json:"messages,omitempty"`
	Thread   *Thread       `json:"thread,omitempty"`
}

// MomentumEvent is one observed unit of social activity with its engagement-rate score.
type MomentumEvent struct {
	ID            string     `json:"id"`
	SourceType    SourceType `json:"source_type"`
	Platform      string     `json:"platform"`
	Source        string     `json:"source,omitempty"`
	Raw           RawContent `json:"raw_content"`
	Text          string     `json:"text"`
	MomentumScore float64    `json:"momentum_score"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Preview returns at most n runes of the event text.
func (e MomentumEvent) Preview(n int) string {
	r := []rune(e.Text)
	if len(r) <= n {
		return e.Text
	}
	return string(r[:n])
}

// TaggedEvent is an event annotated with its theme tags.
type TaggedEvent struct {
	Event MomentumEvent
	Tags  []ThemeTag
}
