package models

import "time"

// SourceBatch is the raw output of one fetch from one platform source.
// Only the slice matching Shape is read.
type SourceBatch struct {
	Source   string        `json:"source"`
	Platform string        `json:"platform"`
	Shape    SourceType    `json:"shape"`
	Posts    []Post        `json:"posts,omitempty"`
	Messages []ChatMessage `json:"messages,omitempty"`
	Threads  []Thread      `json:"threads,omitempty"`
}

// Len returns the number of raw records in the batch.
func (b SourceBatch) Len() int {
	switch b.Shape {
	case SourcePostSurge:
		return len(b.Posts)
	case SourceChatBurst:
		return len(b.Messages)
	case SourceForumThread:
		return len(b.Threads)
	}
	return 0
}

type SourceStatus string

const (
	SourceOK          SourceStatus = "ok"
	SourceUnavailable SourceStatus = "unavailable"
)

// SourceResult is the outcome of one source fetch: either a batch or the reason it is missing.
type SourceResult struct {
	Source   string        `json:"source"`
	Platform string        `json:"platform"`
	Status   SourceStatus  `json:"status"`
	Batch    *SourceBatch  `json:"-"`
	Reason   string        `json:"reason,omitempty"`
	Records  int           `json:"records"`
	Duration time.Duration `json:"duration_ns"`
}

// Success wraps a fetched batch.
func Success(batch *SourceBatch, took time.Duration) SourceResult {
	return SourceResult{
		Source:   batch.Source,
		Platform: batch.Platform,
		Status:   SourceOK,
		Batch:    batch,
		Records:  batch.Len(),
		Duration: took,
	}
}

// Unavailable records a source that contributed nothing to the scan.
func Unavailable(source, platform, reason string, took time.Duration) SourceResult {
	return SourceResult{
		Source:   source,
		Platform: platform,
		Status:   SourceUnavailable,
		Reason:   reason,
		Duration: took,
	}
}

// OK reports whether the result carries data.
func (r SourceResult) OK() bool { return r.Status == SourceOK && r.Batch != nil }
