package analytics

import "github.com/google/uuid"

// Bucket granularities accepted by the aggregator.
const (
	BucketDay   = "day"
	BucketMonth = "month"
	BucketYear  = "year"
)

// CountFilter narrows aggregation queries.
type CountFilter struct {
	StateID *uuid.UUID
	Bucket  string
}

// PlatformCountDTO is the number of distinct users currently connected on
// one platform.
type PlatformCountDTO struct {
	Platform string `json:"platform"`
	Users    int64  `json:"users"`
}

// BucketCountDTO is one time-bucketed count row.
type BucketCountDTO struct {
	Bucket string `json:"bucket"`
	Count  int64  `json:"count"`
}

// OnlineCountsDTO combines live per-platform presence with bucketed session
// totals. The two halves come from separate reads.
type OnlineCountsDTO struct {
	Platforms []PlatformCountDTO `json:"platforms"`
	Sessions  []BucketCountDTO   `json:"sessions"`
	Bucket    string             `json:"bucket"`
}

// AccountCountsDTO reports registrations grouped by creation-date bucket.
type AccountCountsDTO struct {
	Registrations []BucketCountDTO `json:"registrations"`
	Bucket        string           `json:"bucket"`
}
