package models

import "time"

// Exchange is one persisted question/answer pair within a topic. Rows are
// immutable once written; the bigserial ID provides the monotonic insertion
// order used to reconstruct conversation context.
type Exchange struct {
	ID        int64
	UserUUID  string
	TopicID   string
	Question  string
	Answer    string
	CreatedAt time.Time
}

// TopicSummary is one entry of a user's topic listing: the topic identifier
// plus the first question asked in it, which clients use as the title.
type TopicSummary struct {
	TopicID       string
	FirstQuestion string
}
