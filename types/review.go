package types

import "time"

// Review is a user-submitted rating for a café. Reviews are append-only:
// the system never updates or deletes them once stored.
type Review struct {
	// CafeID references the reviewed café by catalog identifier. The
	// reference is not enforced; a café deletion can leave reviews
	// pointing at a reassigned or vacated identifier.
	CafeID string `json:"cafe_id"`

	// User is the username of the review's author.
	User string `json:"user"`

	// Rating is an integer score between 1 and 5 inclusive.
	Rating int `json:"rating"`

	// Text is the review body. Always non-empty after trimming;
	// validation rejects blank submissions before storage.
	Text string `json:"text"`

	// CreatedAt is the submission timestamp.
	CreatedAt time.Time `json:"created_at"`
}
