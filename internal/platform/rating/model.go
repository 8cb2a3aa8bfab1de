package rating

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Score bounds
const (
	MinScore = 1
	MaxScore = 5
)

// MaxReviewLength caps the free-text review in characters
const MaxReviewLength = 1000

// Rating is a user's score for the handyman of one paid booking.
// There is at most one rating per booking; resubmitting replaces it.
type Rating struct {
	BookingID  uuid.UUID
	HandymanID uuid.UUID
	UserID     uuid.UUID
	UserName   string
	Score      int
	Review     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Summary is the running aggregate kept on the handyman account
type Summary struct {
	HandymanID uuid.UUID
	Total      int
	Sum        int
	Average    decimal.Decimal
}

// Apply returns the summary after a rating changes from previous to score.
// previous is zero for a first rating, which adds to the count; a
// resubmission swaps the old score inside the sum and keeps the count.
func (s Summary) Apply(previous, score int) Summary {
	out := s
	if previous == 0 {
		out.Total++
		out.Sum += score
	} else {
		out.Sum += score - previous
	}
	out.Average = average(out.Sum, out.Total)
	return out
}

func average(sum, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(sum)).DivRound(decimal.NewFromInt(int64(total)), 2)
}

// SubmitParams holds the input for Submit
type SubmitParams struct {
	BookingID uuid.UUID
	UserID    uuid.UUID
	UserName  string
	Score     int
	Review    string
}

// Validate checks the score and review
func (p SubmitParams) Validate() error {
	if p.Score < MinScore || p.Score > MaxScore {
		return ErrInvalidScore
	}
	if len([]rune(p.Review)) > MaxReviewLength {
		return ErrReviewTooLong
	}
	return nil
}

func (p SubmitParams) userName() string {
	if name := strings.TrimSpace(p.UserName); name != "" {
		return name
	}
	return "Anonymous"
}

// SubmitResult is the stored rating and the handyman aggregate after it
type SubmitResult struct {
	Rating  *Rating
	Summary *Summary
	Updated bool
}
