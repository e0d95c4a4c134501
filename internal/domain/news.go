package domain

import "time"

type NewsStatus string

const (
	NewsPublished NewsStatus = "published"
	NewsDraft     NewsStatus = "draft"
)

type NewsArticle struct {
	ID               NewsID
	Title            string
	Content          string
	Author           string
	Status           NewsStatus
	PublishedDate    *time.Time
	ScheduledDate    *time.Time
	FeaturedImageURL *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// VisibleAt reports whether the article is publicly readable at now.
func (n NewsArticle) VisibleAt(now time.Time) bool {
	if n.Status != NewsPublished {
		return false
	}
	return n.ScheduledDate == nil || !n.ScheduledDate.After(now)
}
