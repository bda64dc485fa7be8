package users

import "time"

type ActivityAction string

const (
	ActionView            ActivityAction = "view"
	ActionFavorite        ActivityAction = "favorite"
	ActionUnfavorite      ActivityAction = "unfavorite"
	ActionSearch          ActivityAction = "search"
	ActionWatchlistAdd    ActivityAction = "watchlist_add"
	ActionWatchlistRemove ActivityAction = "watchlist_remove"
)

// Activity is an append-only audit entry. Writes are best effort.
type Activity struct {
	ID        uint           `gorm:"primaryKey"`
	UserID    string         `gorm:"type:varchar(36);not null;index:idx_user_activities_user"`
	Action    ActivityAction `gorm:"type:varchar(32);not null"`
	MovieID   string         `gorm:"type:varchar(32)"`
	CreatedAt time.Time      `gorm:"index"`
}

func (Activity) TableName() string {
	return "user_activities"
}
