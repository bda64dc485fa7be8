package users

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string  `gorm:"primaryKey;type:varchar(36)"`
	Email        string  `gorm:"not null;uniqueIndex:idx_users_email"`
	PasswordHash string  `gorm:"column:password_hash;not null;default:''"`
	Name         string  `gorm:"not null"`
	GoogleSub    *string `gorm:"uniqueIndex:idx_users_google_sub"`

	Favorites MovieIDs `gorm:"type:text;not null"`

	StripeCustomerID   *string `gorm:"column:stripe_customer_id;index:idx_users_stripe_customer_id"`
	SubscriptionStatus Status  `gorm:"column:subscription_status;type:varchar(32);not null;default:'free'"`
	SubscriptionPlan   Plan    `gorm:"column:subscription_plan;type:varchar(16);not null;default:'basic'"`

	IsActive    bool       `gorm:"not null;default:true"`
	LastLoginAt *time.Time `gorm:"column:last_login_at"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate assigns the public id and the registration defaults.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.SubscriptionStatus == "" {
		u.SubscriptionStatus = StatusFree
	}
	if u.SubscriptionPlan == "" {
		u.SubscriptionPlan = PlanBasic
	}
	if u.Favorites == nil {
		u.Favorites = MovieIDs{}
	}
	return nil
}

// View is the client-facing representation. It never carries the password hash,
// the Google subject or the active flag.
type View struct {
	ID                 string     `json:"id"`
	Email              string     `json:"email"`
	Name               string     `json:"name"`
	Favorites          []string   `json:"favorites"`
	StripeCustomerID   *string    `json:"stripeCustomerId,omitempty"`
	SubscriptionStatus Status     `json:"subscriptionStatus"`
	SubscriptionPlan   Plan       `json:"subscriptionPlan"`
	CreatedAt          time.Time  `json:"createdAt"`
	LastLogin          *time.Time `json:"lastLogin,omitempty"`
}

func (u *User) View() View {
	favs := make([]string, len(u.Favorites))
	copy(favs, u.Favorites)
	return View{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		Favorites:          favs,
		StripeCustomerID:   u.StripeCustomerID,
		SubscriptionStatus: u.SubscriptionStatus,
		SubscriptionPlan:   u.SubscriptionPlan,
		CreatedAt:          u.CreatedAt,
		LastLogin:          u.LastLoginAt,
	}
}

// MovieIDs is an ordered list of catalog ids stored as a JSON array so the same
// column works on postgres and sqlite. Duplicates are kept as given.
type MovieIDs []string

func (m MovieIDs) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(m))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *MovieIDs) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = MovieIDs{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("users: cannot scan %T into MovieIDs", src)
	}
	if len(raw) == 0 {
		*m = MovieIDs{}
		return nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return fmt.Errorf("users: decoding favorites: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	*m = ids
	return nil
}
