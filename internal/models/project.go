package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// DateLayout is the wire and form format of calendar dates.
const DateLayout = "2006-01-02"

type Project struct {
	ID          uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Title       string    `json:"title" gorm:"not null"`
	DueDate     time.Time `json:"due_date" gorm:"type:date;not null"`
	Description string    `json:"description" gorm:"type:text;not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Tasks []Task `json:"tasks,omitempty" gorm:"foreignKey:ProjectID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		p.ID = id
	}
	return nil
}

// DueDateString renders the due date as a calendar date.
func (p Project) DueDateString() string {
	if p.DueDate.IsZero() {
		return ""
	}
	return p.DueDate.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD calendar date at UTC midnight.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.UTC)
}
