package models

import (
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type Task struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	ProjectID uuid.UUID `json:"project_id" gorm:"type:uuid;not null;index"`
	Title     string    `json:"title" gorm:"not null"`
	IsDone    bool      `json:"is_done" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		t.ID = id
	}
	return nil
}
