package repositories

import (
	"context"

	"project-tracker/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	FindAllByProject(ctx context.Context, projectID uuid.UUID) ([]models.Task, error)
	UpdateTitle(ctx context.Context, id uuid.UUID, title string) error
	Toggle(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type TaskRepositoryImpl struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepositoryImpl {
	return &TaskRepositoryImpl{db: db}
}

// Create inserts the task and bumps its project's updated_at in one transaction.
func (r *TaskRepositoryImpl) Create(ctx context.Context, task *models.Task) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(task).Error; err != nil {
			return err
		}
		return touchProject(tx, task.ProjectID)
	})
	return classify(err)
}

// projectOf returns the project that owns the task.
func projectOf(tx *gorm.DB, taskID uuid.UUID) (uuid.UUID, error) {
	var task models.Task
	if err := tx.Select("id", "project_id").First(&task, "id = ?", taskID).Error; err != nil {
		return uuid.Nil, err
	}
	return task.ProjectID, nil
}

func (r *TaskRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		return nil, classify(err)
	}
	return &task, nil
}

func (r *TaskRepositoryImpl) FindAllByProject(ctx context.Context, projectID uuid.UUID) ([]models.Task, error) {
	tasks := []models.Task{}
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, classify(err)
	}
	return tasks, nil
}

func (r *TaskRepositoryImpl) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		projectID, err := projectOf(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Task{}).Where("id = ?", id).Update("title", title).Error; err != nil {
			return err
		}
		return touchProject(tx, projectID)
	})
	return classify(err)
}

// Toggle flips is_done with a single UPDATE and returns the stored value.
func (r *TaskRepositoryImpl) Toggle(ctx context.Context, id uuid.UUID) (bool, error) {
	var isDone bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		projectID, err := projectOf(tx, id)
		if err != nil {
			return err
		}

		result := tx.Model(&models.Task{}).Where("id = ?", id).Update("is_done", gorm.Expr("NOT is_done"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		var task models.Task
		if err := tx.Select("is_done").First(&task, "id = ?", id).Error; err != nil {
			return err
		}
		isDone = task.IsDone
		return touchProject(tx, projectID)
	})
	if err != nil {
		return false, classify(err)
	}
	return isDone, nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		projectID, err := projectOf(tx, id)
		if err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Task{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return touchProject(tx, projectID)
	})
	return classify(err)
}
