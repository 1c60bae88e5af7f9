package repositories

import (
	"context"
	"time"

	"project-tracker/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// Columns a project update may touch.
var projectUpdateColumns = map[string]bool{
	"title":       true,
	"due_date":    true,
	"description": true,
}

type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	FindAllByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error)
	FindOwnerID(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	FindStamp(ctx context.Context, id uuid.UUID) (ProjectStamp, error)
	FindStampsByOwner(ctx context.Context, ownerID uuid.UUID) ([]ProjectStamp, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProjectStamp marks one stored revision of a project. UpdatedAt moves on
// every project or task write.
type ProjectStamp struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	UpdatedAt time.Time
}

func stampOf(project models.Project) ProjectStamp {
	return ProjectStamp{ID: project.ID, UserID: project.UserID, UpdatedAt: project.UpdatedAt}
}

// touchProject bumps updated_at so cached copies of the project go stale.
func touchProject(tx *gorm.DB, projectID uuid.UUID) error {
	return tx.Model(&models.Project{}).
		Where("id = ?", projectID).
		UpdateColumn("updated_at", time.Now()).Error
}

type ProjectRepositoryImpl struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepositoryImpl {
	return &ProjectRepositoryImpl{db: db}
}

// Create inserts the project and its Tasks in one transaction.
func (r *ProjectRepositoryImpl) Create(ctx context.Context, project *models.Project) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tasks := project.Tasks
		if err := tx.Omit("Tasks").Create(project).Error; err != nil {
			return err
		}

		for i := range tasks {
			tasks[i].ProjectID = project.ID
		}
		if len(tasks) > 0 {
			if err := tx.Create(&tasks).Error; err != nil {
				return err
			}
		}
		project.Tasks = tasks
		return nil
	})
	return classify(err)
}

func (r *ProjectRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&project, "id = ?", id).Error
	if err != nil {
		return nil, classify(err)
	}
	return &project, nil
}

// FindAllByOwner returns the owner's projects ordered by due date, then creation time.
func (r *ProjectRepositoryImpl) FindAllByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Project, error) {
	projects := []models.Project{}
	err := r.db.WithContext(ctx).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("user_id = ?", ownerID).
		Order("due_date ASC").
		Order("created_at ASC").
		Find(&projects).Error
	if err != nil {
		return nil, classify(err)
	}
	return projects, nil
}

func (r *ProjectRepositoryImpl) FindOwnerID(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var project models.Project
	err := r.db.WithContext(ctx).Select("id", "user_id").First(&project, "id = ?", id).Error
	if err != nil {
		return uuid.Nil, classify(err)
	}
	return project.UserID, nil
}

func (r *ProjectRepositoryImpl) FindStamp(ctx context.Context, id uuid.UUID) (ProjectStamp, error) {
	var project models.Project
	err := r.db.WithContext(ctx).Select("id", "user_id", "updated_at").First(&project, "id = ?", id).Error
	if err != nil {
		return ProjectStamp{}, classify(err)
	}
	return stampOf(project), nil
}

func (r *ProjectRepositoryImpl) FindStampsByOwner(ctx context.Context, ownerID uuid.UUID) ([]ProjectStamp, error) {
	var projects []models.Project
	err := r.db.WithContext(ctx).
		Select("id", "user_id", "updated_at").
		Where("user_id = ?", ownerID).
		Find(&projects).Error
	if err != nil {
		return nil, classify(err)
	}

	stamps := make([]ProjectStamp, len(projects))
	for i, project := range projects {
		stamps[i] = stampOf(project)
	}
	return stamps, nil
}

func (r *ProjectRepositoryImpl) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	updates := make(map[string]interface{}, len(fields))
	for column, value := range fields {
		if projectUpdateColumns[column] {
			updates[column] = value
		}
	}

	db := r.db.WithContext(ctx)
	if len(updates) == 0 {
		var count int64
		if err := db.Model(&models.Project{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return classify(err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return nil
	}

	updates["updated_at"] = time.Now()
	result := db.Model(&models.Project{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the project's tasks and then the project in one transaction.
func (r *ProjectRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Project{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	return classify(err)
}
