package repositories

import "gorm.io/gorm"

type Repositories struct {
	Users    UserRepository
	Projects ProjectRepository
	Tasks    TaskRepository
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:    NewUserRepository(db),
		Projects: NewProjectRepository(db),
		Tasks:    NewTaskRepository(db),
	}
}
