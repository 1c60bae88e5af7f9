package services

import (
	"testing"

	"project-tracker/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func tasksWith(done, total int) []models.Task {
	tasks := make([]models.Task, total)
	for i := 0; i < done; i++ {
		tasks[i].IsDone = true
	}
	return tasks
}

func TestComputeProgress(t *testing.T) {
	tests := []struct {
		name        string
		done, total int
		want        int
	}{
		{"no tasks", 0, 0, 0},
		{"none done", 0, 4, 0},
		{"all done", 3, 3, 100},
		{"one of three", 1, 3, 33},
		{"two of three", 2, 3, 67},
		{"half", 1, 2, 50},
		{"one of eight rounds half up", 1, 8, 13},
		{"one of two hundred rounds half up", 1, 200, 1},
		{"one of two hundred one rounds down", 1, 201, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeProgress(tasksWith(tt.done, tt.total)))
		})
	}
}

func TestComputeProgress_Bounds(t *testing.T) {
	for total := 1; total <= 50; total++ {
		for done := 0; done <= total; done++ {
			p := ComputeProgress(tasksWith(done, total))
			assert.GreaterOrEqual(t, p, 0)
			assert.LessOrEqual(t, p, 100)
			if done == 0 {
				assert.Equal(t, 0, p)
			}
			if done == total {
				assert.Equal(t, 100, p)
			}
		}
	}
}
