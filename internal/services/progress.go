package services

import "project-tracker/backend/internal/models"

// ComputeProgress returns the percentage of done tasks rounded half up, or 0
// when there are no tasks.
func ComputeProgress(tasks []models.Task) int {
	total := len(tasks)
	if total == 0 {
		return 0
	}

	done := 0
	for _, t := range tasks {
		if t.IsDone {
			done++
		}
	}

	return (200*done + total) / (2 * total)
}
