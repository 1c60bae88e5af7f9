package handlers

import (
	"net/http"

	"project-tracker/backend/internal/services"
	"project-tracker/backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

type TaskHandler struct {
	taskService services.TaskService
	logger      *zap.Logger
}

func NewTaskHandler(taskService services.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{taskService: taskService, logger: logger}
}

func (h *TaskHandler) taskParams(c *gin.Context) (userID, taskID uuid.UUID, ok bool) {
	userID, ok = currentUser(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	taskID, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		respondInvalidID(c, "task")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, taskID, true
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	userID, taskID, ok := h.taskParams(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(c.Request.Context(), userID, taskID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(*task))
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, taskID, ok := h.taskParams(c)
	if !ok {
		return
	}

	var input struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}

	task, err := h.taskService.UpdateTask(c.Request.Context(), userID, taskID, input.Title)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task updated successfully!",
		"task":    newTaskResponse(*task),
	})
}

func (h *TaskHandler) ToggleTask(c *gin.Context) {
	userID, taskID, ok := h.taskParams(c)
	if !ok {
		return
	}

	task, err := h.taskService.ToggleTask(c.Request.Context(), userID, taskID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task status updated!",
		"task":    newTaskResponse(*task),
		"is_done": task.IsDone,
	})
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, taskID, ok := h.taskParams(c)
	if !ok {
		return
	}

	if _, err := h.taskService.DeleteTask(c.Request.Context(), userID, taskID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully!"})
}
