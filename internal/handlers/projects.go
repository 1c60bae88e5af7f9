package handlers

import (
	"net/http"
	"time"

	"project-tracker/backend/internal/models"
	"project-tracker/backend/internal/services"
	"project-tracker/backend/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProjectHandler struct {
	projectService services.ProjectService
	taskService    services.TaskService
	logger         *zap.Logger
}

func NewProjectHandler(projectService services.ProjectService, taskService services.TaskService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, taskService: taskService, logger: logger}
}

type ProjectResponse struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	DueDate     string         `json:"due_date"`
	Description string         `json:"description"`
	Progress    int            `json:"progress"`
	Tasks       []TaskResponse `json:"tasks"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type TaskResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Title     string `json:"title"`
	IsDone    bool   `json:"is_done"`
}

func newTaskResponse(task models.Task) TaskResponse {
	return TaskResponse{
		ID:        task.ID.String(),
		ProjectID: task.ProjectID.String(),
		Title:     task.Title,
		IsDone:    task.IsDone,
	}
}

func newProjectResponse(project models.Project, tasks []models.Task) ProjectResponse {
	out := ProjectResponse{
		ID:          project.ID.String(),
		Title:       project.Title,
		DueDate:     project.DueDateString(),
		Description: project.Description,
		Progress:    services.ComputeProgress(tasks),
		Tasks:       make([]TaskResponse, 0, len(tasks)),
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
	for _, task := range tasks {
		out.Tasks = append(out.Tasks, newTaskResponse(task))
	}
	return out
}

// ListProjects is the dashboard: every project of the current user with its progress.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	projects, err := h.projectService.ListProjectsForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response := make([]ProjectResponse, 0, len(projects))
	for _, project := range projects {
		response = append(response, newProjectResponse(project, project.Tasks))
	}

	c.JSON(http.StatusOK, gin.H{
		"projects": response,
		"total":    len(response),
	})
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input services.CreateProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Project created successfully!",
		"project": newProjectResponse(*project, project.Tasks),
	})
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	projectID, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		respondInvalidID(c, "project")
		return
	}

	detail, err := h.projectService.GetProjectWithProgress(c.Request.Context(), userID, projectID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response := newProjectResponse(detail.Project, detail.Tasks)
	response.Progress = detail.Progress
	c.JSON(http.StatusOK, response)
}

func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	projectID, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		respondInvalidID(c, "project")
		return
	}

	var patch services.ProjectPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, err)
		return
	}

	project, err := h.projectService.UpdateProject(c.Request.Context(), userID, projectID, patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Project updated successfully!",
		"project": newProjectResponse(*project, project.Tasks),
	})
}

func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	projectID, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		respondInvalidID(c, "project")
		return
	}

	if err := h.projectService.DeleteProject(c.Request.Context(), userID, projectID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully!"})
}

func (h *ProjectHandler) AddTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	projectID, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		respondInvalidID(c, "project")
		return
	}

	var input struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}

	task, err := h.taskService.AddTask(c.Request.Context(), userID, projectID, input.Title)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "New task added successfully!",
		"task":    newTaskResponse(*task),
	})
}
