package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/balkashynov/taskdeck/internal/db"
	"github.com/balkashynov/taskdeck/internal/models"
)

type createProjectRequest struct {
	Name        string `json:"name" binding:"required,min=3,max=120"`
	Description string `json:"description"`
}

type updateProjectRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=3,max=120"`
	Description *string `json:"description"`
	Status      *string `json:"status" binding:"omitempty,oneof=active archived"`
}

func (s *Server) listProjects(c *gin.Context) {
	status := models.ProjectStatus(c.Query("status"))

	projects, err := db.ListProjects(status)
	if err != nil {
		respondError(c, err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}

	c.JSON(http.StatusOK, gin.H{"data": projects})
}

func (s *Server) createProject(c *gin.Context) {
	var req createProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := db.CreateProject(db.CreateProjectRequest{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": project})
}

func (s *Server) getProject(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	project, err := db.GetProject(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": project})
}

func (s *Server) updateProject(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	update := db.UpdateProjectRequest{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Status != nil {
		status := models.ProjectStatus(*req.Status)
		update.Status = &status
	}

	project, err := db.UpdateProject(id, update)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": project})
}

func (s *Server) deleteProject(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := db.DeleteProject(id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) archiveProject(c *gin.Context) {
	s.setProjectStatus(c, models.ProjectArchived)
}

func (s *Server) unarchiveProject(c *gin.Context) {
	s.setProjectStatus(c, models.ProjectActive)
}

func (s *Server) setProjectStatus(c *gin.Context, status models.ProjectStatus) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	project, err := db.SetProjectStatus(id, status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": project})
}
