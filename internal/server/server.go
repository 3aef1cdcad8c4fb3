package server

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Server is the taskdeck HTTP API server
type Server struct {
	router *gin.Engine
}

// NewServer builds the router with all API routes registered.
func NewServer() *Server {
	router := gin.New()
	router.Use(RequestID(), gin.Logger(), gin.Recovery())

	s := &Server{router: router}

	projects := router.Group("/projects")
	{
		projects.GET("", s.listProjects)
		projects.POST("", s.createProject)
		projects.GET("/:id", s.getProject)
		projects.PUT("/:id", s.updateProject)
		projects.PATCH("/:id", s.updateProject)
		projects.DELETE("/:id", s.deleteProject)
		projects.PATCH("/:id/archive", s.archiveProject)
		projects.PATCH("/:id/unarchive", s.unarchiveProject)

		projects.GET("/:id/tasks", s.listTasks)
		projects.POST("/:id/tasks", s.createTask)
		projects.PATCH("/:id/tasks/bulk-status", s.bulkUpdateTaskStatus)
	}

	tasks := router.Group("/tasks")
	{
		tasks.PUT("/:id", s.updateTask)
		tasks.PATCH("/:id/status", s.updateTaskStatus)
		tasks.DELETE("/:id", s.deleteTask)
	}

	return s
}

// Run starts the HTTP server
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// RequestID tags every request/response pair with an id for log
// correlation, honoring one supplied by the client.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}
