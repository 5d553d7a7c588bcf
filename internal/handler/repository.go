package handler

import (
	"context"
	"net/http"

	"github.com/haatos/gitbridge/internal/service"
	"github.com/labstack/echo/v4"
)

func SetupRepositoryRoutes(g *echo.Group, receiver RepositoryStatusReceiver) {
	h := NewRepositoryHandler(receiver)
	g.POST("/repository/success", h.PostRepositoryStatus)
}

type RepositoryStatusReceiver interface {
	ReceiveRepositoryStatus(
		ctx context.Context,
		status service.RepositoryStatus,
	) (*service.RepositoryEvent, int, error)
}

type RepositoryHandler struct {
	receiver RepositoryStatusReceiver
}

func NewRepositoryHandler(receiver RepositoryStatusReceiver) *RepositoryHandler {
	return &RepositoryHandler{receiver}
}

// PostRepositoryStatus accepts a repository setup report from the
// orchestrator and forwards it to live-update clients.
func (h *RepositoryHandler) PostRepositoryStatus(c echo.Context) error {
	p := new(RepositoryStatusParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "Invalid repository status data")
	}
	if err := c.Validate(p); err != nil {
		return serviceError(c, err, "")
	}

	// delivery continues if the reporter hangs up
	ctx := context.WithoutCancel(c.Request().Context())
	event, _, err := h.receiver.ReceiveRepositoryStatus(ctx, service.RepositoryStatus{
		GUID:           p.GUID,
		PipelineName:   p.PipelineName,
		RepoURL:        p.RepoURL,
		Branch:         p.Branch,
		ProjectPath:    p.ProjectPath,
		RepoStatus:     p.RepoStatus,
		ValidationInfo: p.ValidationInfo,
		Timestamp:      p.Timestamp,
	})
	if err != nil {
		return serviceError(c, err, "")
	}
	return respond(c, http.StatusOK, "Repository status received", event)
}
