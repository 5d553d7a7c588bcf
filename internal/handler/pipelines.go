package handler

import (
	"context"
	"net/http"

	"github.com/haatos/gitbridge/internal/service"
	"github.com/labstack/echo/v4"
)

func SetupPipelineRoutes(g *echo.Group, pipelineService PipelineServicer) {
	h := NewPipelineHandler(pipelineService)
	g.POST("/pipelines/trigger", h.PostTriggerPipeline)
}

type PipelineServicer interface {
	Trigger(ctx context.Context, userID string, req service.TriggerRequest) (*service.PipelineRun, error)
}

type PipelineHandler struct {
	pipelineService PipelineServicer
}

func NewPipelineHandler(pipelineService PipelineServicer) *PipelineHandler {
	return &PipelineHandler{pipelineService}
}

func (h *PipelineHandler) PostTriggerPipeline(c echo.Context) error {
	p := new(TriggerPipelineParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "Invalid pipeline trigger data")
	}
	if err := c.Validate(p); err != nil {
		return serviceError(c, err, messageSSHKeyNotFound)
	}

	run, err := h.pipelineService.Trigger(c.Request().Context(), getCtxUserID(c), service.TriggerRequest{
		PipelineName:   p.PipelineName,
		RepoURL:        p.RepoURL,
		Branch:         p.Branch,
		ProjectName:    p.ProjectName,
		ExperimentName: p.ExperimentName,
		SSHKeyID:       p.SSHKeyID,
		SSHPrivateKey:  p.SSHPrivateKey,
		SSHPublicKey:   p.SSHPublicKey,
	})
	if err != nil {
		return serviceError(c, err, messageSSHKeyNotFound)
	}
	return respond(c, http.StatusOK, "Pipeline triggered successfully", run)
}
