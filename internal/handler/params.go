package handler

import (
	"encoding/json"

	"github.com/haatos/gitbridge/internal/service"
	"github.com/haatos/gitbridge/internal/store"
)

type SSHKeyParams struct {
	ID                int64 `param:"id"`
	IncludePrivateKey bool  `query:"includePrivateKey"`
}

type CreateSSHKeyParams struct {
	Name        string  `json:"name"`
	PublicKey   string  `json:"publicKey"`
	PrivateKey  *string `json:"privateKey"`
	Passphrase  *string `json:"passphrase"`
	Provider    string  `json:"provider" validate:"omitempty,oneof=github gitlab bitbucket other"`
	Description string  `json:"description"`
}

type UpdateSSHKeyParams struct {
	ID          int64   `param:"id" json:"-"`
	Name        *string `json:"name"`
	PublicKey   *string `json:"publicKey"`
	PrivateKey  *string `json:"privateKey"`
	Passphrase  *string `json:"passphrase"`
	Provider    *string `json:"provider" validate:"omitempty,oneof=github gitlab bitbucket other"`
	Description *string `json:"description"`
}

func (p *UpdateSSHKeyParams) update() service.SSHKeyUpdate {
	u := service.SSHKeyUpdate{
		Name:        p.Name,
		PublicKey:   p.PublicKey,
		PrivateKey:  p.PrivateKey,
		Passphrase:  p.Passphrase,
		Description: p.Description,
	}
	if p.Provider != nil {
		provider := store.Provider(*p.Provider)
		u.Provider = &provider
	}
	return u
}

type TriggerPipelineParams struct {
	PipelineName   string `json:"pipelineName" validate:"required"`
	RepoURL        string `json:"repoUrl"`
	Branch         string `json:"branch"`
	ProjectName    string `json:"projectName"`
	ExperimentName string `json:"experimentName"`
	SSHKeyID       *int64 `json:"sshKeyId"`
	SSHPrivateKey  string `json:"sshPrivateKey"`
	SSHPublicKey   string `json:"sshPublicKey"`
}

type RepositoryStatusParams struct {
	GUID           string          `json:"guid" validate:"required"`
	PipelineName   string          `json:"pipeline_name"`
	RepoURL        string          `json:"repo_url"`
	Branch         string          `json:"branch"`
	ProjectPath    string          `json:"project_path"`
	RepoStatus     string          `json:"repo_status" validate:"required"`
	ValidationInfo json.RawMessage `json:"validation_info"`
	Timestamp      string          `json:"timestamp"`
}

type ExchangeCodeParams struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

type AuthorizeParams struct {
	RedirectURI string `query:"redirect_uri"`
}

type OAuthCallbackParams struct {
	Code             string `query:"code"`
	State            string `query:"state"`
	Error            string `query:"error"`
	ErrorDescription string `query:"error_description"`
}
