package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/haatos/gitbridge/internal"
	"github.com/haatos/gitbridge/internal/metrics"
	"github.com/haatos/gitbridge/internal/util"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
)

const (
	privateKeyFile = "id_key"
	publicKeyFile  = "id_key.pub"
	passphraseFile = "id_key.passphrase"
)

type TriggerRequest struct {
	PipelineName   string
	RepoURL        string
	Branch         string
	ProjectName    string
	ExperimentName string
	SSHKeyID       *int64
	// base64 encoded keypair, both halves or neither
	SSHPrivateKey string
	SSHPublicKey  string
}

// RunConfig is handed to the orchestrator as the run's configuration.
type RunConfig struct {
	PipelineName      string `json:"pipeline_name"`
	RepoURL           string `json:"repo_url"`
	Branch            string `json:"branch"`
	ProjectName       string `json:"project_name"`
	ExperimentName    string `json:"experiment_name"`
	GUID              string `json:"guid"`
	SSHKeyID          *int64 `json:"ssh_key_id"`
	SSHPrivateKeyPath string `json:"ssh_private_key_path,omitempty"`
	SSHPublicKeyPath  string `json:"ssh_public_key_path,omitempty"`
	SSHPassphrasePath string `json:"ssh_passphrase_path,omitempty"`
	CallbackURL       string `json:"callback_url,omitempty"`
}

type RunOutcome struct {
	DagRunID string
	State    string
	Output   string
}

type PipelineRunner interface {
	Invoke(ctx context.Context, cfg RunConfig, timeout time.Duration) (*RunOutcome, error)
}

type KeyMaterialResolver interface {
	GetSSHKeyMaterial(ctx context.Context, id int64, userID string) (*KeyMaterial, error)
}

// PipelineRun describes a triggered run. It is not persisted; progress is
// reported back through repository status events.
type PipelineRun struct {
	GUID           string    `json:"guid"`
	DagRunID       string    `json:"dag_run_id"`
	State          string    `json:"state"`
	ExperimentName string    `json:"experiment_name"`
	PipelineName   string    `json:"pipeline_name"`
	RepoURL        string    `json:"repo_url"`
	Branch         string    `json:"branch"`
	ProjectName    string    `json:"project_name"`
	CreatedAt      time.Time `json:"created_at"`
}

type PipelineService struct {
	runner        PipelineRunner
	keys          KeyMaterialResolver
	config        *internal.Configuration
	keysDir       string
	callbackURL   string
	uuidGenerator UUIDGenerator
	now           func() time.Time
	logger        zerolog.Logger
}

func NewPipelineService(
	runner PipelineRunner,
	keys KeyMaterialResolver,
	config *internal.Configuration,
	keysDir, callbackURL string,
	uuidGenerator UUIDGenerator,
	logger zerolog.Logger,
) *PipelineService {
	return &PipelineService{
		runner:        runner,
		keys:          keys,
		config:        config,
		keysDir:       keysDir,
		callbackURL:   callbackURL,
		uuidGenerator: uuidGenerator,
		now:           func() time.Time { return time.Now().UTC() },
		logger:        logger.With().Str("component", "pipelines").Logger(),
	}
}

// Trigger starts a pipeline run on the orchestrator and returns as soon as
// the orchestrator has accepted it.
func (s *PipelineService) Trigger(
	ctx context.Context,
	userID string,
	req TriggerRequest,
) (*PipelineRun, error) {
	pipelineName := strings.TrimSpace(req.PipelineName)
	if pipelineName == "" {
		return nil, NewValidationError("Pipeline name is required")
	}

	material, err := s.resolveKeyMaterial(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	guid := fmt.Sprintf(
		"pipeline_%d_%s",
		now.UnixMilli(),
		util.AlphanumericPrefix(s.uuidGenerator.GenerateUUID(), 9),
	)
	experiment := defaultString(req.ExperimentName, s.config.DefaultExperimentName)

	cfg := RunConfig{
		PipelineName:   pipelineName,
		RepoURL:        req.RepoURL,
		Branch:         defaultString(req.Branch, s.config.DefaultBranch),
		ProjectName:    defaultString(req.ProjectName, s.config.DefaultProjectName),
		ExperimentName: fmt.Sprintf("%s-%s", experiment, pipelineName),
		GUID:           guid,
		SSHKeyID:       req.SSHKeyID,
		CallbackURL:    s.callbackURL,
	}

	var keyDir string
	if material != nil {
		keyDir, err = s.writeKeyMaterial(material)
		if err != nil {
			return nil, fmt.Errorf("err writing key material: %w", err)
		}
		cfg.SSHPrivateKeyPath = filepath.Join(keyDir, privateKeyFile)
		cfg.SSHPublicKeyPath = filepath.Join(keyDir, publicKeyFile)
		if material.Passphrase != "" {
			cfg.SSHPassphrasePath = filepath.Join(keyDir, passphraseFile)
		}
	}

	log := s.logger.With().Str("guid", guid).Str("pipeline", pipelineName).Logger()
	log.Info().Str("repo_url", cfg.RepoURL).Str("branch", cfg.Branch).Msg("triggering pipeline")

	outcome, err := s.runner.Invoke(ctx, cfg, s.config.TriggerTimeout())
	if err != nil {
		if keyDir != "" {
			if rmErr := os.RemoveAll(keyDir); rmErr != nil {
				log.Error().Err(rmErr).Str("dir", keyDir).Msg("err removing key directory")
			}
		}
		metrics.PipelineTriggers.WithLabelValues(metrics.OutcomeFailure).Inc()
		log.Error().Err(err).Msg("pipeline trigger failed")
		return nil, err
	}
	metrics.PipelineTriggers.WithLabelValues(metrics.OutcomeSuccess).Inc()
	log.Info().Str("state", outcome.State).Msg("pipeline triggered")

	return &PipelineRun{
		GUID:           guid,
		DagRunID:       defaultString(outcome.DagRunID, guid),
		State:          outcome.State,
		ExperimentName: cfg.ExperimentName,
		PipelineName:   pipelineName,
		RepoURL:        cfg.RepoURL,
		Branch:         cfg.Branch,
		ProjectName:    cfg.ProjectName,
		CreatedAt:      now,
	}, nil
}

func (s *PipelineService) resolveKeyMaterial(
	ctx context.Context,
	userID string,
	req TriggerRequest,
) (*KeyMaterial, error) {
	inline := req.SSHPrivateKey != "" || req.SSHPublicKey != ""
	if inline && req.SSHKeyID != nil {
		return nil, NewValidationError("Provide either sshPrivateKey and sshPublicKey or sshKeyId, not both")
	}
	if inline {
		return decodeInlineKeys(req.SSHPrivateKey, req.SSHPublicKey)
	}
	if req.SSHKeyID != nil {
		return s.keys.GetSSHKeyMaterial(ctx, *req.SSHKeyID, userID)
	}
	return nil, nil
}

func decodeInlineKeys(privateKey, publicKey string) (*KeyMaterial, error) {
	if privateKey == "" || publicKey == "" {
		return nil, NewValidationError("sshPrivateKey and sshPublicKey must be provided together")
	}
	priv, err := base64.StdEncoding.DecodeString(strings.TrimSpace(privateKey))
	if err != nil {
		return nil, NewValidationError("sshPrivateKey is not valid base64")
	}
	pub, err := base64.StdEncoding.DecodeString(strings.TrimSpace(publicKey))
	if err != nil {
		return nil, NewValidationError("sshPublicKey is not valid base64")
	}

	if _, err := ssh.ParseRawPrivateKey(priv); err != nil {
		var missing *ssh.PassphraseMissingError
		if !errors.As(err, &missing) {
			return nil, NewValidationError("sshPrivateKey is not a valid private key")
		}
	}
	if _, _, _, _, err := ssh.ParseAuthorizedKey(pub); err != nil {
		return nil, NewValidationError("sshPublicKey is not a valid public key")
	}

	return &KeyMaterial{PrivateKey: priv, PublicKey: pub}, nil
}

// writeKeyMaterial stores m in a new owner-only directory below keysDir.
func (s *PipelineService) writeKeyMaterial(m *KeyMaterial) (string, error) {
	if err := os.MkdirAll(s.keysDir, 0o700); err != nil {
		return "", err
	}
	dir, err := os.MkdirTemp(s.keysDir, internal.KeysDirPattern)
	if err != nil {
		return "", err
	}
	if err := util.WritePrivateFile(filepath.Join(dir, privateKeyFile), m.PrivateKey); err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	if err := util.WritePrivateFile(filepath.Join(dir, publicKeyFile), m.PublicKey); err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	if m.Passphrase != "" {
		err := util.WritePrivateFile(filepath.Join(dir, passphraseFile), []byte(m.Passphrase))
		if err != nil {
			os.RemoveAll(dir)
			return "", err
		}
	}
	return dir, nil
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
