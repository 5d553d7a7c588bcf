package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/haatos/gitbridge/internal/service"
	"github.com/haatos/gitbridge/internal/store"
	"github.com/labstack/echo/v4"
)

const messageSSHKeyNotFound = "SSH key not found"

func SetupSSHKeyRoutes(g *echo.Group, sshKeyService SSHKeyServicer) {
	h := NewSSHKeyHandler(sshKeyService)
	sshKeysGroup := g.Group("/ssh-keys")
	sshKeysGroup.POST("", h.PostSSHKey)
	sshKeysGroup.GET("", h.GetSSHKeys)
	sshKeysGroup.GET("/:id", h.GetSSHKey)
	sshKeysGroup.PUT("/:id", h.PutSSHKey)
	sshKeysGroup.DELETE("/:id", h.DeleteSSHKey)
}

type SSHKeyWriter interface {
	CreateSSHKey(ctx context.Context, userID string, nk service.NewSSHKey) (*store.SSHKey, error)
	UpdateSSHKey(
		ctx context.Context,
		id int64,
		userID string,
		u service.SSHKeyUpdate,
	) (*store.SSHKey, error)
	DeleteSSHKey(ctx context.Context, id int64, userID string) error
}

type SSHKeyReader interface {
	GetSSHKey(
		ctx context.Context,
		id int64,
		userID string,
		includePrivateKey bool,
	) (*store.SSHKey, error)
	ListSSHKeys(ctx context.Context, userID string) ([]*store.SSHKey, error)
}

type SSHKeyServicer interface {
	SSHKeyWriter
	SSHKeyReader
}

type SSHKeyView struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	PublicKey   string    `json:"publicKey"`
	PrivateKey  *string   `json:"privateKey,omitempty"`
	Provider    string    `json:"provider"`
	Fingerprint string    `json:"fingerprint"`
	Description string    `json:"description"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newSSHKeyView(k *store.SSHKey) SSHKeyView {
	return SSHKeyView{
		ID:          k.ID,
		Name:        k.Name,
		PublicKey:   k.PublicKey,
		PrivateKey:  k.PrivateKey,
		Provider:    string(k.Provider),
		Fingerprint: k.Fingerprint,
		Description: k.Description,
		IsActive:    k.IsActive,
		CreatedAt:   k.CreatedAt,
		UpdatedAt:   k.UpdatedAt,
	}
}

type SSHKeyHandler struct {
	sshKeyService SSHKeyServicer
}

func NewSSHKeyHandler(sshKeyService SSHKeyServicer) *SSHKeyHandler {
	return &SSHKeyHandler{sshKeyService}
}

func (h *SSHKeyHandler) PostSSHKey(c echo.Context) error {
	p := new(CreateSSHKeyParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "Invalid SSH key data")
	}
	if err := c.Validate(p); err != nil {
		return serviceError(c, err, messageSSHKeyNotFound)
	}

	k, err := h.sshKeyService.CreateSSHKey(c.Request().Context(), getCtxUserID(c), service.NewSSHKey{
		Name:        p.Name,
		PublicKey:   p.PublicKey,
		PrivateKey:  p.PrivateKey,
		Passphrase:  p.Passphrase,
		Provider:    store.Provider(p.Provider),
		Description: p.Description,
	})
	if err != nil {
		return serviceError(c, err, messageSSHKeyNotFound)
	}
	return respond(c, http.StatusCreated, "SSH key created successfully", newSSHKeyView(k))
}

func (h *SSHKeyHandler) GetSSHKeys(c echo.Context) error {
	keys, err := h.sshKeyService.ListSSHKeys(c.Request().Context(), getCtxUserID(c))
	if err != nil {
		return serviceError(c, err, messageSSHKeyNotFound)
	}
	views := make([]SSHKeyView, 0, len(keys))
	for _, k := range keys {
		views = append(views, newSSHKeyView(k))
	}
	return respond(c, http.StatusOK, "SSH keys retrieved successfully", views)
}

func (h *SSHKeyHandler) GetSSHKey(c echo.Context) error {
	p := new(SSHKeyParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "Invalid SSH key id")
	}

	k, err := h.sshKeyService.GetSSHKey(
		c.Request().Context(),
		p.ID,
		getCtxUserID(c),
		p.IncludePrivateKey,
	)
	if err != nil {
		return serviceError(c, err, messageSSHKeyNotFound)
	}
	return respond(c, http.StatusOK, "SSH key retrieved successfully", newSSHKeyView(k))
}

func (h *SSHKeyHandler) PutSSHKey(c echo.Context) error {
	p := new(UpdateSSHKeyParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "Invalid SSH key data")
	}
	if err := c.Validate(p); err != nil {
		return serviceError(c, err, messageSSHKeyNotFound)
	}

	k, err := h.sshKeyService.UpdateSSHKey(c.Request().Context(), p.ID, getCtxUserID(c), p.update())
	if err != nil {
		return serviceError(c, err, messageSSHKeyNotFound)
	}
	return respond(c, http.StatusOK, "SSH key updated successfully", newSSHKeyView(k))
}

func (h *SSHKeyHandler) DeleteSSHKey(c echo.Context) error {
	p := new(SSHKeyParams)
	if err := c.Bind(p); err != nil {
		return newError(c, err, http.StatusBadRequest, "Invalid SSH key id")
	}

	if err := h.sshKeyService.DeleteSSHKey(c.Request().Context(), p.ID, getCtxUserID(c)); err != nil {
		return serviceError(c, err, messageSSHKeyNotFound)
	}
	return respond(c, http.StatusOK, "SSH key deleted successfully", nil)
}
