package handler

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/haatos/gitbridge/internal/service"
	"github.com/haatos/gitbridge/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func errNoRowsWrapped() error {
	return fmt.Errorf("err reading ssh key: %w", sql.ErrNoRows)
}

func newRepositoryTestEcho(receiver RepositoryStatusReceiver) *echo.Echo {
	e := newTestEcho()
	SetupRepositoryRoutes(newAPIGroup(e), receiver)
	return e
}

func TestRepositoryHandler_PostRepositoryStatus(t *testing.T) {
	t.Run("success - status is forwarded as an event", func(t *testing.T) {
		// arrange
		mockReceiver := new(testutil.MockRepositoryStatusReceiver)
		e := newRepositoryTestEcho(mockReceiver)
		event := &service.RepositoryEvent{
			GUID:       "pipeline_1_abc",
			RepoStatus: "cloned",
			EventType:  service.EventTypeRepositorySuccess,
			Timestamp:  "2024-05-01T12:00:00.000Z",
		}
		mockReceiver.On("ReceiveRepositoryStatus", mock.Anything, mock.MatchedBy(
			func(s service.RepositoryStatus) bool {
				return s.GUID == "pipeline_1_abc" && s.RepoStatus == "cloned" &&
					string(s.ValidationInfo) == `{"files":3}`
			},
		)).Return(event, 2, nil)

		// act
		rec := doJSON(e, http.MethodPost, "/api/repository/success", map[string]any{
			"guid":            "pipeline_1_abc",
			"repo_status":     "cloned",
			"validation_info": map[string]int{"files": 3},
		}, "")

		// assert
		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Repository status received", body["message"])
		data := body["data"].(map[string]any)
		assert.Equal(t, service.EventTypeRepositorySuccess, data["event_type"])
		mockReceiver.AssertExpectations(t)
	})
	t.Run("failure - missing guid", func(t *testing.T) {
		// arrange
		mockReceiver := new(testutil.MockRepositoryStatusReceiver)
		e := newRepositoryTestEcho(mockReceiver)

		// act
		rec := doJSON(e, http.MethodPost, "/api/repository/success", map[string]any{
			"repo_status": "cloned",
		}, "")

		// assert
		assertErrorBody(t, rec, http.StatusBadRequest, "guid is required")
		mockReceiver.AssertNotCalled(t, "ReceiveRepositoryStatus")
	})
	t.Run("failure - missing repo status", func(t *testing.T) {
		// arrange
		mockReceiver := new(testutil.MockRepositoryStatusReceiver)
		e := newRepositoryTestEcho(mockReceiver)

		// act
		rec := doJSON(e, http.MethodPost, "/api/repository/success", map[string]any{
			"guid": "pipeline_1_abc",
		}, "")

		// assert
		assertErrorBody(t, rec, http.StatusBadRequest, "repo_status is required")
	})
}
