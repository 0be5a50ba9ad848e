package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/killuadb/schemamap/internal/responses"
	"github.com/killuadb/schemamap/internal/services"
	"github.com/killuadb/schemamap/internal/utils"
)

// SessionKey is the gin context key holding the *services.Visualizer.
const SessionKey = "session"

// LoadSession resolves the :id path parameter to a live session.
func LoadSession(sessions *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := utils.ParseUUID(c.Param("id"))
		if err != nil {
			responses.Abort(c, http.StatusBadRequest, err, "Invalid session ID format")
			return
		}

		v, err := sessions.Get(id)
		if errors.Is(err, services.ErrSessionNotFound) {
			responses.Abort(c, http.StatusNotFound, err, "Session not found")
			return
		}
		if err != nil {
			responses.Abort(c, http.StatusInternalServerError, err, "Failed to load session")
			return
		}

		c.Set(SessionKey, v)
		c.Next()
	}
}

// Session returns the visualizer stored by LoadSession.
func Session(c *gin.Context) *services.Visualizer {
	v, _ := c.MustGet(SessionKey).(*services.Visualizer)
	return v
}
