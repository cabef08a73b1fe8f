package middleware

import (
	"context"
	"net/http"

	"edaworkspace/domain/core"
	"edaworkspace/internal/workspace"

	"github.com/gin-gonic/gin"
)

const workspaceKey = "workspace"

// WorkspaceLoader builds the workspace of one study
type WorkspaceLoader func(ctx context.Context, studyID core.StudyID) *workspace.Workspace

// LoadWorkspace is middleware that assembles the workspace named by the :studyId path
// parameter once per request and stores it on the context
func LoadWorkspace(load WorkspaceLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		studyID, err := core.ParseStudyID(c.Param("studyId"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.Set(workspaceKey, load(c.Request.Context(), studyID))
		c.Next()
	}
}

// CurrentWorkspace returns the workspace stored by LoadWorkspace
func CurrentWorkspace(c *gin.Context) (*workspace.Workspace, bool) {
	v, ok := c.Get(workspaceKey)
	if !ok {
		return nil, false
	}
	ws, ok := v.(*workspace.Workspace)
	return ws, ok
}
