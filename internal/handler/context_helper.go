package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tahfidz-api/internal/middleware"
	"github.com/noah-isme/tahfidz-api/internal/models"
	"github.com/noah-isme/tahfidz-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// transitionMeta merges warnings and the queued artifact reference into response meta.
func transitionMeta(warnings []string, job *models.ArtifactJob) map[string]interface{} {
	meta := map[string]interface{}{}
	for k, v := range response.WithWarnings(warnings) {
		meta[k] = v
	}
	if job != nil {
		meta["artifactJobId"] = job.ID
	}
	return meta
}
