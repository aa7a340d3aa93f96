package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hall-matrix-api/internal/middleware"
	"github.com/noah-isme/hall-matrix-api/internal/models"
	"github.com/noah-isme/hall-matrix-api/pkg/middleware/requestid"
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

// actorFromContext builds the caller identity passed into services.
func actorFromContext(c *gin.Context) models.Actor {
	actor := models.Actor{RequestID: requestid.Value(c)}
	if claims := claimsFromContext(c); claims != nil {
		actor.UserID = claims.UserID
		actor.Role = claims.Role
	}
	return actor
}
