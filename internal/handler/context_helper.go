package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sims-platform/sims-api/internal/middleware"
	"github.com/sims-platform/sims-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.Claims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.Claims)
	if !ok {
		return nil
	}
	return claims
}

func principalFromContext(c *gin.Context) (models.Principal, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.Principal{}, false
	}
	return claims.Principal(), true
}

func pathID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func queryInt64(c *gin.Context, name string) int64 {
	value, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil {
		return 0
	}
	return value
}

func queryInt(c *gin.Context, name string, fallback int) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return value
}
