package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"shop-console/internal/domain"

	"github.com/gin-gonic/gin"
)

type ctxKey string

const shopCtxKey ctxKey = "shop"

// shopMiddleware resolves :shopKey and stores the shop on the request context.
func shopMiddleware(shops shopLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.Param("shopKey"))
		if key == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "shop key required"})
			return
		}
		shop, err := shops.GetByKey(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "shop not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "shop lookup failed"})
			return
		}
		ctx := context.WithValue(c.Request.Context(), shopCtxKey, shop)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func shopFromContext(c *gin.Context) *domain.Shop {
	shop, _ := c.Request.Context().Value(shopCtxKey).(*domain.Shop)
	return shop
}
