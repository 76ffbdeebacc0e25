package httpserver

import (
	"errors"
	"net/http"

	"shop-console/internal/domain"

	"github.com/gin-gonic/gin"
)

type productHandler struct {
	products productCatalog
}

func (h *productHandler) list(c *gin.Context) {
	shop := shopFromContext(c)
	products, err := h.products.List(c.Request.Context(), shop.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list products failed"})
		return
	}
	c.JSON(http.StatusOK, toProductList(products))
}

func (h *productHandler) get(c *gin.Context) {
	shop := shopFromContext(c)
	p, err := h.products.Get(c.Request.Context(), shop.ID, c.Param("productId"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get product failed"})
		return
	}
	c.JSON(http.StatusOK, toProductResponse(*p))
}
