package httpserver

import (
	"net/http"

	"shop-console/internal/domain"
	"shop-console/internal/service/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type sessionHandler struct {
	sessions *session.Service
	logger   *zap.Logger
}

type addLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

type updateLineRequest struct {
	Delta    *int `json:"delta"`
	Quantity *int `json:"quantity"`
}

type selectVariantRequest struct {
	VariantID string `json:"variantId" binding:"required"`
}

type submitRequest struct {
	Customer *domain.CustomerInfo `json:"customer"`
	Payment  *domain.PaymentInfo  `json:"payment"`
}

func (h *sessionHandler) open(c *gin.Context) {
	sess := h.sessions.Open(shopFromContext(c).ID)
	h.render(c, sess.ID, http.StatusCreated)
}

func (h *sessionHandler) get(c *gin.Context) {
	h.run(c, http.StatusOK, func(string) error { return nil })
}

func (h *sessionHandler) discard(c *gin.Context) {
	id, ok := h.owned(c)
	if !ok {
		return
	}
	if err := h.sessions.Discard(id); err != nil {
		h.fail(c, "", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *sessionHandler) addLine(c *gin.Context) {
	var req addLineRequest
	if !bind(c, &req) {
		return
	}
	h.run(c, http.StatusOK, func(id string) error {
		return h.sessions.AddProduct(c.Request.Context(), id, req.ProductID, req.VariantID, req.Quantity)
	})
}

func (h *sessionHandler) updateLine(c *gin.Context) {
	var req updateLineRequest
	if !bind(c, &req) {
		return
	}
	if (req.Delta == nil) == (req.Quantity == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one of delta or quantity required"})
		return
	}
	lineID := c.Param("lineId")
	h.run(c, http.StatusOK, func(id string) error {
		if req.Delta != nil {
			return h.sessions.ChangeQuantity(id, lineID, *req.Delta)
		}
		return h.sessions.SetQuantity(id, lineID, *req.Quantity)
	})
}

func (h *sessionHandler) removeLine(c *gin.Context) {
	lineID := c.Param("lineId")
	h.run(c, http.StatusOK, func(id string) error {
		return h.sessions.RemoveLine(id, lineID)
	})
}

func (h *sessionHandler) selectVariant(c *gin.Context) {
	var req selectVariantRequest
	if !bind(c, &req) {
		return
	}
	h.run(c, http.StatusOK, func(id string) error {
		return h.sessions.SelectVariant(id, req.VariantID)
	})
}

func (h *sessionHandler) cancelVariant(c *gin.Context) {
	h.run(c, http.StatusOK, h.sessions.CancelVariant)
}

func (h *sessionHandler) setTax(c *gin.Context) {
	var req domain.Charge
	if !bind(c, &req) {
		return
	}
	h.run(c, http.StatusOK, func(id string) error {
		return h.sessions.SetTax(id, req)
	})
}

func (h *sessionHandler) setDiscount(c *gin.Context) {
	var req domain.Charge
	if !bind(c, &req) {
		return
	}
	h.run(c, http.StatusOK, func(id string) error {
		return h.sessions.SetDiscount(id, req)
	})
}

func (h *sessionHandler) setItem(c *gin.Context) {
	var req session.ItemAdjustment
	if !bind(c, &req) {
		return
	}
	key := c.Param("key")
	h.run(c, http.StatusOK, func(id string) error {
		return h.sessions.SetItemAdjustment(id, key, req)
	})
}

func (h *sessionHandler) clearItem(c *gin.Context) {
	key := c.Param("key")
	h.run(c, http.StatusOK, func(id string) error {
		return h.sessions.ClearItemAdjustment(id, key)
	})
}

func (h *sessionHandler) setContext(c *gin.Context) {
	var req domain.OrderContext
	if !bind(c, &req) {
		return
	}
	h.run(c, http.StatusOK, func(id string) error {
		return h.sessions.SetContext(id, req)
	})
}

func (h *sessionHandler) submit(c *gin.Context) {
	var req submitRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	id, ok := h.owned(c)
	if !ok {
		return
	}
	order, err := h.sessions.Submit(c.Request.Context(), id, req.Customer, req.Payment)
	if err != nil {
		h.fail(c, id, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *sessionHandler) editOrder(c *gin.Context) {
	sess, err := h.sessions.EditOrder(c.Request.Context(), shopFromContext(c).ID, c.Param("orderId"))
	if err != nil {
		h.fail(c, "", err)
		return
	}
	h.render(c, sess.ID, http.StatusCreated)
}

// owned resolves :sessionId and checks it belongs to the request's shop.
func (h *sessionHandler) owned(c *gin.Context) (string, bool) {
	id := c.Param("sessionId")
	sess, err := h.sessions.Get(id)
	if err != nil || sess.ShopID != shopFromContext(c).ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return "", false
	}
	return id, true
}

func (h *sessionHandler) run(c *gin.Context, status int, fn func(id string) error) {
	id, ok := h.owned(c)
	if !ok {
		return
	}
	if err := fn(id); err != nil {
		h.fail(c, id, err)
		return
	}
	h.render(c, id, status)
}

func (h *sessionHandler) render(c *gin.Context, id string, status int) {
	view, err := h.sessions.View(id)
	if err != nil {
		h.fail(c, "", err)
		return
	}
	c.JSON(status, view)
}

// fail writes err with its mapped status. The session view rides along so the
// caller sees the notifications and variant options the failure produced.
func (h *sessionHandler) fail(c *gin.Context, id string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("http: session request", zap.String("route", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	body := gin.H{"error": err.Error()}
	if id != "" {
		if view, verr := h.sessions.View(id); verr == nil {
			body["session"] = view
		}
	}
	c.JSON(status, body)
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}
