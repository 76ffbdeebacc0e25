package httpserver

import (
	"context"
	"time"

	"shop-console/internal/domain"
	"shop-console/internal/logging"
	"shop-console/internal/service/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type shopLookup interface {
	GetByKey(ctx context.Context, key string) (*domain.Shop, error)
}

type productCatalog interface {
	List(ctx context.Context, shopID string) ([]domain.Product, error)
	Get(ctx context.Context, shopID, id string) (*domain.Product, error)
}

// Deps are the collaborators behind the shop-scoped routes.
type Deps struct {
	Shops       shopLookup
	Products    productCatalog
	Sessions    *session.Service
	CORSOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logging.Writer(logger)), gin.Recovery())
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	if deps.Shops == nil {
		return router
	}

	shop := router.Group("/shops/:shopKey", shopMiddleware(deps.Shops))

	if deps.Products != nil {
		ph := &productHandler{products: deps.Products}
		shop.GET("/products", ph.list)
		shop.GET("/products/:productId", ph.get)
	}

	if deps.Sessions != nil {
		sh := &sessionHandler{sessions: deps.Sessions, logger: logger}
		shop.POST("/sessions", sh.open)
		shop.GET("/sessions/:sessionId", sh.get)
		shop.DELETE("/sessions/:sessionId", sh.discard)
		shop.POST("/sessions/:sessionId/lines", sh.addLine)
		shop.PATCH("/sessions/:sessionId/lines/:lineId", sh.updateLine)
		shop.DELETE("/sessions/:sessionId/lines/:lineId", sh.removeLine)
		shop.POST("/sessions/:sessionId/variant/select", sh.selectVariant)
		shop.POST("/sessions/:sessionId/variant/cancel", sh.cancelVariant)
		shop.PUT("/sessions/:sessionId/tax", sh.setTax)
		shop.PUT("/sessions/:sessionId/discount", sh.setDiscount)
		shop.PUT("/sessions/:sessionId/items/:key", sh.setItem)
		shop.DELETE("/sessions/:sessionId/items/:key", sh.clearItem)
		shop.PUT("/sessions/:sessionId/context", sh.setContext)
		shop.POST("/sessions/:sessionId/submit", sh.submit)
		shop.POST("/orders/:orderId/edit", sh.editOrder)
	}

	return router
}
