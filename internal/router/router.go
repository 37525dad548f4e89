package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	_ "github.com/roomforge/api/docs"
	"github.com/roomforge/api/internal/middleware"
	"github.com/roomforge/api/internal/modules/handler"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

type RouterDeps struct {
	AppName       string
	Log           *zap.Logger
	DesignHandler *handler.DesignHandler
	UploadHandler *handler.UploadHandler
	// Ready is checked by /readyz; nil means always ready.
	Ready func(ctx context.Context) error
	// Swagger serves the API docs under /swagger.
	Swagger bool
	// MaxBodyBytes caps request bodies; 0 disables the cap.
	MaxBodyBytes int64
}

const readyTimeout = 2 * time.Second

func NewRouter(d RouterDeps) (*gin.Engine, error) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := handler.RegisterValidators(v); err != nil {
			return nil, fmt.Errorf("register validators: %w", err)
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(d.AppName))
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(middleware.MaxBodyBytes(d.MaxBodyBytes))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if d.Ready != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
			defer cancel()
			if err := d.Ready(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if d.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1", middleware.RequireUser())
	{
		designs := v1.Group("/designs")
		{
			designs.POST("", d.DesignHandler.CreateDesign)
			designs.GET("", d.DesignHandler.ListDesigns)
			designs.GET("/:design_id", d.DesignHandler.GetDesign)
			designs.DELETE("/:design_id", d.DesignHandler.DeleteDesign)
			designs.POST("/:design_id/regenerations", d.DesignHandler.Regenerate)
			designs.GET("/:design_id/chain", d.DesignHandler.GetChain)
			designs.GET("/:design_id/chain/stats", d.DesignHandler.GetChainStats)
			designs.GET("/:design_id/children", d.DesignHandler.GetChildren)
			designs.POST("/:design_id/generate", d.DesignHandler.Generate)
			designs.GET("/:design_id/download", d.DesignHandler.Download)
		}

		uploads := v1.Group("/uploads")
		{
			uploads.POST("", d.UploadHandler.UploadImages)
			uploads.POST("/stream", d.UploadHandler.UploadImagesStream)
		}
	}

	return r, nil
}
