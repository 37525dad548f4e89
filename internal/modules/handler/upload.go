package handler

import (
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/roomforge/api/internal/middleware"
	"github.com/roomforge/api/internal/modules/serializer"
	"github.com/roomforge/api/internal/modules/service"
	"go.uber.org/zap"
)

const (
	eventProgress = "progress"
	eventResult   = "result"
)

type UploadHandler struct {
	svc service.DesignService
	log *zap.Logger
}

func NewUploadHandler(s service.DesignService, log *zap.Logger) *UploadHandler {
	return &UploadHandler{svc: s, log: log.Named("handler")}
}

// Items are only length checked here; a malformed payload fails only its own
// index.
type UploadReq struct {
	Images []string `json:"images" binding:"required,min=1,max=20,dive,required,max=10485760"`
}

// UploadImages godoc
//
//	@Summary		Upload reference images
//	@Description	Store data URI images; the result is positional and may be partial
//	@Tags			upload
//	@Accept			json
//	@Produce		json
//	@Param			X-User-ID	header	string				true	"User ID"
//	@Param			payload		body	handler.UploadReq	true	"Images"
//	@Success		200	{object}	serializer.Response{data=service.BatchResult}
//	@Router			/uploads [post]
func (h *UploadHandler) UploadImages(c *gin.Context) {
	req := UploadReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	res := h.svc.UploadReferences(c.Request.Context(), middleware.UserID(c), req.Images, nil)
	c.JSON(http.StatusOK, serializer.Response{Data: res})
}

type sseEvent struct {
	name string
	data any
}

// UploadImagesStream godoc
//
//	@Summary		Upload reference images with progress
//	@Description	Server-sent events: one "progress" event per change, then a single "result" event
//	@Tags			upload
//	@Accept			json
//	@Produce		text/event-stream
//	@Param			X-User-ID	header	string				true	"User ID"
//	@Param			payload		body	handler.UploadReq	true	"Images"
//	@Success		200	{object}	service.BatchProgress
//	@Router			/uploads/stream [post]
func (h *UploadHandler) UploadImagesStream(c *gin.Context) {
	req := UploadReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	ctx := c.Request.Context()
	userID := middleware.UserID(c)
	events := make(chan sseEvent, 16)

	go func() {
		defer close(events)
		send := func(ev sseEvent) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		}
		res := h.svc.UploadReferences(ctx, userID, req.Images, func(p service.BatchProgress) {
			send(sseEvent{name: eventProgress, data: p})
		})
		send(sseEvent{name: eventResult, data: res})
	}()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		ev, ok := <-events
		if !ok {
			return false
		}
		payload, err := sonic.MarshalString(ev.data)
		if err != nil {
			h.log.Error("encode upload event", zap.String("event", ev.name), zap.Error(err))
			return true
		}
		c.SSEvent(ev.name, payload)
		return true
	})
}
