package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/roomforge/api/internal/infra/blob"
	"github.com/roomforge/api/internal/infra/imagegen"
	"github.com/roomforge/api/internal/middleware"
	"github.com/roomforge/api/internal/modules/serializer"
	"github.com/roomforge/api/internal/modules/service"
	"go.uber.org/zap"
)

type DesignHandler struct {
	svc service.DesignService
	log *zap.Logger
}

func NewDesignHandler(s service.DesignService, log *zap.Logger) *DesignHandler {
	return &DesignHandler{svc: s, log: log.Named("handler")}
}

type PreferenceReq struct {
	RoomType     string         `json:"room_type" binding:"omitempty,max=64" example:"living_room"`
	Style        string         `json:"style" binding:"omitempty,max=64" example:"scandinavian"`
	Budget       string         `json:"budget" binding:"omitempty,max=64" example:"medium"`
	ColorPalette []string       `json:"color_palette" binding:"omitempty,max=12,dive,max=32"`
	Extra        map[string]any `json:"extra"`
}

type CreateDesignReq struct {
	Prompt           string         `json:"prompt" binding:"required,max=4000" example:"bright scandinavian living room with oak floors"`
	AIModel          string         `json:"ai_model" binding:"omitempty,max=128" example:"gpt-image-1"`
	UploadedImageURL *string        `json:"uploaded_image_url" binding:"omitempty,max=10485760,datauri|url"`
	Preferences      *PreferenceReq `json:"preferences"`
}

// CreateDesign godoc
//
//	@Summary		Create design
//	@Description	Create a root design (generation 1) in PENDING status
//	@Tags			design
//	@Accept			json
//	@Produce		json
//	@Param			X-User-ID	header	string					true	"User ID"
//	@Param			payload		body	handler.CreateDesignReq	true	"Design"
//	@Success		201	{object}	serializer.Response{data=model.Design}
//	@Router			/designs [post]
func (h *DesignHandler) CreateDesign(c *gin.Context) {
	req := CreateDesignReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	in := service.CreateDesignInput{
		Prompt:           req.Prompt,
		AIModel:          req.AIModel,
		UploadedImageURL: req.UploadedImageURL,
	}
	if p := req.Preferences; p != nil {
		in.RoomType = p.RoomType
		in.Style = p.Style
		in.Budget = p.Budget
		in.ColorPalette = p.ColorPalette
		in.Extra = p.Extra
	}

	d, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: d})
}

type ListDesignsReq struct {
	Limit  int `form:"limit,default=20" binding:"min=0,max=100" example:"20"`
	Offset int `form:"offset,default=0" binding:"min=0" example:"0"`
}

// ListDesigns godoc
//
//	@Summary		List designs
//	@Description	List the caller's designs, newest first
//	@Tags			design
//	@Produce		json
//	@Param			X-User-ID	header	string	true	"User ID"
//	@Param			limit		query	int		false	"Page size (max 100)"	default(20)
//	@Param			offset		query	int		false	"Offset"				default(0)
//	@Success		200	{object}	serializer.Response{data=[]model.Design}
//	@Router			/designs [get]
func (h *DesignHandler) ListDesigns(c *gin.Context) {
	req := ListDesignsReq{}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	designs, err := h.svc.List(c.Request.Context(), middleware.UserID(c), req.Limit, req.Offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: designs})
}

// GetDesign godoc
//
//	@Summary		Get design
//	@Description	Get a design with its outputs; stored images come back as signed URLs
//	@Tags			design
//	@Produce		json
//	@Param			X-User-ID	header	string	true	"User ID"
//	@Param			design_id	path	string	true	"Design ID"	Format(uuid)	Example(123e4567-e89b-12d3-a456-426614174000)
//	@Success		200	{object}	serializer.Response{data=service.DesignDetail}
//	@Router			/designs/{design_id} [get]
func (h *DesignHandler) GetDesign(c *gin.Context) {
	id, ok := designID(c)
	if !ok {
		return
	}
	detail, err := h.svc.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: detail})
}

// DeleteDesign godoc
//
//	@Summary		Delete design
//	@Description	Delete a design that has no regenerations, with its outputs
//	@Tags			design
//	@Produce		json
//	@Param			X-User-ID	header	string	true	"User ID"
//	@Param			design_id	path	string	true	"Design ID"	Format(uuid)
//	@Success		200	{object}	serializer.Response{}
//	@Router			/designs/{design_id} [delete]
func (h *DesignHandler) DeleteDesign(c *gin.Context) {
	id, ok := designID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{})
}

type RegenerateReq struct {
	Prompt           string  `json:"prompt" binding:"omitempty,max=4000"`
	AIModel          string  `json:"ai_model" binding:"omitempty,max=128"`
	UploadedImageURL *string `json:"uploaded_image_url" binding:"omitempty,max=10485760,datauri|url"`
}

// Regenerate godoc
//
//	@Summary		Regenerate design
//	@Description	Create a child of the design; empty fields are inherited from the parent
//	@Tags			design
//	@Accept			json
//	@Produce		json
//	@Param			X-User-ID	header	string					true	"User ID"
//	@Param			design_id	path	string					true	"Parent design ID"	Format(uuid)
//	@Param			payload		body	handler.RegenerateReq	false	"Overrides"
//	@Success		201	{object}	serializer.Response{data=model.Design}
//	@Router			/designs/{design_id}/regenerations [post]
func (h *DesignHandler) Regenerate(c *gin.Context) {
	id, ok := designID(c)
	if !ok {
		return
	}
	req := RegenerateReq{}
	if !bindOptionalJSON(c, &req) {
		return
	}

	d, err := h.svc.Regenerate(c.Request.Context(), middleware.UserID(c), id, service.RegenerateInput{
		Prompt:           req.Prompt,
		AIModel:          req.AIModel,
		UploadedImageURL: req.UploadedImageURL,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: d})
}

// GetChain godoc
//
//	@Summary		Get design chain
//	@Description	Every design of the tree containing this one, parents before children
//	@Tags			design
//	@Produce		json
//	@Param			X-User-ID	header	string	true	"User ID"
//	@Param			design_id	path	string	true	"Design ID"	Format(uuid)
//	@Success		200	{object}	serializer.Response{data=[]model.Design}
//	@Router			/designs/{design_id}/chain [get]
func (h *DesignHandler) GetChain(c *gin.Context) {
	id, ok := designID(c)
	if !ok {
		return
	}
	chain, err := h.svc.Chain(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: chain})
}

// GetChainStats godoc
//
//	@Summary		Get design chain stats
//	@Tags			design
//	@Produce		json
//	@Param			X-User-ID	header	string	true	"User ID"
//	@Param			design_id	path	string	true	"Design ID"	Format(uuid)
//	@Success		200	{object}	serializer.Response{data=service.ChainStats}
//	@Router			/designs/{design_id}/chain/stats [get]
func (h *DesignHandler) GetChainStats(c *gin.Context) {
	id, ok := designID(c)
	if !ok {
		return
	}
	stats, err := h.svc.Stats(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: stats})
}

// GetChildren godoc
//
//	@Summary		Get direct regenerations
//	@Tags			design
//	@Produce		json
//	@Param			X-User-ID	header	string	true	"User ID"
//	@Param			design_id	path	string	true	"Design ID"	Format(uuid)
//	@Success		200	{object}	serializer.Response{data=[]model.Design}
//	@Router			/designs/{design_id}/children [get]
func (h *DesignHandler) GetChildren(c *gin.Context) {
	id, ok := designID(c)
	if !ok {
		return
	}
	children, err := h.svc.Children(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: children})
}

type GenerateReq struct {
	Variations      int      `json:"variations" binding:"omitempty,min=1,max=8" example:"2"`
	ReferenceImages []string `json:"reference_images" binding:"omitempty,max=4,dive,max=10485760,datauri"`
}

// Generate godoc
//
//	@Summary		Generate design images
//	@Description	Run image generation for a PENDING design and store its outputs
//	@Tags			design
//	@Accept			json
//	@Produce		json
//	@Param			X-User-ID	header	string				true	"User ID"
//	@Param			design_id	path	string				true	"Design ID"	Format(uuid)
//	@Param			payload		body	handler.GenerateReq	false	"Options"
//	@Success		200	{object}	serializer.Response{data=service.GenerationResult}
//	@Router			/designs/{design_id}/generate [post]
func (h *DesignHandler) Generate(c *gin.Context) {
	id, ok := designID(c)
	if !ok {
		return
	}
	req := GenerateReq{}
	if !bindOptionalJSON(c, &req) {
		return
	}

	res, err := h.svc.Generate(c.Request.Context(), middleware.UserID(c), id, service.GenerateInput{
		Variations:      req.Variations,
		ReferenceImages: req.ReferenceImages,
	})
	if errors.Is(err, service.ErrNoOutputs) {
		resp := serializer.Err(serializer.CodeUpstream, "GENERATION_FAILED", "", err)
		resp.Data = res
		c.JSON(http.StatusBadGateway, resp)
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: res})
}

// Download godoc
//
//	@Summary		Download design outputs
//	@Description	Outputs with long lived signed URLs
//	@Tags			design
//	@Produce		json
//	@Param			X-User-ID	header	string	true	"User ID"
//	@Param			design_id	path	string	true	"Design ID"	Format(uuid)
//	@Success		200	{object}	serializer.Response{data=service.DesignDetail}
//	@Router			/designs/{design_id}/download [get]
func (h *DesignHandler) Download(c *gin.Context) {
	id, ok := designID(c)
	if !ok {
		return
	}
	detail, err := h.svc.Download(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: detail})
}

func designID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("design_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid design_id", err))
		return uuid.Nil, false
	}
	return id, true
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		bindFailed(c, err)
		return false
	}
	return true
}

type errMapping struct {
	target error
	status int
	code   int
	reason string
}

var errMappings = []errMapping{
	{service.ErrNotFound, http.StatusNotFound, serializer.CodeNotFound, "NOT_FOUND"},
	{service.ErrParentNotFound, http.StatusNotFound, serializer.CodeNotFound, "PARENT_NOT_FOUND"},
	{service.ErrNoOutputs, http.StatusNotFound, serializer.CodeNotFound, "NO_OUTPUTS"},
	{service.ErrForbidden, http.StatusForbidden, serializer.CodeForbidden, "FORBIDDEN"},
	{service.ErrHasChildren, http.StatusConflict, serializer.CodeConflict, "HAS_CHILDREN"},
	{service.ErrInvalidTransition, http.StatusConflict, serializer.CodeConflict, "INVALID_TRANSITION"},
	{imagegen.ErrGeneratorUnavailable, http.StatusServiceUnavailable, serializer.CodeUnavailable, "GENERATOR_UNAVAILABLE"},
	{blob.ErrStorageUnavailable, http.StatusServiceUnavailable, serializer.CodeUnavailable, "STORAGE_UNAVAILABLE"},
	{service.ErrCycleDetected, http.StatusInternalServerError, serializer.CodeIntegrity, "CYCLE_DETECTED"},
}

func (h *DesignHandler) fail(c *gin.Context, err error) {
	for _, m := range errMappings {
		if errors.Is(err, m.target) {
			if m.status >= http.StatusInternalServerError {
				h.log.Error("design request failed", zap.String("reason", m.reason), zap.Error(err))
			}
			c.JSON(m.status, serializer.Err(m.code, m.reason, "", err))
			return
		}
	}
	h.log.Error("design request failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
}
