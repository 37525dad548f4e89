package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/roomforge/api/internal/infra/blob"
	"github.com/roomforge/api/internal/modules/serializer"
)

// RegisterValidators adds the request tags used by this package.
func RegisterValidators(v *validator.Validate) error {
	return v.RegisterValidation("datauri", func(fl validator.FieldLevel) bool {
		_, err := blob.DecodeDataURI(fl.Field().String())
		return err == nil
	})
}

// bindFailed answers 413 when the body hit the MaxBodyBytes cap and 400
// otherwise.
func bindFailed(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge,
			serializer.Err(serializer.CodeTooLarge, "PAYLOAD_TOO_LARGE", "", err))
		return
	}
	c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
}
