package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/maendeleo/core"
)

// successResponse is the wire envelope for all successful responses.
type successResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
}

func jsonData(ctx echo.Context, code int, data interface{}) error {
	return ctx.JSON(code, successResponse{Status: "success", Data: data})
}

func jsonOK(ctx echo.Context, data interface{}) error {
	return jsonData(ctx, http.StatusOK, data)
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"` // or email
	Password string `json:"password" validate:"required"`
}

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}

type LoginResponse struct {
	Token string `json:"token"`
}
