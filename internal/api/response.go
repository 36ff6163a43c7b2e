package api

import (
	"errors"
	"net/http"

	"github.com/KNICEX/spot-trader/internal/service/engine"
	"github.com/gin-gonic/gin"
)

// Response 统一返回结构, code 为 0 表示成功
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

func fail(c *gin.Context, status int, err error) {
	c.JSON(status, Response{Code: status, Message: err.Error()})
}

// failWith 按错误类型映射 HTTP 状态码
func failWith(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrTraderNotFound):
		fail(c, http.StatusNotFound, err)
	case errors.Is(err, engine.ErrAlreadyRunning),
		errors.Is(err, engine.ErrNotRunning),
		errors.Is(err, engine.ErrInvalidConfig),
		errors.Is(err, engine.ErrUnsupportedStrategy),
		errors.Is(err, engine.ErrDuplicateId):
		fail(c, http.StatusBadRequest, err)
	default:
		fail(c, http.StatusInternalServerError, err)
	}
}
