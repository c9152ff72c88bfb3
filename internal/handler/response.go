// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"
	"sync"

	"kb-chatbot-go/internal/knowledge"
	"kb-chatbot-go/internal/model"
	"kb-chatbot-go/internal/service"
	"kb-chatbot-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators 向 gin 的校验器注册自定义规则，例如 `binding:"threshold"`。
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("threshold", func(fl validator.FieldLevel) bool {
			return model.ValidateThreshold(fl.Field().Float()) == nil
		})
	})
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": data})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"code": status, "message": message, "data": nil})
}

// failWithError 把业务错误映射为 HTTP 状态码。
func failWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		fail(c, http.StatusNotFound, "会话不存在或已过期")
	case errors.Is(err, model.ErrInvalidThreshold):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, knowledge.ErrSourceNotFound), errors.Is(err, knowledge.ErrMissingColumn):
		log.Errorf("知识库不可用: %v", err)
		fail(c, http.StatusServiceUnavailable, err.Error())
	default:
		log.Errorf("请求处理失败: %v", err)
		fail(c, http.StatusInternalServerError, "服务内部错误")
	}
}
