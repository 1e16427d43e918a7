package api

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/dewei/SentimentRadar/pkg/model"
)

var validatorsOnce sync.Once

// registerValidators 注册 tradedate 校验：YYYY-MM-DD 或 YYYYMMDD
func registerValidators() {
	validatorsOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("tradedate", func(fl validator.FieldLevel) bool {
				_, err := model.NormalizeTradeDate(fl.Field().String())
				return err == nil
			})
		}
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// fail 按错误类型映射HTTP状态码
func fail(c *gin.Context, action string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrInvalidDate):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrSnapshotNotFound), errors.Is(err, model.ErrStockNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrUpstream):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": action + ": " + err.Error()})
}
