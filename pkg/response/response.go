package response

import (
	"net/http"

	appErrors "github.com/goadmin/pkg/errors"
	"github.com/gofiber/fiber/v2"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageResponse 分页响应结构
type PageResponse struct {
	Code     int         `json:"code"`
	Message  string      `json:"message"`
	Data     interface{} `json:"data,omitempty"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

// 响应码定义
const (
	CodeSuccess       = 0
	CodeError         = 1
	CodeUnauthorized  = 401
	CodeForbidden     = 403
	CodeNotFound      = 404
	CodeValidateError = 422
	CodeServerError   = 500
)

// 响应消息定义
const (
	MsgSuccess      = "success"
	MsgError        = "error"
	MsgUnauthorized = "未授权"
	MsgForbidden    = "禁止访问"
	MsgNotFound     = "资源不存在"
	MsgServerError  = "服务器内部错误"
)

// Success 成功响应
func Success(c *fiber.Ctx, data interface{}) error {
	return c.Status(http.StatusOK).JSON(Response{
		Code:    CodeSuccess,
		Message: MsgSuccess,
		Data:    data,
	})
}

// SuccessPage 分页成功响应
func SuccessPage(c *fiber.Ctx, data interface{}, total int64, page, pageSize int) error {
	return c.Status(http.StatusOK).JSON(PageResponse{
		Code:     CodeSuccess,
		Message:  MsgSuccess,
		Data:     data,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// Error 错误响应
func Error(c *fiber.Ctx, code int, message string) error {
	return c.Status(http.StatusOK).JSON(Response{
		Code:    code,
		Message: message,
	})
}

// ErrorFromErr 从错误创建响应
func ErrorFromErr(c *fiber.Ctx, err error) error {
	return Error(c, appErrors.GetCode(err), appErrors.GetMessage(err))
}

// BadRequest 请求错误
func BadRequest(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusBadRequest).JSON(Response{
		Code:    CodeError,
		Message: message,
	})
}

// Unauthorized 未授权
func Unauthorized(c *fiber.Ctx, message string) error {
	if message == "" {
		message = MsgUnauthorized
	}
	return c.Status(http.StatusUnauthorized).JSON(Response{
		Code:    CodeUnauthorized,
		Message: message,
	})
}

// Forbidden 禁止访问
func Forbidden(c *fiber.Ctx, message string) error {
	if message == "" {
		message = MsgForbidden
	}
	return c.Status(http.StatusForbidden).JSON(Response{
		Code:    CodeForbidden,
		Message: message,
	})
}

// NotFound 资源不存在
func NotFound(c *fiber.Ctx, message string) error {
	if message == "" {
		message = MsgNotFound
	}
	return c.Status(http.StatusNotFound).JSON(Response{
		Code:    CodeNotFound,
		Message: message,
	})
}

// ValidateError 参数验证错误
func ValidateError(c *fiber.Ctx, message string) error {
	return c.Status(http.StatusUnprocessableEntity).JSON(Response{
		Code:    CodeValidateError,
		Message: message,
	})
}

// ServerError 服务器错误
func ServerError(c *fiber.Ctx, message string) error {
	if message == "" {
		message = MsgServerError
	}
	return c.Status(http.StatusInternalServerError).JSON(Response{
		Code:    CodeServerError,
		Message: message,
	})
}
