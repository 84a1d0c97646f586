package dto

import (
	"net/http"
)

type BaseResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func NewBaseResponse(code int, message string, data interface{}) *BaseResponse {
	return &BaseResponse{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func NewBadRequestResponse(message string) *BaseResponse {
	return NewBaseResponse(http.StatusBadRequest, message, nil)
}

func NewSuccessResponse(message string, data interface{}) *BaseResponse {
	return NewBaseResponse(http.StatusOK, message, data)
}

func NewErrorResponse(code int, message string) *BaseResponse {
	return NewBaseResponse(code, message, nil)
}

// ListSignalsRequest binds the GET /signals query. A zero limit means the default.
type ListSignalsRequest struct {
	Limit     int    `query:"limit" validate:"min=0,max=500"`
	Asset     string `query:"asset" validate:"max=64"`
	Direction string `query:"direction" validate:"max=16"`
}

type LatestSignalRequest struct {
	Asset string `query:"asset" validate:"max=64"`
}

type DeleteSignalRequest struct {
	ID uint `param:"id"`
}

type DeleteSignalResponse struct {
	Status string `json:"status"`
	ID     uint   `json:"id"`
}

type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Timestamp    string `json:"timestamp"`
	SignalsTotal int64  `json:"signals_total"`
}
