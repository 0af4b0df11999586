package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"uk.co.dudmesh.bulksms/internal/model"
)

type SMSService interface {
	BatchSend(ctx context.Context, params *model.BatchSendParams) (*model.BatchResult, error)
	BatchStatus(ctx context.Context, query model.ReconcileQuery) (*model.Reconciliation, error)
	Send(ctx context.Context, params *model.SendParams) (*model.SendResult, error)
	Status(ctx context.Context, query model.StatusQuery) (*model.StatusLookup, error)
}

type BatchSendRequest struct {
	PhoneNumbers     []string `json:"phoneNumbers"`
	PhoneNumbersText string   `json:"phoneNumbersText"`
	Message          string   `json:"message" validate:"required,max=660"`
	GroupTag         string   `json:"groupTag" validate:"max=200"`
}

type SendRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Message     string `json:"message" validate:"required,max=660"`
	ClientTag   string `json:"clientTag" validate:"max=200"`
}

func BatchSend(smsService SMSService) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := &BatchSendRequest{}
		if err := c.Bind(req); err != nil {
			return err
		}
		if err := c.Validate(req); err != nil {
			return err
		}
		result, err := smsService.BatchSend(c.Request().Context(), &model.BatchSendParams{
			PhoneNumbers:     req.PhoneNumbers,
			PhoneNumbersText: req.PhoneNumbersText,
			Message:          req.Message,
			GroupTag:         req.GroupTag,
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, result.Report())
	}
}

func BatchStatus(smsService SMSService) echo.HandlerFunc {
	return func(c echo.Context) error {
		result, err := smsService.BatchStatus(c.Request().Context(), model.ReconcileQuery{
			GroupTag: c.QueryParam("groupTag"),
			Date:     c.QueryParam("date"),
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, result)
	}
}

func Send(smsService SMSService) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := &SendRequest{}
		if err := c.Bind(req); err != nil {
			return err
		}
		if err := c.Validate(req); err != nil {
			return err
		}
		result, err := smsService.Send(c.Request().Context(), &model.SendParams{
			PhoneNumber: req.PhoneNumber,
			Message:     req.Message,
			ClientTag:   req.ClientTag,
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, result.Report())
	}
}

func Status(smsService SMSService) echo.HandlerFunc {
	return func(c echo.Context) error {
		lookup, err := smsService.Status(c.Request().Context(), model.StatusQuery{
			ClientTag: c.QueryParam("clientTag"),
			Date:      c.QueryParam("date"),
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, lookup.Report())
	}
}

func Health() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Register mounts the SMS routes on server.
func Register(server *echo.Echo, smsService SMSService) {
	server.GET("/healthz", Health())
	api := server.Group("/api/sms")
	api.POST("/batch-send", BatchSend(smsService))
	api.GET("/batch-status", BatchStatus(smsService))
	api.POST("/send", Send(smsService))
	api.GET("/status", Status(smsService))
}
