package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"uk.co.dudmesh.bulksms/internal/model"
)

type fakeService struct {
	batchParams *model.BatchSendParams
	query       model.ReconcileQuery
	sendParams  *model.SendParams
	err         error
}

func (f *fakeService) BatchSend(ctx context.Context, params *model.BatchSendParams) (*model.BatchResult, error) {
	f.batchParams = params
	if f.err != nil {
		return nil, f.err
	}
	return &model.BatchResult{
		GroupTag: "batch_1",
		Attempts: []model.DispatchAttempt{
			{
				Index:       0,
				Destination: "09011112222",
				Tag:         model.DispatchTag{GroupTag: "batch_1", ItemTag: "batch_1_0"},
				Ack:         &model.GatewayAck{ResponseCode: 0, ResponseMessage: "Success"},
			},
			{
				Index:       2,
				Destination: "09033334444",
				Tag:         model.DispatchTag{GroupTag: "batch_1", ItemTag: "batch_1_2"},
				Failure:     &model.TransportFailure{Cause: "timeout"},
			},
		},
		Summary:        model.Summary{Total: 2, Success: 1, TransportErrors: 1},
		OverallSuccess: true,
	}, nil
}

func (f *fakeService) BatchStatus(ctx context.Context, query model.ReconcileQuery) (*model.Reconciliation, error) {
	f.query = query
	if f.err != nil {
		return nil, f.err
	}
	code := 0
	return &model.Reconciliation{
		GroupTag:          query.GroupTag,
		Date:              query.Date,
		ReservationStatus: model.CallResult{Err: errors.New("reservation status query failed")},
		DeliveryStatus:    model.CallResult{Body: json.RawMessage(`{"responseCode":0,"status":[]}`), ResponseCode: &code},
		Summary:           model.StatusSummary{ByStatusID: model.StatusHistogram{}},
		Success:           true,
	}, nil
}

func (f *fakeService) Send(ctx context.Context, params *model.SendParams) (*model.SendResult, error) {
	f.sendParams = params
	if f.err != nil {
		return nil, f.err
	}
	return &model.SendResult{ClientTag: "test_1", Ack: &model.GatewayAck{ResponseCode: 0, ResponseMessage: "Success"}}, nil
}

func (f *fakeService) Status(ctx context.Context, query model.StatusQuery) (*model.StatusLookup, error) {
	if f.err != nil {
		return nil, f.err
	}
	code := 0
	return &model.StatusLookup{
		Result:  model.CallResult{Body: json.RawMessage(`{"responseCode":0,"status":[{"clientTag":"` + query.ClientTag + `"}]}`), ResponseCode: &code},
		Success: true,
	}, nil
}

func newServer(service SMSService) *echo.Echo {
	server := echo.New()
	server.Validator = NewValidator()
	server.HTTPErrorHandler = ErrorHandler
	Register(server, service)
	return server
}

func do(server *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	var out map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestBatchSend(t *testing.T) {
	assert := assert.New(t)

	t.Run("Reports results and errors", func(t *testing.T) {
		service := &fakeService{}
		rec, out := do(newServer(service), http.MethodPost, "/api/sms/batch-send",
			`{"phoneNumbers":["09011112222","","09033334444"],"message":"Test"}`)

		assert.Equal(http.StatusOK, rec.Code)
		assert.Equal([]string{"09011112222", "", "09033334444"}, service.batchParams.PhoneNumbers)
		assert.Equal("batch_1", out["groupTag"])
		assert.Equal(true, out["success"])
		assert.Equal(map[string]interface{}{"total": 2.0, "success": 1.0, "failed": 0.0, "errors": 1.0}, out["summary"])

		results := out["results"].([]interface{})
		if assert.Len(results, 1) {
			first := results[0].(map[string]interface{})
			assert.Equal("batch_1_0", first["clientTag"])
			assert.Equal(true, first["success"])
		}
		failures := out["errors"].([]interface{})
		if assert.Len(failures, 1) {
			assert.Equal(map[string]interface{}{"index": 2.0, "phoneNumber": "09033334444", "error": "timeout"}, failures[0])
		}
	})

	t.Run("Message is required", func(t *testing.T) {
		service := &fakeService{}
		rec, out := do(newServer(service), http.MethodPost, "/api/sms/batch-send", `{"phoneNumbers":["09011112222"]}`)

		assert.Equal(http.StatusBadRequest, rec.Code)
		assert.Equal("message: message is required", out["error"])
		assert.Nil(service.batchParams)
	})

	t.Run("Message length", func(t *testing.T) {
		service := &fakeService{}
		body := `{"phoneNumbers":["09011112222"],"message":"` + strings.Repeat("あ", 661) + `"}`
		rec, _ := do(newServer(service), http.MethodPost, "/api/sms/batch-send", body)

		assert.Equal(http.StatusBadRequest, rec.Code)
		assert.Nil(service.batchParams)
	})

	t.Run("Invalid numbers are listed", func(t *testing.T) {
		service := &fakeService{err: &model.ValidationError{
			Field:   "phoneNumbers",
			Reason:  "invalid phone numbers",
			Invalid: []string{"1", "2", "3"},
			More:    2,
		}}
		rec, out := do(newServer(service), http.MethodPost, "/api/sms/batch-send", `{"phoneNumbersText":"1\n2\n3\n4\n5","message":"Test"}`)

		assert.Equal(http.StatusBadRequest, rec.Code)
		assert.Contains(out["error"], "and 2 more")
		assert.Equal([]interface{}{"1", "2", "3"}, out["invalid"])
	})

	t.Run("Configuration error", func(t *testing.T) {
		service := &fakeService{err: &model.ConfigurationError{Missing: []string{"ZETTAI_REACH_TOKEN"}}}
		rec, out := do(newServer(service), http.MethodPost, "/api/sms/batch-send", `{"phoneNumbers":["09011112222"],"message":"Test"}`)

		assert.Equal(http.StatusInternalServerError, rec.Code)
		assert.Contains(out["error"], "ZETTAI_REACH_TOKEN")
	})

	t.Run("Malformed body", func(t *testing.T) {
		rec, _ := do(newServer(&fakeService{}), http.MethodPost, "/api/sms/batch-send", `{"phoneNumbers":`)
		assert.Equal(http.StatusBadRequest, rec.Code)
	})
}

func TestBatchStatus(t *testing.T) {
	assert := assert.New(t)

	service := &fakeService{}
	rec, out := do(newServer(service), http.MethodGet, "/api/sms/batch-status?groupTag=batch_1&date=2024-03-01", "")

	assert.Equal(http.StatusOK, rec.Code)
	assert.Equal(model.ReconcileQuery{GroupTag: "batch_1", Date: "2024-03-01"}, service.query)
	assert.Equal("2024-03-01", out["date"])
	assert.Equal(map[string]interface{}{"error": "reservation status query failed"}, out["reservationStatus"])
	assert.Equal(map[string]interface{}{"responseCode": 0.0, "status": []interface{}{}}, out["deliveryStatus"])
	assert.Equal(true, out["success"])
}

func TestSend(t *testing.T) {
	assert := assert.New(t)

	t.Run("Ok", func(t *testing.T) {
		service := &fakeService{}
		server := echo.New()
		server.Validator = NewValidator()
		req := httptest.NewRequest(http.MethodPost, "/api/sms/send", strings.NewReader(`{"phoneNumber":"09011112222","message":"Hi"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := server.NewContext(req, rec)

		assert.Nil(Send(service)(c))
		assert.Equal(http.StatusOK, rec.Code)
		assert.Equal("09011112222", service.sendParams.PhoneNumber)

		var out model.SendReport
		assert.Nil(json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Equal(model.SendReport{ResponseCode: 0, ResponseMessage: "Success", ClientTag: "test_1", Success: true}, out)
	})

	t.Run("Phone number is required", func(t *testing.T) {
		rec, out := do(newServer(&fakeService{}), http.MethodPost, "/api/sms/send", `{"message":"Hi"}`)
		assert.Equal(http.StatusBadRequest, rec.Code)
		assert.Equal("phoneNumber: phoneNumber is required", out["error"])
	})

	t.Run("Transport failure", func(t *testing.T) {
		rec, out := do(newServer(&fakeService{err: &model.TransportFailure{Cause: "connection refused"}}),
			http.MethodPost, "/api/sms/send", `{"phoneNumber":"09011112222","message":"Hi"}`)
		assert.Equal(http.StatusInternalServerError, rec.Code)
		assert.Equal("connection refused", out["details"])
	})
}

func TestStatus(t *testing.T) {
	assert := assert.New(t)

	rec, out := do(newServer(&fakeService{}), http.MethodGet, "/api/sms/status?clientTag=test_1", "")
	assert.Equal(http.StatusOK, rec.Code)
	assert.Equal(true, out["success"])
	assert.Equal(0.0, out["responseCode"])
	assert.Len(out["status"], 1)

	rec, out = do(newServer(&fakeService{err: model.NewValidationError("clientTag", "clientTag or date is required")}),
		http.MethodGet, "/api/sms/status", "")
	assert.Equal(http.StatusBadRequest, rec.Code)
	assert.Contains(out["error"], "clientTag or date is required")
}

func TestHealth(t *testing.T) {
	assert := assert.New(t)

	rec, out := do(newServer(&fakeService{}), http.MethodGet, "/healthz", "")
	assert.Equal(http.StatusOK, rec.Code)
	assert.Equal("ok", out["status"])

	rec, _ = do(newServer(&fakeService{}), http.MethodGet, "/nowhere", "")
	assert.Equal(http.StatusNotFound, rec.Code)
}
