package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"uk.co.dudmesh.bulksms/internal/model"
)

func testConfig(endpoint string) Config {
	return Config{
		Endpoint: endpoint,
		Token:    "secret-token",
		ClientID: "client-1",
		SMSCode:  "77777",
	}
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	client, err := New(Config{Endpoint: "http://localhost", ClientID: "client-1"})
	assert.Nil(client)
	assert.True(errors.Is(err, model.ErrorConfiguration))
	var cfgErr *model.ConfigurationError
	if assert.True(errors.As(err, &cfgErr)) {
		assert.Equal([]string{"ZETTAI_REACH_TOKEN", "ZETTAI_REACH_SMS_CODE"}, cfgErr.Missing)
	}
}

func TestSend(t *testing.T) {
	assert := assert.New(t)

	var form url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(http.MethodPost, r.Method)
		assert.Equal(sendPath, r.URL.Path)
		assert.Equal("application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		_ = r.ParseForm()
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"responseCode":0,"responseMessage":"Success","phoneNumber":"09011112222","smsMessage":"Test"}`))
	}))
	defer server.Close()

	client, err := New(testConfig(server.URL + "/"))
	assert.Nil(err)

	ack, err := client.Send(context.Background(), SendRequest{
		PhoneNumber: "09011112222",
		Message:     "Test",
		ClientTag:   "batch_1_0",
		GroupTag:    "batch_1",
	})
	assert.Nil(err)
	if assert.NotNil(ack) {
		assert.True(ack.Accepted())
		assert.Equal("Success", ack.ResponseMessage)
		assert.Equal("09011112222", ack.PhoneNumber)
	}
	assert.Equal("secret-token", form.Get("token"))
	assert.Equal("client-1", form.Get("clientId"))
	assert.Equal("77777", form.Get("smsCode"))
	assert.Equal("09011112222", form.Get("phoneNumber"))
	assert.Equal("Test", form.Get("message"))
	assert.Equal("batch_1_0", form.Get("clientTag"))
	assert.Equal("batch_1", form.Get("groupTag"))
}

func TestSendErrorStatus(t *testing.T) {
	assert := assert.New(t)

	t.Run("JSON body is an ack", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"responseCode":1,"responseMessage":"invalid number"}`))
		}))
		defer server.Close()

		client, _ := New(testConfig(server.URL))
		ack, err := client.Send(context.Background(), SendRequest{PhoneNumber: "1", Message: "m"})
		assert.Nil(err)
		if assert.NotNil(ack) {
			assert.False(ack.Accepted())
			var rejection *model.GatewayRejection
			assert.True(errors.As(ack.Err(), &rejection))
			assert.Equal(1, rejection.Code)
		}
	})

	t.Run("Malformed body is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>bad gateway</html>`))
		}))
		defer server.Close()

		client, _ := New(testConfig(server.URL))
		ack, err := client.Send(context.Background(), SendRequest{PhoneNumber: "1", Message: "m"})
		assert.Nil(ack)
		assert.NotNil(err)
	})

	t.Run("Body without responseCode is an error", func(t *testing.T) {
		for _, body := range []string{`{}`, `null`, `{"error":"service unavailable"}`} {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(body))
			}))

			client, _ := New(testConfig(server.URL))
			ack, err := client.Send(context.Background(), SendRequest{PhoneNumber: "1", Message: "m"})
			assert.Nil(ack, body)
			if assert.NotNil(err, body) {
				assert.Contains(err.Error(), "responseCode", body)
			}
			server.Close()
		}
	})

	t.Run("Connection refused does not leak the token", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		endpoint := server.URL
		server.Close()

		client, _ := New(testConfig(endpoint))
		_, err := client.DeliveryStatus(context.Background(), "batch_1", "")
		if assert.NotNil(err) {
			assert.NotContains(err.Error(), "secret-token")
		}
	})
}

func TestDeliveryStatus(t *testing.T) {
	assert := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(statusPath, r.URL.Path)
		q := r.URL.Query()
		assert.Equal("secret-token", q.Get("token"))
		assert.Equal("client-1", q.Get("clientId"))
		assert.Equal("batch_42", q.Get("clientTag"))
		assert.Equal("20240131", q.Get("date"))
		_, _ = w.Write([]byte(`{"responseCode":0,"status":[
			{"dateTime":"2024-01-31 10:00:00","phoneNumber":"09011112222","statusId":2,"carrierId":null,"carrierName":"docomo","clientTag":"batch_42_0","detailedStatusId":"200"},
			{"dateTime":"2024-01-31 10:00:01","phoneNumber":"09033334444","statusId":"3","carrierId":"1","carrierName":"au","clientTag":"batch_42_1","detailedStatusId":"300","separatedSuccessCount":1}
		]}`))
	}))
	defer server.Close()

	client, _ := New(testConfig(server.URL))
	resp, err := client.DeliveryStatus(context.Background(), "batch_42", "20240131")
	assert.Nil(err)
	if assert.NotNil(resp) && assert.NotNil(resp.ResponseCode) {
		assert.Equal(0, *resp.ResponseCode)
		assert.Len(resp.Status, 2)
		assert.Equal(model.Code("2"), resp.Status[0].StatusID)
		assert.Equal(model.Code(""), resp.Status[0].CarrierID)
		assert.Equal(model.Code("3"), resp.Status[1].StatusID)
		assert.Equal("batch_42_1", resp.Status[1].ClientTag)
		assert.NotEmpty(resp.Raw)
	}
}

func TestReservationStatus(t *testing.T) {
	assert := assert.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(reservationPath, r.URL.Path)
		assert.Equal("batch_42", r.URL.Query().Get("groupTag"))
		assert.Equal("20240131", r.URL.Query().Get("scheduleDate"))
		_, _ = w.Write([]byte(`{"responseCode":0,"reservations":[{"id":1}]}`))
	}))
	defer server.Close()

	client, _ := New(testConfig(server.URL))
	resp, err := client.ReservationStatus(context.Background(), "batch_42", "20240131")
	assert.Nil(err)
	if assert.NotNil(resp) {
		assert.Equal(0, *resp.ResponseCode)
		assert.JSONEq(`{"responseCode":0,"reservations":[{"id":1}]}`, string(resp.Raw))
	}
}
