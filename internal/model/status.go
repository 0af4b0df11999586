package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

const UnknownStatus = "unknown"

// Code holds gateway identifiers that arrive as either JSON strings or
// numbers. JSON null decodes to the empty string.
type Code string

func (c *Code) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*c = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Code(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = Code(n.String())
	return nil
}

func (c Code) Int() (int, bool) {
	n, err := strconv.Atoi(string(c))
	return n, err == nil
}

type DeliveryStatusRecord struct {
	DateTime              string `json:"dateTime"`
	PhoneNumber           string `json:"phoneNumber"`
	Message               string `json:"message"`
	SmsCode               Code   `json:"smsCode"`
	CarrierID             Code   `json:"carrierId"`
	CarrierName           string `json:"carrierName"`
	StatusID              Code   `json:"statusId"`
	StatusDescription     string `json:"statusDescription,omitempty"`
	ClientTag             string `json:"clientTag"`
	DetailedStatusID      Code   `json:"detailedStatusId"`
	SeparatedSuccessCount *int   `json:"separatedSuccessCount,omitempty"`
}

type StatusHistogram map[string]int

func (h StatusHistogram) Add(statusID Code) {
	key := string(statusID)
	if key == "" {
		key = UnknownStatus
	}
	h[key]++
}

type StatusSummary struct {
	Total      int             `json:"total" yaml:"total"`
	ByStatusID StatusHistogram `json:"byStatusId" yaml:"byStatusId"`
}

// CallResult is one downstream slot of a reconciliation. A failed call is
// rendered as {"error": "..."} instead of the gateway body.
type CallResult struct {
	Body         json.RawMessage
	ResponseCode *int
	Err          error
}

func (r CallResult) Succeeded() bool {
	return r.Err == nil && r.ResponseCode != nil && *r.ResponseCode == 0
}

func (r CallResult) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(map[string]string{"error": r.Err.Error()})
	}
	if len(r.Body) == 0 {
		return []byte("null"), nil
	}
	return r.Body, nil
}

// Value returns the slot as a generic value, for encoders other than JSON.
func (r CallResult) Value() interface{} {
	if r.Err != nil {
		return map[string]string{"error": r.Err.Error()}
	}
	var v interface{}
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil
	}
	return v
}

func (r CallResult) MarshalYAML() (interface{}, error) {
	return r.Value(), nil
}

type ReconcileQuery struct {
	GroupTag string
	Date     string
}

// Reconciliation merges the two status queries for a batch. DeliveryStatus
// is the gateway body as received; Records and Summary hold only the rows
// whose clientTag starts with GroupTag, so Summary.Total can be smaller than
// the number of rows in DeliveryStatus.
type Reconciliation struct {
	GroupTag          string                 `json:"groupTag" yaml:"groupTag"`
	Date              string                 `json:"date" yaml:"date"`
	ReservationStatus CallResult             `json:"reservationStatus" yaml:"reservationStatus"`
	DeliveryStatus    CallResult             `json:"deliveryStatus" yaml:"deliveryStatus"`
	Records           []DeliveryStatusRecord `json:"-" yaml:"-"`
	Summary           StatusSummary          `json:"summary" yaml:"summary"`
	Success           bool                   `json:"success" yaml:"success"`
}

type StatusQuery struct {
	ClientTag string
	Date      string
}

type StatusLookup struct {
	Result  CallResult
	Records []DeliveryStatusRecord
	Success bool
}
