package model

import "time"

type Outcome int

const (
	OutcomeAccepted Outcome = iota
	OutcomeRejected
	OutcomeTransportFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejected:
		return "rejected"
	default:
		return "transport_error"
	}
}

// DispatchTag correlates one outbound call with the status rows the gateway
// reports for it later. ItemTag is always GroupTag + "_" + index.
type DispatchTag struct {
	GroupTag string `json:"groupTag"`
	ItemTag  string `json:"clientTag"`
}

// GatewayAck is the decoded body of a completed send call, whatever the HTTP
// status was.
type GatewayAck struct {
	ResponseCode    int    `json:"responseCode"`
	ResponseMessage string `json:"responseMessage"`
	PhoneNumber     string `json:"phoneNumber,omitempty"`
	SmsMessage      string `json:"smsMessage,omitempty"`
}

func (a *GatewayAck) Accepted() bool {
	return a.ResponseCode == 0
}

// Err returns nil for an accepted ack and a *GatewayRejection otherwise.
func (a *GatewayAck) Err() error {
	if a.Accepted() {
		return nil
	}
	return &GatewayRejection{Code: a.ResponseCode, Message: a.ResponseMessage}
}

// DispatchAttempt is exactly one of Ack or Failure once finalized.
type DispatchAttempt struct {
	Index       int
	Destination string
	Message     string
	Tag         DispatchTag
	Ack         *GatewayAck
	Failure     *TransportFailure
	StartedAt   time.Time
	FinishedAt  time.Time
}

func (a *DispatchAttempt) Outcome() Outcome {
	switch {
	case a.Failure != nil || a.Ack == nil:
		return OutcomeTransportFailure
	case a.Ack.Accepted():
		return OutcomeAccepted
	default:
		return OutcomeRejected
	}
}

type Summary struct {
	Total           int `json:"total" yaml:"total"`
	Success         int `json:"success" yaml:"success"`
	Failed          int `json:"failed" yaml:"failed"`
	TransportErrors int `json:"errors" yaml:"errors"`
}

// BatchResult is immutable once the dispatch loop returns it.
type BatchResult struct {
	GroupTag       string
	Message        string
	Attempts       []DispatchAttempt
	Summary        Summary
	OverallSuccess bool
}

type SendParams struct {
	PhoneNumber string
	Message     string
	ClientTag   string
}

type SendResult struct {
	ClientTag string
	Ack       *GatewayAck
}

func (r *SendResult) Success() bool {
	return r.Ack != nil && r.Ack.Accepted()
}

type BatchSendParams struct {
	PhoneNumbers     []string
	PhoneNumbersText string
	Message          string
	GroupTag         string
}
