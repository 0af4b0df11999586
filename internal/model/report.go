package model

import "encoding/json"

// BatchReport is the client-facing rendering of a BatchResult. Gateway acks
// land in Results and transport failures in Errors.
type BatchReport struct {
	Summary  Summary       `json:"summary" yaml:"summary"`
	GroupTag string        `json:"groupTag" yaml:"groupTag"`
	Results  []ItemResult  `json:"results" yaml:"results"`
	Errors   []ItemFailure `json:"errors" yaml:"errors"`
	Success  bool          `json:"success" yaml:"success"`
}

type ItemResult struct {
	Index           int    `json:"index" yaml:"index"`
	PhoneNumber     string `json:"phoneNumber" yaml:"phoneNumber"`
	ClientTag       string `json:"clientTag" yaml:"clientTag"`
	ResponseCode    int    `json:"responseCode" yaml:"responseCode"`
	ResponseMessage string `json:"responseMessage" yaml:"responseMessage"`
	SmsMessage      string `json:"smsMessage,omitempty" yaml:"smsMessage,omitempty"`
	Success         bool   `json:"success" yaml:"success"`
}

type ItemFailure struct {
	Index       int    `json:"index" yaml:"index"`
	PhoneNumber string `json:"phoneNumber" yaml:"phoneNumber"`
	Error       string `json:"error" yaml:"error"`
}

func (r *BatchResult) Report() *BatchReport {
	report := &BatchReport{
		Summary:  r.Summary,
		GroupTag: r.GroupTag,
		Results:  []ItemResult{},
		Errors:   []ItemFailure{},
		Success:  r.OverallSuccess,
	}
	for _, a := range r.Attempts {
		if a.Outcome() == OutcomeTransportFailure {
			cause := "empty gateway response"
			if a.Failure != nil {
				cause = a.Failure.Cause
			}
			report.Errors = append(report.Errors, ItemFailure{Index: a.Index, PhoneNumber: a.Destination, Error: cause})
			continue
		}
		report.Results = append(report.Results, ItemResult{
			Index:           a.Index,
			PhoneNumber:     a.Destination,
			ClientTag:       a.Tag.ItemTag,
			ResponseCode:    a.Ack.ResponseCode,
			ResponseMessage: a.Ack.ResponseMessage,
			SmsMessage:      a.Ack.SmsMessage,
			Success:         a.Ack.Accepted(),
		})
	}
	return report
}

type SendReport struct {
	ResponseCode    int    `json:"responseCode" yaml:"responseCode"`
	ResponseMessage string `json:"responseMessage" yaml:"responseMessage"`
	PhoneNumber     string `json:"phoneNumber,omitempty" yaml:"phoneNumber,omitempty"`
	SmsMessage      string `json:"smsMessage,omitempty" yaml:"smsMessage,omitempty"`
	ClientTag       string `json:"clientTag" yaml:"clientTag"`
	Success         bool   `json:"success" yaml:"success"`
}

func (r *SendResult) Report() *SendReport {
	report := &SendReport{ClientTag: r.ClientTag, Success: r.Success()}
	if r.Ack != nil {
		report.ResponseCode = r.Ack.ResponseCode
		report.ResponseMessage = r.Ack.ResponseMessage
		report.PhoneNumber = r.Ack.PhoneNumber
		report.SmsMessage = r.Ack.SmsMessage
	}
	return report
}

// Report returns the gateway body with success merged in. A body that is
// not a JSON object is kept under "body".
func (l *StatusLookup) Report() map[string]interface{} {
	report := map[string]interface{}{}
	if len(l.Result.Body) > 0 {
		if err := json.Unmarshal(l.Result.Body, &report); err != nil {
			report = map[string]interface{}{"body": l.Result.Value()}
		}
	}
	if report == nil {
		report = map[string]interface{}{}
	}
	report["success"] = l.Success
	return report
}
