// Package reconcile pulls delivery status for a dispatched batch back from
// the gateway and folds it into a status histogram.
package reconcile

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"
	"uk.co.dudmesh.bulksms/internal/gateway"
	"uk.co.dudmesh.bulksms/internal/model"
)

type Gateway interface {
	DeliveryStatus(ctx context.Context, clientTag, date string) (*gateway.StatusResponse, error)
	ReservationStatus(ctx context.Context, groupTag, scheduleDate string) (*gateway.ReservationResponse, error)
}

type Reconciler struct {
	gateway Gateway
	log     *log.Logger
}

func New(gw Gateway, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.New("reconcile")
	}
	return &Reconciler{gateway: gw, log: logger}
}

var compactDate = regexp.MustCompile(`^[0-9]{8}$`)

// CompactDate converts YYYY-MM-DD to the gateway's YYYYMMDD form. Input
// already in compact form is passed through.
func CompactDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" || compactDate.MatchString(date) {
		return date, nil
	}
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", model.NewValidationError("date", "date must be YYYY-MM-DD or YYYYMMDD")
	}
	return t.Format("20060102"), nil
}

// Reconcile queries reservation and delivery status concurrently. A failure
// of either call is recorded in its own slot and never fails the whole
// reconciliation.
func (r *Reconciler) Reconcile(ctx context.Context, query model.ReconcileQuery) (*model.Reconciliation, error) {
	groupTag := strings.TrimSpace(query.GroupTag)
	if groupTag == "" && strings.TrimSpace(query.Date) == "" {
		return nil, model.NewValidationError("groupTag", "groupTag or date is required")
	}
	date, err := CompactDate(query.Date)
	if err != nil {
		return nil, err
	}
	r.log.Infof("reconciling groupTag=%q date=%q", groupTag, date)

	// in-flight queries are not cut short by the caller
	callCtx := context.WithoutCancel(ctx)
	result := &model.Reconciliation{GroupTag: groupTag, Date: query.Date}
	var records []model.DeliveryStatusRecord

	var g errgroup.Group
	g.Go(func() error {
		resp, err := r.gateway.ReservationStatus(callCtx, groupTag, date)
		if err != nil {
			r.log.Warnf("reservation status for %q: %v", groupTag, err)
			result.ReservationStatus = model.CallResult{Err: fmt.Errorf("reservation status query failed: %w", err)}
			observe("reservation", false)
			return nil
		}
		result.ReservationStatus = model.CallResult{Body: resp.Raw, ResponseCode: resp.ResponseCode}
		observe("reservation", result.ReservationStatus.Succeeded())
		return nil
	})
	g.Go(func() error {
		// the gateway matches clientTag by prefix: the group tag selects every
		// groupTag_index item tag of the batch
		resp, err := r.gateway.DeliveryStatus(callCtx, groupTag, date)
		if err != nil {
			r.log.Warnf("delivery status for %q: %v", groupTag, err)
			result.DeliveryStatus = model.CallResult{Err: fmt.Errorf("delivery status query failed: %w", err)}
			observe("delivery", false)
			return nil
		}
		result.DeliveryStatus = model.CallResult{Body: resp.Raw, ResponseCode: resp.ResponseCode}
		records = MatchPrefix(resp.Status, groupTag)
		observe("delivery", result.DeliveryStatus.Succeeded())
		return nil
	})
	_ = g.Wait()

	result.Records = records
	result.Summary = Summarize(records)
	result.Success = result.DeliveryStatus.Succeeded() || result.ReservationStatus.Succeeded()
	r.log.Infof("reconciled groupTag=%q: %d rows, success=%t", groupTag, result.Summary.Total, result.Success)
	return result, nil
}

// Lookup runs a single delivery status query for one client tag or date.
func (r *Reconciler) Lookup(ctx context.Context, query model.StatusQuery) (*model.StatusLookup, error) {
	clientTag := strings.TrimSpace(query.ClientTag)
	if clientTag == "" && strings.TrimSpace(query.Date) == "" {
		return nil, model.NewValidationError("clientTag", "clientTag or date is required")
	}
	date, err := CompactDate(query.Date)
	if err != nil {
		return nil, err
	}
	resp, err := r.gateway.DeliveryStatus(context.WithoutCancel(ctx), clientTag, date)
	if err != nil {
		observe("delivery", false)
		return nil, model.NewTransportFailure(err)
	}
	lookup := &model.StatusLookup{
		Result:  model.CallResult{Body: resp.Raw, ResponseCode: resp.ResponseCode},
		Records: resp.Status,
	}
	lookup.Success = lookup.Result.Succeeded()
	observe("delivery", lookup.Success)
	return lookup, nil
}

// MatchPrefix keeps the rows whose clientTag starts with tag. An empty tag
// keeps every row.
func MatchPrefix(rows []model.DeliveryStatusRecord, tag string) []model.DeliveryStatusRecord {
	if tag == "" {
		return rows
	}
	out := make([]model.DeliveryStatusRecord, 0, len(rows))
	for _, row := range rows {
		if strings.HasPrefix(row.ClientTag, tag) {
			out = append(out, row)
		}
	}
	return out
}

func Summarize(rows []model.DeliveryStatusRecord) model.StatusSummary {
	summary := model.StatusSummary{Total: len(rows), ByStatusID: model.StatusHistogram{}}
	for _, row := range rows {
		summary.ByStatusID.Add(row.StatusID)
	}
	return summary
}
