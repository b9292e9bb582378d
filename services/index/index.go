package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/meghashyamc/notefind/db/kvdb"
	"github.com/meghashyamc/notefind/logger"
	"github.com/meghashyamc/notefind/metrics"
)

const (
	ProgressStatusQueued   = 0
	ProgressStatusStep1    = 10
	ProgressStatusStep2    = 20
	ProgressStatusComplete = 100
	ProgressStatusFailed   = -1

	maxRepairTime = 30 * time.Minute
)

var ErrRepairInProgress = errors.New("index repair already in progress")

// RepairRunner is the repair the job service schedules.
type RepairRunner interface {
	Repair(ctx context.Context, opts ...RepairOption) (RepairReport, error)
}

// Status is what GetStatus reports for a repair request.
type Status struct {
	Progress int           `json:"progress"`
	Report   *RepairReport `json:"report,omitempty"`
	Error    string        `json:"error,omitempty"`
}

type Service struct {
	logger        logger.Logger
	repairer      RepairRunner
	metadataStore MetadataStore
	repairC       chan repairRequest
	session       sync.Locker
}

type ServiceOption func(*Service)

// WithSession makes every repair hold session, the lock store writers hold,
// so no write lands between the store and index listings.
func WithSession(session sync.Locker) ServiceOption {
	return func(s *Service) { s.session = session }
}

type repairRequest struct {
	requestID   string
	fullReindex bool
}

func New(ctx context.Context, logger logger.Logger, repairer RepairRunner, metadataStore MetadataStore, opts ...ServiceOption) *Service {
	indexService := &Service{
		logger:        logger,
		repairer:      repairer,
		metadataStore: metadataStore,
		repairC:       make(chan repairRequest),
	}
	for _, opt := range opts {
		opt(indexService)
	}

	go indexService.run(ctx)
	return indexService
}

// Start schedules a repair. It fails with ErrRepairInProgress while another
// repair is running.
func (s *Service) Start(requestID string, fullReindex bool) error {

	s.setRequestStatus(requestID, Status{Progress: ProgressStatusQueued})

	select {
	// This leads to s.repair being called
	case s.repairC <- repairRequest{requestID: requestID, fullReindex: fullReindex}:
		return nil
	default:
		s.logger.Warn("request to repair while a repair is already in progress", "request_id", requestID)
		if err := s.metadataStore.Delete(kvdb.RequestsBucket, requestID); err != nil {
			s.logger.Error("failed to discard rejected request", "request_id", requestID, "err", err.Error())
		}
		return ErrRepairInProgress
	}
}

// GetStatus retrieves the progress of a repair request.
func (s *Service) GetStatus(requestID string) (Status, error) {
	value, err := s.metadataStore.Get(kvdb.RequestsBucket, requestID)
	if err != nil {
		return Status{}, fmt.Errorf("request not found: %w", err)
	}

	var status Status
	if err := json.Unmarshal([]byte(value), &status); err != nil {
		return Status{}, fmt.Errorf("invalid status value: %w", err)
	}

	return status, nil
}

func (s *Service) run(ctx context.Context) {

	for {
		select {
		case req := <-s.repairC:
			s.repair(ctx, req)
		case <-ctx.Done():
			s.logger.Info("index service stopped", "reason", ctx.Err())
			return
		}
	}
}

func (s *Service) repair(ctx context.Context, req repairRequest) {
	if s.session != nil {
		s.session.Lock()
		defer s.session.Unlock()
	}

	repairCtx, cancel := context.WithTimeout(ctx, maxRepairTime)
	defer cancel()

	opts := []RepairOption{WithProgress(func(p Progress) {
		s.setRequestStatus(req.requestID, Status{Progress: progressOf(p)})
	})}
	if req.fullReindex {
		opts = append(opts, WithFullReindex())
	}

	report, err := s.repairer.Repair(repairCtx, opts...)
	if err != nil {
		s.logger.Error("failed to repair index", "request_id", req.requestID, "err", err.Error())
		s.setRequestStatus(req.requestID, Status{Progress: ProgressStatusFailed, Error: err.Error()})
		return
	}

	metrics.RepairPrunedTotal.Add(float64(len(report.Pruned)))
	metrics.RepairBackfilledTotal.Add(float64(len(report.Backfilled)))

	s.setRequestStatus(req.requestID, Status{Progress: ProgressStatusComplete, Report: &report})
}

func (s *Service) setRequestStatus(requestID string, status Status) {
	data, err := json.Marshal(status)
	if err != nil {
		s.logger.Error("failed to marshal request status", "request_id", requestID, "err", err.Error())
		return
	}
	if err := s.metadataStore.Set(kvdb.RequestsBucket, requestID, string(data)); err != nil {
		s.logger.Error("failed to update request status", "request_id", requestID, "progress", status.Progress, "err", err.Error())
	}
}

func progressOf(p Progress) int {
	switch p.Phase {
	case PhaseCompared:
		return ProgressStatusStep1
	case PhasePruned:
		return ProgressStatusStep2
	default:
		return getProgressPercentage(p.Done, p.Total, ProgressStatusStep2, ProgressStatusComplete-1)
	}
}

func getProgressPercentage(done int, total int, initial int, final int) int {
	if done == 0 || total == 0 {
		return initial
	}

	if done >= total {
		return final
	}

	progress := float64(done) / float64(total)
	result := float64(initial) + progress*float64(final-initial)

	return int(result)

}
