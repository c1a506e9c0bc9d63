package service

import (
	"time"

	"github.com/okian/stampcard/internal/domain/cheer"
	"github.com/okian/stampcard/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLogClient sets the remote log used for sync and append.
func WithLogClient(c LogClient) Option {
	return func(s *Service) {
		if c != nil {
			s.log = c
		}
	}
}

// WithCheer sets the cheer suggester used after a stamp.
func WithCheer(c cheer.Suggester) Option {
	return func(s *Service) {
		if c != nil {
			s.cheer = c
		}
	}
}

// WithSyncInterval sets how often the log is replayed. Zero or negative
// disables the periodic sync.
func WithSyncInterval(d time.Duration) Option {
	return func(s *Service) {
		s.syncInterval = d
	}
}

// WithQueueSize sets how many appends may wait for the worker.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithRequestTimeout bounds each append and cheer request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithHistoryPageSize sets the page length of History.
func WithHistoryPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyPageSize = n
		}
	}
}

// WithClock replaces time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
