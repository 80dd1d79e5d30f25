package health

import (
	"context"
	"sort"
	"time"
)

// Checker pings one dependency.
type Checker func(ctx context.Context) error

// Report is the health payload.
type Report struct {
	OK         bool              `json:"ok"`
	Components map[string]string `json:"components,omitempty"`
}

// Service runs dependency checks.
type Service struct {
	checks  map[string]Checker
	timeout time.Duration
}

// NewService constructs a new health service.
func NewService(timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Service{checks: make(map[string]Checker), timeout: timeout}
}

// Register adds a named check. Nil checks are ignored.
func (s *Service) Register(name string, check Checker) {
	if check == nil {
		return
	}
	s.checks[name] = check
}

// Status runs every check with a shared timeout.
func (s *Service) Status(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	rep := Report{OK: true}
	if len(names) > 0 {
		rep.Components = make(map[string]string, len(names))
	}
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			rep.OK = false
			rep.Components[name] = err.Error()
			continue
		}
		rep.Components[name] = "ok"
	}
	return rep
}
