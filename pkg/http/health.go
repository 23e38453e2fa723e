package http

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// Checker reports whether a dependency is usable.
type Checker interface {
	Health(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Health(ctx context.Context) error { return f(ctx) }

// CheckResult is the readiness state of one dependency.
type CheckResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// HealthHandler serves /healthz (process is up) and /readyz (every registered dependency answers).
type HealthHandler struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	timeout  time.Duration
}

func NewHealthHandler(timeout time.Duration) *HealthHandler {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthHandler{checkers: map[string]Checker{}, timeout: timeout}
}

// Register adds or replaces the checker for name. A nil checker is ignored.
func (h *HealthHandler) Register(name string, c Checker) {
	if c == nil {
		return
	}
	h.mu.Lock()
	h.checkers[name] = c
	h.mu.Unlock()
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.live)
	e.GET("/readyz", h.ready)
}

func (h *HealthHandler) live(c echo.Context) error {
	return SuccessResponse(c, "alive")
}

func (h *HealthHandler) ready(c echo.Context) error {
	results, ok := h.Check(c.Request().Context())
	if !ok {
		return DataResponse(c, http.StatusServiceUnavailable, results)
	}
	return SuccessResponse(c, results)
}

// Check runs every checker concurrently and returns results sorted by name.
func (h *HealthHandler) Check(ctx context.Context) ([]CheckResult, bool) {
	h.mu.RLock()
	names := make([]string, 0, len(h.checkers))
	for n := range h.checkers {
		names = append(names, n)
	}
	checkers := make(map[string]Checker, len(h.checkers))
	for n, c := range h.checkers {
		checkers[n] = c
	}
	h.mu.RUnlock()
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	results := make([]CheckResult, len(names))
	var wg sync.WaitGroup
	for i, n := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := CheckResult{Name: n, Healthy: true}
			if err := checkers[n].Health(ctx); err != nil {
				res.Healthy = false
				res.Error = err.Error()
			}
			results[i] = res
		}()
	}
	wg.Wait()

	ok := true
	for _, r := range results {
		ok = ok && r.Healthy
	}
	return results, ok
}
