package command

import (
	"context"
	"sort"
	"sync"

	"talk2cam/agent/internal/logger"
)

// Manager maps trigger commands to handlers.
type Manager struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewManager() *Manager { return &Manager{handlers: map[string]Handler{}} }

func (m *Manager) Register(command string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[command] = h
}

// Commands returns the registered command strings, sorted.
func (m *Manager) Commands() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.handlers))
	for c := range m.handlers {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Dispatch runs the handler for command and reports whether one was
// found. Handler errors are logged, never returned.
func (m *Manager) Dispatch(ctx context.Context, command string) bool {
	m.mu.RLock()
	h, ok := m.handlers[command]
	m.mu.RUnlock()
	if !ok {
		logger.Debugf("Ignoring unrecognized command: %q", command)
		return false
	}
	logger.Infof("Received command=%s", command)
	if err := h.HandleTrigger(ctx); err != nil {
		logger.Errorf("Command %s failed: %v", command, err)
	} else {
		logger.Infof("Command %s completed", command)
	}
	return true
}
