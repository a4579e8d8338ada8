// Package featureflags decides which modules are mounted and which users see them.
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"
)

// switchState is a parsed MODULES value.
type switchState struct {
	raw     string
	on      bool
	percent int // -1 unless raw is a N% rollout
}

func parseSwitch(raw string) switchState {
	st := switchState{raw: raw, percent: -1}
	if raw == "on" || raw == "true" || raw == "1" {
		st.on = true
		return st
	}
	if pct, ok := strings.CutSuffix(raw, "%"); ok {
		if n, err := strconv.Atoi(pct); err == nil {
			st.percent = min(max(n, 0), 100)
		}
	}
	return st
}

// Manager evaluates MODULES, a comma separated list of module=value pairs
// such as "camera=on,social-feed=25%,payments=off". Unparseable values
// count as off for Enabled but do not unmount the module.
type Manager struct {
	switches map[string]switchState
}

// NewManager parses raw. Pairs without a key or value are ignored.
func NewManager(raw string) *Manager {
	m := &Manager{switches: make(map[string]switchState)}
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		key, value = normalize(key), normalize(value)
		if !ok || key == "" || value == "" {
			continue
		}
		m.switches[key] = parseSwitch(value)
	}
	return m
}

// Enabled reports whether module name is on for userID. A percentage
// rollout places each signed-in user in a stable bucket; anonymous callers
// (userID 0) are outside every partial rollout.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	st, ok := m.switches[normalize(name)]
	switch {
	case !ok:
		return false
	case st.percent < 0:
		return st.on
	case st.percent == 0:
		return false
	case st.percent == 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < st.percent
}

// Mounted reports whether the module's routes are registered at all. Only an
// explicit off value or 0% removes a module.
func (m *Manager) Mounted(name string) bool {
	if m == nil {
		return true
	}
	st, ok := m.switches[normalize(name)]
	if !ok {
		return true
	}
	if st.percent >= 0 {
		return st.percent > 0
	}
	return st.on || !isOff(st.raw)
}

func isOff(raw string) bool {
	return raw == "off" || raw == "false" || raw == "0"
}

// Rollout reports whether the module is limited to a percentage of users.
func (m *Manager) Rollout(name string) bool {
	if m == nil {
		return false
	}
	st, ok := m.switches[normalize(name)]
	return ok && st.percent >= 0
}

// Raw returns the configured values keyed by module.
func (m *Manager) Raw() map[string]string {
	if m == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(m.switches))
	for name, st := range m.switches {
		out[name] = st.raw
	}
	return out
}

// Snapshot evaluates every configured module for userID.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	if m == nil {
		return map[string]bool{}
	}
	out := make(map[string]bool, len(m.switches))
	for name := range m.switches {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
