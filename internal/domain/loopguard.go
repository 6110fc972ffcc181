package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Loop guard thresholds.
const (
	ToolWindowCapacity = 30

	RepeatMinWindow = 8
	RepeatWarn      = 8
	RepeatCritical  = 15

	PingPongMinWindow = 6
	PingPongSample    = 12
	PingPongWarn      = 6
	PingPongCritical  = 12
	PingPongRatio     = 0.8
)

// ToolCallRecord is one entry of a session's tool-call window.
type ToolCallRecord struct {
	Timestamp time.Time `json:"ts"`
	ToolName  string    `json:"tool"`
	ArgsHash  string    `json:"hash"`
}

func (r ToolCallRecord) pair() toolPair {
	return toolPair{tool: r.ToolName, hash: r.ArgsHash}
}

type toolPair struct {
	tool string
	hash string
}

// Severity is the strength of a loop signal.
type Severity string

// Severities, weakest first.
const (
	SeverityNone     Severity = "none"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

func (s Severity) level() int {
	switch s {
	case SeverityWarning:
		return 1
	case SeverityCritical:
		return 2
	default:
		return 0
	}
}

// LoopCheck is the result of evaluating a session window.
type LoopCheck struct {
	Severity Severity `json:"severity"`
	Reason   string   `json:"reason,omitempty"`
	Count    int      `json:"count,omitempty"`
	Blocked  bool     `json:"blocked"`
}

// HashArgs fingerprints a tool argument map. Keys are serialized in sorted order
// at every depth, so insertion order does not affect the result.
func HashArgs(args map[string]any) string {
	data, err := json.Marshal(args)
	if err != nil {
		data = []byte(fmt.Sprint(args))
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:8])
}

// EvaluateWindow runs the exact-repeat and ping-pong detectors over window, whose
// last element is the call just recorded. Critical beats warning; on equal severity
// the exact-repeat reason is reported.
func EvaluateWindow(window []ToolCallRecord) LoopCheck {
	if len(window) == 0 {
		return LoopCheck{Severity: SeverityNone}
	}

	repeat := detectRepeat(window)
	pingPong := detectPingPong(window)

	result := repeat
	if pingPong.Severity.level() > repeat.Severity.level() {
		result = pingPong
	}
	result.Blocked = result.Severity == SeverityCritical
	return result
}

func detectRepeat(window []ToolCallRecord) LoopCheck {
	none := LoopCheck{Severity: SeverityNone}
	if len(window) < RepeatMinWindow {
		return none
	}

	current := window[len(window)-1]
	count := 0
	for _, r := range window {
		if r.pair() == current.pair() {
			count++
		}
	}

	switch {
	case count >= RepeatCritical:
		return LoopCheck{
			Severity: SeverityCritical,
			Count:    count,
			Reason: fmt.Sprintf("%s called %d times with identical arguments; execution blocked. Try a different approach or change the arguments.",
				current.ToolName, count),
		}
	case count >= RepeatWarn:
		return LoopCheck{
			Severity: SeverityWarning,
			Count:    count,
			Reason:   fmt.Sprintf("%s called %d times with identical arguments; consider a different approach.", current.ToolName, count),
		}
	default:
		return none
	}
}

func detectPingPong(window []ToolCallRecord) LoopCheck {
	none := LoopCheck{Severity: SeverityNone}
	if len(window) < PingPongMinWindow {
		return none
	}

	sample := window
	if len(sample) > PingPongSample {
		sample = sample[len(sample)-PingPongSample:]
	}

	counts := make(map[toolPair]int)
	var order []toolPair
	for _, r := range sample {
		p := r.pair()
		if counts[p] == 0 {
			order = append(order, p)
		}
		counts[p]++
	}
	if len(order) < 2 {
		return none
	}

	// Top two by count; ties keep first appearance.
	first, second := order[0], order[1]
	if counts[second] > counts[first] {
		first, second = second, first
	}
	for _, p := range order[2:] {
		switch {
		case counts[p] > counts[first]:
			first, second = p, first
		case counts[p] > counts[second]:
			second = p
		}
	}

	combined := counts[first] + counts[second]
	if float64(combined) < PingPongRatio*float64(len(sample)) {
		return none
	}

	switch {
	case combined >= PingPongCritical:
		return LoopCheck{
			Severity: SeverityCritical,
			Count:    combined,
			Reason: fmt.Sprintf("ping-pong loop between %s and %s (%d of the last %d calls); execution blocked. Break the cycle with a different action.",
				first.tool, second.tool, combined, len(sample)),
		}
	case combined >= PingPongWarn:
		return LoopCheck{
			Severity: SeverityWarning,
			Count:    combined,
			Reason: fmt.Sprintf("possible ping-pong between %s and %s (%d of the last %d calls).",
				first.tool, second.tool, combined, len(sample)),
		}
	default:
		return none
	}
}
