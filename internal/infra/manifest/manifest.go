// Package manifest reads schedule definitions from YAML files applied with
// `swarm schedule apply -f`.
//
//	schedules:
//	  - name: nightly-triage
//	    template: Triage new issues
//	    cron: "0 9 * * 1-5"
//	    timezone: Europe/Berlin
//	    agent: triager
//	  - name: heartbeat
//	    template: Post status
//	    interval: 30m
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/runoshun/agent-swarm/internal/domain"
)

// Document is the top level of a manifest file.
type Document struct {
	Schedules []Entry `yaml:"schedules"`
}

// Entry is one schedule definition.
type Entry struct {
	Enabled    *bool    `yaml:"enabled,omitempty"`
	Name       string   `yaml:"name"`
	Template   string   `yaml:"template"`
	Cron       string   `yaml:"cron,omitempty"`
	Interval   string   `yaml:"interval,omitempty"`
	Timezone   string   `yaml:"timezone,omitempty"`
	Agent      string   `yaml:"agent,omitempty"`
	Type       string   `yaml:"type,omitempty"`
	Tags       []string `yaml:"tags,omitempty"`
	IntervalMs int64    `yaml:"interval_ms,omitempty"`
	Priority   int      `yaml:"priority,omitempty"`
}

// Load reads and parses a manifest file.
func Load(path string) ([]domain.ScheduledTask, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes a manifest. Unknown fields are rejected.
func Parse(data []byte) ([]domain.ScheduledTask, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: parse manifest: %v", domain.ErrValidation, err)
	}

	out := make([]domain.ScheduledTask, 0, len(doc.Schedules))
	for i, e := range doc.Schedules {
		s, err := e.toSchedule()
		if err != nil {
			return nil, fmt.Errorf("%w: schedules[%d] (%s): %v", domain.ErrValidation, i, e.Name, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (e Entry) toSchedule() (domain.ScheduledTask, error) {
	s := domain.ScheduledTask{
		Name:           e.Name,
		TaskTemplate:   e.Template,
		CronExpression: e.Cron,
		Timezone:       e.Timezone,
		TargetAgentID:  e.Agent,
		TaskType:       e.Type,
		Tags:           e.Tags,
		IntervalMs:     e.IntervalMs,
		Priority:       e.Priority,
		Enabled:        true,
	}
	if e.Enabled != nil {
		s.Enabled = *e.Enabled
	}
	if e.Interval != "" {
		if e.IntervalMs != 0 {
			return s, errors.New("set either interval or interval_ms")
		}
		d, err := time.ParseDuration(e.Interval)
		if err != nil {
			return s, fmt.Errorf("interval: %v", err)
		}
		s.IntervalMs = d.Milliseconds()
	}
	return s, nil
}

// Marshal renders schedules as a manifest, the inverse of Parse.
func Marshal(schedules []*domain.ScheduledTask) ([]byte, error) {
	doc := Document{Schedules: make([]Entry, 0, len(schedules))}
	for _, s := range schedules {
		enabled := s.Enabled
		doc.Schedules = append(doc.Schedules, Entry{
			Name:       s.Name,
			Template:   s.TaskTemplate,
			Cron:       s.CronExpression,
			Timezone:   s.Timezone,
			Agent:      s.TargetAgentID,
			Type:       s.TaskType,
			Tags:       s.Tags,
			IntervalMs: s.IntervalMs,
			Priority:   s.Priority,
			Enabled:    &enabled,
		})
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}
