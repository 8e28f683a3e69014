// Package report renders the outcome of a run.
//
// The text format is three lines (Min, Max, Elapsed time) plus a note when
// the deadline fired; YAML and JSON add the per-worker detail.
package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"

	"github.com/dshills/parminmax/internal/config"
	"github.com/dshills/parminmax/internal/engine"
)

// TimeoutNote is printed after the text report when the deadline fired.
const TimeoutNote = "[note] Some children were killed by timeout."

// ErrUnknownFormat is returned for a format Render does not support.
var ErrUnknownFormat = errors.New("unknown report format")

// Document is the structured form of a report.
type Document struct {
	RunID       string  `json:"run_id" yaml:"run_id"`
	Transport   string  `json:"transport" yaml:"transport"`
	ArraySize   int     `json:"array_size" yaml:"array_size"`
	Workers     int     `json:"workers" yaml:"workers"`
	Min         int32   `json:"min" yaml:"min"`
	Max         int32   `json:"max" yaml:"max"`
	ElapsedMs   float64 `json:"elapsed_ms" yaml:"elapsed_ms"`
	TimedOut    bool    `json:"timed_out" yaml:"timed_out"`
	Contributed int     `json:"contributed" yaml:"contributed"`
	Missing     []int   `json:"missing" yaml:"missing"`
	Children    []Child `json:"children" yaml:"children"`
}

// Child is one worker's line in a Document.
type Child struct {
	Index       int     `json:"index" yaml:"index"`
	PID         int     `json:"pid" yaml:"pid"`
	Begin       uint    `json:"begin" yaml:"begin"`
	End         uint    `json:"end" yaml:"end"`
	State       string  `json:"state" yaml:"state"`
	ExitCode    int     `json:"exit_code" yaml:"exit_code"`
	Signal      string  `json:"signal,omitempty" yaml:"signal,omitempty"`
	RuntimeMs   float64 `json:"runtime_ms" yaml:"runtime_ms"`
	Contributed bool    `json:"contributed" yaml:"contributed"`
}

// NewDocument converts r.
func NewDocument(r *engine.Report) Document {
	doc := Document{
		RunID:       r.RunID,
		Transport:   string(r.Transport),
		ArraySize:   r.ArraySize,
		Workers:     r.Workers,
		Min:         r.Min,
		Max:         r.Max,
		ElapsedMs:   millis(r.Elapsed),
		TimedOut:    r.TimedOut,
		Contributed: r.Contributed,
		Missing:     append([]int{}, r.Missing...),
		Children:    make([]Child, 0, len(r.Children)),
	}
	for _, c := range r.Children {
		doc.Children = append(doc.Children, Child{
			Index:       c.Index,
			PID:         c.PID,
			Begin:       c.Range.Begin,
			End:         c.Range.End,
			State:       c.State,
			ExitCode:    c.ExitCode,
			Signal:      c.Signal,
			RuntimeMs:   millis(c.Runtime),
			Contributed: c.Contributed,
		})
	}
	return doc
}

// Render writes r to w in format.
func Render(w io.Writer, r *engine.Report, format string) error {
	switch format {
	case config.FormatText, "":
		return Text(w, r)
	case config.FormatYAML:
		return YAML(w, r)
	case config.FormatJSON:
		return JSON(w, r)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Text writes the three-line text report.
func Text(w io.Writer, r *engine.Report) error {
	if _, err := fmt.Fprintf(w, "Min: %d\nMax: %d\nElapsed time: %f ms\n", r.Min, r.Max, millis(r.Elapsed)); err != nil {
		return err
	}
	if r.TimedOut {
		if _, err := fmt.Fprintln(w, TimeoutNote); err != nil {
			return err
		}
	}
	return nil
}

// YAML writes r as a YAML document.
func YAML(w io.Writer, r *engine.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(r)); err != nil {
		return fmt.Errorf("encode yaml report: %w", err)
	}
	return enc.Close()
}

// JSON writes r as indented JSON followed by a newline.
func JSON(w io.Writer, r *engine.Report) error {
	data, err := sonic.MarshalIndent(NewDocument(r), "", "  ")
	if err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
