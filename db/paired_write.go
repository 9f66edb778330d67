package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var pairedWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "paired_writes_total",
		Help: "Paired writes by operation and outcome (ok, failed, partial)",
	},
	[]string{"operation", "outcome"},
)

type step struct {
	name string
	run  func(tx *gorm.DB) error
}

// PairedWrite bundles the write of a primary document with the writes of
// the back-references it implies. Steps run in order. Without atomic mode a
// failure after the first step leaves the earlier steps applied and is
// reported as a PartialWriteError; nothing is rolled back.
type PairedWrite struct {
	operation string
	steps     []step
}

func NewPairedWrite(operation string) *PairedWrite {
	return &PairedWrite{operation: operation}
}

func (p *PairedWrite) Step(name string, run func(tx *gorm.DB) error) *PairedWrite {
	p.steps = append(p.steps, step{name: name, run: run})
	return p
}

// Exec runs the steps against conn. With atomic set they share one
// transaction and a failure rolls all of them back.
func (p *PairedWrite) Exec(ctx context.Context, conn *gorm.DB, atomic bool) error {
	conn = conn.WithContext(ctx)
	if atomic {
		err := conn.Transaction(func(tx *gorm.DB) error {
			for _, s := range p.steps {
				if err := s.run(tx); err != nil {
					return err
				}
			}
			return nil
		})
		p.observe(err, false)
		return err
	}

	applied := make([]string, 0, len(p.steps))
	for i, s := range p.steps {
		if err := s.run(conn); err != nil {
			if i == 0 {
				p.observe(err, false)
				return err
			}
			p.observe(err, true)
			return &PartialWriteError{
				Operation: p.operation,
				Applied:   applied,
				Failed:    s.name,
				Err:       err,
			}
		}
		applied = append(applied, s.name)
	}
	p.observe(nil, false)
	return nil
}

func (p *PairedWrite) observe(err error, partial bool) {
	outcome := "ok"
	switch {
	case partial:
		outcome = "partial"
	case err != nil:
		outcome = "failed"
	}
	pairedWritesTotal.WithLabelValues(p.operation, outcome).Inc()
}

// PartialWriteError reports a paired write whose primary step succeeded
// but a later back-reference step did not.
type PartialWriteError struct {
	Operation string
	Applied   []string
	Failed    string
	Err       error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("%s partially applied (done: %s; failed: %s): %v",
		e.Operation, strings.Join(e.Applied, ", "), e.Failed, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}
