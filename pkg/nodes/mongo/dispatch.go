package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/operion-mongo/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Outcome is the settled result of one item. It is fulfilled when Err is nil.
type Outcome struct {
	Value any
	Err   error
}

func (o Outcome) Fulfilled() bool {
	return o.Err == nil
}

// Task is one item's resolved request, or the error that kept it from resolving.
type Task struct {
	Request Request
	Err     error
}

// Dispatcher runs one task per item against a collection and collects the
// outcomes in input order.
type Dispatcher struct {
	logger         *slog.Logger
	tracer         trace.Tracer
	maxConcurrency int
}

func NewDispatcher(logger *slog.Logger, tracer trace.Tracer, maxConcurrency int) *Dispatcher {
	return &Dispatcher{
		logger:         logger,
		tracer:         tracer,
		maxConcurrency: maxConcurrency,
	}
}

// Dispatch runs every task concurrently. A failing task never affects the
// others. A limit of zero means no bound on concurrency.
func (d *Dispatcher) Dispatch(ctx context.Context, coll Collection, tasks []Task) []Outcome {
	outcomes := make([]Outcome, len(tasks))

	// The group context is not used: a failed item must not cancel its siblings.
	var g errgroup.Group
	if d.maxConcurrency > 0 {
		g.SetLimit(d.maxConcurrency)
	}

	for i, task := range tasks {
		g.Go(func() error {
			outcomes[i] = d.run(ctx, coll, i, task)

			return nil
		})
	}

	_ = g.Wait()

	return outcomes
}

// DispatchTransaction runs the resolved tasks in input order inside one
// transaction. Tasks that failed to resolve are rejected with their own error
// and never reach the session. The first driver failure aborts the
// transaction: the failing item keeps its own error and every other resolved
// item is rejected with *TransactionAbortedError. If the transaction itself
// cannot start or commit, every resolved item is rejected with that error.
func (d *Dispatcher) DispatchTransaction(ctx context.Context, db Database, coll Collection, tasks []Task) []Outcome {
	outcomes := make([]Outcome, len(tasks))
	resolved := make([]int, 0, len(tasks))

	for i, task := range tasks {
		if task.Err != nil {
			outcomes[i] = d.run(ctx, coll, i, task)

			continue
		}

		resolved = append(resolved, i)
	}

	if len(resolved) == 0 {
		return outcomes
	}

	failed := -1

	err := db.WithTransaction(ctx, func(ctx context.Context) error {
		// The callback may be retried; each attempt starts clean.
		failed = -1

		for _, i := range resolved {
			outcomes[i] = Outcome{}
		}

		for _, i := range resolved {
			outcome := d.run(ctx, coll, i, tasks[i])
			outcomes[i] = outcome

			if !outcome.Fulfilled() {
				failed = i

				return outcome.Err
			}
		}

		return nil
	})

	switch {
	case failed >= 0:
		aborted := &TransactionAbortedError{FailedIndex: failed}
		for _, i := range resolved {
			if i != failed {
				outcomes[i] = Outcome{Err: aborted}
			}
		}

		d.logger.WarnContext(ctx, "Transaction aborted", "failed_index", failed, "error", outcomes[failed].Err)
	case err != nil:
		d.logger.WarnContext(ctx, "Transaction failed", "error", err)

		for _, i := range resolved {
			outcomes[i] = Outcome{Err: err}
		}
	}

	return outcomes
}

func (d *Dispatcher) run(ctx context.Context, coll Collection, index int, task Task) (outcome Outcome) {
	if task.Err != nil {
		d.logger.WarnContext(ctx, "Item could not be resolved", "index", index, "error", task.Err)

		return Outcome{Err: task.Err}
	}

	op := task.Request.Operation()

	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "mongo.item",
		attribute.Int(otelhelper.ItemIndexKey, index),
		attribute.String(otelhelper.DBOperationKey, op.String()),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{Err: &DriverError{Index: index, Operation: op, Err: fmt.Errorf("panic: %v", r)}}
			otelhelper.SetError(span, outcome.Err)
		}
	}()

	value, err := task.Request.do(ctx, coll)
	if err == nil {
		value, err = toJSONValue(value)
	}

	if err != nil {
		driverErr := &DriverError{Index: index, Operation: op, Err: err}
		otelhelper.SetError(span, driverErr, attribute.Int(otelhelper.ItemIndexKey, index))
		d.logger.WarnContext(ctx, "Item failed", "index", index, "operation", op, "error", err)

		return Outcome{Err: driverErr}
	}

	return Outcome{Value: value}
}

// FirstRejection returns the index and error of the first rejected outcome,
// or -1 and nil.
func FirstRejection(outcomes []Outcome) (int, error) {
	for i, o := range outcomes {
		if !o.Fulfilled() {
			return i, o.Err
		}
	}

	return -1, nil
}
