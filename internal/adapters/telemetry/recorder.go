// Package telemetry provides progress reporting adapters.
package telemetry

import (
	"context"
	"io"
	"strings"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/armada/internal/core/ports"
)

// Recorder implements ports.Tracer on a progrock recorder. Each span maps to
// one progrock vertex; wave plans surface as completed marker vertices.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder
}

// New creates a Recorder writing to an in-process tape.
func New() *Recorder {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a Recorder with the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{
		w:   w,
		rec: progrock.NewRecorder(w),
	}
}

// Start opens a vertex for the named operation.
func (r *Recorder) Start(ctx context.Context, name string) (context.Context, ports.Span) {
	v := r.rec.Vertex(digest.FromString(name), name)
	return ctx, &Span{vertex: v}
}

// EmitPlan records the task ids selected for a wave.
func (r *Recorder) EmitPlan(_ context.Context, taskIDs []string) {
	name := "wave [" + strings.Join(taskIDs, ", ") + "]"
	v := r.rec.Vertex(digest.FromString(name), name)
	v.Done(nil)
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// Span implements ports.Span wrapping *progrock.VertexRecorder.
type Span struct {
	vertex *progrock.VertexRecorder
	err    error
}

// Write streams task output onto the vertex.
func (s *Span) Write(p []byte) (int, error) {
	return s.vertex.Stdout().Write(p)
}

// RecordError attaches an error to the span; End reports it.
func (s *Span) RecordError(err error) {
	s.err = err
}

// End completes the vertex with any recorded error.
func (s *Span) End() {
	s.vertex.Done(s.err)
}

var _ io.Writer = (*Span)(nil)
