package provisioning

import (
	"fmt"
	"time"
)

// Pipeline runs phases in order and stops at the first failure.
// Resources created by earlier phases are left in place.
type Pipeline struct {
	Phases []Phase
}

// NewPipeline creates a pipeline from the given phases.
func NewPipeline(phases ...Phase) *Pipeline {
	return &Pipeline{Phases: phases}
}

// Run executes every phase, reporting start, completion and failure to the
// context's observer and phase durations to its metrics recorder.
func (p *Pipeline) Run(ctx *Context) error {
	start := time.Now()
	ctx.Observer.Printf("Starting provisioning with %d phases...", len(p.Phases))

	for i, phase := range p.Phases {
		if ctx.Context != nil {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%s phase not started: %w", phase.Name(), err)
			}
		}

		phaseStart := time.Now()
		LogPhaseStart(ctx.Observer, phase.Name())
		ctx.Observer.Progress("pipeline", i+1, len(p.Phases))

		err := phase.Provision(ctx)
		if ctx.Metrics != nil {
			ctx.Metrics.ObservePhase(phase.Name(), time.Since(phaseStart), err)
		}
		if err != nil {
			LogPhaseFailed(ctx.Observer, phase.Name(), err)
			return fmt.Errorf("%s phase failed: %w", phase.Name(), err)
		}

		LogPhaseComplete(ctx.Observer, phase.Name(), time.Since(phaseStart))
	}

	ctx.Observer.Printf("Provisioning completed in %v", time.Since(start).Round(time.Millisecond))
	return nil
}
