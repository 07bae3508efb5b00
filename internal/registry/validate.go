package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/specialistvlad/assetgrid/internal/config"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
)

// ValidateModel performs a strict parity check between the task file and Go
// code: every declared step type must be registered, and every step block
// must decode into its handler's input struct.
func (r *Registry) ValidateModel(ctx context.Context, model *config.Model) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, task := range model.Tasks {
		for i, step := range task.Steps {
			handler, ok := r.StepRegistry[step.Type]
			if !ok {
				errs = append(errs, fmt.Sprintf("task '%s', step %d: unknown step type '%s' (%s)", task.Name, i+1, step.Type, step.Location))
				continue
			}
			if step.Config == nil {
				continue
			}
			if _, err := handler.Input(step.Config.Decode); err != nil {
				errs = append(errs, fmt.Sprintf("task '%s', step %d (%s): %v", task.Name, i+1, step.Type, err))
			}
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("task file validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	logger.Debug("Registry validation passed.", "tasks", len(model.Tasks), "step_types", len(r.StepRegistry))
	return nil
}
