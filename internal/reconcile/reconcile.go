// internal/reconcile/reconcile.go
package reconcile

import (
	"context"
	"math"

	"go.uber.org/zap"

	"diet-coach/internal/extract"
	"diet-coach/internal/storage"
)

// Engine writes AI-derived values back onto the one record named by an
// extracted payload. The AI returns per-unit values; the engine scales
// them by the record's own quantity (meals) or duration (exercises)
// before rounding and storing.
type Engine struct {
	Store  *storage.Store
	Logger *zap.Logger
}

func New(store *storage.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{Store: store, Logger: logger}
}

// Apply reconciles one payload. At most one record is touched per call,
// and a payload naming a record that was deleted mid-flight still issues
// the update: the zero-row result is a benign race, not an error.
func (e *Engine) Apply(ctx context.Context, p extract.Payload) error {
	switch p.Kind {
	case extract.KindMeal:
		return e.applyMeal(ctx, p)
	case extract.KindExercise:
		return e.applyExercise(ctx, p)
	default:
		return nil
	}
}

func (e *Engine) applyMeal(ctx context.Context, p extract.Payload) error {
	multiplier := 1.0
	rec, err := e.Store.GetMeal(ctx, p.MealID)
	if err != nil {
		return err
	}
	if rec != nil {
		multiplier = ParseLeadingNumber(rec.Quantity, 1)
	}

	rows, err := e.Store.UpdateMealCalories(ctx, p.MealID,
		round(p.Calories*multiplier),
		round(p.Protein*multiplier),
		round(p.Carbs*multiplier),
		round(p.Fat*multiplier))
	if err != nil {
		return err
	}
	if rows == 0 {
		e.Logger.Debug("meal vanished before reconciliation", zap.Int64("meal_id", p.MealID))
	} else {
		e.Logger.Info("meal reconciled",
			zap.Int64("meal_id", p.MealID),
			zap.Float64("multiplier", multiplier))
	}
	return nil
}

func (e *Engine) applyExercise(ctx context.Context, p extract.Payload) error {
	multiplier := 1.0
	rec, err := e.Store.GetExercise(ctx, p.ExerciseID)
	if err != nil {
		return err
	}
	if rec != nil && rec.Duration > 0 {
		multiplier = float64(rec.Duration)
	}

	rows, err := e.Store.UpdateExerciseCalories(ctx, p.ExerciseID, round(p.Calories*multiplier))
	if err != nil {
		return err
	}
	if rows == 0 {
		e.Logger.Debug("exercise vanished before reconciliation", zap.Int64("exercise_id", p.ExerciseID))
	} else {
		e.Logger.Info("exercise reconciled",
			zap.Int64("exercise_id", p.ExerciseID),
			zap.Float64("multiplier", multiplier))
	}
	return nil
}

func round(v float64) int {
	return int(math.Round(v))
}
