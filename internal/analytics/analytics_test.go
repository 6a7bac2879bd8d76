// internal/analytics/analytics_test.go
package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diet-coach/internal/models"
	"diet-coach/internal/storage"
)

var fixedNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func newTestAggregator(t *testing.T) (*Aggregator, *storage.Store) {
	t.Helper()
	store, err := storage.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.EnsureSchema())
	t.Cleanup(func() { store.Close() })

	agg := New(store)
	agg.Now = func() time.Time { return fixedNow }
	return agg, store
}

func addMeal(t *testing.T, store *storage.Store, date string, calories int) {
	t.Helper()
	_, err := store.AddMeal(context.Background(), &models.MealRecord{
		Date: date, Type: "점심", FoodName: "테스트", Calories: calories,
	})
	require.NoError(t, err)
}

func addExercise(t *testing.T, store *storage.Store, date string, duration, calories int) {
	t.Helper()
	_, err := store.AddExercise(context.Background(), &models.ExerciseRecord{
		Date: date, Type: "러닝", Duration: duration, Calories: calories,
	})
	require.NoError(t, err)
}

func TestTodayTotalsWithDefaults(t *testing.T) {
	agg, store := newTestAggregator(t)
	ctx := context.Background()

	addMeal(t, store, "2024-01-10", 600)
	addMeal(t, store, "2024-01-10", 300)
	addMeal(t, store, "2024-01-09", 999) // yesterday, excluded
	addExercise(t, store, "2024-01-10", 30, 250)
	addExercise(t, store, "2024-01-08", 60, 500) // excluded

	totals, err := agg.TodayTotals(ctx)
	require.NoError(t, err)

	assert.Equal(t, "2024-01-10", totals.Date)
	assert.Equal(t, 900, totals.Intake)
	assert.Equal(t, 250, totals.Burned)
	assert.Equal(t, 30, totals.Duration)
	assert.Equal(t, DefaultIntakeGoal, totals.IntakeGoal)
	assert.Equal(t, DefaultBurnGoal, totals.BurnGoal)
	assert.Equal(t, 50, totals.IntakeRate) // 900/1800
	assert.Equal(t, 50, totals.BurnRate)   // 250/500
}

func TestTodayTotalsUsesProfileGoalsAndCapsAt100(t *testing.T) {
	agg, store := newTestAggregator(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertProfile(ctx, &models.UserProfile{
		Height: 170, Weight: 65, GoalIntake: 1500, GoalBurn: 300,
	}))
	addMeal(t, store, "2024-01-10", 2400)
	addExercise(t, store, "2024-01-10", 20, 150)

	totals, err := agg.TodayTotals(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1500, totals.IntakeGoal)
	assert.Equal(t, 300, totals.BurnGoal)
	assert.Equal(t, 100, totals.IntakeRate, "over-goal intake capped at 100%")
	assert.Equal(t, 50, totals.BurnRate)
}

func TestWeeklyReportAveragesOverActiveDaysOnly(t *testing.T) {
	agg, store := newTestAggregator(t)
	ctx := context.Background()

	// Meals on 3 of the last 7 days.
	addMeal(t, store, "2024-01-10", 500)
	addMeal(t, store, "2024-01-08", 300)
	addMeal(t, store, "2024-01-05", 100)
	addExercise(t, store, "2024-01-08", 30, 400)
	// Outside the window, ignored.
	addMeal(t, store, "2024-01-03", 9999)

	report, err := agg.WeeklyReport(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, 3, report.ActiveDays)
	assert.Equal(t, 300, report.AvgIntake, "900 over 3 active days, not 7")
	assert.Equal(t, 133, report.AvgBurn) // round(400/3)
	assert.Equal(t, 7, report.WindowDays)
}

func TestWeeklyReportEmptyWindow(t *testing.T) {
	agg, _ := newTestAggregator(t)

	report, err := agg.WeeklyReport(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, 0, report.ActiveDays)
	assert.Equal(t, 0, report.AvgIntake)
	assert.Equal(t, 0, report.AvgBurn)
}

func TestChartSeriesAlwaysReturnsFullWindow(t *testing.T) {
	agg, store := newTestAggregator(t)
	ctx := context.Background()

	series, err := agg.ChartSeries(ctx, 7)
	require.NoError(t, err)
	require.Len(t, series, 7, "empty store still yields a full window")
	for _, p := range series {
		assert.Zero(t, p.Intake)
		assert.Zero(t, p.Burned)
		assert.Zero(t, p.Duration)
	}

	addMeal(t, store, "2024-01-10", 700)
	addExercise(t, store, "2024-01-07", 45, 320)

	series, err = agg.ChartSeries(ctx, 7)
	require.NoError(t, err)
	require.Len(t, series, 7)

	// Chronological order, oldest first.
	assert.Equal(t, "2024-01-04", series[0].Label)
	assert.Equal(t, "2024-01-10", series[6].Label)

	assert.Equal(t, 700, series[6].Intake)
	assert.Equal(t, 320, series[3].Burned)
	assert.Equal(t, 45, series[3].Duration)
}

func TestWindowDefaultsToSevenDays(t *testing.T) {
	agg, _ := newTestAggregator(t)

	series, err := agg.ChartSeries(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, series, DefaultWindowDays)

	report, err := agg.WeeklyReport(context.Background(), -1)
	require.NoError(t, err)
	assert.Equal(t, DefaultWindowDays, report.WindowDays)
}
