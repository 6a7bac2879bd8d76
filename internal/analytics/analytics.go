// internal/analytics/analytics.go
package analytics

import (
	"context"
	"math"
	"time"

	"diet-coach/internal/models"
	"diet-coach/internal/storage"
)

const (
	// Fallback daily goals, used when the profile does not set its own.
	DefaultIntakeGoal = 1800
	DefaultBurnGoal   = 500

	DefaultWindowDays = 7

	dateLayout = "2006-01-02"
)

// Aggregator computes read-only derived views over the meal and exercise
// logs. Every call re-reads the store so a reconciliation landing between
// two calls is always visible; nothing is cached and nothing is mutated.
type Aggregator struct {
	Store *storage.Store
	// Now is injectable for tests; nil means time.Now.
	Now func() time.Time
}

func New(store *storage.Store) *Aggregator {
	return &Aggregator{Store: store}
}

func (a *Aggregator) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// TodayTotals sums today's intake, burn and exercise minutes and reports
// progress against the profile's goals (capped at 100%).
func (a *Aggregator) TodayTotals(ctx context.Context) (*models.TodayTotals, error) {
	meals, err := a.Store.ListMeals(ctx)
	if err != nil {
		return nil, err
	}
	exercises, err := a.Store.ListExercises(ctx)
	if err != nil {
		return nil, err
	}

	today := a.now().Format(dateLayout)
	t := &models.TodayTotals{
		Date:       today,
		IntakeGoal: DefaultIntakeGoal,
		BurnGoal:   DefaultBurnGoal,
	}

	profile, err := a.Store.Profile(ctx)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		if profile.GoalIntake > 0 {
			t.IntakeGoal = profile.GoalIntake
		}
		if profile.GoalBurn > 0 {
			t.BurnGoal = profile.GoalBurn
		}
	}

	for _, m := range meals {
		if m.Date == today {
			t.Intake += m.Calories
		}
	}
	for _, e := range exercises {
		if e.Date == today {
			t.Burned += e.Calories
			t.Duration += e.Duration
		}
	}

	t.IntakeRate = progress(t.Intake, t.IntakeGoal)
	t.BurnRate = progress(t.Burned, t.BurnGoal)
	return t, nil
}

// WeeklyReport averages intake and burn over the most recent windowDays
// calendar days, today inclusive. Only days with at least one record count
// toward the average, so an inactive week does not dilute the numbers.
func (a *Aggregator) WeeklyReport(ctx context.Context, windowDays int) (*models.WeeklyReport, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	meals, err := a.Store.ListMeals(ctx)
	if err != nil {
		return nil, err
	}
	exercises, err := a.Store.ListExercises(ctx)
	if err != nil {
		return nil, err
	}

	mealsByDate, exercisesByDate := indexByDate(meals, exercises)

	report := &models.WeeklyReport{WindowDays: windowDays}
	totalIntake, totalBurn := 0, 0
	day := a.now()
	for i := 0; i < windowDays; i++ {
		date := day.AddDate(0, 0, -i).Format(dateLayout)
		dayMeals := mealsByDate[date]
		dayExercises := exercisesByDate[date]
		if len(dayMeals) == 0 && len(dayExercises) == 0 {
			continue
		}
		report.ActiveDays++
		for _, m := range dayMeals {
			totalIntake += m.Calories
		}
		for _, e := range dayExercises {
			totalBurn += e.Calories
		}
	}

	if report.ActiveDays > 0 {
		report.AvgIntake = int(math.Round(float64(totalIntake) / float64(report.ActiveDays)))
		report.AvgBurn = int(math.Round(float64(totalBurn) / float64(report.ActiveDays)))
	}
	return report, nil
}

// ChartSeries returns exactly windowDays points in chronological order,
// oldest first, zero-filled for days without records.
func (a *Aggregator) ChartSeries(ctx context.Context, windowDays int) ([]models.ChartPoint, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	meals, err := a.Store.ListMeals(ctx)
	if err != nil {
		return nil, err
	}
	exercises, err := a.Store.ListExercises(ctx)
	if err != nil {
		return nil, err
	}

	mealsByDate, exercisesByDate := indexByDate(meals, exercises)

	series := make([]models.ChartPoint, 0, windowDays)
	day := a.now()
	for i := windowDays - 1; i >= 0; i-- {
		date := day.AddDate(0, 0, -i).Format(dateLayout)
		point := models.ChartPoint{Label: date}
		for _, m := range mealsByDate[date] {
			point.Intake += m.Calories
		}
		for _, e := range exercisesByDate[date] {
			point.Burned += e.Calories
			point.Duration += e.Duration
		}
		series = append(series, point)
	}
	return series, nil
}

func indexByDate(meals []*models.MealRecord, exercises []*models.ExerciseRecord) (map[string][]*models.MealRecord, map[string][]*models.ExerciseRecord) {
	mealsByDate := make(map[string][]*models.MealRecord, len(meals))
	for _, m := range meals {
		mealsByDate[m.Date] = append(mealsByDate[m.Date], m)
	}
	exercisesByDate := make(map[string][]*models.ExerciseRecord, len(exercises))
	for _, e := range exercises {
		exercisesByDate[e.Date] = append(exercisesByDate[e.Date], e)
	}
	return mealsByDate, exercisesByDate
}

func progress(value, goal int) int {
	if goal <= 0 {
		return 0
	}
	rate := math.Min(float64(value)/float64(goal), 1) * 100
	return int(math.Round(rate))
}
