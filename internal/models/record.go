// internal/models/record.go
package models

// UserProfile is the single-user profile row. At most one exists; it is
// created on first setup and updated in place afterwards.
type UserProfile struct {
	Height       float64 `json:"height"`
	Weight       float64 `json:"weight"`
	TargetWeight float64 `json:"target_weight"`
	Gender       string  `json:"gender"`
	BodyType     string  `json:"body_type"`
	Goal         string  `json:"goal"`   // "체중 감량", "근육 증가", "건강 유지"
	Period       string  `json:"period"` // target period, free text
	GoalIntake   int     `json:"goal_intake"` // kcal/day, 0 = use default
	GoalBurn     int     `json:"goal_burn"`   // kcal/day, 0 = use default
}

// ExerciseRecord is one logged exercise session. Calories == 0 marks the
// record as pending AI analysis; the modality fields populated depend on
// Type (cardio vs strength).
type ExerciseRecord struct {
	ID       int64   `json:"id"`
	Date     string  `json:"date"` // YYYY-MM-DD
	Type     string  `json:"type"`
	Duration int     `json:"duration"` // minutes
	Calories int     `json:"calories"`
	Distance float64 `json:"distance,omitempty"`
	Incline  float64 `json:"incline,omitempty"`
	Speed    float64 `json:"speed,omitempty"`
	Level    int     `json:"level,omitempty"`
	Sets     int     `json:"sets,omitempty"`
	Reps     int     `json:"reps,omitempty"`
	Weight   float64 `json:"weight,omitempty"`
}

// MealRecord is one logged meal. Quantity is free text ("200g", "1개") and
// is parsed defensively when used as a scale factor. Calories == 0 marks
// the record as pending AI analysis.
type MealRecord struct {
	ID       int64  `json:"id"`
	Date     string `json:"date"` // YYYY-MM-DD
	Type     string `json:"type"` // breakfast/lunch/dinner/snack
	FoodName string `json:"food_name"`
	Quantity string `json:"quantity"`
	Calories int    `json:"calories"`
	Protein  int    `json:"protein"`
	Carbs    int    `json:"carbs"`
	Fat      int    `json:"fat"`
}

// Credential is a registered account. Password holds the bcrypt hash, not
// the plaintext.
type Credential struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Password string `json:"-"`
}

// Pending reports whether the record still awaits AI-computed calories.
func (e *ExerciseRecord) Pending() bool { return e.Calories == 0 }

// Pending reports whether the record still awaits AI-computed nutrition.
func (m *MealRecord) Pending() bool { return m.Calories == 0 }

// TodayTotals is the same-day goal-progress view.
type TodayTotals struct {
	Date       string `json:"date"`
	Intake     int    `json:"intake"`
	Burned     int    `json:"burned"`
	Duration   int    `json:"duration"`
	IntakeGoal int    `json:"intake_goal"`
	BurnGoal   int    `json:"burn_goal"`
	IntakeRate int    `json:"intake_rate"` // percent, capped at 100
	BurnRate   int    `json:"burn_rate"`   // percent, capped at 100
}

// WeeklyReport averages intake and burn over the days in the window that
// had at least one record.
type WeeklyReport struct {
	AvgIntake  int `json:"avg_intake"`
	AvgBurn    int `json:"avg_burn"`
	ActiveDays int `json:"days"`
	WindowDays int `json:"window_days"`
}

// ChartPoint is one day of the comparison-chart series.
type ChartPoint struct {
	Label    string `json:"label"` // YYYY-MM-DD
	Intake   int    `json:"intake"`
	Burned   int    `json:"burned"`
	Duration int    `json:"duration"`
}
