// internal/server/tools.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"diet-coach/internal/extract"
	"diet-coach/internal/models"
)

var (
	errInvalidParams = errors.New("invalid parameters")
	errLoginFailed   = errors.New("unknown account or wrong password")
)

type CredentialParams struct {
	Email    string `json:"email" description:"Account email"`
	Password string `json:"password" description:"Account password"`
}

type ProfileParams struct {
	Height       float64 `json:"height" description:"Height in cm"`
	Weight       float64 `json:"weight" description:"Weight in kg"`
	TargetWeight float64 `json:"target_weight,omitempty" description:"Target weight in kg"`
	Gender       string  `json:"gender,omitempty"`
	BodyType     string  `json:"body_type,omitempty"`
	Goal         string  `json:"goal,omitempty" description:"체중 감량 / 근육 증가 / 건강 유지"`
	Period       string  `json:"period,omitempty" description:"Target period"`
	GoalIntake   int     `json:"goal_intake,omitempty" description:"Daily intake goal in kcal"`
	GoalBurn     int     `json:"goal_burn,omitempty" description:"Daily burn goal in kcal"`
}

type ExerciseParams struct {
	Date     string  `json:"date" description:"YYYY-MM-DD (defaults to today)"`
	Type     string  `json:"type" description:"Exercise type, e.g. 러닝"`
	Duration int     `json:"duration,omitempty" description:"Minutes"`
	Calories int     `json:"calories,omitempty" description:"0 = let the AI coach fill it in"`
	Distance float64 `json:"distance,omitempty"`
	Incline  float64 `json:"incline,omitempty"`
	Speed    float64 `json:"speed,omitempty"`
	Level    int     `json:"level,omitempty"`
	Sets     int     `json:"sets,omitempty"`
	Reps     int     `json:"reps,omitempty"`
	Weight   float64 `json:"weight,omitempty"`
}

type MealParams struct {
	Date     string `json:"date" description:"YYYY-MM-DD (defaults to today)"`
	Type     string `json:"type" description:"breakfast/lunch/dinner/snack"`
	FoodName string `json:"food_name"`
	Quantity string `json:"quantity,omitempty" description:"Free-text amount, e.g. 200g, 2개"`
	Calories int    `json:"calories,omitempty" description:"0 = let the AI coach fill it in"`
}

type DeleteParams struct {
	ID int64 `json:"id"`
}

type WindowParams struct {
	WindowDays int `json:"window_days,omitempty" description:"Rolling window size, default 7"`
}

type CoachChatParams struct {
	Message string `json:"message" description:"Free-text question for the AI coach"`
}

// extractParams safely extracts parameters from the request arguments.
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return nil
}

func today() string {
	return time.Now().Format("2006-01-02")
}

func (s *DietCoachServer) handleRegister(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params CredentialParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if params.Email == "" || params.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", errInvalidParams)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.store.AddCredential(ctx, params.Email, string(hash)); err != nil {
		return nil, err
	}
	return createJSONResponse(map[string]interface{}{"registered": true, "email": params.Email})
}

func (s *DietCoachServer) handleLogin(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params CredentialParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	cred, err := s.store.FindCredentialByEmail(ctx, params.Email)
	if err != nil {
		return nil, err
	}
	// Unknown email and wrong password look identical to the client.
	if cred == nil {
		return nil, errLoginFailed
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.Password), []byte(params.Password)) != nil {
		return nil, errLoginFailed
	}

	profile, err := s.store.Profile(ctx)
	if err != nil {
		return nil, err
	}
	return createJSONResponse(map[string]interface{}{
		"email":       cred.Email,
		"has_profile": profile != nil,
	})
}

func (s *DietCoachServer) handleUpsertProfile(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params ProfileParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	profile := &models.UserProfile{
		Height:       params.Height,
		Weight:       params.Weight,
		TargetWeight: params.TargetWeight,
		Gender:       params.Gender,
		BodyType:     params.BodyType,
		Goal:         params.Goal,
		Period:       params.Period,
		GoalIntake:   params.GoalIntake,
		GoalBurn:     params.GoalBurn,
	}
	if err := s.store.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}
	return createJSONResponse(profile)
}

func (s *DietCoachServer) handleGetProfile(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	profile, err := s.store.Profile(ctx)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return createJSONResponse(map[string]interface{}{"profile": nil})
	}
	return createJSONResponse(profile)
}

func (s *DietCoachServer) handleAddExercise(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params ExerciseParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if params.Date == "" {
		params.Date = today()
	}

	rec := &models.ExerciseRecord{
		Date:     params.Date,
		Type:     params.Type,
		Duration: params.Duration,
		Calories: params.Calories,
		Distance: params.Distance,
		Incline:  params.Incline,
		Speed:    params.Speed,
		Level:    params.Level,
		Sets:     params.Sets,
		Reps:     params.Reps,
		Weight:   params.Weight,
	}
	id, err := s.store.AddExercise(ctx, rec)
	if err != nil {
		return nil, err
	}
	rec.ID = id
	return createJSONResponse(rec)
}

func (s *DietCoachServer) handleListExercises(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	recs, err := s.store.ListExercises(ctx)
	if err != nil {
		return nil, err
	}
	return createJSONResponse(recs)
}

func (s *DietCoachServer) handleDeleteExercise(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params DeleteParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if err := s.store.DeleteExercise(ctx, params.ID); err != nil {
		return nil, err
	}
	return createJSONResponse(map[string]interface{}{"deleted": params.ID})
}

func (s *DietCoachServer) handleAddMeal(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params MealParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if params.Date == "" {
		params.Date = today()
	}

	rec := &models.MealRecord{
		Date:     params.Date,
		Type:     params.Type,
		FoodName: params.FoodName,
		Quantity: params.Quantity,
		Calories: params.Calories,
	}
	id, err := s.store.AddMeal(ctx, rec)
	if err != nil {
		return nil, err
	}
	rec.ID = id
	return createJSONResponse(rec)
}

func (s *DietCoachServer) handleListMeals(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	recs, err := s.store.ListMeals(ctx)
	if err != nil {
		return nil, err
	}
	return createJSONResponse(recs)
}

func (s *DietCoachServer) handleDeleteMeal(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params DeleteParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if err := s.store.DeleteMeal(ctx, params.ID); err != nil {
		return nil, err
	}
	return createJSONResponse(map[string]interface{}{"deleted": params.ID})
}

func (s *DietCoachServer) handleTodayTotals(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	totals, err := s.aggregator.TodayTotals(ctx)
	if err != nil {
		return nil, err
	}
	return createJSONResponse(totals)
}

func (s *DietCoachServer) handleWeeklyReport(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params WindowParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	report, err := s.aggregator.WeeklyReport(ctx, params.WindowDays)
	if err != nil {
		return nil, err
	}
	return createJSONResponse(report)
}

func (s *DietCoachServer) handleChartSeries(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params WindowParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	series, err := s.aggregator.ChartSeries(ctx, params.WindowDays)
	if err != nil {
		return nil, err
	}
	return createJSONResponse(series)
}

// handleCoachChat runs the full AI round trip: build the prompt from the
// stored records, submit it, then reconcile any correction payload found
// in the reply. A conversational-only reply is the common case; extraction
// and reconciliation failures never abort the chat.
func (s *DietCoachServer) handleCoachChat(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params CoachChatParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if params.Message == "" {
		return nil, fmt.Errorf("%w: message is required", errInvalidParams)
	}

	profile, err := s.store.Profile(ctx)
	if err != nil {
		return nil, err
	}
	meals, err := s.store.ListMeals(ctx)
	if err != nil {
		return nil, err
	}
	exercises, err := s.store.ListExercises(ctx)
	if err != nil {
		return nil, err
	}

	date := today()
	var todayMeals []*models.MealRecord
	for _, m := range meals {
		if m.Date == date {
			todayMeals = append(todayMeals, m)
		}
	}
	var todayExercises []*models.ExerciseRecord
	for _, e := range exercises {
		if e.Date == date {
			todayExercises = append(todayExercises, e)
		}
	}

	totals, err := s.aggregator.TodayTotals(ctx)
	if err != nil {
		return nil, err
	}
	weekly, err := s.aggregator.WeeklyReport(ctx, 0)
	if err != nil {
		return nil, err
	}

	prompt := BuildCoachPrompt(params.Message, profile, todayMeals, todayExercises, totals, weekly)
	reply, err := s.coach.SubmitPrompt(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to reach AI coach: %w", err)
	}

	payload := extract.Reply(reply)
	if payload.Kind != extract.KindNone {
		if err := s.engine.Apply(ctx, payload); err != nil {
			// Reconciliation is best effort; the chat reply still stands.
			s.logger.Warn("reconciliation failed", zap.Error(err))
		}
	}

	return createJSONResponse(map[string]interface{}{
		"reply":      extract.StripPayload(reply),
		"reconciled": string(payload.Kind),
	})
}
