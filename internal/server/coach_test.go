// internal/server/coach_test.go
package server

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"diet-coach/internal/models"
)

func TestBuildCoachPromptIncludesRecordIDs(t *testing.T) {
	profile := &models.UserProfile{Height: 170, Weight: 65, Goal: "체중 감량"}
	meals := []*models.MealRecord{
		{ID: 3, Type: "점심", FoodName: "비빔밥", Quantity: "1그릇"},
	}
	exercises := []*models.ExerciseRecord{
		{ID: 9, Type: "러닝", Duration: 30},
	}

	prompt := BuildCoachPrompt("오늘 식단 분석해줘", profile, meals, exercises, nil, nil)

	assert.Contains(t, prompt, "체중 감량")
	assert.Contains(t, prompt, "[id:3]")
	assert.Contains(t, prompt, "비빔밥")
	assert.Contains(t, prompt, "[id:9]")
	assert.Contains(t, prompt, `"mealId"`, "diet analysis asks for a meal payload")
}

func TestBuildCoachPromptSectionsFollowTheQuestion(t *testing.T) {
	prompt := BuildCoachPrompt("주간 리포트 보여줘", nil, nil, nil, nil, &models.WeeklyReport{
		AvgIntake: 1500, AvgBurn: 300, ActiveDays: 4, WindowDays: 7,
	})
	assert.Contains(t, prompt, "리포트")
	assert.Contains(t, prompt, "1500")
	assert.NotContains(t, prompt, `"mealId"`, "no diet analysis requested")

	prompt = BuildCoachPrompt("운동 칼로리 알려줘", nil, nil, nil, nil, nil)
	assert.Contains(t, prompt, `"exerciseId"`)

	prompt = BuildCoachPrompt("안녕!", nil, nil, nil, nil, nil)
	assert.NotContains(t, prompt, `"mealId"`)
	assert.NotContains(t, prompt, `"exerciseId"`)
	assert.Contains(t, prompt, "오늘 기록된 식단이 없습니다")
}

func TestBuildCoachPromptWithoutProfile(t *testing.T) {
	prompt := BuildCoachPrompt("안녕하세요", nil, nil, nil, nil, nil)
	assert.True(t, strings.Contains(prompt, "N/A"), "missing profile renders as N/A")
}
