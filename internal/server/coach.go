// internal/server/coach.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"diet-coach/internal/models"
)

// CoachClient submits free-text prompts to the external AI proxy and
// returns the free-text reply. It owns no parsing of nutrition payloads;
// the extract package does that downstream.
type CoachClient struct {
	httpClient *http.Client
	proxyURL   string
	apiKey     string
	model      string
}

func NewCoachClient() *CoachClient {
	proxyURL := os.Getenv("AI_PROXY_URL")
	if proxyURL == "" {
		proxyURL = "http://localhost:9876"
	}

	apiKey := os.Getenv("AI_PROXY_API_KEY")

	model := os.Getenv("AI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &CoachClient{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		proxyURL: proxyURL,
		apiKey:   apiKey,
		model:    model,
	}
}

// SubmitPrompt sends one prompt through the proxy gateway and digs the
// completion text out of the JSON-RPC envelope.
func (c *CoachClient) SubmitPrompt(ctx context.Context, prompt string) (string, error) {
	completionRequest := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": prompt,
			},
		},
		"max_tokens":  1200,
		"temperature": 0.3,
	}

	requestData := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]interface{}{
			"name":      "create_completion",
			"arguments": completionRequest,
		},
	}

	jsonData, err := json.Marshal(requestData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.proxyURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	text := gjson.GetBytes(body, "result.content.0.text").String()
	if text == "" {
		return "", fmt.Errorf("unexpected response format")
	}

	// The gateway wraps the completion as {"content": "..."}; a raw-text
	// gateway just returns the reply itself.
	if gjson.Valid(text) {
		if content := gjson.Get(text, "content"); content.Exists() {
			return content.String(), nil
		}
	}
	return text, nil
}

var (
	dietAnalysisRe     = regexp.MustCompile(`(식단|먹은 것|칼로리).*분석`)
	exerciseAnalysisRe = regexp.MustCompile(`운동.*분석|운동.*칼로리`)
	routineRe          = regexp.MustCompile(`루틴|운동 추천|운동 계획`)
	weeklyReportRe     = regexp.MustCompile(`리포트|주간|분석`)
)

// BuildCoachPrompt composes the personal-coach prompt from the user's
// question plus the stored context: profile goal, today's records with
// their ids, goal progress and the weekly report. Record ids go into the
// prompt so the model can address its correction payload to one record.
func BuildCoachPrompt(input string, profile *models.UserProfile, todayMeals []*models.MealRecord, todayExercises []*models.ExerciseRecord, totals *models.TodayTotals, weekly *models.WeeklyReport) string {
	var b strings.Builder

	goal := "N/A"
	if profile != nil && profile.Goal != "" {
		goal = profile.Goal
	}

	fmt.Fprintf(&b, "당신은 개인 맞춤형 건강 코치입니다.\n사용자 목표: %s\n", goal)

	if len(todayMeals) > 0 {
		b.WriteString("오늘 먹은 음식:\n")
		for _, m := range todayMeals {
			fmt.Fprintf(&b, "• [id:%d] %s: %s (%s)\n", m.ID, m.Type, m.FoodName, m.Quantity)
		}
	} else {
		b.WriteString("오늘 기록된 식단이 없습니다.\n")
	}

	if len(todayExercises) > 0 {
		b.WriteString("오늘 한 운동:\n")
		for _, e := range todayExercises {
			fmt.Fprintf(&b, "• [id:%d] %s %d분\n", e.ID, e.Type, e.Duration)
		}
	}

	if totals != nil {
		fmt.Fprintf(&b, "오늘 섭취 %dkcal (목표 대비 %d%%), 소모 %dkcal (목표 대비 %d%%)\n",
			totals.Intake, totals.IntakeRate, totals.Burned, totals.BurnRate)
	}
	if weekly != nil && weekly.ActiveDays > 0 {
		fmt.Fprintf(&b, "최근 %d일 중 %d일 활동, 평균 섭취 %dkcal / 평균 소모 %dkcal\n",
			weekly.WindowDays, weekly.ActiveDays, weekly.AvgIntake, weekly.AvgBurn)
	}

	fmt.Fprintf(&b, "\n사용자 입력: %q\n", input)

	if dietAnalysisRe.MatchString(input) {
		b.WriteString(`
오늘의 식단 데이터를 기반으로 영양소(칼로리, 단백질, 탄수화물, 지방)를 분석하고,
부족하거나 과잉된 부분을 조언하세요.
분석한 음식 1개에 대해 1인분 기준 수치를 아래 JSON 형식으로 답변 끝에 포함하세요:
` + "```json\n{\"mealId\": <id>, \"calories\": <수치>, \"protein\": <수치>, \"carbs\": <수치>, \"fat\": <수치>}\n```\n")
	}
	if exerciseAnalysisRe.MatchString(input) {
		b.WriteString(`
오늘의 운동 데이터를 기반으로 소모 칼로리를 분석하세요.
분석한 운동 1개에 대해 1분 기준 소모 칼로리를 아래 JSON 형식으로 답변 끝에 포함하세요:
` + "```json\n{\"exerciseId\": <id>, \"calories\": <수치>}\n```\n")
	}
	if routineRe.MatchString(input) {
		b.WriteString(`
주간 운동 데이터를 고려해 다음 주에 적합한 루틴을 추천하세요.
(예: 유산소/무산소 균형, 근육 부위 분할 등)
`)
	}
	if weeklyReportRe.MatchString(input) {
		b.WriteString(`
최근 7일 데이터를 요약해 리포트를 작성하세요.
"이번 주 섭취량은 목표 대비 몇 %였는지", "운동이 부족한지" 등 분석하세요.
`)
	}

	return b.String()
}
