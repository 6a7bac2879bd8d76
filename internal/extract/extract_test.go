// internal/extract/extract_test.go
package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplyFencedMealPayload(t *testing.T) {
	reply := "오늘 식단을 분석했어요!\n```json\n" +
		`{"mealId": 3, "calories": 50, "protein": 5, "carbs": 10, "fat": 2}` +
		"\n```\n단백질이 조금 부족해요."

	p := Reply(reply)
	assert.Equal(t, KindMeal, p.Kind)
	assert.Equal(t, int64(3), p.MealID)
	assert.Equal(t, 50.0, p.Calories)
	assert.Equal(t, 5.0, p.Protein)
	assert.Equal(t, 10.0, p.Carbs)
	assert.Equal(t, 2.0, p.Fat)
}

func TestReplyInlineExercisePayload(t *testing.T) {
	reply := `30분 러닝이면 분당 {"exerciseId": 7, "calories": 10} 정도 소모돼요.`

	p := Reply(reply)
	assert.Equal(t, KindExercise, p.Kind)
	assert.Equal(t, int64(7), p.ExerciseID)
	assert.Equal(t, 10.0, p.Calories)
}

func TestReplyFirstPayloadWins(t *testing.T) {
	reply := `{"mealId": 1, "calories": 100} 그리고 {"mealId": 2, "calories": 200}`

	p := Reply(reply)
	assert.Equal(t, KindMeal, p.Kind)
	assert.Equal(t, int64(1), p.MealID)
	assert.Equal(t, 100.0, p.Calories)
}

func TestReplyNestedPayload(t *testing.T) {
	reply := `{"result": {"mealId": 2, "calories": 30, "protein": 1, "carbs": 2, "fat": 0}}`

	p := Reply(reply)
	assert.Equal(t, KindMeal, p.Kind)
	assert.Equal(t, int64(2), p.MealID)
}

func TestReplyConversationalOnly(t *testing.T) {
	for _, reply := range []string{
		"오늘도 화이팅! 단백질을 충분히 드세요.",
		"",
		"중괄호가 { 있지만 JSON은 아니에요",
		`{"mealId": 1, "calories": "많이"}`, // non-numeric calories
		`{"calories": 100}`,               // no record id
		`{"mealId": 1}`,                   // no calories
		`{"mealId": 1, "calories": }`,     // malformed
	} {
		p := Reply(reply)
		assert.Equal(t, KindNone, p.Kind, "reply: %q", reply)
	}
}

func TestStripPayload(t *testing.T) {
	reply := "분석 결과입니다.\n```json\n{\"mealId\": 1, \"calories\": 50}\n```\n좋은 하루 되세요!"
	assert.Equal(t, "분석 결과입니다.\n\n좋은 하루 되세요!", StripPayload(reply))

	plain := "페이로드가 없는 답변입니다."
	assert.Equal(t, plain, StripPayload(plain))
}
