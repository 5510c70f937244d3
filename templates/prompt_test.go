package templates

import (
	"strings"
	"testing"
	"time"

	"tripgen-service/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest() *entity.TravelRequest {
	return &entity.TravelRequest{
		RequestID:   "req-1",
		Destination: "杭州",
		Origin:      "北京",
		StartDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
		Budget:      3000,
		Preferences: []string{"历史文化", "美食打卡"},
	}
}

func testFacts() *entity.FactSet {
	return &entity.FactSet{
		Forecast: []entity.ForecastDay{
			{Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), TempMin: 8, TempMax: 16, TextDay: "多云", TextNight: "晴"},
			{Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), TempMin: 9, TempMax: 18, TextDay: "晴", TextNight: "晴"},
		},
		Route: &entity.RouteEstimate{
			DistanceKm:      1280,
			DurationMinutes: 780,
			TollYuan:        560,
			TrafficLights:   42,
			CongestionLevel: "畅通",
			AverageSpeed:    38.5,
		},
	}
}

func TestBuildPrompt_ContainsAllHeadingsInOrder(t *testing.T) {
	p := BuildPrompt(testRequest(), testFacts(), &entity.PreferenceDocument{}, "")

	last := -1
	for _, h := range SectionHeadings {
		idx := strings.Index(p.System, h)
		require.GreaterOrEqual(t, idx, 0, "system prompt must pin heading %s", h)
		assert.Greater(t, idx, last, "heading %s out of order", h)
		last = idx
	}
	assert.Contains(t, p.User, "**目的地**: 杭州")
	assert.Contains(t, p.User, "**预算**: 3000 元")
	assert.Contains(t, p.User, "历史文化、美食打卡")
}

func TestBuildPrompt_NeverFailsOnWellFormedInput(t *testing.T) {
	cases := []struct {
		name  string
		facts *entity.FactSet
		prefs *entity.PreferenceDocument
	}{
		{"no facts at all", &entity.FactSet{}, &entity.PreferenceDocument{}},
		{"weather only", &entity.FactSet{Forecast: testFacts().Forecast}, &entity.PreferenceDocument{}},
		{"route only", &entity.FactSet{Route: testFacts().Route}, &entity.PreferenceDocument{}},
		{"nil-ish prefs", &entity.FactSet{}, &entity.PreferenceDocument{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := BuildPrompt(testRequest(), tc.facts, tc.prefs, "")
			assert.NotEmpty(t, p.System)
			assert.NotEmpty(t, p.User)
			for _, h := range SectionHeadings {
				assert.Contains(t, p.System, h)
			}
		})
	}
}

func TestBuildPrompt_WeatherAndRouteIndependent(t *testing.T) {
	req := testRequest()
	prefs := &entity.PreferenceDocument{}

	weatherOnly := BuildPrompt(req, &entity.FactSet{Forecast: testFacts().Forecast}, prefs, "")
	assert.Contains(t, weatherOnly.User, "**天气信息** (杭州")
	assert.NotContains(t, weatherOnly.User, "**交通信息**")

	routeOnly := BuildPrompt(req, &entity.FactSet{Route: testFacts().Route}, prefs, "")
	assert.Contains(t, routeOnly.User, "**交通信息** (北京 -> 杭州 驾车)")
	assert.Contains(t, routeOnly.User, "约 1280 公里")
	assert.Contains(t, routeOnly.User, "暂无法获取旅行期间的天气预报")
}

func TestBuildPrompt_MissingWeatherFallsBackToGenericClothingAdvice(t *testing.T) {
	p := BuildPrompt(testRequest(), &entity.FactSet{}, &entity.PreferenceDocument{}, "")
	assert.Contains(t, p.User, "按目的地当季一般气候给出通用建议")
}

func TestBuildPrompt_CongestionUnavailableSentinelAdvice(t *testing.T) {
	facts := testFacts()
	facts.Route.CongestionLevel = entity.CongestionUnavailable
	facts.Route.AverageSpeed = 0

	p := BuildPrompt(testRequest(), facts, &entity.PreferenceDocument{}, "")
	assert.Contains(t, p.User, "实时路况: 暂不可用")
	assert.Contains(t, p.User, "避开早晚高峰")
	assert.NotContains(t, p.User, "平均车速")
}

func TestBuildPrompt_PreferencesBecomeBindingConstraints(t *testing.T) {
	min, max := 200, 300
	quiet := true
	prefs := &entity.PreferenceDocument{
		Lodging: &entity.LodgingPrefs{BudgetMin: &min, BudgetMax: &max, Quiet: &quiet},
		Dining:  &entity.DiningPrefs{Avoid: []string{"海鲜"}},
	}

	p := BuildPrompt(testRequest(), &entity.FactSet{}, prefs, "")
	assert.Contains(t, p.User, "**个性化约束**")
	assert.Contains(t, p.User, "住宿预算严格控制在每晚 200-300 元")
	assert.Contains(t, p.User, "住宿优先选择安静的位置")
	assert.Contains(t, p.User, "餐饮忌口（不要推荐）：海鲜")
}

func TestBuildRefinePrompt_CarriesPriorContentAndInstruction(t *testing.T) {
	p := BuildRefinePrompt("## 一、行程总览\n内容", "住宿部分写短一点")
	assert.Contains(t, p.User, "住宿部分写短一点")
	assert.Contains(t, p.User, "## 一、行程总览")
	assert.Contains(t, p.User, "章节结构和标题完全不变")
	assert.Equal(t, RefineSystemPrompt, p.System)
}
