package templates

import (
	"fmt"
	"strings"

	"tripgen-service/internal/domain/entity"
)

// Prompt is the structured instruction payload sent once to the generation
// service.
type Prompt struct {
	System string
	User   string
}

// SystemPrompt pins the section contract. The generator must reproduce every
// heading verbatim and in order.
var SystemPrompt = `你是一位资深的旅游规划师，擅长制定详细、可执行的旅游攻略。

攻略必须严格按照以下顺序包含九个章节，章节标题必须与下列文字完全一致，不得增删、改写或调整顺序：

` + sectionContract + `

内容要求：
- 「交通方案」分为城际交通（去程）和市内交通两部分。
- 「景点推荐」包含必去景点和免费/低价替代景点，每个景点注明门票价格、开放时间和停车提示。
- 「美食推荐」给出具体店铺或街区和人均消费。
- 「避坑指南」至少覆盖购物、交通、住宿、餐饮、景点过度商业化、季节时令六个方面。
- 全文使用 Markdown 格式，章节标题使用二级标题（##）。`

var sectionContract = strings.Join(SectionHeadings, "\n")

// BuildPrompt deterministically renders the generation request from the
// request fields, the gathered facts and the saved preferences. The booking
// argument is the deterministic booking guidance feeding the 订票指南 slot;
// it may be empty.
func BuildPrompt(req *entity.TravelRequest, facts *entity.FactSet, prefs *entity.PreferenceDocument, booking string) Prompt {
	var b strings.Builder

	b.WriteString("请为我的旅行制定一份详细攻略：\n\n")
	fmt.Fprintf(&b, "**目的地**: %s\n", req.Destination)
	fmt.Fprintf(&b, "**出发地**: %s\n", req.Origin)
	fmt.Fprintf(&b, "**出发日期**: %s\n", req.StartDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "**返回日期**: %s\n", req.EndDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "**预算**: %d 元\n", req.Budget)
	if len(req.Preferences) > 0 {
		fmt.Fprintf(&b, "**偏好**: %s\n", strings.Join(req.Preferences, "、"))
	}

	writeWeatherBlock(&b, req, facts)
	writeTrafficBlock(&b, req, facts)
	writeConstraints(&b, prefs)

	if booking != "" {
		b.WriteString("\n**订票参考**（请整理进「订票指南」章节）:\n")
		b.WriteString(booking)
		b.WriteString("\n")
	}

	b.WriteString("\n请根据以上信息，为我生成一份详细的旅游攻略。")
	return Prompt{System: SystemPrompt, User: b.String()}
}

func writeWeatherBlock(b *strings.Builder, req *entity.TravelRequest, facts *entity.FactSet) {
	if !facts.HasWeather() {
		b.WriteString("\n**天气信息**: 暂无法获取旅行期间的天气预报。「穿衣指南」章节请按目的地当季一般气候给出通用建议。\n")
		return
	}

	fmt.Fprintf(b, "\n**天气信息** (%s，%s 至 %s):\n",
		req.Destination, req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"))
	for _, d := range facts.Forecast {
		fmt.Fprintf(b, "- %s: %d°C ~ %d°C，白天%s，夜间%s",
			d.Date.Format("2006-01-02"), d.TempMin, d.TempMax, d.TextDay, d.TextNight)
		if d.WindDir != "" {
			fmt.Fprintf(b, "，%s%s级", d.WindDir, d.WindScale)
		}
		b.WriteString("\n")
	}
	min, max := facts.TempRange()
	fmt.Fprintf(b, "「穿衣指南」章节请结合上述天气给出建议（参考：%s）。\n", entity.ClothingAdvice(min, max))
}

func writeTrafficBlock(b *strings.Builder, req *entity.TravelRequest, facts *entity.FactSet) {
	if !facts.HasRoute() {
		return
	}

	route := facts.Route
	fmt.Fprintf(b, "\n**交通信息** (%s -> %s 驾车):\n", req.Origin, req.Destination)
	fmt.Fprintf(b, "- 距离: 约 %d 公里\n", route.DistanceKm)
	fmt.Fprintf(b, "- 预计时间: 约 %d 分钟\n", route.DurationMinutes)
	if route.TollYuan > 0 {
		fmt.Fprintf(b, "- 过路费: 约 %d 元\n", route.TollYuan)
	}
	fmt.Fprintf(b, "- 红绿灯: %d 个\n", route.TrafficLights)

	if route.CongestionLevel == entity.CongestionUnavailable {
		b.WriteString("- 实时路况: 暂不可用。「交通方案」章节请提示出发前用导航软件查看实时路况，并避开早晚高峰（7:00-9:00、17:00-19:00）。\n")
	} else if route.CongestionLevel != "" {
		fmt.Fprintf(b, "- 目的地实时路况: %s", route.CongestionLevel)
		if route.AverageSpeed > 0 {
			fmt.Fprintf(b, "（平均车速 %.1f km/h）", route.AverageSpeed)
		}
		b.WriteString("，「交通方案」章节请据此给出驾车建议。\n")
	}
}

// writeConstraints injects saved preferences as binding slot instructions.
func writeConstraints(b *strings.Builder, prefs *entity.PreferenceDocument) {
	if prefs.IsEmpty() {
		return
	}

	var lines []string
	if l := prefs.Lodging; l != nil {
		if l.BudgetMin != nil && l.BudgetMax != nil {
			lines = append(lines, fmt.Sprintf("住宿预算严格控制在每晚 %d-%d 元", *l.BudgetMin, *l.BudgetMax))
		} else if l.BudgetMax != nil {
			lines = append(lines, fmt.Sprintf("住宿预算每晚不超过 %d 元", *l.BudgetMax))
		} else if l.BudgetMin != nil {
			lines = append(lines, fmt.Sprintf("住宿预算每晚不低于 %d 元", *l.BudgetMin))
		}
		if l.Quiet != nil && *l.Quiet {
			lines = append(lines, "住宿优先选择安静的位置，避开酒吧街和闹市")
		}
		if len(l.Styles) > 0 {
			lines = append(lines, "住宿类型偏好："+strings.Join(l.Styles, "、"))
		}
	}
	if d := prefs.Dining; d != nil {
		if len(d.Tastes) > 0 {
			lines = append(lines, "餐饮口味偏好："+strings.Join(d.Tastes, "、"))
		}
		if len(d.Avoid) > 0 {
			lines = append(lines, "餐饮忌口（不要推荐）："+strings.Join(d.Avoid, "、"))
		}
		if d.BudgetPerMeal != nil {
			lines = append(lines, fmt.Sprintf("正餐人均控制在 %d 元以内", *d.BudgetPerMeal))
		}
	}
	if tr := prefs.Transport; tr != nil {
		if len(tr.Preferred) > 0 {
			lines = append(lines, "出行方式优先："+strings.Join(tr.Preferred, "、"))
		}
		if tr.AvoidNightTravel != nil && *tr.AvoidNightTravel {
			lines = append(lines, "不安排夜间长途移动")
		}
	}
	if s := prefs.Sightseeing; s != nil {
		if s.Pace != "" {
			lines = append(lines, "行程节奏："+s.Pace)
		}
		if len(s.Interests) > 0 {
			lines = append(lines, "游览兴趣："+strings.Join(s.Interests, "、"))
		}
		if s.AvoidCrowds != nil && *s.AvoidCrowds {
			lines = append(lines, "优先小众景点，避开人流高峰")
		}
	}
	if len(lines) == 0 {
		return
	}

	b.WriteString("\n**个性化约束**（以下为硬性要求，相关章节必须严格遵守）:\n")
	for _, line := range lines {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteString("\n")
	}
}
