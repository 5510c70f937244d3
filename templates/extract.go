package templates

import "fmt"

// ExtractSystemPrompt instructs the generator to emit a machine-readable
// partial preference update. The response is treated as untrusted text and
// schema-validated before any merge happens.
const ExtractSystemPrompt = `你是一个偏好提取器。用户会用自然语言描述旅行偏好，你需要把其中可以结构化的部分提取为 JSON。

只输出一个 JSON 对象，不要输出任何解释、前后缀或代码块标记。JSON 结构如下（所有字段均可选，只输出用户明确提到的内容）：

{
  "lodging": {"budget_min": 200, "budget_max": 300, "quiet": true, "styles": ["民宿"]},
  "dining": {"tastes": ["川菜"], "avoid": ["海鲜"], "budget_per_meal": 80},
  "transport": {"preferred": ["高铁"], "avoid_night_travel": true},
  "sightseeing": {"pace": "宽松", "interests": ["博物馆"], "avoid_crowds": true}
}

金额一律取整数（元）。无法归入以上类别的内容全部忽略。`

// BuildExtractPrompt renders the preference-extraction request for a piece
// of free text.
func BuildExtractPrompt(freeText string) Prompt {
	return Prompt{
		System: ExtractSystemPrompt,
		User:   fmt.Sprintf("用户描述：%s", freeText),
	}
}
