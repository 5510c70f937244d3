package templates

import "fmt"

// RefineSystemPrompt frames the refinement call.
const RefineSystemPrompt = "你是一位专业的旅游规划助手，擅长根据用户反馈优化旅游攻略。请保持友好、专业的语气。"

// BuildRefinePrompt wraps a prior guide and a free-text instruction into a
// structure-preserving rewrite request. The directive to keep every heading
// intact is the refinement contract; the result is still validated against
// the section list afterwards.
func BuildRefinePrompt(priorContent, instruction string) Prompt {
	user := fmt.Sprintf(`请根据以下用户建议，优化并重写旅游攻略：

【用户建议】
%s

【原攻略】
%s

请保持原攻略的章节结构和标题完全不变（所有 ## 二级标题原样保留、顺序不变），只根据用户建议进行针对性改进。`, instruction, priorContent)

	return Prompt{System: RefineSystemPrompt, User: user}
}

// PitfallSystemPrompt frames the standalone pitfall-guide call.
const PitfallSystemPrompt = `你是一位经验丰富的旅行避坑专家。请为指定目的地输出一份详细的旅游避坑指南，使用 Markdown 格式，至少覆盖购物、交通、住宿、餐饮、景点过度商业化、季节时令六个方面，给出具体、可执行的建议。`

// BuildPitfallPrompt renders the standalone pitfall-guide request.
func BuildPitfallPrompt(destination, preferences string) Prompt {
	user := fmt.Sprintf("请为 %s 生成一份详细的旅游避坑指南。", destination)
	if preferences != "" {
		user += fmt.Sprintf("\n\n用户偏好：%s", preferences)
	}
	return Prompt{System: PitfallSystemPrompt, User: user}
}
