package agent

import (
	"fmt"
	"strings"
)

var (
	greetingKeywords = []string{"你好", "您好", "hello", "hi", "嗨"}
	helpKeywords     = []string{"帮助", "help", "怎么", "如何"}
)

// Fallback 在生成端点不可用或未配置时给出确定性的本地回复。
// 对任意输入都是纯函数，永远返回非空字符串。
func Fallback(message string) string {
	lowered := strings.ToLower(strings.TrimSpace(message))

	for _, keyword := range greetingKeywords {
		if strings.Contains(lowered, keyword) {
			return "你好！很高兴见到你，有什么我可以帮助你的吗？"
		}
	}

	for _, keyword := range helpKeywords {
		if strings.Contains(lowered, keyword) {
			return "我可以帮您解答问题、创作内容、分析文档等。请告诉我您需要什么帮助。"
		}
	}

	return fmt.Sprintf("我已经收到您的消息：'%s'。这是一个模拟回复，实际应用中会调用AI接口生成回复内容。", message)
}
