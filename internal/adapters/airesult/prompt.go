package airesult

import (
	"fmt"

	"github.com/mikey/llm-scam-detector/internal/core"
	"github.com/mikey/llm-scam-detector/internal/utils"
)

// SystemPrompt is sent as the system message where the provider supports one
const SystemPrompt = "You are a scam and fraud detection system. Respond only with JSON."

const promptFormat = `You are a scam and fraud detection system. Analyze the following %s submission and determine if it is a scam.
Respond with a JSON object containing:
- isScam: boolean (true if the content is a scam or fraud attempt)
- confidence: number between 0 and 1 (how confident you are in your assessment)
- category: one of "fraud", "phishing", "suspicious", "low_risk", "safe"
- riskScore: integer between 0 and 100 (higher means riskier)
- explanation: string (brief explanation of your assessment)
- indicators: array of short strings naming the warning signs you found (at most 10)
- recommendations: array of short strings advising the user what to do

Content:
%s

Respond only with the JSON object and nothing else.`

// BuildPrompt renders the classification prompt, truncating and sanitizing the content first
func BuildPrompt(sub *core.Submission, maxBodySize int, tp *utils.TextProcessor) string {
	content := sub.Content
	if tp != nil {
		content = tp.ProcessText(content, maxBodySize)
	}
	return fmt.Sprintf(promptFormat, sub.Type.Normalize(), content)
}
