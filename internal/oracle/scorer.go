package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"unicode/utf8"

	"cv-match-go/internal/types"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"
)

// Scorer 打分器接口，对一份简历文本和一个岗位产出结构化评分
type Scorer interface {
	// ScoreMatch 按岗位权重评估简历与岗位的匹配度
	ScoreMatch(ctx context.Context, cvText string, job *types.JobDetails, weights types.WeightPair) (*types.Scorecard, error)

	// AnalyzeCV 不针对具体岗位的独立简历分析，使用默认权重
	AnalyzeCV(ctx context.Context, cvText string) (*types.Scorecard, error)
}

// 确保LLMScorer实现了Scorer接口
var _ Scorer = (*LLMScorer)(nil)

// LLMScorer 基于大模型的打分器实现
type LLMScorer struct {
	llmModel       model.ToolCallingChatModel
	promptTemplate string      // 岗位匹配打分的Prompt模板
	cvTemplate     string      // 独立简历分析的Prompt模板
	logger         *log.Logger
}

// LLMScorerOption 是打分器的配置选项
type LLMScorerOption func(*LLMScorer)

// WithCustomPromptTemplate 设置自定义的岗位匹配提示词模板
func WithCustomPromptTemplate(template string) LLMScorerOption {
	return func(s *LLMScorer) {
		s.promptTemplate = template
	}
}

// WithCVPromptTemplate 设置自定义的简历分析提示词模板
func WithCVPromptTemplate(template string) LLMScorerOption {
	return func(s *LLMScorer) {
		s.cvTemplate = template
	}
}

// NewLLMScorer 创建一个新的打分器实例
func NewLLMScorer(llmModel model.ToolCallingChatModel, logger *log.Logger, options ...LLMScorerOption) *LLMScorer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	scorer := &LLMScorer{
		llmModel: llmModel,
		logger:   logger,
	}

	scorer.generatePromptTemplates()

	for _, opt := range options {
		opt(scorer)
	}

	return scorer
}

func (s *LLMScorer) generatePromptTemplates() {
	s.promptTemplate = `你是一位极其资深的AI招聘专家，具备精准识别人岗匹配度的火眼金睛。你的核心任务是基于下面提供的【岗位信息】和【候选人简历】，进行深度、细致的对比分析，并严格按照指定的JSON格式输出有区分度的匹配度评估。

**请严格遵循以下JSON输出格式规范（所有分数均为0-100的数字）：**
{
  "technical_skills_score": 0,
  "project_experience_score": 0,
  "problem_solving_score": 0,
  "learning_agility_score": 0,
  "communication_score": 0,
  "teamwork_score": 0,
  "motivation_score": 0,
  "adaptability_score": 0,
  "language_level_score": 0,
  "general_recommendation": "interview",
  "strengths": ["..."],
  "weaknesses": ["..."],
  "ai_commentary": "...",
  "skills": ["..."]
}

**字段说明：**
1. 前四个分数为技术维度子分：技术技能、项目经验、问题解决、学习敏捷度。
2. 后四个分数为行为维度子分：沟通、协作、动机、适应性。
3. "language_level_score" 为可选的语言水平分，无法判断时可省略。
4. "general_recommendation" 只能取以下三个值之一: "interview", "needs-technical-review", "not-suitable"。
5. "strengths" 建议3-5项，必须是候选人与岗位高度匹配的**具体关键点**，避免空泛描述。
6. "weaknesses" 建议1-3项，必须是候选人相对于岗位的**具体潜在不足**，即使整体匹配度高也请尝试指出可提升点。
7. "ai_commentary" 字符串，严格控制在200字以内，针对该岗位的候选人核心评语。
8. "skills" 为从简历中提取的关键技能列表，最多10项。

**JSON格式细节要求：**
- 完整输出必须是一个合法的JSON对象。
- 所有字段名和字符串值都必须使用双引号。
- 字符串值内部如果包含双引号(")，必须使用反斜杠(\\")进行转义。
- 禁止在JSON结构之外输出任何额外文本、解释或Markdown标记。

**评分原则：**
- 技术维度重点考察核心技能吻合度、项目规模与复杂度、可量化成果。
- 行为维度需从项目描述和成就中间接判断，不要默认给高分。
- 岗位信息中的权重配比(technical_weight/hr_weight)表明了该岗位对两个维度的侧重，评语和推荐结论应体现这一侧重。
- 目标是提供有区分度的评估：完美候选人与普通候选人的分数差距应当明显。

【岗位信息】(JSON):
"""
%s
"""

【岗位权重】: 技术维度 %d%%，行为维度 %d%%

【候选人简历】:
"""
%s
"""

请基于以上所有指令，仔细评估并输出JSON结果。`

	s.cvTemplate = `你是一位资深的AI招聘专家。请对下面的【候选人简历】做独立的质量分析（不针对任何具体岗位），并严格按照指定的JSON格式输出评估（所有分数均为0-100的数字）。

**输出格式：**
{
  "technical_skills_score": 0,
  "project_experience_score": 0,
  "problem_solving_score": 0,
  "learning_agility_score": 0,
  "communication_score": 0,
  "teamwork_score": 0,
  "motivation_score": 0,
  "adaptability_score": 0,
  "general_recommendation": "interview",
  "strengths": ["..."],
  "weaknesses": ["..."],
  "ai_commentary": "...",
  "skills": ["..."]
}

**要求：**
- "general_recommendation" 只能取 "interview", "needs-technical-review", "not-suitable" 之一。
- "strengths" 和 "weaknesses" 必须具体，避免空泛描述。
- "ai_commentary" 严格控制在200字以内。
- 完整输出必须是一个合法的JSON对象，禁止在JSON之外输出任何文本。

【候选人简历】:
"""
%s
"""

请输出JSON结果。`
}

// ScoreMatch 按岗位权重评估简历与岗位的匹配度
// 简历文本为空时直接拒绝，不发起模型调用
func (s *LLMScorer) ScoreMatch(ctx context.Context, cvText string, job *types.JobDetails, weights types.WeightPair) (*types.Scorecard, error) {
	const op = "ScoreMatch"

	if s.llmModel == nil {
		return nil, NewTransportError(op, nil, "llmModel is not initialized")
	}
	if strings.TrimSpace(cvText) == "" {
		return nil, NewInvalidInputError(op, "cv text is empty")
	}
	if job == nil {
		return nil, NewInvalidInputError(op, "job details is nil")
	}
	if !weights.Valid() {
		weights = types.DefaultWeightPair()
	}

	jobJSON, err := json.Marshal(job)
	if err != nil {
		return nil, NewMalformedError(op, err, "failed to serialize job details")
	}

	userMsgContent := fmt.Sprintf(s.promptTemplate,
		string(jobJSON), weights.TechnicalWeight, weights.HRWeight, cvText)

	return s.generateScorecard(ctx, op, userMsgContent)
}

// AnalyzeCV 不针对具体岗位的独立简历分析
func (s *LLMScorer) AnalyzeCV(ctx context.Context, cvText string) (*types.Scorecard, error) {
	const op = "AnalyzeCV"

	if s.llmModel == nil {
		return nil, NewTransportError(op, nil, "llmModel is not initialized")
	}
	if strings.TrimSpace(cvText) == "" {
		return nil, NewInvalidInputError(op, "cv text is empty")
	}

	userMsgContent := fmt.Sprintf(s.cvTemplate, cvText)
	return s.generateScorecard(ctx, op, userMsgContent)
}

// generateScorecard 调用模型并把响应解析为Scorecard
func (s *LLMScorer) generateScorecard(ctx context.Context, op string, userMsgContent string) (*types.Scorecard, error) {
	systemMsg := einoschema.SystemMessage("你是一位资深的AI招聘助手，专注于分析候选人简历与岗位的匹配度，只输出合法的JSON。")
	userMsg := einoschema.UserMessage(userMsgContent)

	messages := []*einoschema.Message{systemMsg, userMsg}

	s.logger.Printf("[LLMScorer] %s prompt (first 300 chars): %.300s", op, userMsgContent)

	response, err := s.llmModel.Generate(ctx, messages)
	if err != nil {
		s.logger.Printf("[LLMScorer] %s LLM call error: %v", op, err)
		return nil, NewTransportError(op, err, "LLM call failed")
	}

	if response == nil || response.Content == "" {
		s.logger.Printf("[LLMScorer] %s LLM returned empty response", op)
		return nil, NewTransportError(op, nil, "LLM returned empty response")
	}
	s.logger.Printf("[LLMScorer] %s LLM response: %.500s", op, response.Content)

	// 去掉BOM后再提取
	processedContent := strings.TrimPrefix(response.Content, "\uFEFF")

	jsonStr := extractJSONFromScorerResponse(processedContent)
	if jsonStr == "" {
		return nil, NewMalformedError(op, nil,
			fmt.Sprintf("failed to extract JSON from LLM response: %.200s", processedContent))
	}

	if !utf8.ValidString(jsonStr) {
		jsonStr = strings.ToValidUTF8(jsonStr, "")
	}

	var scorecard types.Scorecard
	// ① 正常解析
	if err := json.Unmarshal([]byte(jsonStr), &scorecard); err != nil {
		// ② 解析失败 -> 自动修复再试一次
		fixedJSONStr := sanitizeJSON(jsonStr)
		if jsonErr := json.Unmarshal([]byte(fixedJSONStr), &scorecard); jsonErr != nil {
			return nil, NewMalformedError(op, err,
				fmt.Sprintf("failed to unmarshal LLM JSON after sanitization (%v), json: %.300s", jsonErr, jsonStr))
		}
	}

	if err := validateScorecard(&scorecard); err != nil {
		return nil, NewMalformedError(op, err, "invalid scorecard")
	}

	return &scorecard, nil
}

// validateScorecard 验证打分结果是否符合契约
// 只校验八个子分的范围和推荐标签；组合分允许缺省，由调用方重算或回填
func validateScorecard(sc *types.Scorecard) error {
	subScores := map[string]float64{
		"technical_skills_score":   sc.TechnicalSkillsScore,
		"project_experience_score": sc.ProjectExperienceScore,
		"problem_solving_score":    sc.ProblemSolvingScore,
		"learning_agility_score":   sc.LearningAgilityScore,
		"communication_score":      sc.CommunicationScore,
		"teamwork_score":           sc.TeamworkScore,
		"motivation_score":         sc.MotivationScore,
		"adaptability_score":       sc.AdaptabilityScore,
	}
	for name, score := range subScores {
		if score < 0 || score > 100 {
			return fmt.Errorf("%s must be between 0 and 100, got %g", name, score)
		}
	}

	if sc.LanguageLevelScore != nil && (*sc.LanguageLevelScore < 0 || *sc.LanguageLevelScore > 100) {
		return fmt.Errorf("language_level_score must be between 0 and 100, got %g", *sc.LanguageLevelScore)
	}

	switch sc.GeneralRecommendation {
	case "interview", "needs-technical-review", "not-suitable":
	default:
		return fmt.Errorf("general_recommendation must be one of the fixed labels, got %q", sc.GeneralRecommendation)
	}

	return nil
}

// extractJSONFromScorerResponse 从文本中提取第一个括号配平的JSON对象
func extractJSONFromScorerResponse(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	level := 0
	for i := start; i < len(text); i++ {
		if text[i] == '{' {
			level++
		} else if text[i] == '}' {
			level--
			if level == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// sanitizeJSON 会遍历 src，将任何位于字符串字面量内部但并非"真正结束"的双引号写成 \",
// 以保证整个 JSON 在 Go 端能够正常反序列化。
// 它通过检查下一个非空白字符是否为 :, ], }, 或 , 来判断该 " 是否为字符串的结束。
// 反斜杠转义逻辑则正常处理 \\ 和 \"。
func sanitizeJSON(src string) string {
	var b strings.Builder
	inStr := false
	escaped := false

	for i := 0; i < len(src); i++ {
		c := src[i]

		if c == '"' && !escaped {
			if !inStr {
				// 遇到非转义的 "，并且当前不在字符串里 -> 开始一个新字符串
				inStr = true
				b.WriteByte(c)
			} else {
				// 当前在字符串里，检查这是不是字符串的真正结束
				j := i + 1
				for j < len(src) && (src[j] == ' ' || src[j] == '\t' || src[j] == '\n' || src[j] == '\r') {
					j++
				}
				// 下一个非空白字符是 :, ], }, 或 , 时才算 string-end
				if j < len(src) && (src[j] == ':' || src[j] == ',' || src[j] == ']' || src[j] == '}') {
					inStr = false
					b.WriteByte(c)
				} else {
					// 字符串内部的 "，改写成 \"
					b.WriteString("\\\"")
				}
			}
			escaped = false

		} else if c == '\\' && !escaped {
			escaped = true
			b.WriteByte(c)

		} else {
			b.WriteByte(c)
			escaped = false
		}
	}

	return b.String()
}
