package evaluator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ethicsbot/backend/internal/domain"
)

// Stats 由导出记录确定性计算的统计量
type Stats struct {
	MinutesSpent  float64
	UserResponses int
	WordCount     int
	SentenceCount int
}

// sentenceTerminators 计为句子结束的标点
const sentenceTerminators = ".!?:;"

// WordCount 连续空白视为一个分隔符后的词数
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// SentenceCount 结束标点出现的次数
func SentenceCount(text string) int {
	n := 0
	for _, r := range text {
		if strings.ContainsRune(sentenceTerminators, r) {
			n++
		}
	}
	return n
}

// ElapsedMinutes 用时（分钟），保留两位小数
func ElapsedMinutes(startSeconds, endSeconds float64) float64 {
	return math.Round((endSeconds-startSeconds)/60*100) / 100
}

// Compute 统计用户消息
func Compute(rec *domain.ExportRecord) Stats {
	s := Stats{MinutesSpent: ElapsedMinutes(rec.StartTime, rec.EndTime)}
	for _, t := range rec.Conversation().UserTurns() {
		s.UserResponses++
		s.WordCount += WordCount(t.Content)
		s.SentenceCount += SentenceCount(t.Content)
	}
	return s
}

// BuildEvidence 渲染提交给评分模型的证据
func BuildEvidence(s Stats, transcript string) string {
	return fmt.Sprintf("The user spent a total of %s minutes engaging with the AI bot.\n\n"+
		"The user responded a total of %d times to the AI agent.\n\n"+
		"The user wrote a total of %d words across %d sentences.\n\n"+
		"The conversation is below:\n\n%s",
		strconv.FormatFloat(s.MinutesSpent, 'f', -1, 64), s.UserResponses, s.WordCount, s.SentenceCount, transcript)
}
