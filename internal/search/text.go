package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Xushengqwer/activity_search/internal/models"
)

// 关键词预处理与词项提取的上限。
const (
	MaxQueryLength = 100 // 原始关键词的最大字符数（按 rune 计）
	MaxSearchTerms = 10  // 参与高亮与诊断的最大词项数
)

// stripPattern 保留字母数字、下划线、空白与 CJK 统一表意文字（U+4E00–U+9FFF），
// 其余标点符号一律替换为空格。
var stripPattern = regexp.MustCompile(`[^\w\s\x{4e00}-\x{9fff}]`)

// spacePattern 把连续空白折叠为单个空格。
var spacePattern = regexp.MustCompile(`\s+`)

// FieldWeight 是扫描路径相关性评分表中的一项。
type FieldWeight struct {
	Field  string // 参与匹配的字段名
	Weight int    // 命中时累加的分值
}

// RelevanceWeights 是扫描路径的字段权重表，命中多个字段时分值相加，
// 因此多字段命中的活动排名高于单字段命中。调权或增删字段只改这张表。
// 索引路径的 multi_match boost 也从这张表派生，保证两条路径的倾向一致。
var RelevanceWeights = []FieldWeight{
	{Field: "name", Weight: 10},
	{Field: "description", Weight: 5},
	{Field: "summary", Weight: 3},
	{Field: "address", Weight: 2},
	{Field: "venue", Weight: 2},
	{Field: "category_name", Weight: 2},
}

// TextQuery 是预处理后的关键词及其诊断信息。
type TextQuery struct {
	Raw       string   // 原始输入
	Processed string   // 去标点、折叠空白后的关键词
	Terms     []string // 按空白切分的词项，最多 MaxSearchTerms 个
}

// HasQuery 返回是否存在有效关键词。
func (q *TextQuery) HasQuery() bool {
	return q != nil && q.Processed != ""
}

// PreprocessQuery 对自由文本关键词做预处理。
// raw 为空串表示本次不做文本匹配，返回零值 TextQuery；
// raw 非空但超长、或清洗后只剩空白，返回 ValidationError。
func PreprocessQuery(raw string) (TextQuery, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		if raw == "" {
			return TextQuery{}, nil
		}
		return TextQuery{}, models.NewValidationError("query", "not_blank", "搜索关键词不能为空")
	}
	if utf8.RuneCountInString(trimmed) > MaxQueryLength {
		return TextQuery{}, models.NewValidationError("query", "max_length", "搜索关键词过长")
	}

	processed := stripPattern.ReplaceAllString(trimmed, " ")
	processed = strings.TrimSpace(spacePattern.ReplaceAllString(processed, " "))
	if processed == "" {
		return TextQuery{}, models.NewValidationError("query", "not_blank", "搜索关键词不能为空")
	}

	terms := strings.Fields(processed)
	if len(terms) > MaxSearchTerms {
		terms = terms[:MaxSearchTerms]
	}

	return TextQuery{Raw: raw, Processed: processed, Terms: terms}, nil
}

// NormalizeTerm 把关键词归一化为热门搜索词统计的键：小写并去首尾空白。
func NormalizeTerm(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// HighlightPage 对已物化的结果页做关键词高亮。
// 只处理返回的这一页，绝不进入谓词；原字段保持原文，
// 高亮副本写入 Activity.Highlight。
func HighlightPage(activities []models.Activity, terms []string) {
	pattern := highlightPattern(terms)
	if pattern == nil {
		return
	}

	for i := range activities {
		act := &activities[i]
		hl := models.HighlightedFields{
			Name:        highlight(act.Name, pattern),
			Description: highlight(act.Description, pattern),
			Summary:     highlight(act.Summary, pattern),
		}
		if hl.Name != act.Name || hl.Description != act.Description || hl.Summary != act.Summary {
			act.Highlight = &hl
		}
	}
}

// highlightPattern 把全部词项合成一个交替模式，单次替换完成高亮。
// 长词在前：交替按声明顺序尝试，短词不能截断长词的命中；
// 逐词多次替换会让后面的词项命中已插入的标记文本，产生嵌套标签。
func highlightPattern(terms []string) *regexp.Regexp {
	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		if term != "" {
			quoted = append(quoted, regexp.QuoteMeta(term))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	sort.SliceStable(quoted, func(i, j int) bool {
		return len(quoted[i]) > len(quoted[j])
	})
	return regexp.MustCompile(`(?i)(` + strings.Join(quoted, "|") + `)`)
}

func highlight(s string, pattern *regexp.Regexp) string {
	if s == "" {
		return s
	}
	return pattern.ReplaceAllString(s, "<mark>$1</mark>")
}
