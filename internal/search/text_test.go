package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/activity_search/internal/models"
)

func TestPreprocessQuery(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantErr       bool
		wantProcessed string
		wantTerms     []string
	}{
		{
			name: "空串表示不做文本匹配",
			raw:  "", wantErr: false, wantProcessed: "",
		},
		{
			name: "纯空白视为无效关键词",
			raw:  "   ", wantErr: true,
		},
		{
			name: "标点被替换为空格",
			raw:  "夜市!!!美食?", wantProcessed: "夜市 美食", wantTerms: []string{"夜市", "美食"},
		},
		{
			name: "清洗后为空视为无效",
			raw:  "!!!???", wantErr: true,
		},
		{
			name: "中英混合保留",
			raw:  "台北 night market", wantProcessed: "台北 night market",
			wantTerms: []string{"台北", "night", "market"},
		},
		{
			name: "连续空白折叠",
			raw:  "  淡水   老街  ", wantProcessed: "淡水 老街", wantTerms: []string{"淡水", "老街"},
		},
		{
			name: "超长关键词被拒绝",
			raw:  strings.Repeat("夜", MaxQueryLength+1), wantErr: true,
		},
		{
			name: "恰好达到长度上限",
			raw:  strings.Repeat("夜", MaxQueryLength), wantProcessed: strings.Repeat("夜", MaxQueryLength),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := PreprocessQuery(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				var vErr *models.ValidationError
				assert.ErrorAs(t, err, &vErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantProcessed, q.Processed)
			if tt.wantTerms != nil {
				assert.Equal(t, tt.wantTerms, q.Terms)
			}
		})
	}
}

func TestPreprocessQuery_TermLimit(t *testing.T) {
	raw := "a b c d e f g h i j k l m"
	q, err := PreprocessQuery(raw)
	require.NoError(t, err)
	assert.Len(t, q.Terms, MaxSearchTerms, "词项数量应被截断到上限")
	assert.Equal(t, "a", q.Terms[0])
}

func TestNormalizeTerm(t *testing.T) {
	assert.Equal(t, "night market", NormalizeTerm("  Night Market "))
	assert.Equal(t, "夜市", NormalizeTerm("夜市"))
}

func TestRelevanceWeights_NameDominates(t *testing.T) {
	// 名称命中必须严格高于任何单个次级字段的命中
	weights := map[string]int{}
	for _, fw := range RelevanceWeights {
		weights[fw.Field] = fw.Weight
	}
	require.Contains(t, weights, "name")
	for field, w := range weights {
		if field == "name" {
			continue
		}
		assert.Greater(t, weights["name"], w, "name 权重应高于 %s", field)
	}
}

func TestHighlightPage(t *testing.T) {
	activities := []models.Activity{
		{Name: "饒河夜市", Description: "台北知名夜市之一"},
		{Name: "美術館", Summary: "藝文展覽"},
	}

	HighlightPage(activities, []string{"夜市"})

	require.NotNil(t, activities[0].Highlight)
	assert.Equal(t, "饒河<mark>夜市</mark>", activities[0].Highlight.Name)
	assert.Equal(t, "台北知名<mark>夜市</mark>之一", activities[0].Highlight.Description)
	// 原字段保持原文
	assert.Equal(t, "饒河夜市", activities[0].Name)
	// 未命中的活动不应出现高亮副本
	assert.Nil(t, activities[1].Highlight)
}

func TestHighlightPage_CaseInsensitive(t *testing.T) {
	activities := []models.Activity{{Name: "Taipei Night Market Tour"}}
	HighlightPage(activities, []string{"night"})
	require.NotNil(t, activities[0].Highlight)
	assert.Equal(t, "Taipei <mark>Night</mark> Market Tour", activities[0].Highlight.Name)
}

func TestHighlightPage_OverlappingTerms(t *testing.T) {
	// 一个词项与已插入的标记文本重叠（"ar" 命中 "<mark>" 里的内容）时，
	// 输出仍必须是格式良好的标记，不允许出现嵌套或残缺的标签。
	activities := []models.Activity{{Name: "night market walking tour"}}

	HighlightPage(activities, []string{"market", "ar"})

	require.NotNil(t, activities[0].Highlight)
	assert.Equal(t, "night <mark>market</mark> walking tour", activities[0].Highlight.Name)
	assert.NotContains(t, activities[0].Highlight.Name, "<m<mark>")
}

func TestHighlightPage_TermInsideMarkTag(t *testing.T) {
	activities := []models.Activity{{Name: "remarkable park"}}

	// "mark" 与标签名本身重名，"k" 又是它的子串
	HighlightPage(activities, []string{"mark", "k"})

	require.NotNil(t, activities[0].Highlight)
	assert.Equal(t, "re<mark>mark</mark>able par<mark>k</mark>", activities[0].Highlight.Name)
}

func TestHighlightPage_ShortTermDoesNotSplitLong(t *testing.T) {
	// 短词在长词之后参与交替，长词的命中不被短词截断
	activities := []models.Activity{{Name: "台北夜市美食"}}

	HighlightPage(activities, []string{"夜", "夜市"})

	require.NotNil(t, activities[0].Highlight)
	assert.Equal(t, "台北<mark>夜市</mark>美食", activities[0].Highlight.Name)
}

func TestHighlightPage_NoTerms(t *testing.T) {
	activities := []models.Activity{{Name: "夜市"}}
	HighlightPage(activities, nil)
	assert.Nil(t, activities[0].Highlight)
}
