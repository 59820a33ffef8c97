package models

import "time"

// HotSearchTerm 定义 API 返回的热门搜索词的结构。
// 告诉前端最近哪些关键词被搜索得最多。
type HotSearchTerm struct {
	Term  string `json:"term"`            // 搜索词本身
	Count int64  `json:"count,omitempty"` // 累计搜索次数，为 0 时省略
}

// HotSearchTermES 定义在 Elasticsearch 中存储热门搜索词统计数据的结构。
// 搜索词经小写、去空白归一化后作为文档 ID，计数通过脚本原子自增。
type HotSearchTermES struct {
	Term           string    `json:"term"`             // 归一化后的搜索词
	Count          int64     `json:"count"`            // 该搜索词被搜索的总次数
	LastSearchedAt time.Time `json:"last_searched_at"` // 最后一次被搜索的时间，UTC
}
