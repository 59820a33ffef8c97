package models

// SwaggerSearchResultResponse 是一个专门为 Swagger 文档生成的辅助结构体。
// 它解决了 swag 工具无法正确解析泛型类型 response.APIResponse[models.SearchResult] 的问题。
// 实际的 API 响应仍然使用泛型的 response.APIResponse[models.SearchResult]。
type SwaggerSearchResultResponse struct {
	Code    int          `json:"code"`           // 业务自定义状态码，0 代表成功
	Message string       `json:"message"`        // 操作结果的文字描述
	Data    SearchResult `json:"data,omitempty"` // 搜索结果数据负载
}

// SwaggerActivitiesResponse 用于 nearby 等直接返回活动列表的接口文档。
type SwaggerActivitiesResponse struct {
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Data    []Activity `json:"data,omitempty"`
}

// SwaggerErrorResponse 表示错误响应的文档结构。
type SwaggerErrorResponse struct {
	Code    int         `json:"code"`           // 业务自定义错误码
	Message string      `json:"message"`        // 错误的文字描述
	Data    interface{} `json:"data,omitempty"` // 错误响应中通常为 null
}

// SwaggerHealthCheckResponse 用于健康检查接口的文档结构。
type SwaggerHealthCheckResponse struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"` // gin.H 本质上是 map[string]interface{}
}

// SwaggerHotSearchTermsResponse 用于热门搜索词接口的文档结构。
type SwaggerHotSearchTermsResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    []HotSearchTerm `json:"data,omitempty"`
}
