package constants

// ServiceName 用于链路追踪与日志中的服务标识。
const ServiceName = "activity-search-service"

// ServiceVersion 随发布更新。
const ServiceVersion = "1.0.0"
