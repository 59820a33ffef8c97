package config

import "time"

// GeoEnvelopeConfig 定义了部署区域的地理包络。
// 搜索中心点落在包络之外时直接返回校验错误，而不是悄悄返回空结果。
// 默认值覆盖台湾本岛及离岛。
type GeoEnvelopeConfig struct {
	MinLat float64 `mapstructure:"minLat" default:"21.8"`
	MaxLat float64 `mapstructure:"maxLat" default:"25.4"`
	MinLng float64 `mapstructure:"minLng" default:"119.3"`
	MaxLng float64 `mapstructure:"maxLng" default:"122.1"`
}

// SearchConfig 汇总搜索引擎自身的行为开关。
type SearchConfig struct {
	// Envelope 为空值（全零）时跳过包络校验，仅做经纬度范围校验。
	Envelope GeoEnvelopeConfig `mapstructure:"envelope" json:"envelope" yaml:"envelope"`

	// MaxRadiusKm 是允许的最大搜索半径（公里），半径必须落在 (0, MaxRadiusKm]。
	MaxRadiusKm float64 `mapstructure:"maxRadiusKm" default:"100"`

	// WidenOnEmpty 控制空间搜索命中为空时是否去掉半径约束、按距离重查一次。
	// 不同调用方对这个行为的期望不一致，所以做成配置项，默认关闭。
	WidenOnEmpty bool `mapstructure:"widenOnEmpty" default:"false"`

	// RequestTimeout 是单次搜索在服务层的硬性超时上限。
	RequestTimeout time.Duration `mapstructure:"requestTimeout" default:"5s"`

	// HotTermsDefaultLimit 是热门搜索词接口的默认返回条数。
	HotTermsDefaultLimit int `mapstructure:"hotTermsDefaultLimit" default:"10"`
}
