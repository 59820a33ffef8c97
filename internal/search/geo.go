package search

import (
	"fmt"
	"math"

	"github.com/Xushengqwer/activity_search/config"
	"github.com/Xushengqwer/activity_search/internal/models"
)

// earthRadiusKm 是 haversine 公式使用的地球半径（公里）。
const earthRadiusKm = 6371.0

// 每纬度约 111.045 公里，经度随纬度收缩，用于由半径推导边界框。
const (
	kmPerDegreeLat = 111.045
	kmPerDegreeLng = 111.320
)

// GeoQuery 是一次请求的空间约束：中心点+半径，或显式边界框，二者取其一。
// 两者都为空表示非空间搜索。
type GeoQuery struct {
	Center   *models.GeoPoint
	RadiusKm float64
	Bounds   *models.GeoBounds
}

// IsSpatial 返回该查询是否带有任何空间约束。
func (q *GeoQuery) IsSpatial() bool {
	return q != nil && (q.Center != nil || q.Bounds != nil)
}

// GeoFilter 负责空间约束的校验与求值。它是纯函数式的：
// 不持有连接，不产生副作用，校验失败返回 *models.ValidationError。
type GeoFilter struct {
	envelope    config.GeoEnvelopeConfig
	maxRadiusKm float64
}

// NewGeoFilter 根据搜索配置构造 GeoFilter。
// maxRadiusKm 未配置时使用 100 公里上限；envelope 全零时跳过包络校验。
func NewGeoFilter(cfg config.SearchConfig) *GeoFilter {
	maxRadius := cfg.MaxRadiusKm
	if maxRadius <= 0 {
		maxRadius = 100
	}
	return &GeoFilter{envelope: cfg.Envelope, maxRadiusKm: maxRadius}
}

// Validate 校验空间约束。规则：
//   - 纬度 ∈ [-90, 90]，经度 ∈ [-180, 180]；
//   - 半径 ∈ (0, maxRadiusKm]；
//   - 中心点必须落在部署区域包络内（配置了包络时），
//     落在包络外直接报错，而不是静默返回空结果；
//   - 边界框要求 north >= south 且 east >= west。
func (f *GeoFilter) Validate(q *GeoQuery) error {
	if q == nil {
		return nil
	}

	if q.Bounds != nil {
		b := q.Bounds
		if err := checkLat("bounds.north", b.North); err != nil {
			return err
		}
		if err := checkLat("bounds.south", b.South); err != nil {
			return err
		}
		if err := checkLng("bounds.east", b.East); err != nil {
			return err
		}
		if err := checkLng("bounds.west", b.West); err != nil {
			return err
		}
		if b.North < b.South {
			return models.NewValidationError("bounds", "order", "北界必须不小于南界")
		}
		if b.East < b.West {
			return models.NewValidationError("bounds", "order", "东界必须不小于西界")
		}
		return nil
	}

	if q.Center == nil {
		return nil
	}

	if err := checkLat("location.lat", q.Center.Lat); err != nil {
		return err
	}
	if err := checkLng("location.lng", q.Center.Lng); err != nil {
		return err
	}
	if q.RadiusKm <= 0 || q.RadiusKm > f.maxRadiusKm {
		return models.NewValidationError("radius", "range",
			fmt.Sprintf("搜索半径必须在 (0, %.0f] 公里之间", f.maxRadiusKm))
	}
	if f.envelopeEnabled() {
		e := f.envelope
		if q.Center.Lat < e.MinLat || q.Center.Lat > e.MaxLat ||
			q.Center.Lng < e.MinLng || q.Center.Lng > e.MaxLng {
			return models.NewValidationError("location", "envelope", "搜索中心必须在服务覆盖范围内")
		}
	}
	return nil
}

// BoundingBox 返回空间查询的矩形预过滤范围：
// 显式边界框直接返回；中心点+半径则按经纬度的公里换算推导出外接矩形。
// 矩形只做粗过滤，半径查询还要再用 haversine 精确裁剪矩形四角多余的命中。
func (f *GeoFilter) BoundingBox(q *GeoQuery) *models.GeoBounds {
	if q == nil {
		return nil
	}
	if q.Bounds != nil {
		b := *q.Bounds
		return &b
	}
	if q.Center == nil {
		return nil
	}

	latDelta := q.RadiusKm / kmPerDegreeLat
	cosLat := math.Cos(q.Center.Lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01 // 极区退化保护
	}
	lngDelta := q.RadiusKm / (kmPerDegreeLng * cosLat)

	return &models.GeoBounds{
		North: q.Center.Lat + latDelta,
		South: q.Center.Lat - latDelta,
		East:  q.Center.Lng + lngDelta,
		West:  q.Center.Lng - lngDelta,
	}
}

// Haversine 计算两点间的大圆距离（公里）。
// 过滤与展示必须复用同一个公式，避免边界上的活动因舍入差异被判定不一致。
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180
	dLat := (lat2 - lat1) * degToRad
	dLng := (lng2 - lng1) * degToRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// RoundDistance 把距离舍入到两位小数，用于响应展示。
func RoundDistance(km float64) float64 {
	return math.Round(km*100) / 100
}

// Within 判断坐标是否在中心点半径内，边界取闭区间：
// 恰好等于半径的活动必须被包含。
func Within(center models.GeoPoint, lat, lng, radiusKm float64) bool {
	return Haversine(center.Lat, center.Lng, lat, lng) <= radiusKm
}

func (f *GeoFilter) envelopeEnabled() bool {
	e := f.envelope
	return e.MinLat != 0 || e.MaxLat != 0 || e.MinLng != 0 || e.MaxLng != 0
}

func checkLat(field string, v float64) error {
	if v < -90 || v > 90 {
		return models.NewValidationError(field, "range", "纬度必须在 [-90, 90] 之间")
	}
	return nil
}

func checkLng(field string, v float64) error {
	if v < -180 || v > 180 {
		return models.NewValidationError(field, "range", "经度必须在 [-180, 180] 之间")
	}
	return nil
}
