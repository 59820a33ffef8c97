package search

import (
	"errors"
	"math"
	"testing"

	"github.com/Xushengqwer/activity_search/config"
	"github.com/Xushengqwer/activity_search/internal/models"
)

func taiwanConfig() config.SearchConfig {
	return config.SearchConfig{
		Envelope:    config.GeoEnvelopeConfig{MinLat: 21.8, MaxLat: 25.4, MinLng: 119.3, MaxLng: 122.1},
		MaxRadiusKm: 100,
	}
}

func TestHaversine_Symmetry(t *testing.T) {
	points := [][4]float64{
		{25.033, 121.565, 25.047, 121.517},
		{22.627, 120.301, 24.147, 120.673},
		{21.9, 119.4, 25.3, 122.0},
	}
	for _, p := range points {
		ab := Haversine(p[0], p[1], p[2], p[3])
		ba := Haversine(p[2], p[3], p[0], p[1])
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("距离不对称: %f vs %f", ab, ba)
		}
	}
}

func TestHaversine_KnownDistance(t *testing.T) {
	// 台北 101 到台北车站，实际约 5 公里
	d := Haversine(25.0340, 121.5645, 25.0478, 121.5170)
	if d < 4.0 || d > 6.0 {
		t.Errorf("台北 101 到台北车站的距离应约 5 公里, 实际 %.3f", d)
	}

	if d := Haversine(25.0, 121.5, 25.0, 121.5); d != 0 {
		t.Errorf("同一点距离应为 0, 实际 %f", d)
	}
}

func TestWithin_BoundaryInclusive(t *testing.T) {
	center := models.GeoPoint{Lat: 25.033, Lng: 121.565}
	lat, lng := 25.08, 121.60
	d := Haversine(center.Lat, center.Lng, lat, lng)

	// 恰好等于半径的点必须被包含
	if !Within(center, lat, lng, d) {
		t.Error("边界上的点应被包含 (<=)")
	}
	if Within(center, lat, lng, d-0.001) {
		t.Error("半径略小于距离时不应包含")
	}
}

func TestRoundDistance(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.234567, 1.23},
		{1.235, 1.24},
		{0, 0},
		{99.999, 100.0},
	}
	for _, tt := range tests {
		if got := RoundDistance(tt.in); got != tt.want {
			t.Errorf("RoundDistance(%f) = %f, want %f", tt.in, got, tt.want)
		}
	}
}

func TestGeoFilter_Validate(t *testing.T) {
	f := NewGeoFilter(taiwanConfig())

	tests := []struct {
		name    string
		query   *GeoQuery
		wantErr bool
	}{
		{name: "空查询", query: nil, wantErr: false},
		{name: "无空间约束", query: &GeoQuery{}, wantErr: false},
		{
			name:    "台北市中心有效",
			query:   &GeoQuery{Center: &models.GeoPoint{Lat: 25.033, Lng: 121.565}, RadiusKm: 5},
			wantErr: false,
		},
		{
			name:    "纬度越界",
			query:   &GeoQuery{Center: &models.GeoPoint{Lat: 91, Lng: 121.5}, RadiusKm: 5},
			wantErr: true,
		},
		{
			name:    "经度越界",
			query:   &GeoQuery{Center: &models.GeoPoint{Lat: 25, Lng: 181}, RadiusKm: 5},
			wantErr: true,
		},
		{
			name:    "半径为零",
			query:   &GeoQuery{Center: &models.GeoPoint{Lat: 25.033, Lng: 121.565}, RadiusKm: 0},
			wantErr: true,
		},
		{
			name:    "半径超上限",
			query:   &GeoQuery{Center: &models.GeoPoint{Lat: 25.033, Lng: 121.565}, RadiusKm: 101},
			wantErr: true,
		},
		{
			name:    "中心点在覆盖范围外",
			query:   &GeoQuery{Center: &models.GeoPoint{Lat: 35.68, Lng: 139.69}, RadiusKm: 5},
			wantErr: true,
		},
		{
			name: "有效边界框",
			query: &GeoQuery{Bounds: &models.GeoBounds{
				North: 25.1, South: 24.9, East: 121.7, West: 121.4,
			}},
			wantErr: false,
		},
		{
			name: "南北颠倒的边界框",
			query: &GeoQuery{Bounds: &models.GeoBounds{
				North: 24.9, South: 25.1, East: 121.7, West: 121.4,
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.Validate(tt.query)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
			if err != nil {
				var vErr *models.ValidationError
				if !errors.As(err, &vErr) {
					t.Errorf("期望 *models.ValidationError, 实际 %T", err)
				}
			}
		})
	}
}

func TestGeoFilter_Validate_EnvelopeDisabled(t *testing.T) {
	// 包络全零时跳过覆盖范围校验，只做经纬度范围校验
	f := NewGeoFilter(config.SearchConfig{MaxRadiusKm: 100})
	q := &GeoQuery{Center: &models.GeoPoint{Lat: 35.68, Lng: 139.69}, RadiusKm: 5}
	if err := f.Validate(q); err != nil {
		t.Errorf("未配置包络时东京中心点应合法, 实际 %v", err)
	}
}

func TestGeoFilter_BoundingBox(t *testing.T) {
	f := NewGeoFilter(taiwanConfig())
	center := models.GeoPoint{Lat: 25.033, Lng: 121.565}
	box := f.BoundingBox(&GeoQuery{Center: &center, RadiusKm: 5})
	if box == nil {
		t.Fatal("半径查询应产出边界框")
	}

	// 边界框必须覆盖半径内的任意点（取正北方向约 4.5 公里处验证）
	northLat := center.Lat + 4.5/kmPerDegreeLat
	if northLat > box.North || northLat < box.South {
		t.Errorf("半径内的点应落在边界框内: lat %f, box [%f, %f]", northLat, box.South, box.North)
	}
	if box.North <= center.Lat || box.South >= center.Lat ||
		box.East <= center.Lng || box.West >= center.Lng {
		t.Error("边界框应以中心点为内点")
	}

	// 显式边界框原样返回
	explicit := &models.GeoBounds{North: 25.1, South: 24.9, East: 121.7, West: 121.4}
	got := f.BoundingBox(&GeoQuery{Bounds: explicit})
	if got == nil || *got != *explicit {
		t.Errorf("显式边界框应原样返回, 实际 %+v", got)
	}

	if f.BoundingBox(&GeoQuery{}) != nil {
		t.Error("无空间约束时不应产出边界框")
	}
}
