package models

import (
	"testing"
	"time"
)

func ptrS(v string) *string { return &v }

// 索引路径与扫描路径必须还原出同样形状的活动聚合，
// 路径降级对调用方不可见。这里覆盖 ES 文档侧的完整还原。
func TestEsActivityDocument_ToActivity(t *testing.T) {
	now := time.Now().UTC()
	doc := EsActivityDocument{
		ID:              "act-1001",
		Name:            "平溪天灯节",
		Description:     "上千盏天灯同时升空",
		Summary:         "新北市年度盛事",
		Status:          string(StatusActive),
		QualityScore:    92,
		PopularityScore: 88.5,
		Price:           250,
		PriceType:       string(PricePaid),
		Currency:        "TWD",
		ViewCount:       1200,
		FavoriteCount:   88,
		ClickCount:      340,
		Address:         "新北市平溪区",
		City:            "新北市",
		Region:          string(RegionNorth),
		Venue:           "平溪车站周边",
		Coordinate:      &EsGeoPoint{Lat: 25.0257, Lon: 121.7391},
		CategoryNames:   []string{"节庆"},
		CategorySlugs:   []string{"festival"},
		TagSlugs:        []string{"lantern"},
		StartDate:       "2026-02-26",
		EndDate:         ptrS("2026-03-01"),
		StartTime:       ptrS("18:00"),
		EndTime:         ptrS("21:30"),
		Timezone:        "Asia/Taipei",
		IsRecurring:     true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	act := doc.ToActivity()

	if act.ID != "act-1001" || act.Name != "平溪天灯节" || act.Status != StatusActive {
		t.Errorf("基础字段还原不符: %+v", act)
	}
	if act.Currency != "TWD" || act.ClickCount != 340 || act.ViewCount != 1200 {
		t.Errorf("计数与货币字段还原不符: currency=%q click_count=%d view_count=%d",
			act.Currency, act.ClickCount, act.ViewCount)
	}

	if act.Location == nil {
		t.Fatal("应还原地点")
	}
	if act.Location.Latitude == nil || *act.Location.Latitude != 25.0257 ||
		act.Location.Longitude == nil || *act.Location.Longitude != 121.7391 {
		t.Errorf("坐标还原不符: %+v", act.Location)
	}

	if act.Time == nil {
		t.Fatal("应还原时间安排")
	}
	if act.Time.StartDate != "2026-02-26" ||
		act.Time.EndDate == nil || *act.Time.EndDate != "2026-03-01" {
		t.Errorf("日期还原不符: %+v", act.Time)
	}
	if act.Time.StartTime == nil || *act.Time.StartTime != "18:00" ||
		act.Time.EndTime == nil || *act.Time.EndTime != "21:30" ||
		act.Time.Timezone != "Asia/Taipei" || !act.Time.IsRecurring {
		t.Errorf("时段与周期还原不符: %+v", act.Time)
	}

	if len(act.Categories) != 1 || act.Categories[0].Name != "节庆" || act.Categories[0].Slug != "festival" {
		t.Errorf("分类还原不符: %+v", act.Categories)
	}
	if len(act.Tags) != 1 || act.Tags[0].Slug != "lantern" {
		t.Errorf("标签还原不符: %+v", act.Tags)
	}
}

func TestEsActivityDocument_ToActivity_Minimal(t *testing.T) {
	doc := EsActivityDocument{ID: "act-2", Name: "常设展"}

	act := doc.ToActivity()

	if act.Location == nil {
		t.Fatal("地点容器应始终存在（字段可为空）")
	}
	if act.Location.Latitude != nil || act.Location.Longitude != nil {
		t.Error("无坐标文档不应带经纬度")
	}
	if act.Time != nil {
		t.Error("无起始日期的文档不应带时间安排")
	}
	if act.DistanceKm != nil {
		t.Error("非空间检索不应出现距离")
	}
}
