package entity

import (
	"strings"
	"time"
)

// PreferenceTags is the fixed vocabulary selectable on the request form.
var PreferenceTags = []string{
	"历史文化",
	"自然风光",
	"美食打卡",
	"亲子出行",
	"小众秘境",
	"购物血拼",
	"休闲度假",
	"摄影采风",
}

// TravelRequest is one user submission. It is immutable once handed to the
// pipeline and persisted as a single row in the requests table.
type TravelRequest struct {
	RequestID   string
	Username    string
	Destination string
	Origin      string
	StartDate   time.Time
	EndDate     time.Time
	Budget      int
	Preferences []string
	CreatedAt   time.Time
}

// Days returns the trip length in calendar days, inclusive of both ends.
func (r *TravelRequest) Days() int {
	return int(r.EndDate.Sub(r.StartDate).Hours()/24) + 1
}

// Validate checks the request before it may enter the pipeline.
func (r *TravelRequest) Validate() error {
	if strings.TrimSpace(r.Destination) == "" {
		return NewValidationError("destination", "目的地不能为空")
	}
	if strings.TrimSpace(r.Origin) == "" {
		return NewValidationError("origin", "出发地不能为空")
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return NewValidationError("dates", "出发和返回日期不能为空")
	}
	if r.EndDate.Before(r.StartDate) {
		return NewValidationError("end_date", "返回日期不能早于出发日期")
	}
	if r.Budget < 0 {
		return NewValidationError("budget", "预算不能为负数")
	}
	known := make(map[string]bool, len(PreferenceTags))
	for _, t := range PreferenceTags {
		known[t] = true
	}
	for _, p := range r.Preferences {
		if !known[p] {
			return NewValidationError("preferences", "未知偏好标签: "+p)
		}
	}
	return nil
}
