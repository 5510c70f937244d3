package usecase

import (
	"fmt"
	"strings"

	"tripgen-service/internal/domain/entity"
)

// Hotel tiers keyed by per-night budget.
const (
	hotelTierLuxury  = 800
	hotelTierComfort = 400
)

// Distance bands for transport advice, in kilometers.
const (
	flightDistanceKm = 800
	railDistanceKm   = 300
)

// BookingAdvisor produces deterministic booking guidance for the 订票指南
// section: transport mode by distance, hotel tier by per-night budget, plus
// fixed official links and timing tips. No provider calls are involved.
type BookingAdvisor struct{}

// NewBookingAdvisor creates a booking advisor.
func NewBookingAdvisor() *BookingAdvisor {
	return &BookingAdvisor{}
}

// BuildGuidance renders the booking notes fed into the generation prompt.
// The route may be nil when routing was unavailable.
func (a *BookingAdvisor) BuildGuidance(req *entity.TravelRequest, route *entity.RouteEstimate) string {
	var b strings.Builder

	days := req.Days()
	fmt.Fprintf(&b, "行程共 %d 天（%s 至 %s）。\n\n",
		days, req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"))

	a.writeTransport(&b, req, route)
	a.writeHotels(&b, req, days)
	a.writeLinks(&b)
	a.writeTips(&b)

	return b.String()
}

func (a *BookingAdvisor) writeTransport(b *strings.Builder, req *entity.TravelRequest, route *entity.RouteEstimate) {
	b.WriteString("**大交通建议**\n")

	switch {
	case route == nil:
		fmt.Fprintf(b, "- %s到%s的距离未知，建议同时比较高铁与机票价格\n", req.Origin, req.Destination)
		b.WriteString("- 机票建议提前 15-30 天预订，周二下午或周三凌晨预订通常更便宜\n")
		b.WriteString("- 高铁二等座性价比高，一等座更舒适，建议提前 15 天预订\n")
	case route.DistanceKm > flightDistanceKm:
		fmt.Fprintf(b, "- 两地相距约 %d 公里，优先考虑飞机\n", route.DistanceKm)
		b.WriteString("- 机票建议提前 15-30 天预订，周二下午或周三凌晨预订通常更便宜\n")
		b.WriteString("- 也可选择高铁，时间较长但可欣赏沿途风景\n")
	case route.DistanceKm > railDistanceKm:
		fmt.Fprintf(b, "- 两地相距约 %d 公里，高铁/动车是最优选择\n", route.DistanceKm)
		b.WriteString("- 跨省高铁建议提前 15 天预订，二等座性价比高，一等座更舒适\n")
		b.WriteString("- 普通列车相对经济实惠，硬卧适合过夜，硬座适合短途\n")
	default:
		fmt.Fprintf(b, "- 两地相距约 %d 公里（驾车约 %d 分钟），自驾或城际列车均可\n",
			route.DistanceKm, route.DurationMinutes)
		if route.TollYuan > 0 {
			fmt.Fprintf(b, "- 自驾高速过路费约 %d 元\n", route.TollYuan)
		}
		b.WriteString("- 也可选择长途大巴，价格更低但耗时更长\n")
	}
	b.WriteString("\n")
}

func (a *BookingAdvisor) writeHotels(b *strings.Builder, req *entity.TravelRequest, days int) {
	b.WriteString("**酒店建议**\n")

	tiers := []string{"经济型", "舒适型", "高档型"}
	if req.Budget > 0 && days > 0 {
		nightly := float64(req.Budget) / float64(days)
		switch {
		case nightly >= hotelTierLuxury:
			tiers = []string{"豪华型", "高档型"}
		case nightly >= hotelTierComfort:
			tiers = []string{"舒适型", "高档型"}
		default:
			tiers = []string{"经济型", "舒适型"}
		}
	}

	for _, tier := range tiers {
		fmt.Fprintf(b, "- **%s**：%s。%s\n", tier, hotelPriceBands[tier], hotelTierTips[tier])
	}
	b.WriteString("- 建议选择市中心或景区附近的酒店，交通便利，周边配套设施完善\n\n")
}

var hotelPriceBands = map[string]string{
	"经济型": "100-300 元/晚",
	"舒适型": "300-600 元/晚",
	"高档型": "600-1200 元/晚",
	"豪华型": "1200 元以上/晚",
}

var hotelTierTips = map[string]string{
	"经济型": "提前预订，注意查看用户评价",
	"舒适型": "对比多个平台价格，关注优惠活动",
	"高档型": "关注会员优惠，可考虑升级套餐",
	"豪华型": "建议直接联系酒店洽谈优惠",
}

func (a *BookingAdvisor) writeLinks(b *strings.Builder) {
	b.WriteString("**官方预订渠道**\n")
	b.WriteString("- 机票：携程机票（https://flights.ctrip.com/online/channel/domestic）、去哪儿机票（https://flight.qunar.com/）\n")
	b.WriteString("- 火车票：12306 官方（https://www.12306.cn/）、携程火车票（https://trains.ctrip.com/）\n")
	b.WriteString("- 酒店：携程酒店（https://hotels.ctrip.com/）、Booking.com（https://www.booking.com/）\n\n")
}

func (a *BookingAdvisor) writeTips(b *strings.Builder) {
	b.WriteString("**订票技巧**\n")
	b.WriteString("- 提前预订：机票建议提前 15-30 天，火车票提前 15 天\n")
	b.WriteString("- 避开高峰：节假日价格大幅上涨，错峰出行更划算\n")
	b.WriteString("- 多平台比价：使用多个平台对比价格和优惠\n")
	b.WriteString("- 关注优惠：会员日、大促活动时预订更便宜\n")
	b.WriteString("- 官方渠道：优先使用官方渠道或大型平台预订\n")
	b.WriteString("- 注意退改：预订前仔细了解退改签政策\n")
}
