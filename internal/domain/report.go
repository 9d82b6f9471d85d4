package domain

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// ViewStats aggregates view counters over every stored schedule.
type ViewStats struct {
	TotalViews         int64
	AverageViews       float64
	MaxViews           int64
	SchedulesWithViews int64 // schedules viewed by someone besides the creator
}

// ProjectUsage counts how many schedules used a project and their summed hours.
type ProjectUsage struct {
	ProjectID  string  `json:"projectId"`
	Count      int64   `json:"count"`
	TotalHours float64 `json:"totalHours"`
}

// TopProjectsLimit bounds the project ranking in the usage report.
const TopProjectsLimit = 10

// expirationBoundaries are the lower bounds, in days, of the remaining
// lifetime buckets. Anything at or past the last boundary lands in "30+".
var expirationBoundaries = []float64{0, 1, 2, 3, 7, 14, 30}

// ExpirationBucket counts active schedules whose remaining lifetime, in days,
// falls between the bucket's lower bound and the next boundary.
type ExpirationBucket struct {
	Bucket string `json:"bucket"`
	Count  int64  `json:"count"`
}

// BucketExpirations distributes the expiration instants of active schedules
// over the remaining-lifetime buckets. Empty buckets are omitted.
func BucketExpirations(now time.Time, expirations []time.Time) []ExpirationBucket {
	counts := make([]int64, len(expirationBoundaries))
	for _, exp := range expirations {
		days := exp.Sub(now).Hours() / 24
		if days < 0 {
			continue
		}
		idx := len(expirationBoundaries) - 1
		for i := 0; i < len(expirationBoundaries)-1; i++ {
			if days < expirationBoundaries[i+1] {
				idx = i
				break
			}
		}
		counts[idx]++
	}

	out := []ExpirationBucket{}
	for i, c := range counts {
		if c == 0 {
			continue
		}
		label := strconv.FormatFloat(expirationBoundaries[i], 'f', 0, 64)
		if i == len(expirationBoundaries)-1 {
			label += "+"
		}
		out = append(out, ExpirationBucket{Bucket: label, Count: c})
	}
	return out
}

// Recommendation is an operator hint derived from the usage report.
type Recommendation struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Message  string `json:"message"`
	Action   string `json:"action"`
}

// UsageOverview holds the headline counts of the usage report.
type UsageOverview struct {
	TotalSchedules   int64 `json:"totalSchedules"`
	ActiveSchedules  int64 `json:"activeSchedules"`
	ExpiredSchedules int64 `json:"expiredSchedules"`
	UnusedSchedules  int64 `json:"unusedSchedules"`
}

// CreationCounts counts schedules created within trailing windows.
type CreationCounts struct {
	Last24h    int64 `json:"last24h"`
	Last7Days  int64 `json:"last7days"`
	Last30Days int64 `json:"last30days"`
}

// UsageSummary reports view activity.
type UsageSummary struct {
	TotalViews         int64   `json:"totalViews"`
	AverageViews       float64 `json:"averageViews"`
	MaxViews           int64   `json:"maxViews"`
	SchedulesWithViews int64   `json:"schedulesWithViews"`
	UsageRate          int64   `json:"usageRate"`
}

// UsageReport is the admin analytics view over the schedule store.
type UsageReport struct {
	Timestamp       time.Time          `json:"timestamp"`
	Overview        UsageOverview      `json:"overview"`
	Creation        CreationCounts     `json:"creation"`
	Usage           UsageSummary       `json:"usage"`
	Expiration      []ExpirationBucket `json:"expirationDistribution"`
	TopProjects     []ProjectUsage     `json:"topProjects"`
	Recommendations []Recommendation   `json:"recommendations"`
}

// NewUsageSummary derives the usage block from raw view stats. The average is
// rounded to two decimals and the usage rate is a whole percentage of
// schedules viewed by someone other than the creator.
func NewUsageSummary(stats ViewStats, total int64) UsageSummary {
	u := UsageSummary{
		TotalViews:         stats.TotalViews,
		AverageViews:       math.Round(stats.AverageViews*100) / 100,
		MaxViews:           stats.MaxViews,
		SchedulesWithViews: stats.SchedulesWithViews,
	}
	if total > 0 {
		u.UsageRate = int64(math.Round(float64(stats.SchedulesWithViews) / float64(total) * 100))
	}
	return u
}

// Recommend returns the operator hints for an overview.
func Recommend(o UsageOverview) []Recommendation {
	recs := []Recommendation{}
	if o.ExpiredSchedules > 0 {
		recs = append(recs, Recommendation{
			Type:     "cleanup",
			Priority: "medium",
			Message:  fmt.Sprintf("%d expired schedules can be cleaned up", o.ExpiredSchedules),
			Action:   "Run cleanup endpoint with action=expired",
		})
	}
	if o.UnusedSchedules > 5 {
		recs = append(recs, Recommendation{
			Type:     "optimization",
			Priority: "low",
			Message:  fmt.Sprintf("%d schedules created >24h ago have no views", o.UnusedSchedules),
			Action:   "Consider cleanup of unused schedules",
		})
	}
	if o.TotalSchedules > 1000 {
		recs = append(recs, Recommendation{
			Type:     "performance",
			Priority: "high",
			Message:  fmt.Sprintf("Database has %d total schedules", o.TotalSchedules),
			Action:   "Consider implementing automated cleanup policies",
		})
	}
	return recs
}
