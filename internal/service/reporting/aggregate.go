package reporting

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/dpr/internal/domain/models"
)

// totals accumulates target and achieved by sum and cumulative by max.
// Cumulative values are running totals repeated on every report, so summing
// them across reports would count the same work more than once.
type totals struct {
	target     float64
	achieved   float64
	cumulative float64
}

func (t *totals) add(a models.ActivityEntry) {
	t.target += a.Target
	t.achieved += a.Achieved
	if a.Cumulative > t.cumulative {
		t.cumulative = a.Cumulative
	}
}

func (t totals) progress() float64 {
	return percent(t.achieved, t.target)
}

// ComputeDashboard derives the headline metrics from the reports of a period.
func ComputeDashboard(reports []models.DailyReport, sites []string, today time.Time) models.DashboardMetrics {
	today = models.DateOf(today)
	var t totals
	reportsToday := 0
	for _, r := range reports {
		if models.DateOf(r.Date).Equal(today) {
			reportsToday++
		}
		for _, a := range r.Activities {
			t.add(a)
		}
	}

	return models.DashboardMetrics{
		TotalSites:      len(sites),
		TotalReports:    len(reports),
		ReportsToday:    reportsToday,
		OverallProgress: round2(t.progress()),
		TotalTarget:     round2(t.target),
		TotalAchieved:   round2(t.achieved),
	}
}

// ComputeSiteMetrics aggregates each site in the given order. Every site gets
// an entry; sites without reports carry the No Data tier.
func ComputeSiteMetrics(reports []models.DailyReport, sites []string) []models.SiteMetrics {
	type siteAcc struct {
		totals
		count int
		last  time.Time
	}
	bySite := make(map[string]*siteAcc, len(sites))
	for _, code := range sites {
		bySite[code] = &siteAcc{}
	}

	for _, r := range reports {
		acc, ok := bySite[r.SiteCode]
		if !ok {
			continue
		}
		acc.count++
		if d := models.DateOf(r.Date); d.After(acc.last) {
			acc.last = d
		}
		for _, a := range r.Activities {
			acc.add(a)
		}
	}

	out := make([]models.SiteMetrics, 0, len(sites))
	for _, code := range sites {
		acc := bySite[code]
		progress := acc.progress()
		lastReport := "N/A"
		if acc.count > 0 {
			lastReport = acc.last.Format(models.DisplayDateLayout)
		}
		out = append(out, models.SiteMetrics{
			SiteCode:     code,
			ReportsCount: acc.count,
			Target:       round2(acc.target),
			Achieved:     round2(acc.achieved),
			Cumulative:   round2(acc.cumulative),
			Progress:     round2(progress),
			Status:       StatusFor(acc.count, progress),
			LastReport:   lastReport,
		})
	}
	return out
}

// StatusFor maps a site's report count and progress percentage to its tier.
// Zero reports is No Data regardless of progress.
func StatusFor(reportCount int, progress float64) models.StatusTier {
	switch {
	case reportCount == 0:
		return models.StatusNoData
	case progress >= 90:
		return models.StatusExcellent
	case progress >= 70:
		return models.StatusOnTrack
	case progress >= 50:
		return models.StatusNeedsAttention
	default:
		return models.StatusCritical
	}
}

// ComputeActivityMetrics aggregates each catalog activity across all reports,
// in catalog order. A non-empty selected list restricts the output.
func ComputeActivityMetrics(reports []models.DailyReport, selected []string) []models.ActivityMetrics {
	allowed := make(map[string]bool, len(selected))
	for _, name := range selected {
		allowed[name] = true
	}

	byName := make(map[string]*totals)
	for _, r := range reports {
		for _, a := range r.Activities {
			acc, ok := byName[a.Name]
			if !ok {
				acc = &totals{}
				byName[a.Name] = acc
			}
			acc.add(a)
		}
	}

	out := make([]models.ActivityMetrics, 0, len(models.Activities()))
	for _, act := range models.Activities() {
		if len(allowed) > 0 && !allowed[act.Name] {
			continue
		}
		var t totals
		if acc, ok := byName[act.Name]; ok {
			t = *acc
		}
		out = append(out, models.ActivityMetrics{
			Activity:   act.Name,
			Unit:       act.Unit,
			Target:     round2(t.target),
			Achieved:   round2(t.achieved),
			Cumulative: round2(t.cumulative),
			Progress:   round2(t.progress()),
		})
	}
	return out
}

// ComputeDailyTrend sums target and achieved per reporting day. Days without
// reports are absent from the series.
func ComputeDailyTrend(reports []models.DailyReport) []models.TrendPoint {
	byDate := make(map[time.Time]*models.TrendPoint)
	for _, r := range reports {
		d := models.DateOf(r.Date)
		p, ok := byDate[d]
		if !ok {
			p = &models.TrendPoint{Date: d.Format(models.DateLayout)}
			byDate[d] = p
		}
		for _, a := range r.Activities {
			p.Target += a.Target
			p.Achieved += a.Achieved
		}
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := make([]models.TrendPoint, 0, len(dates))
	for _, d := range dates {
		p := byDate[d]
		out = append(out, models.TrendPoint{Date: p.Date, Target: round2(p.Target), Achieved: round2(p.Achieved)})
	}
	return out
}

// ComputeCumulative returns, per activity name, the largest cumulative value
// recorded on any report dated on or before cutoff.
func ComputeCumulative(reports []models.DailyReport, cutoff time.Time) map[string]float64 {
	cutoff = models.DateOf(cutoff)
	out := make(map[string]float64)
	for _, r := range reports {
		if models.DateOf(r.Date).After(cutoff) {
			continue
		}
		for _, a := range r.Activities {
			if cur, ok := out[a.Name]; !ok || a.Cumulative > cur {
				out[a.Name] = a.Cumulative
			}
		}
	}
	return out
}

// ComputeMonthlySummary aggregates the reports of one calendar month.
func ComputeMonthlySummary(reports []models.DailyReport, year int, month time.Month) models.MonthlySummary {
	start, end := models.MonthRange(year, month)
	days := make(map[time.Time]struct{})
	var t totals
	workers := 0
	count := 0
	for _, r := range reports {
		d := models.DateOf(r.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		count++
		days[d] = struct{}{}
		workers += r.Workers
		for _, a := range r.Activities {
			t.add(a)
		}
	}

	avg := 0.0
	if len(days) > 0 {
		avg = float64(workers) / float64(len(days))
	}

	return models.MonthlySummary{
		Month:         monthLabel(year, month),
		WorkingDays:   len(days),
		TotalTarget:   round2(t.target),
		TotalAchieved: round2(t.achieved),
		Progress:      round2(t.progress()),
		TotalWorkers:  workers,
		AvgWorkers:    round2(avg),
		TotalReports:  count,
	}
}

func monthLabel(year int, month time.Month) string {
	return fmt.Sprintf("%d-%02d", year, int(month))
}

func percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
