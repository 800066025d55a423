package pricing

import (
	"fmt"
	"strings"
	"time"

	"github.com/disscount/disscount/internal/models"
)

// HistoryStart is the first day the upstream API has price data for.
var HistoryStart = time.Date(2025, 5, 16, 0, 0, 0, 0, time.UTC)

const dateLayout = "2006-01-02"

// Period is a named price history window.
type Period string

const (
	PeriodWeek  Period = "1W"
	PeriodMonth Period = "1M"
	PeriodYear  Period = "1Y"
	PeriodAll   Period = "ALL"
)

// Days returns the number of days the period covers, -1 for all history.
func (p Period) Days() int {
	switch p {
	case PeriodWeek:
		return 7
	case PeriodMonth:
		return 30
	case PeriodYear:
		return 365
	case PeriodAll:
		return -1
	default:
		return 7
	}
}

// ParsePeriod validates a period name. An empty string selects one week.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToUpper(strings.TrimSpace(s))); p {
	case "":
		return PeriodWeek, nil
	case PeriodWeek, PeriodMonth, PeriodYear, PeriodAll:
		return p, nil
	default:
		return "", fmt.Errorf("unknown period %q (want 1W, 1M, 1Y or ALL)", s)
	}
}

// HistoryDates returns the last days dates (including today) as YYYY-MM-DD,
// oldest first. days == -1 means all available history. The range never
// starts before HistoryStart and includes it when reached.
func HistoryDates(now time.Time, days int) []string {
	today := now.UTC().Truncate(24 * time.Hour)
	maxDays := int(today.Sub(HistoryStart).Hours()/24) + 1
	if maxDays < 0 {
		maxDays = 0
	}

	n := days
	if days < 0 || days > maxDays {
		n = maxDays
	}

	dates := make([]string, n)
	for i := 0; i < n; i++ {
		dates[n-1-i] = today.AddDate(0, 0, -i).Format(dateLayout)
	}
	return dates
}

// HistoryPoint is one day of per-chain average prices. A nil price means the
// chain reported the product that day but its average did not parse.
type HistoryPoint struct {
	Date   string              `json:"date"`
	Prices map[string]*float64 `json:"prices"`
}

// Domain is the padded value range for a chart axis.
type Domain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// History is a chart-ready price series for one product.
type History struct {
	Points []HistoryPoint `json:"points"`
	Chains []string       `json:"chains"`
	Domain Domain         `json:"domain"`
	Days   int            `json:"days"`
}

// BuildHistory shapes per-date product snapshots into chart rows. snapshots[i]
// belongs to dates[i] and may be nil when that day has no data. Chains are
// listed in first-seen order.
func BuildHistory(dates []string, snapshots []*models.Product) History {
	h := History{
		Points: make([]HistoryPoint, len(dates)),
		Chains: []string{},
		Days:   len(dates),
	}
	seen := make(map[string]struct{})

	for i, date := range dates {
		point := HistoryPoint{Date: date, Prices: map[string]*float64{}}
		if i < len(snapshots) && snapshots[i] != nil {
			for _, c := range snapshots[i].Chains {
				if _, ok := seen[c.Chain]; !ok {
					seen[c.Chain] = struct{}{}
					h.Chains = append(h.Chains, c.Chain)
				}
				point.Prices[c.Chain] = optional(models.ParsePrice(c.AvgPrice).Value())
			}
		}
		h.Points[i] = point
	}

	h.Domain = computeDomain(h.Points)
	return h
}

// BuildHistoryFromSnapshots shapes stored snapshot rows into chart rows.
func BuildHistoryFromSnapshots(dates []string, rows []models.PriceSnapshot) History {
	byDate := make(map[string][]models.PriceSnapshot)
	for _, r := range rows {
		byDate[r.PriceDate] = append(byDate[r.PriceDate], r)
	}

	h := History{
		Points: make([]HistoryPoint, len(dates)),
		Chains: []string{},
		Days:   len(dates),
	}
	seen := make(map[string]struct{})
	for i, date := range dates {
		point := HistoryPoint{Date: date, Prices: map[string]*float64{}}
		for _, r := range byDate[date] {
			if _, ok := seen[r.Chain]; !ok {
				seen[r.Chain] = struct{}{}
				h.Chains = append(h.Chains, r.Chain)
			}
			point.Prices[r.Chain] = r.AvgPrice
		}
		h.Points[i] = point
	}
	h.Domain = computeDomain(h.Points)
	return h
}

// computeDomain pads the observed range by 10% on each side.
func computeDomain(points []HistoryPoint) Domain {
	var (
		lo, hi float64
		found  bool
	)
	for _, p := range points {
		for _, v := range p.Prices {
			if v == nil || !finite(*v) {
				continue
			}
			if !found || *v < lo {
				lo = *v
			}
			if !found || *v > hi {
				hi = *v
			}
			found = true
		}
	}
	if !found {
		return Domain{}
	}
	return Domain{Min: Round2(lo * 0.9), Max: Round2(hi * 1.1)}
}

// PeriodChange compares the mean price of the selected chains on the first
// and last days that have data. With no chains selected, all chains count.
// The boolean is false when fewer than two days have data.
func (h History) PeriodChange(chains ...string) (Change, bool) {
	first, last := -1, -1
	var firstAvg, lastAvg float64
	for i, p := range h.Points {
		avg, ok := meanOf(p, chains)
		if !ok {
			continue
		}
		if first < 0 {
			first, firstAvg = i, avg
		}
		last, lastAvg = i, avg
	}
	if first < 0 || first == last {
		return Change{}, false
	}
	return PriceChange(lastAvg, firstAvg), true
}

func meanOf(p HistoryPoint, chains []string) (float64, bool) {
	var (
		sum float64
		n   int
	)
	add := func(v *float64) {
		if v != nil && finite(*v) {
			sum += *v
			n++
		}
	}
	if len(chains) == 0 {
		for _, v := range p.Prices {
			add(v)
		}
	} else {
		for _, c := range chains {
			add(p.Prices[c])
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
