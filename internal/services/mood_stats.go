package services

import (
	"math"
	"strconv"
	"time"
)

// One day of the window. A nil mood means no check-in that day.
type DayMood struct {
	Date        string `json:"date"`
	MyMood      *int   `json:"myMood"`
	PartnerMood *int   `json:"partnerMood"`
}

type MoodAverages struct {
	My      float64 `json:"my"`
	Partner float64 `json:"partner"`
}

// Histograms keyed "1".."5"; every key is always present.
type MoodDistribution struct {
	My      map[string]int `json:"my"`
	Partner map[string]int `json:"partner"`
}

type MoodStats struct {
	Streak           int              `json:"streak"`
	AvgMood          MoodAverages     `json:"avgMood"`
	MoodMatchPercent int              `json:"moodMatchPercent"`
	PerfectDays      int              `json:"perfectDays"`
	Distribution     MoodDistribution `json:"distribution"`
	Daily            []DayMood        `json:"daily"`
	Insights         []string         `json:"insights"`
}

// NOTE: trend compares the recent half of the requester's moods against the older half.
// The recent half takes ceil(n/2) samples, so the middle sample of an odd count is recent.
const (
	trendMinSamples = 5
	trendThreshold  = 0.3

	perfectMoodFloor   = 4
	matchMinBothDays   = 3
	matchInsightFloor  = 50
	streakInsightFloor = 3
	bestDayMinSamples  = 2
)

// ComputeMoodStats derives the window statistics from days ordered oldest to newest.
// It never fails: an empty window yields zero values.
func ComputeMoodStats(days []DayMood) MoodStats {
	stats := MoodStats{
		Daily: days,
		Distribution: MoodDistribution{
			My:      emptyHistogram(),
			Partner: emptyHistogram(),
		},
	}
	if stats.Daily == nil {
		stats.Daily = []DayMood{}
	}

	stats.Streak = trailingStreak(days)

	var mine, partner []int
	for _, d := range days {
		if d.MyMood != nil {
			mine = append(mine, *d.MyMood)
			stats.Distribution.My[strconv.Itoa(*d.MyMood)]++
		}
		if d.PartnerMood != nil {
			partner = append(partner, *d.PartnerMood)
			stats.Distribution.Partner[strconv.Itoa(*d.PartnerMood)]++
		}
	}
	stats.AvgMood = MoodAverages{
		My:      roundTo(mean(mine), 1),
		Partner: roundTo(mean(partner), 1),
	}

	bothDays, matches := 0, 0
	for _, d := range days {
		if d.MyMood == nil || d.PartnerMood == nil {
			continue
		}
		bothDays++
		if *d.MyMood == *d.PartnerMood {
			matches++
		}
		if *d.MyMood >= perfectMoodFloor && *d.PartnerMood >= perfectMoodFloor {
			stats.PerfectDays++
		}
	}
	if bothDays > 0 {
		stats.MoodMatchPercent = int(math.Round(100 * float64(matches) / float64(bothDays)))
	}

	stats.Insights = buildInsights(insightEnv{
		Streak:           stats.Streak,
		PerfectDays:      stats.PerfectDays,
		MoodMatchPercent: stats.MoodMatchPercent,
		BothDays:         bothDays,
		BestDay:          bestWeekday(days),
		Trend:            string(moodTrend(mine)),
	})

	return stats
}

func emptyHistogram() map[string]int {
	h := make(map[string]int, MaxMood)
	for m := MinMood; m <= MaxMood; m++ {
		h[strconv.Itoa(m)] = 0
	}
	return h
}

// trailingStreak counts consecutive days with a check-in, walking back from the newest day.
func trailingStreak(days []DayMood) int {
	streak := 0
	for i := len(days) - 1; i >= 0; i-- {
		if days[i].MyMood == nil {
			break
		}
		streak++
	}
	return streak
}

// bestWeekday returns the weekday with the highest mean mood among weekdays
// with enough samples, or "" if none qualifies. Ties go to the earlier weekday.
func bestWeekday(days []DayMood) string {
	var sums, counts [7]int
	for _, d := range days {
		if d.MyMood == nil {
			continue
		}
		t, err := ParseDay(d.Date)
		if err != nil {
			continue
		}
		sums[t.Weekday()] += *d.MyMood
		counts[t.Weekday()]++
	}

	best, bestMean := -1, 0.0
	for wd := range 7 {
		if counts[wd] < bestDayMinSamples {
			continue
		}
		m := float64(sums[wd]) / float64(counts[wd])
		if best == -1 || m > bestMean {
			best, bestMean = wd, m
		}
	}
	if best == -1 {
		return ""
	}
	return time.Weekday(best).String()
}

type trend string

const (
	trendNone trend = ""
	trendUp   trend = "up"
	trendDown trend = "down"
)

func moodTrend(moods []int) trend {
	n := len(moods)
	if n < trendMinSamples {
		return trendNone
	}

	recentSize := (n + 1) / 2
	older, recent := moods[:n-recentSize], moods[n-recentSize:]

	olderMean, recentMean := mean(older), mean(recent)
	switch {
	case recentMean > olderMean+trendThreshold:
		return trendUp
	case recentMean < olderMean-trendThreshold:
		return trendDown
	}
	return trendNone
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
