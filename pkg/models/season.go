package models

import "time"

// Season is one of four fixed agro-climatic periods used to stratify
// calibration by time of year. The month mapping follows the IMD
// classification and is not user-configurable.
type Season string

const (
	SeasonWinter      Season = "winter"
	SeasonSummer      Season = "summer"
	SeasonMonsoon     Season = "monsoon"
	SeasonPostMonsoon Season = "post_monsoon"
)

var monthSeasons = map[time.Month]Season{
	time.January:   SeasonWinter,
	time.February:  SeasonWinter,
	time.March:     SeasonSummer,
	time.April:     SeasonSummer,
	time.May:       SeasonSummer,
	time.June:      SeasonMonsoon,
	time.July:      SeasonMonsoon,
	time.August:    SeasonMonsoon,
	time.September: SeasonMonsoon,
	time.October:   SeasonPostMonsoon,
	time.November:  SeasonPostMonsoon,
	time.December:  SeasonPostMonsoon,
}

// AllSeasons returns every season in calendar order.
func AllSeasons() []Season {
	return []Season{SeasonWinter, SeasonSummer, SeasonMonsoon, SeasonPostMonsoon}
}

// SeasonForMonth maps a calendar month to its agro-climatic season.
func SeasonForMonth(m time.Month) Season {
	return monthSeasons[m]
}

// SeasonForDate maps a date to its agro-climatic season.
func SeasonForDate(t time.Time) Season {
	return SeasonForMonth(t.Month())
}

// ParseSeason validates a season identifier. Returns false for unknown values.
func ParseSeason(s string) (Season, bool) {
	switch Season(s) {
	case SeasonWinter, SeasonSummer, SeasonMonsoon, SeasonPostMonsoon:
		return Season(s), true
	}
	return "", false
}

func (s Season) String() string {
	return string(s)
}
