package utils

import (
	"fmt"
	"time"
)

func TimeNowUTC() time.Time {
	return time.Now().UTC()
}

func PrettyDate(date time.Time) string {
	date = date.UTC()
	return fmt.Sprintf("%02d %s %d - %02d:%02d UTC",
		date.Day(),
		date.Month().String()[:3],
		date.Year(),
		date.Hour(),
		date.Minute(),
	)
}
