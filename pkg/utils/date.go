package utils

import (
	"log"
	"time"
)

// TimeNowCST returns the current time in China Standard Time, the timezone
// of the tracked exchanges (SH/SZ/BJ/HK).
func TimeNowCST() time.Time {
	return time.Now().In(LocationCST())
}

// LocationCST returns the Asia/Shanghai location.
func LocationCST() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		log.Fatal("Failed to load location", err)
	}
	return loc
}

// PrettyDate formats a time for human-facing messages.
func PrettyDate(t time.Time) string {
	return t.In(LocationCST()).Format("Monday, 02 Jan 2006 15:04")
}
