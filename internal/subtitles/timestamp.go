package subtitles

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	msPerHour   = 3_600_000
	msPerMinute = 60_000
	msPerSecond = 1_000
)

// FormatTimestamp renders milliseconds as [HH:]MM:SS<marker>mmm. The hour
// field is included when it is non-zero or alwaysIncludeHours is set.
func FormatTimestamp(ms int64, alwaysIncludeHours bool, decimalMarker string) (string, error) {
	if ms < 0 {
		return "", fmt.Errorf("format timestamp: negative value %d", ms)
	}
	hours := ms / msPerHour
	ms -= hours * msPerHour
	minutes := ms / msPerMinute
	ms -= minutes * msPerMinute
	seconds := ms / msPerSecond
	ms -= seconds * msPerSecond

	hourPart := ""
	if alwaysIncludeHours || hours > 0 {
		hourPart = fmt.Sprintf("%02d:", hours)
	}
	return fmt.Sprintf("%s%02d:%02d%s%03d", hourPart, minutes, seconds, decimalMarker, ms), nil
}

// srtTimestamp is FormatTimestamp with the SRT layout.
func srtTimestamp(ms int64) (string, error) {
	return FormatTimestamp(ms, true, ",")
}

// parseSRTTimestamp converts HH:MM:SS,mmm (or with a period) into milliseconds.
func parseSRTTimestamp(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	if hours < 0 || minutes < 0 || minutes > 59 || seconds < 0 || seconds > 59 || millis < 0 || millis > 999 {
		return 0, fmt.Errorf("timestamp out of range %q", value)
	}
	return int64(hours)*msPerHour + int64(minutes)*msPerMinute + int64(seconds)*msPerSecond + int64(millis), nil
}
