package bulletin

import (
	"fmt"
	"regexp"
	"strconv"
)

// sourceIDRe matches collector filenames such as "FAIL41_BIRK_231630.85":
// WMO product, ICAO station, day-of-month + HHMM issue group, sequence.
var sourceIDRe = regexp.MustCompile(`^([A-Z]{4}\d{2})_([A-Z]{4})_(\d{2})(\d{2})(\d{2})(?:\.\d+)?$`)

// SourceInfo is the decomposition of a bulletin source identifier. The issue
// group carries no month or year; anchoring it to an absolute date is the
// caller's job, using retrieval metadata.
type SourceInfo struct {
	Product string
	Station string
	Day     int // day of month, 1–31
	Hour    int
	Minute  int
}

// ParseSourceID decomposes a source identifier of the conventional
// PRODUCT_STATION_DDHHMM form. Identifiers in other shapes are not an
// error elsewhere in the parser — the source ID is an opaque label — so
// this returns a plain error for the caller to log and ignore.
func ParseSourceID(id string) (SourceInfo, error) {
	m := sourceIDRe.FindStringSubmatch(id)
	if m == nil {
		return SourceInfo{}, fmt.Errorf("source id %q does not match PRODUCT_STATION_DDHHMM", id)
	}
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	if day < 1 || day > 31 || hour > 23 || minute > 59 {
		return SourceInfo{}, fmt.Errorf("source id %q has impossible issue group %s%s%s", id, m[3], m[4], m[5])
	}
	return SourceInfo{
		Product: m[1],
		Station: m[2],
		Day:     day,
		Hour:    hour,
		Minute:  minute,
	}, nil
}
