package catalog

import (
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
	"time"

	"seoulfest/models"
	"seoulfest/services/seoulapi"
	"seoulfest/utils"
	"seoulfest/utils/filter"
)

// defaultDescription is used when upstream provides no program text at all.
const defaultDescription = "상세 정보가 제공되지 않은 행사입니다."

// categoryAliases is the fixed remap from upstream codenames to canonical
// categories. Lookup is exact; anything not listed becomes CategoryOther.
var categoryAliases = map[string]string{
	"전시/미술":    models.CategoryExhibition,
	"전시회":      models.CategoryExhibition,
	"콘서트":      models.CategoryConcert,
	"페스티벌":     models.CategoryFestival,
	"축제-문화/예술": models.CategoryFestival,
	"축제-전통/역사": models.CategoryFestival,
	"축제-시민화합":  models.CategoryFestival,
	"축제-자연/경관": models.CategoryFestival,
	"축제-기타":    models.CategoryFestival,
}

// Normalize converts one upstream row into a canonical Event using the
// current wall clock for the missing-date fallback. See NormalizeAt.
func Normalize(row seoulapi.EventRow) models.Event {
	return NormalizeAt(row, time.Now())
}

// NormalizeAt is a total conversion from an upstream row to a canonical
// Event: it never fails, filling every required field from a fallback chain
// when upstream data is absent. It is idempotent for a fixed now: the
// today fallback for rows with no usable date at all is the single source
// of non-determinism across calls.
func NormalizeAt(row seoulapi.EventRow, now time.Time) models.Event {
	start := parseDay(row.StartDate)
	end := parseDay(row.EndDate)
	if start != "" && end != "" && end < start {
		start, end = end, start
	}
	if start == "" && end != "" {
		// An end date with no start collapses to a single-day event; a
		// half-open range must never reach serialization.
		start, end = end, ""
	}

	date := start
	if date == "" {
		// Deliberate convenience default, not upstream data: a row with no
		// parseable date is surfaced as happening today.
		date = filter.FormatDay(now)
	}

	e := models.Event{
		ID:          eventID(row),
		Title:       strings.TrimSpace(row.Title),
		Description: truncate(firstNonEmpty(row.Program, row.EtcDesc, defaultDescription)),
		Date:        date,
		StartDate:   start,
		EndDate:     end,
		Time:        strings.TrimSpace(row.ProTime),
		Location:    location(row.Place, row.GuName),
		District:    strings.TrimSpace(row.GuName),
		Category:    canonicalCategory(row.Codename),
		Price:       firstNonEmpty(row.IsFree, row.UseFee, models.UnknownPrice),
		Image:       cleanURL(row.MainImg),
		OrgLink:     cleanURL(row.OrgLink),
		PortalLink:  cleanURL(row.HmpgAddr),
	}

	if lat, ok := parseCoordinate(row.Lat); ok {
		e.Lat = lat
	}
	if lng, ok := parseCoordinate(row.Lot); ok {
		e.Lng = lng
	}
	return e
}

// NormalizeAll converts a batch of rows, preserving order.
func NormalizeAll(rows []seoulapi.EventRow, now time.Time) []models.Event {
	events := make([]models.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, NormalizeAt(row, now))
	}
	return events
}

// eventID derives a stable identifier from the row's natural key. Upstream
// rows carry no id of their own, so the same title/start/place row always
// hashes to the same id across refresh cycles.
func eventID(row seoulapi.EventRow) string {
	h := fnv.New64a()
	h.Write([]byte(row.Title))
	h.Write([]byte{0})
	h.Write([]byte(row.StartDate))
	h.Write([]byte{0})
	h.Write([]byte(row.Place))
	return strconv.FormatUint(h.Sum64(), 10)
}

// canonicalCategory maps an upstream codename into the enumerated category
// set, falling back to CategoryOther for anything unrecognized or absent.
func canonicalCategory(codename string) string {
	codename = strings.TrimSpace(codename)
	if models.ValidCategory(codename) {
		return codename
	}
	if c, ok := categoryAliases[codename]; ok {
		return c
	}
	return models.CategoryOther
}

// location joins venue and district, falling back to whichever is present
// and to the unknown-location placeholder when neither is.
func location(place, district string) string {
	place = strings.TrimSpace(place)
	district = strings.TrimSpace(district)
	switch {
	case place != "" && district != "":
		return place + ", " + district
	case place != "":
		return place
	case district != "":
		return district
	default:
		return models.UnknownLocation
	}
}

// truncate caps a description at MaxDescriptionLength runes plus the
// ellipsis marker. Rune-based so multi-byte Korean text is never split.
func truncate(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= models.MaxDescriptionLength {
		return s
	}
	return string(runes[:models.MaxDescriptionLength]) + models.Ellipsis
}

// dayLayouts are the date layouts seen in upstream rows, most common first.
var dayLayouts = []string{"2006-01-02", "2006.01.02", "20060102"}

// parseDay parses an upstream date string into canonical YYYY-MM-DD,
// tolerating a trailing time component ("2025-05-24 00:00:00.0"). Returns
// "" when nothing parses.
func parseDay(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if i := strings.IndexByte(raw, ' '); i > 0 {
		raw = raw[:i]
	}
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return filter.FormatDay(t)
		}
	}
	return ""
}

var floatPattern = regexp.MustCompile(`[-+]?\d+(\.\d+)?`)

// parseCoordinate extracts a float from the messy coordinate strings the
// open API emits (ranges, separators, stray text). Returns false when no
// number can be recovered.
func parseCoordinate(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	for _, sep := range []string{"~", "/", ","} {
		if i := strings.Index(s, sep); i >= 0 {
			s = strings.TrimSpace(s[:i])
		}
	}
	m := floatPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// cleanURL trims an upstream URL and percent-encodes the raw spaces the
// open API is fond of serving. An unparseable value is passed through
// trimmed rather than dropped.
func cleanURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.Contains(raw, " ") {
		return raw
	}
	encoded, err := utils.EncodeURLWithSpaces(raw)
	if err != nil {
		return raw
	}
	return encoded
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
