package models

// MaxDescriptionLength is the display length cap for event descriptions.
// Longer descriptions are truncated and suffixed with an ellipsis marker.
const MaxDescriptionLength = 200

// Ellipsis marks a truncated description.
const Ellipsis = "..."

// UnknownLocation is shown when neither venue nor district is known.
const UnknownLocation = "장소 미정"

// UnknownPrice is shown when an event carries no fee information.
const UnknownPrice = "가격 정보 없음"

// Event is the canonical event shape served to clients. Upstream records
// never leave the catalog service; everything downstream (filtering,
// calendar aggregation, chat, likes) operates on this type only.
type Event struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Date        string  `json:"date"`                // YYYY-MM-DD, primary date
	StartDate   string  `json:"startDate,omitempty"` // YYYY-MM-DD, inclusive range start
	EndDate     string  `json:"endDate,omitempty"`   // YYYY-MM-DD, inclusive range end
	Time        string  `json:"time,omitempty"`      // free-form time-of-day text
	Location    string  `json:"location"`
	District    string  `json:"district,omitempty"` // 자치구 (e.g. "종로구")
	Category    string  `json:"category"`
	Price       string  `json:"price"`
	Image       string  `json:"image,omitempty"`
	OrgLink     string  `json:"orgLink,omitempty"`
	PortalLink  string  `json:"portalLink,omitempty"`
	Lat         float64 `json:"lat,omitempty"`
	Lng         float64 `json:"lng,omitempty"`
}

// HasRange reports whether the event spans a start/end date range.
func (e Event) HasRange() bool {
	return e.StartDate != "" && e.EndDate != ""
}

// Canonical category identifiers.
const (
	CategoryFestival   = "festival"
	CategoryConcert    = "concert"
	CategoryExhibition = "exhibition"
	CategoryOther      = "other"
)

// Category is a display entry in the fixed category catalog.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// Categories is the fixed catalog shown to clients. CategoryOther is the
// catch-all for unrecognized upstream codenames and is not listed here.
var Categories = []Category{
	{ID: CategoryFestival, Name: "페스티벌", Icon: "🎉"},
	{ID: CategoryConcert, Name: "콘서트", Icon: "🎵"},
	{ID: CategoryExhibition, Name: "전시회", Icon: "🎨"},
}

// ValidCategory reports whether id is a canonical category identifier.
func ValidCategory(id string) bool {
	switch id {
	case CategoryFestival, CategoryConcert, CategoryExhibition, CategoryOther:
		return true
	}
	return false
}
