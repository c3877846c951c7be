// Package chat answers free-text questions about the event catalog with a
// fixed-rule intent matcher: an ordered list of (match, respond) pairs
// evaluated top to bottom, first match wins. No model, no session memory;
// each turn sees only the immutable event snapshot it is handed.
package chat

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"seoulfest/models"
	"seoulfest/utils/filter"
)

// fallbackResponses is the fixed set of generic prompts used when no rule
// matches. Selection is uniform over the list.
var fallbackResponses = []string{
	"행사를 찾는 것을 도와드릴 수 있어요! 행사의 카테고리, 날짜, 지역 등을 물어보세요!",
	"관심 있는 행사의 카테고리, 날짜, 지역 등을 물어보세요!",
	"오늘의 행사, 이번 주의 행사, 특정 지역의 행사 등을 물어보세요!",
	"핫한 행사를 추천해드릴 수 있어요! 무엇을 도와드릴까요?",
}

// WelcomeMessage opens every new conversation.
const WelcomeMessage = "안녕하세요! 저는 서울에서 열리는 행사들을 찾는 것을 도와드릴 수 있어요. 관심 있는 행사, 이번 주의 행사 등을 물어보세요!"

// rule pairs a keyword predicate with a response builder. Rules are
// evaluated in order; extend the matcher by appending entries, not by
// nesting conditionals.
type rule struct {
	match   func(msg string) bool
	respond func(msg string, events []models.Event, now time.Time) string
}

// Service is the rule-based query matcher. The randomness source and clock
// are injected so fallback selection and temporal rules are deterministic
// under test.
type Service struct {
	mu    sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
	rules []rule
}

// New creates a matcher with the default rule set. rng and now may be nil,
// in which case a time-seeded source and the wall clock are used.
func New(rng *rand.Rand, now func() time.Time) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	s := &Service{rng: rng, now: now}
	s.rules = defaultRules()
	return s
}

// Answer classifies the message and returns a summary of the matching
// events, or a generic prompt when nothing matches. Single-turn and
// stateless apart from the snapshot passed in.
func (s *Service) Answer(events []models.Event, message string) string {
	msg := strings.ToLower(message)
	now := s.now()

	for _, r := range s.rules {
		if r.match(msg) {
			return r.respond(msg, events, now)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return fallbackResponses[s.rng.Intn(len(fallbackResponses))]
}

// defaultRules builds the ordered rule set: categories first, then temporal
// lookups, then districts. A message naming both a category and a date is
// answered by category.
func defaultRules() []rule {
	rules := []rule{
		categoryRule([]string{"festival", "페스티벌", "축제"}, models.CategoryFestival,
			"%d 행사를 찾았어요! 요즘 핫한 행사들은 %s 정도에요!", "현재 열리는 행사가 없어요."),
		categoryRule([]string{"concert", "콘서트", "공연"}, models.CategoryConcert,
			"%d 공연을 찾았어요! 요즘 핫한 공연들은 %s 정도에요!", "현재 열리는 공연이 없어요."),
		categoryRule([]string{"exhibition", "exhibit", "전시"}, models.CategoryExhibition,
			"%d 전시회를 찾았어요! 요즘 핫한 전시회들은 %s 정도에요!", "현재 열리는 전시회가 없어요."),
		{
			match: containsAny("today", "tonight", "오늘"),
			respond: func(_ string, events []models.Event, now time.Time) string {
				// Day-granularity equality on the primary date only; an
				// already-running multi-day event is not "today's event".
				today := filter.FormatDay(now)
				var todays []models.Event
				for _, e := range events {
					if e.Date == today {
						todays = append(todays, e)
					}
				}
				if len(todays) == 0 {
					return "오늘의 행사는 없습니다."
				}
				return fmt.Sprintf("%d개 오늘의 행사들: %s", len(todays), joinTitles(todays))
			},
		},
		{
			match: containsAny("this week", "이번 주", "이번주"),
			respond: func(_ string, events []models.Event, now time.Time) string {
				week := eventsThisWeek(events, now)
				if len(week) == 0 {
					return "이번 주의 행사는 없습니다."
				}
				return fmt.Sprintf("%d개 이번 주의 행사들: %s", len(week), joinTitles(week))
			},
		},
	}

	// Location lookups over the fixed district list.
	districts := []struct {
		keywords []string
		needle   string
		name     string
	}{
		{[]string{"gangnam", "강남"}, "강남", "강남"},
		{[]string{"myeongdong", "명동"}, "명동", "명동"},
		{[]string{"hongdae", "홍대"}, "홍대", "홍대"},
	}
	for _, d := range districts {
		d := d
		rules = append(rules, rule{
			match: containsAny(d.keywords...),
			respond: func(_ string, events []models.Event, _ time.Time) string {
				var matched []models.Event
				for _, e := range events {
					if strings.Contains(e.Location, d.needle) {
						matched = append(matched, e)
					}
				}
				if len(matched) == 0 {
					return fmt.Sprintf("%s 지역의 행사는 없습니다.", d.name)
				}
				return fmt.Sprintf("%d개 %s 지역의 행사들: %s", len(matched), d.name, joinTitles(matched))
			},
		})
	}

	return rules
}

// categoryRule builds a rule matching any of the keywords and summarizing
// the events of one canonical category. foundFmt keeps the stable
// "{count} ... {joined titles}" substitution points.
func categoryRule(keywords []string, category, foundFmt, noneMsg string) rule {
	return rule{
		match: containsAny(keywords...),
		respond: func(_ string, events []models.Event, _ time.Time) string {
			matched := filter.Apply(events, filter.Criteria{Category: category})
			if len(matched) == 0 {
				return noneMsg
			}
			return fmt.Sprintf(foundFmt, len(matched), joinTitles(matched))
		},
	}
}

// eventsThisWeek keeps events whose primary date lies within [now, now+7d].
// The difference is computed as fractional days against the full current
// timestamp; the 7.0-day boundary itself counts as this week.
func eventsThisWeek(events []models.Event, now time.Time) []models.Event {
	var matched []models.Event
	for _, e := range events {
		day, err := filter.ParseDay(e.Date)
		if err != nil {
			continue
		}
		diff := day.Sub(now).Hours() / 24
		if diff >= 0 && diff <= 7 {
			matched = append(matched, e)
		}
	}
	return matched
}

func containsAny(keywords ...string) func(string) bool {
	return func(msg string) bool {
		for _, k := range keywords {
			if strings.Contains(msg, k) {
				return true
			}
		}
		return false
	}
}

func joinTitles(events []models.Event) string {
	titles := make([]string, 0, len(events))
	for _, e := range events {
		titles = append(titles, e.Title)
	}
	return strings.Join(titles, ", ")
}
