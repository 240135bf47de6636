package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Day is a day of the training week, Monday first.
type Day string

const (
	Monday    Day = "Monday"
	Tuesday   Day = "Tuesday"
	Wednesday Day = "Wednesday"
	Thursday  Day = "Thursday"
	Friday    Day = "Friday"
	Saturday  Day = "Saturday"
	Sunday    Day = "Sunday"
)

// Week lists days in canonical order.
var Week = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Index returns the day's position in the week (Monday = 0), or -1.
func (d Day) Index() int {
	for i, w := range Week {
		if w == d {
			return i
		}
	}
	return -1
}

// TimeOfDay is a coarse training slot within a day.
type TimeOfDay string

const (
	Morning TimeOfDay = "Morning"
	Noon    TimeOfDay = "Noon"
	Evening TimeOfDay = "Evening"
)

// DayParts lists times of day in canonical order.
var DayParts = []TimeOfDay{Morning, Noon, Evening}

// Index returns the slot's position within the day (Morning = 0), or -1.
func (t TimeOfDay) Index() int {
	for i, p := range DayParts {
		if p == t {
			return i
		}
	}
	return -1
}

// SlotStatus describes whether the coaching engine may plan into a slot.
type SlotStatus string

const (
	SlotAvailable      SlotStatus = "Available"
	SlotUnavailable    SlotStatus = "Unavailable"
	SlotExternalLocked SlotStatus = "ExternalLocked"
)

// Mandate is how much of the athlete's program the engine controls.
type Mandate string

const (
	MandatePPGOnly      Mandate = "PPG_ONLY"
	MandateHybrid       Mandate = "HYBRID"
	MandateFullAutonomy Mandate = "FULL_AUTONOMY"
)

// LocationHome marks slots trained at home with limited equipment.
const LocationHome = "Home"

// ExternalLoad is training the athlete does outside the program (club
// practice, matches). It is required on ExternalLocked slots.
type ExternalLoad struct {
	ActivityType    string  `json:"activity_type" yaml:"activity_type"`
	EstimatedEffort float64 `json:"estimated_effort" yaml:"estimated_effort"`
	DurationMinutes float64 `json:"duration_minutes" yaml:"duration_minutes"`
}

// TagSet is an unordered set of slot annotations. Tags only accumulate.
type TagSet map[string]struct{}

// NewTagSet returns a set holding tags.
func NewTagSet(tags ...string) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s.Add(t)
	}
	return s
}

// Add inserts tag and reports whether it was new.
func (s TagSet) Add(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	if _, ok := s[tag]; ok {
		return false
	}
	s[tag] = struct{}{}
	return true
}

// Has reports whether tag is present.
func (s TagSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Union adds every tag of other into s.
func (s TagSet) Union(other TagSet) {
	for t := range other {
		s[t] = struct{}{}
	}
}

// Sorted returns the tags in lexical order.
func (s TagSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (s TagSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *TagSet) UnmarshalJSON(data []byte) error {
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return err
	}
	*s = NewTagSet(tags...)
	return nil
}

func (s TagSet) MarshalYAML() (any, error) {
	return s.Sorted(), nil
}

func (s *TagSet) UnmarshalYAML(unmarshal func(any) error) error {
	var tags []string
	if err := unmarshal(&tags); err != nil {
		return err
	}
	*s = NewTagSet(tags...)
	return nil
}

// TimeSlot is one cell of the weekly availability matrix.
type TimeSlot struct {
	Day          Day           `json:"day_of_week" yaml:"day_of_week"`
	TimeOfDay    TimeOfDay     `json:"time_of_day" yaml:"time_of_day"`
	Status       SlotStatus    `json:"status" yaml:"status"`
	Location     string        `json:"location,omitempty" yaml:"location,omitempty"`
	EnergyLevel  string        `json:"energy_level,omitempty" yaml:"energy_level,omitempty"`
	ExternalLoad *ExternalLoad `json:"external_load,omitempty" yaml:"external_load,omitempty"`
	Tags         TagSet        `json:"tags" yaml:"tags"`
}

// NewTimeSlot builds a validated slot.
func NewTimeSlot(day Day, tod TimeOfDay, status SlotStatus, location string, external *ExternalLoad) (TimeSlot, error) {
	s := TimeSlot{
		Day:          day,
		TimeOfDay:    tod,
		Status:       status,
		Location:     location,
		ExternalLoad: external,
		Tags:         TagSet{},
	}
	if err := s.Validate(); err != nil {
		return TimeSlot{}, err
	}
	return s, nil
}

// Key identifies the slot within a week.
func (s TimeSlot) Key() SlotKey {
	return SlotKey{Day: s.Day, TimeOfDay: s.TimeOfDay}
}

// IsHome reports whether the slot is trained at home.
func (s TimeSlot) IsHome() bool {
	return strings.EqualFold(strings.TrimSpace(s.Location), LocationHome)
}

// Validate checks the slot's construction invariants.
func (s TimeSlot) Validate() error {
	if s.Day.Index() < 0 {
		return invalid("day_of_week", "unknown day %q", s.Day)
	}
	if s.TimeOfDay.Index() < 0 {
		return invalid("time_of_day", "unknown time of day %q", s.TimeOfDay)
	}
	switch s.Status {
	case SlotAvailable, SlotUnavailable:
	case SlotExternalLocked:
		if s.ExternalLoad == nil {
			return invalid("external_load", "required when status is %s (%s %s)", SlotExternalLocked, s.Day, s.TimeOfDay)
		}
	default:
		return invalid("status", "unknown slot status %q", s.Status)
	}
	return nil
}

// SlotKey is the (day, time of day) identity of a slot.
type SlotKey struct {
	Day       Day
	TimeOfDay TimeOfDay
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s %s", k.Day, k.TimeOfDay)
}

// AthleteSchedule is an athlete's weekly time matrix and coaching mandate.
type AthleteSchedule struct {
	AthleteID  string     `json:"athlete_id" yaml:"athlete_id"`
	Mandate    Mandate    `json:"mandate" yaml:"mandate"`
	TimeMatrix []TimeSlot `json:"time_matrix" yaml:"time_matrix"`
}

// NewAthleteSchedule builds a validated schedule from its slots.
func NewAthleteSchedule(athleteID string, mandate Mandate, slots []TimeSlot) (AthleteSchedule, error) {
	s := AthleteSchedule{AthleteID: athleteID, Mandate: mandate, TimeMatrix: slots}
	if err := s.Validate(); err != nil {
		return AthleteSchedule{}, err
	}
	return s, nil
}

// Validate normalizes localized day and time-of-day names, then checks every
// slot and the uniqueness of (day, time of day). Nil tag sets are
// initialized so later tagging never writes to a nil map.
func (a *AthleteSchedule) Validate() error {
	switch a.Mandate {
	case "", MandatePPGOnly, MandateHybrid, MandateFullAutonomy:
	default:
		return invalid("mandate", "unknown mandate %q", a.Mandate)
	}
	seen := make(map[SlotKey]struct{}, len(a.TimeMatrix))
	for i := range a.TimeMatrix {
		slot := &a.TimeMatrix[i]
		if d, ok := NormalizeDay(string(slot.Day)); ok {
			slot.Day = d
		}
		if t, ok := NormalizeTimeOfDay(string(slot.TimeOfDay)); ok {
			slot.TimeOfDay = t
		}
		if err := slot.Validate(); err != nil {
			return err
		}
		if _, dup := seen[slot.Key()]; dup {
			return invalid("time_matrix", "duplicate slot %s", slot.Key())
		}
		seen[slot.Key()] = struct{}{}
		if slot.Tags == nil {
			slot.Tags = TagSet{}
		}
	}
	return nil
}

// Slot returns a pointer to the slot at key, or nil.
func (a *AthleteSchedule) Slot(key SlotKey) *TimeSlot {
	for i := range a.TimeMatrix {
		if a.TimeMatrix[i].Key() == key {
			return &a.TimeMatrix[i]
		}
	}
	return nil
}

// ConstraintWarning is a validator finding for the athlete or coach.
type ConstraintWarning struct {
	Code         string   `json:"code"`
	Message      string   `json:"message"`
	AffectedDays []string `json:"affected_days"`
}
