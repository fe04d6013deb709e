package xarray

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Calendar converts between calendar dates and a day count. Day counts are
// only comparable between dates of the same calendar
type Calendar interface {
	// Name is the CF conventions calendar attribute value
	Name() string
	// DaysInMonth returns the length of month in year
	DaysInMonth(year, month int) int
	// DayNumber counts days from the calendar's epoch to a valid date
	DayNumber(year, month, day int) int64
	// Date is the inverse of DayNumber
	Date(dayNumber int64) (year, month, day int)
}

var (
	calendarsLk sync.RWMutex
	calendars   = map[string]Calendar{}
)

func init() {
	for _, c := range []Calendar{
		gregorianCalendar{name: "standard", mixed: true},
		gregorianCalendar{name: "gregorian", mixed: true},
		gregorianCalendar{name: "proleptic_gregorian"},
		julianCalendar{},
		fixedCalendar{name: "noleap", months: noLeapMonths},
		fixedCalendar{name: "365_day", months: noLeapMonths},
		fixedCalendar{name: "all_leap", months: allLeapMonths},
		fixedCalendar{name: "366_day", months: allLeapMonths},
		fixedCalendar{name: "360_day", months: [12]int{30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30}},
	} {
		RegisterCalendar(c)
	}
}

// RegisterCalendar makes a calendar available to CFDatetime values and
// CFTimeIndex. Registering a name twice replaces the earlier calendar
func RegisterCalendar(c Calendar) {
	calendarsLk.Lock()
	defer calendarsLk.Unlock()
	calendars[c.Name()] = c
}

// LookupCalendar finds a registered calendar by name
func LookupCalendar(name string) (Calendar, bool) {
	calendarsLk.RLock()
	defer calendarsLk.RUnlock()
	c, ok := calendars[name]
	return c, ok
}

// CalendarNames lists registered calendar names in sorted order
func CalendarNames() []string {
	calendarsLk.RLock()
	defer calendarsLk.RUnlock()
	names := make([]string, 0, len(calendars))
	for name := range calendars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	noLeapMonths  = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	allLeapMonths = [12]int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
)

// fixedCalendar has the same month lengths every year
type fixedCalendar struct {
	name   string
	months [12]int
}

func (c fixedCalendar) Name() string { return c.name }

func (c fixedCalendar) DaysInMonth(year, month int) int { return c.months[month-1] }

func (c fixedCalendar) yearLength() int64 {
	var n int64
	for _, d := range c.months {
		n += int64(d)
	}
	return n
}

func (c fixedCalendar) DayNumber(year, month, day int) int64 {
	n := int64(year) * c.yearLength()
	for m := 0; m < month-1; m++ {
		n += int64(c.months[m])
	}
	return n + int64(day-1)
}

func (c fixedCalendar) Date(dayNumber int64) (year, month, day int) {
	yl := c.yearLength()
	y := floorDiv(dayNumber, yl)
	rem := int(dayNumber - y*yl)
	m := 0
	for rem >= c.months[m] {
		rem -= c.months[m]
		m++
	}
	return int(y), m + 1, rem + 1
}

// julianCalendar has a leap year every four years. Day numbers are Julian
// Day Numbers
type julianCalendar struct{}

func (julianCalendar) Name() string { return "julian" }

func (julianCalendar) DaysInMonth(year, month int) int {
	if month == 2 && year%4 == 0 {
		return 29
	}
	return noLeapMonths[month-1]
}

func (julianCalendar) DayNumber(year, month, day int) int64 {
	y, m := marchYear(year, month)
	return int64(day) + (153*m+2)/5 + 365*y + floorDiv(y, 4) - 32083
}

func (julianCalendar) Date(jdn int64) (year, month, day int) {
	return civilFromMarch(jdn + 32082)
}

// gregorianCalendar is the proleptic Gregorian calendar, or, when mixed,
// the Julian calendar up to 1582-10-04 followed by the Gregorian calendar
// from 1582-10-15. Day numbers are Julian Day Numbers
type gregorianCalendar struct {
	name  string
	mixed bool
}

// gregorianReformJDN is the Julian Day Number of 1582-10-15
const gregorianReformJDN = 2299161

func (c gregorianCalendar) Name() string { return c.name }

func (c gregorianCalendar) isJulianDate(year, month, day int) bool {
	if !c.mixed {
		return false
	}
	if year != 1582 {
		return year < 1582
	}
	if month != 10 {
		return month < 10
	}
	return day < 15
}

func (c gregorianCalendar) DaysInMonth(year, month int) int {
	if month != 2 {
		return noLeapMonths[month-1]
	}
	leap := year%4 == 0 && (year%100 != 0 || year%400 == 0)
	if c.mixed && year < 1582 {
		leap = year%4 == 0
	}
	if leap {
		return 29
	}
	return 28
}

func (c gregorianCalendar) DayNumber(year, month, day int) int64 {
	if c.isJulianDate(year, month, day) {
		return julianCalendar{}.DayNumber(year, month, day)
	}
	y, m := marchYear(year, month)
	return int64(day) + (153*m+2)/5 + 365*y + floorDiv(y, 4) - floorDiv(y, 100) + floorDiv(y, 400) - 32045
}

func (c gregorianCalendar) Date(jdn int64) (year, month, day int) {
	if c.mixed && jdn < gregorianReformJDN {
		return julianCalendar{}.Date(jdn)
	}
	a := jdn + 32044
	b := floorDiv(4*a+3, 146097)
	rem := a - floorDiv(146097*b, 4)
	y, m, d := civilFromMarch(rem)
	return y + int(100*b), m, d
}

// marchYear shifts a date to a year starting in March, offset by 4800 years
// so day number arithmetic stays positive for historical dates
func marchYear(year, month int) (y, m int64) {
	a := int64((14 - month) / 12)
	return int64(year) + 4800 - a, int64(month) + 12*a - 3
}

// civilFromMarch converts a day count in the March-based, 4800-year offset
// era back to a calendar date
func civilFromMarch(c int64) (year, month, day int) {
	d := floorDiv(4*c+3, 1461)
	e := c - floorDiv(1461*d, 4)
	m := floorDiv(5*e+2, 153)
	day = int(e - floorDiv(153*m+2, 5) + 1)
	month = int(m + 3 - 12*floorDiv(m, 10))
	year = int(d - 4800 + floorDiv(m, 10))
	return year, month, day
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// CFDatetime is a date and time in one of the CF conventions calendars,
// with microsecond resolution
type CFDatetime struct {
	Year        int
	Month       int
	Day         int
	Hour        int
	Minute      int
	Second      int
	Microsecond int
	Calendar    string
}

const (
	usPerSecond = int64(1000000)
	usPerDay    = 86400 * usPerSecond
)

// NewCFDatetime returns midnight of the given date in calendar
func NewCFDatetime(calendar string, year, month, day int) (CFDatetime, error) {
	t := CFDatetime{Year: year, Month: month, Day: day, Calendar: calendar}
	if err := t.Validate(); err != nil {
		return CFDatetime{}, err
	}
	return t, nil
}

// Validate checks that the calendar is registered and each field is in
// range for it
func (t CFDatetime) Validate() error {
	cal, ok := LookupCalendar(t.Calendar)
	if !ok {
		return fmt.Errorf("%w: unknown calendar %q", ErrInvalidArgument, t.Calendar)
	}
	if t.Month < 1 || t.Month > 12 {
		return fmt.Errorf("%w: month %d out of range", ErrInvalidArgument, t.Month)
	}
	if t.Day < 1 || t.Day > cal.DaysInMonth(t.Year, t.Month) {
		return fmt.Errorf("%w: day %d out of range for %04d-%02d in %s calendar", ErrInvalidArgument, t.Day, t.Year, t.Month, t.Calendar)
	}
	if g, ok := cal.(gregorianCalendar); ok && g.mixed && t.Year == 1582 && t.Month == 10 && t.Day > 4 && t.Day < 15 {
		return fmt.Errorf("%w: %04d-%02d-%02d does not exist in the %s calendar", ErrInvalidArgument, t.Year, t.Month, t.Day, t.Calendar)
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 || t.Second < 0 || t.Second > 59 || t.Microsecond < 0 || t.Microsecond > 999999 {
		return fmt.Errorf("%w: time of day out of range: %02d:%02d:%02d.%06d", ErrInvalidArgument, t.Hour, t.Minute, t.Second, t.Microsecond)
	}
	return nil
}

// ordinal splits t into a day number and microseconds into that day
func (t CFDatetime) ordinal() (days, us int64, err error) {
	if err := t.Validate(); err != nil {
		return 0, 0, err
	}
	cal, _ := LookupCalendar(t.Calendar)
	us = (int64(t.Hour)*3600+int64(t.Minute)*60+int64(t.Second))*usPerSecond + int64(t.Microsecond)
	return cal.DayNumber(t.Year, t.Month, t.Day), us, nil
}

// microsSince returns t - u in microseconds. Both dates must share a
// calendar
func (t CFDatetime) microsSince(u CFDatetime) (int64, error) {
	if t.Calendar != u.Calendar {
		return 0, fmt.Errorf("%w: cannot compare dates in %s and %s calendars", ErrInvalidArgument, t.Calendar, u.Calendar)
	}
	td, tus, err := t.ordinal()
	if err != nil {
		return 0, err
	}
	ud, uus, err := u.ordinal()
	if err != nil {
		return 0, err
	}
	return (td-ud)*usPerDay + (tus - uus), nil
}

// Sub returns the duration t-u. It fails when the calendars differ or the
// result does not fit in a time.Duration
func (t CFDatetime) Sub(u CFDatetime) (time.Duration, error) {
	us, err := t.microsSince(u)
	if err != nil {
		return 0, err
	}
	const maxUs = int64(1<<63-1) / 1000
	if us > maxUs || us < -maxUs {
		return 0, fmt.Errorf("%w: difference between %s and %s overflows time.Duration", ErrInvalidArgument, t, u)
	}
	return time.Duration(us) * time.Microsecond, nil
}

// Add returns t+d, truncated to microseconds
func (t CFDatetime) Add(d time.Duration) (CFDatetime, error) {
	days, us, err := t.ordinal()
	if err != nil {
		return CFDatetime{}, err
	}
	us += int64(d / time.Microsecond)
	days += floorDiv(us, usPerDay)
	us -= floorDiv(us, usPerDay) * usPerDay

	cal, _ := LookupCalendar(t.Calendar)
	out := CFDatetime{Calendar: t.Calendar}
	out.Year, out.Month, out.Day = cal.Date(days)
	secs := us / usPerSecond
	out.Hour = int(secs / 3600)
	out.Minute = int(secs % 3600 / 60)
	out.Second = int(secs % 60)
	out.Microsecond = int(us % usPerSecond)
	return out, nil
}

// Equal reports whether t and u are the same instant in the same calendar
func (t CFDatetime) Equal(u CFDatetime) bool {
	us, err := t.microsSince(u)
	return err == nil && us == 0
}

// Before reports whether t is earlier than u. Dates in different calendars
// are never ordered
func (t CFDatetime) Before(u CFDatetime) bool {
	us, err := t.microsSince(u)
	return err == nil && us < 0
}

func (t CFDatetime) String() string {
	s := fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second)
	if t.Microsecond != 0 {
		s += fmt.Sprintf(".%06d", t.Microsecond)
	}
	return s
}

// CFTimeRange returns periods dates starting at start, step apart
func CFTimeRange(start CFDatetime, periods int, step time.Duration) ([]CFDatetime, error) {
	if periods < 0 {
		return nil, fmt.Errorf("%w: periods must be non-negative, got %d", ErrInvalidArgument, periods)
	}
	if err := start.Validate(); err != nil {
		return nil, err
	}
	dates := make([]CFDatetime, periods)
	for i := range dates {
		d, err := start.Add(time.Duration(i) * step)
		if err != nil {
			return nil, err
		}
		dates[i] = d
	}
	return dates, nil
}
