package skills

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/araddon/dateparse"

	"skillbox/internal/domain"
	"skillbox/internal/schema"
)

// DateTimeSkill covers parsing, formatting, timezone conversion, arithmetic
// and countdown/age calculation. Date strings are auto-detected; "now" always
// means the current local time.
type DateTimeSkill struct {
	now func() time.Time
}

func NewDateTimeSkill() *DateTimeSkill {
	return &DateTimeSkill{now: time.Now}
}

func (s *DateTimeSkill) Name() string { return "datetime" }
func (s *DateTimeSkill) Description() string {
	return "DateTime: parse, format, timezone, arithmetic, countdown"
}

type dtNowInput struct {
	Timezone string `json:"timezone,omitempty" jsonschema:"description=IANA timezone (e.g. 'UTC', 'Europe/London')"`
	Format   string `json:"format,omitempty" jsonschema:"description=Go reference layout (e.g. '2006-01-02 15:04')"`
}

type dtParseInput struct {
	DateString string `json:"date_string" jsonschema:"description=Date string to parse"`
	Format     string `json:"format,omitempty" jsonschema:"description=Go reference layout, auto-detect if not given"`
}

type dtFormatInput struct {
	DateString string `json:"date_string" jsonschema:"description=Date to format (any common format or 'now')"`
	Format     string `json:"format" jsonschema:"description=Go reference layout"`
}

type dtAddInput struct {
	DateString string `json:"date_string" jsonschema:"description=Starting date or 'now'"`
	Days       int    `json:"days,omitempty" jsonschema:"description=Days to add"`
	Hours      int    `json:"hours,omitempty" jsonschema:"description=Hours to add"`
	Minutes    int    `json:"minutes,omitempty" jsonschema:"description=Minutes to add"`
	Weeks      int    `json:"weeks,omitempty" jsonschema:"description=Weeks to add"`
}

type dtDiffInput struct {
	Date1 string `json:"date1" jsonschema:"description=First date"`
	Date2 string `json:"date2" jsonschema:"description=Second date"`
}

type dtTimezoneInput struct {
	DateString string `json:"date_string" jsonschema:"description=Date to convert"`
	FromTZ     string `json:"from_tz" jsonschema:"description=Source timezone"`
	ToTZ       string `json:"to_tz" jsonschema:"description=Target timezone"`
}

type dtTargetInput struct {
	TargetDate string `json:"target_date" jsonschema:"description=Target date"`
}

type dtBirthdateInput struct {
	Birthdate string `json:"birthdate" jsonschema:"description=Birth date"`
}

type dtDateInput struct {
	DateString string `json:"date_string" jsonschema:"description=Date to check"`
}

type dtValueInput struct {
	Value string `json:"value" jsonschema:"description=Timestamp (seconds or ms) or datetime string"`
}

func (s *DateTimeSkill) Tools() []domain.Tool {
	return []domain.Tool{
		newTool("datetime_now", "Get current date/time", dtNowInput{}, s.nowTool),
		newTool("datetime_parse", "Parse a date string", dtParseInput{}, s.parse),
		newTool("datetime_format", "Format a date to string", dtFormatInput{}, s.format),
		newTool("datetime_add", "Add time to a date", dtAddInput{}, s.add),
		newTool("datetime_diff", "Calculate difference between two dates", dtDiffInput{}, s.diff),
		newTool("datetime_timezone", "Convert between timezones", dtTimezoneInput{}, s.timezone),
		newTool("datetime_countdown", "Countdown to a date", dtTargetInput{}, s.countdown),
		newTool("datetime_age", "Calculate age from birthdate", dtBirthdateInput{}, s.age),
		newTool("datetime_weekday", "Get day of week for a date", dtDateInput{}, s.weekday),
		newTool("timestamp_convert", "Convert between timestamp and datetime", dtValueInput{}, s.timestampConvert),
	}
}

func (s *DateTimeSkill) parseDate(value string) (time.Time, error) {
	if value == "now" || value == "NOW" || value == "Now" {
		return s.now(), nil
	}
	t, err := dateparse.ParseLocal(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("could not parse date: %s", value)
	}
	return t, nil
}

func (s *DateTimeSkill) nowTool(args schema.Args) (string, error) {
	now := s.now()
	if tz := args.String("timezone", ""); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Sprintf("Invalid timezone: %s", tz), nil
		}
		now = now.In(loc)
	}
	if layout := args.String("format", ""); layout != "" {
		return now.Format(layout), nil
	}
	return jsonBlob(map[string]interface{}{
		"iso":       now.Format(time.RFC3339),
		"date":      now.Format("2006-01-02"),
		"time":      now.Format("15:04:05"),
		"timestamp": now.Unix(),
		"weekday":   now.Weekday().String(),
	}), nil
}

func (s *DateTimeSkill) parse(args schema.Args) (string, error) {
	input := args.String("date_string", "")

	var (
		t   time.Time
		err error
	)
	if layout := args.String("format", ""); layout != "" {
		t, err = time.ParseInLocation(layout, input, time.Local)
	} else {
		t, err = s.parseDate(input)
	}
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}

	_, week := t.ISOWeek()
	return jsonBlob(map[string]interface{}{
		"iso":       t.Format(time.RFC3339),
		"year":      t.Year(),
		"month":     int(t.Month()),
		"day":       t.Day(),
		"hour":      t.Hour(),
		"minute":    t.Minute(),
		"second":    t.Second(),
		"weekday":   t.Weekday().String(),
		"week":      week,
		"timestamp": t.Unix(),
	}), nil
}

func (s *DateTimeSkill) format(args schema.Args) (string, error) {
	t, err := s.parseDate(args.String("date_string", ""))
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	return t.Format(args.String("format", time.RFC3339)), nil
}

func (s *DateTimeSkill) add(args schema.Args) (string, error) {
	t, err := s.parseDate(args.String("date_string", ""))
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	days := args.Int("days", 0)
	hours := args.Int("hours", 0)
	minutes := args.Int("minutes", 0)
	weeks := args.Int("weeks", 0)

	result := t.AddDate(0, 0, days+weeks*7).
		Add(time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute)

	return jsonBlob(map[string]interface{}{
		"original": t.Format(time.RFC3339),
		"result":   result.Format(time.RFC3339),
		"added": map[string]int{
			"days":    days,
			"hours":   hours,
			"minutes": minutes,
			"weeks":   weeks,
		},
	}), nil
}

func (s *DateTimeSkill) diff(args schema.Args) (string, error) {
	t1, err := s.parseDate(args.String("date1", ""))
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	t2, err := s.parseDate(args.String("date2", ""))
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}

	total := math.Abs(t2.Sub(t1).Seconds())
	days := int(total) / 86400
	hours := (int(total) % 86400) / 3600
	minutes := (int(total) % 3600) / 60

	return jsonBlob(map[string]interface{}{
		"date1": t1.Format(time.RFC3339),
		"date2": t2.Format(time.RFC3339),
		"difference": map[string]interface{}{
			"total_days":    days,
			"total_hours":   int(total) / 3600,
			"total_minutes": int(total) / 60,
			"total_seconds": int(total),
			"breakdown":     fmt.Sprintf("%dd %dh %dm", days, hours, minutes),
		},
		"date2_is_after": t2.After(t1),
	}), nil
}

func (s *DateTimeSkill) timezone(args schema.Args) (string, error) {
	fromTZ := args.String("from_tz", "")
	toTZ := args.String("to_tz", "")

	from, err := time.LoadLocation(fromTZ)
	if err != nil {
		return fmt.Sprintf("Invalid timezone: %s", fromTZ), nil
	}
	to, err := time.LoadLocation(toTZ)
	if err != nil {
		return fmt.Sprintf("Invalid timezone: %s", toTZ), nil
	}

	t, err := s.parseDate(args.String("date_string", ""))
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}

	// Reinterpret the wall-clock time in the source zone, then convert.
	src := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, from)
	dst := src.In(to)

	return jsonBlob(map[string]interface{}{
		"original":  fmt.Sprintf("%s %s", src.Format("2006-01-02 15:04:05"), fromTZ),
		"converted": fmt.Sprintf("%s %s", dst.Format("2006-01-02 15:04:05"), toTZ),
	}), nil
}

func (s *DateTimeSkill) countdown(args schema.Args) (string, error) {
	target, err := s.parseDate(args.String("target_date", ""))
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}

	diff := target.Sub(s.now())
	if diff < 0 {
		return jsonBlob(map[string]interface{}{
			"target":  target.Format(time.RFC3339),
			"status":  "past",
			"elapsed": (-diff).Round(time.Second).String(),
		}), nil
	}

	total := int(diff.Seconds())
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	return jsonBlob(map[string]interface{}{
		"target":      target.Format(time.RFC3339),
		"countdown":   fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds),
		"total_days":  days,
		"total_hours": total / 3600,
	}), nil
}

func (s *DateTimeSkill) age(args schema.Args) (string, error) {
	birth, err := s.parseDate(args.String("birthdate", ""))
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	today := s.now()

	years := today.Year() - birth.Year()
	if today.Month() < birth.Month() ||
		(today.Month() == birth.Month() && today.Day() < birth.Day()) {
		years--
	}

	next := time.Date(today.Year(), birth.Month(), birth.Day(), 0, 0, 0, 0, today.Location())
	if next.Before(today) {
		next = next.AddDate(1, 0, 0)
	}

	return jsonBlob(map[string]interface{}{
		"birthdate":        birth.Format("2006-01-02"),
		"age_years":        years,
		"days_to_birthday": int(next.Sub(today).Hours() / 24),
		"total_days":       int(today.Sub(birth).Hours() / 24),
	}), nil
}

func (s *DateTimeSkill) weekday(args schema.Args) (string, error) {
	t, err := s.parseDate(args.String("date_string", ""))
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}

	// Monday = 0 to match the common ISO-adjacent convention.
	weekdayNum := (int(t.Weekday()) + 6) % 7
	_, week := t.ISOWeek()

	return jsonBlob(map[string]interface{}{
		"date":           t.Format("2006-01-02"),
		"weekday":        t.Weekday().String(),
		"weekday_number": weekdayNum,
		"iso_weekday":    weekdayNum + 1,
		"week_of_year":   week,
	}), nil
}

func (s *DateTimeSkill) timestampConvert(args schema.Args) (string, error) {
	value := args.String("value", "")

	if ts, err := strconv.ParseFloat(value, 64); err == nil {
		if ts > 1e12 { // milliseconds
			ts = ts / 1000
		}
		t := time.Unix(int64(ts), 0)
		return jsonBlob(map[string]interface{}{
			"timestamp": int64(ts),
			"datetime":  t.Format(time.RFC3339),
			"formatted": t.Format("2006-01-02 15:04:05"),
		}), nil
	}

	t, err := s.parseDate(value)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	return jsonBlob(map[string]interface{}{
		"datetime":     t.Format(time.RFC3339),
		"timestamp":    t.Unix(),
		"timestamp_ms": t.UnixMilli(),
	}), nil
}
