package skills

import (
	"strings"
	"testing"
	"time"
)

// fixedDateTimeSkill pins the skill's clock to a known instant:
// 2024-06-15 12:00:00 UTC, a Saturday.
func fixedDateTimeSkill() *DateTimeSkill {
	s := NewDateTimeSkill()
	s.now = func() time.Time {
		return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	return s
}

func TestDateTimeNow_WhenNoArguments_ShouldReportAllForms(t *testing.T) {
	// Given
	s := fixedDateTimeSkill()

	// When
	out := mustCall(t, s, "datetime_now", `{}`)

	// Then
	if !strings.Contains(out, `"date": "2024-06-15"`) {
		t.Errorf("missing date: %s", out)
	}
	if !strings.Contains(out, `"weekday": "Saturday"`) {
		t.Errorf("missing weekday: %s", out)
	}
	if !strings.Contains(out, `"timestamp": 1718452800`) {
		t.Errorf("missing timestamp: %s", out)
	}
}

func TestDateTimeNow_WhenCustomFormat_ShouldReturnFormattedString(t *testing.T) {
	// Given
	s := fixedDateTimeSkill()

	// When
	out := mustCall(t, s, "datetime_now", `{"format": "2006-01-02 15:04"}`)

	// Then
	if out != "2024-06-15 12:00" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestDateTimeNow_WhenInvalidTimezone_ShouldReturnFriendlyMessage(t *testing.T) {
	// Given
	s := fixedDateTimeSkill()

	// When
	out := mustCall(t, s, "datetime_now", `{"timezone": "Mars/Olympus"}`)

	// Then
	if out != "Invalid timezone: Mars/Olympus" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestDateTimeParse_WhenISO_ShouldBreakDownComponents(t *testing.T) {
	// Given
	s := fixedDateTimeSkill()

	// When
	out := mustCall(t, s, "datetime_parse", `{"date_string": "2024-03-01 10:30:00"}`)

	// Then
	for _, want := range []string{`"year": 2024`, `"month": 3`, `"day": 1`, `"hour": 10`, `"minute": 30`, `"weekday": "Friday"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in: %s", want, out)
		}
	}
}

func TestDateTimeParse_WhenGarbage_ShouldReturnErrorString(t *testing.T) {
	// Given
	s := fixedDateTimeSkill()

	// When
	out := mustCall(t, s, "datetime_parse", `{"date_string": "not a date at all"}`)

	// Then
	if !strings.HasPrefix(out, "Error: could not parse date") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestDateTimeAdd_WhenDaysAndHours_ShouldShiftForward(t *testing.T) {
	// Given
	s := fixedDateTimeSkill()

	// When
	out := mustCall(t, s, "datetime_add", `{"date_string": "now", "days": 1, "hours": 2}`)

	// Then
	if !strings.Contains(out, "2024-06-16T14:00:00") {
		t.Errorf("unexpected result: %s", out)
	}
}

func TestDateTimeAdd_WhenWeeks_ShouldAddSevenDaysEach(t *testing.T) {
	// Given
	s := fixedDateTimeSkill()

	// When
	out := mustCall(t, s, "datetime_add", `{"date_string": "now", "weeks": 2}`)

	// Then
	if !strings.Contains(out, "2024-06-29T12:00:00") {
		t.Errorf("unexpected result: %s", out)
	}
}

func TestDateTimeDiff_WhenOneDayApart_ShouldBreakDown(t *testing.T) {
	// Given
	s := fixedDateTimeSkill()

	// When
	out := mustCall(t, s, "datetime_diff", `{"date1": "2024-01-01 00:00:00", "date2": "2024-01-02 06:30:00"}`)

	// Then
	if !strings.Contains(out, `"total_days": 1`) {
		t.Errorf("missing total days: %s", out)
	}
	if !strings.Contains(out, `"breakdown": "1d 6h 30m"`) {
		t.Errorf("missing breakdown: %s", out)
	}
	if !strings.Contains(out, `"date2_is_after": true`) {
		t.Errorf("missing ordering: %s", out)
	}
}

func TestDateTimeTimezone_WhenUTCToTokyo_ShouldShiftNineHours(t *testing.T) {
	// Given
	s := fixedDateTimeSkill()

	// When
	out := mustCall(t, s, "datetime_timezone",
		`{"date_string": "2024-01-15 12:00:00", "from_tz": "UTC", "to_tz": "Asia/Tokyo"}`)

	// Then
	if !strings.Contains(out, "2024-01-15 21:00:00 Asia/Tokyo") {
		t.Errorf("unexpected conversion: %s", out)
	}
}

func TestDateTimeTimezone_WhenUnknownZone_ShouldReturnFriendlyMessage(t *testing.T) {
	// Given
	s := fixedDateTimeSkill()

	// When
	out := mustCall(t, s, "datetime_timezone",
		`{"date_string": "now", "from_tz": "Nope/Nowhere", "to_tz": "UTC"}`)

	// Then
	if out != "Invalid timezone: Nope/Nowhere" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestDateTimeCountdown_WhenTargetInFuture_ShouldCountDown(t *testing.T) {
	// Given
	s := fixedDateTimeSkill()

	// When
	out := mustCall(t, s, "datetime_countdown", `{"target_date": "2024-06-16T12:00:00Z"}`)

	// Then
	if !strings.Contains(out, `"countdown": "1d 0h 0m 0s"`) {
		t.Errorf("unexpected countdown: %s", out)
	}
}

func TestDateTimeCountdown_WhenTargetInPast_ShouldReportElapsed(t *testing.T) {
	// Given
	s := fixedDateTimeSkill()

	// When
	out := mustCall(t, s, "datetime_countdown", `{"target_date": "2024-06-14T12:00:00Z"}`)

	// Then
	if !strings.Contains(out, `"status": "past"`) {
		t.Errorf("expected past status: %s", out)
	}
	if !strings.Contains(out, `"elapsed": "24h0m0s"`) {
		t.Errorf("unexpected elapsed: %s", out)
	}
}

func TestDateTimeAge_WhenBirthdayNotYetThisYear_ShouldSubtractOne(t *testing.T) {
	// Given: clock is 2024-06-15, birthday is in December
	s := fixedDateTimeSkill()

	// When
	out := mustCall(t, s, "datetime_age", `{"birthdate": "1990-12-01"}`)

	// Then
	if !strings.Contains(out, `"age_years": 33`) {
		t.Errorf("unexpected age: %s", out)
	}
}

func TestDateTimeWeekday_WhenKnownDate_ShouldUseMondayZeroConvention(t *testing.T) {
	// Given
	s := fixedDateTimeSkill()

	// When: 2024-01-01 was a Monday
	out := mustCall(t, s, "datetime_weekday", `{"date_string": "2024-01-01"}`)

	// Then
	if !strings.Contains(out, `"weekday": "Monday"`) {
		t.Errorf("missing weekday: %s", out)
	}
	if !strings.Contains(out, `"weekday_number": 0`) {
		t.Errorf("Monday should be 0: %s", out)
	}
	if !strings.Contains(out, `"iso_weekday": 1`) {
		t.Errorf("ISO Monday should be 1: %s", out)
	}
}

func TestTimestampConvert_WhenSeconds_ShouldFormatDatetime(t *testing.T) {
	// Given
	s := fixedDateTimeSkill()

	// When
	out := mustCall(t, s, "timestamp_convert", `{"value": "1718452800"}`)

	// Then
	if !strings.Contains(out, `"timestamp": 1718452800`) {
		t.Errorf("missing timestamp: %s", out)
	}
	if !strings.Contains(out, `"datetime"`) {
		t.Errorf("missing datetime: %s", out)
	}
}

func TestTimestampConvert_WhenMilliseconds_ShouldScaleDown(t *testing.T) {
	// Given
	s := fixedDateTimeSkill()

	// When
	out := mustCall(t, s, "timestamp_convert", `{"value": "1718452800000"}`)

	// Then
	if !strings.Contains(out, `"timestamp": 1718452800`) {
		t.Errorf("milliseconds should scale to seconds: %s", out)
	}
}

func TestTimestampConvert_WhenDateString_ShouldReturnTimestamp(t *testing.T) {
	// Given
	s := fixedDateTimeSkill()

	// When
	out := mustCall(t, s, "timestamp_convert", `{"value": "2024-06-15 12:00:00"}`)

	// Then
	if !strings.Contains(out, `"timestamp"`) || !strings.Contains(out, `"timestamp_ms"`) {
		t.Errorf("missing timestamp fields: %s", out)
	}
}
