package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-vcard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyp0633/libkolab/format"
)

var modified = time.Date(2011, 3, 27, 10, 0, 0, 0, time.UTC)

func testEvent() format.Object {
	return format.Object{
		"uid":                    "event-1",
		"summary":                "Team meeting",
		"location":               "Room 1",
		"body":                   "Weekly sync",
		"categories":             "work",
		"sensitivity":            "private",
		"creation-date":          modified.Add(-time.Hour),
		"last-modification-date": modified,
		"start-date":             format.DateTime{Time: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)},
		"end-date":               format.DateTime{Time: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		"alarm":                  15,
		"show-time-as":           "busy",
		"organizer":              format.Object{"display-name": "Alice", "smtp-address": "alice@example.org"},
		"attendee": []any{
			format.Object{"display-name": "Bob", "smtp-address": "bob@example.org", "status": "accepted", "role": "optional", "request-response": true},
			format.Object{"display-name": "Nobody", "smtp-address": ""},
		},
		"recurrence": format.Object{
			"cycle":      "weekly",
			"interval":   1,
			"day":        []any{"monday"},
			"range-type": format.RangeNumber,
			"range":      4,
			"exceptions": []any{"20240108"},
		},
	}
}

func decodeCalendar(t *testing.T, data []byte) *ical.Calendar {
	t.Helper()
	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	require.NoError(t, err)
	return cal
}

func TestEventToICal(t *testing.T) {
	comp, err := EventToICal(testEvent())
	require.NoError(t, err)
	assert.Equal(t, ical.CompEvent, comp.Name)

	var buf bytes.Buffer
	require.NoError(t, EncodeCalendar(&buf, comp))
	cal := decodeCalendar(t, buf.Bytes())

	prodID, err := cal.Props.Text(ical.PropProductID)
	require.NoError(t, err)
	assert.Equal(t, ProductID, prodID)

	events := cal.Events()
	require.Len(t, events, 1)
	event := events[0]

	summary, err := event.Props.Text(ical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "Team meeting", summary)
	assert.Equal(t, "event-1", event.Props.Get(ical.PropUID).Value)
	assert.Equal(t, "PRIVATE", event.Props.Get(ical.PropClass).Value)
	assert.Equal(t, "OPAQUE", event.Props.Get(ical.PropTransparency).Value)

	start, err := event.Props.DateTime(ical.PropDateTimeStart, nil)
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)))
	end, err := event.Props.DateTime(ical.PropDateTimeEnd, nil)
	require.NoError(t, err)
	assert.True(t, end.Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)))
	stamp, err := event.Props.DateTime(ical.PropDateTimeStamp, nil)
	require.NoError(t, err)
	assert.True(t, stamp.Equal(modified))

	organizer := event.Props.Get(ical.PropOrganizer)
	require.NotNil(t, organizer)
	assert.Equal(t, "mailto:alice@example.org", organizer.Value)
	assert.Equal(t, "Alice", organizer.Params.Get(ical.ParamCommonName))

	attendees := event.Props.Values(ical.PropAttendee)
	require.Len(t, attendees, 1)
	assert.Equal(t, "mailto:bob@example.org", attendees[0].Value)
	assert.Equal(t, "ACCEPTED", attendees[0].Params.Get(ical.ParamParticipationStatus))
	assert.Equal(t, "OPT-PARTICIPANT", attendees[0].Params.Get(ical.ParamRole))
	assert.Equal(t, "TRUE", attendees[0].Params.Get("RSVP"))

	assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO;COUNT=4", event.Props.Get(ical.PropRecurrenceRule).Value)
	exdates := event.Props.Values(ical.PropExceptionDates)
	require.Len(t, exdates, 1)
	assert.Equal(t, "20240108T090000Z", exdates[0].Value)

	require.Len(t, event.Children, 1)
	alarm := event.Children[0]
	assert.Equal(t, ical.CompAlarm, alarm.Name)
	assert.Equal(t, "-PT15M", alarm.Props.Get(ical.PropTrigger).Value)
}

func TestAllDayEventToICal(t *testing.T) {
	obj := format.Object{
		"uid":          "holiday",
		"summary":      "Holiday",
		"start-date":   format.DateTime{Time: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), DateOnly: true},
		"end-date":     format.DateTime{Time: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), DateOnly: true},
		"show-time-as": "free",
	}
	comp, err := EventToICal(obj)
	require.NoError(t, err)

	start := comp.Props.Get(ical.PropDateTimeStart)
	require.NotNil(t, start)
	assert.Equal(t, "20240501", start.Value)
	assert.Equal(t, ical.ValueDate, start.ValueType())
	assert.Equal(t, "20240502", comp.Props.Get(ical.PropDateTimeEnd).Value)
	assert.Equal(t, "TRANSPARENT", comp.Props.Get(ical.PropTransparency).Value)
	assert.Nil(t, comp.Props.Get(ical.PropRecurrenceRule))
}

func TestEventToICalErrors(t *testing.T) {
	obj := testEvent()
	delete(obj, "uid")
	_, err := EventToICal(obj)
	assert.ErrorIs(t, err, ErrMissingUID)

	obj = testEvent()
	delete(obj, "start-date")
	_, err = EventToICal(obj)
	assert.Error(t, err)

	obj = testEvent()
	obj["recurrence"] = format.Object{"cycle": "hourly", "interval": 1}
	_, err = EventToICal(obj)
	assert.Error(t, err)
}

func TestTaskToICal(t *testing.T) {
	obj := format.Object{
		"uid":       "task-1",
		"summary":   "Write report",
		"due-date":  format.DateTime{Time: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), DateOnly: true},
		"priority":  1,
		"completed": 50,
		"status":    "in-progress",
		"parent":    "task-0",
		"creator":   format.Object{"smtp-address": "alice@example.org"},
	}
	comp, err := TaskToICal(obj)
	require.NoError(t, err)
	assert.Equal(t, ical.CompToDo, comp.Name)
	assert.Equal(t, "20240201", comp.Props.Get(ical.PropDue).Value)
	assert.Nil(t, comp.Props.Get(ical.PropDateTimeStart))
	assert.Equal(t, "IN-PROCESS", comp.Props.Get(ical.PropStatus).Value)
	assert.Equal(t, "1", comp.Props.Get(ical.PropPriority).Value)
	assert.Equal(t, "50", comp.Props.Get(ical.PropPercentComplete).Value)
	assert.Equal(t, "task-0", comp.Props.Get(ical.PropRelatedTo).Value)

	var buf bytes.Buffer
	require.NoError(t, EncodeCalendar(&buf, comp))
	cal := decodeCalendar(t, buf.Bytes())
	require.Len(t, cal.Children, 1)
	assert.Equal(t, ical.CompToDo, cal.Children[0].Name)
}

func TestLoadedEventExport(t *testing.T) {
	f, err := format.New("event", format.WithClock(func() time.Time { return modified }))
	require.NoError(t, err)
	data, err := f.Save(testEvent())
	require.NoError(t, err)
	obj, err := f.Load(bytes.NewReader(data))
	require.NoError(t, err)

	comp, err := EventToICal(obj)
	require.NoError(t, err)
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=MO;COUNT=4", comp.Props.Get(ical.PropRecurrenceRule).Value)
	assert.Len(t, comp.Props.Values(ical.PropExceptionDates), 1)
}

func testContact() format.Object {
	return format.Object{
		"uid": "contact-1",
		"name": format.Object{
			"given-name": "Jane",
			"last-name":  "Doe",
			"prefix":     "Dr.",
		},
		"organization":           "Example Inc.",
		"department":             "Research",
		"job-title":              "Scientist",
		"nick-name":              "JD",
		"gender":                 "female",
		"birthday":               time.Date(1980, 6, 15, 0, 0, 0, 0, time.UTC),
		"latitude":               "52.5",
		"longitude":              "13.4",
		"last-modification-date": modified,
		"phone": []any{
			format.Object{"type": "mobile", "number": "+49 170 1234567"},
			format.Object{"type": "businessfax", "number": "+49 30 1234"},
			format.Object{"type": "home1", "number": ""},
		},
		"email": []any{
			format.Object{"display-name": "Jane", "smtp-address": "jane@example.org"},
		},
		"address": []any{
			format.Object{"type": "business", "street": "Main St 1", "locality": "Berlin", "postal-code": "10115", "country": "DE"},
		},
		"preferred-address": "business",
	}
}

func TestContactToVCard(t *testing.T) {
	card, err := ContactToVCard(testContact())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodeCard(&buf, card))
	assert.True(t, strings.HasPrefix(buf.String(), "BEGIN:VCARD"))

	decoded, err := vcard.NewDecoder(&buf).Decode()
	require.NoError(t, err)

	assert.Equal(t, "contact-1", decoded.Value(vcard.FieldUID))
	assert.Equal(t, "Jane Doe", decoded.PreferredValue(vcard.FieldFormattedName))
	name := decoded.Name()
	require.NotNil(t, name)
	assert.Equal(t, "Jane", name.GivenName)
	assert.Equal(t, "Doe", name.FamilyName)
	assert.Equal(t, "Dr.", name.HonorificPrefix)
	assert.Equal(t, "Example Inc.;Research", decoded.Value(vcard.FieldOrganization))
	assert.Equal(t, "19800615", decoded.Value(vcard.FieldBirthday))
	assert.Equal(t, "geo:52.5,13.4", decoded.Value(vcard.FieldGeolocation))
	assert.Equal(t, []string{"jane@example.org"}, decoded.Values(vcard.FieldEmail))

	phones := decoded[vcard.FieldTelephone]
	require.Len(t, phones, 2)
	assert.Equal(t, "+49 170 1234567", phones[0].Value)
	assert.Equal(t, []string{vcard.TypeCell}, phones[0].Params.Types())

	addresses := decoded.Addresses()
	require.Len(t, addresses, 1)
	assert.Equal(t, "Main St 1", addresses[0].StreetAddress)
	assert.Equal(t, "Berlin", addresses[0].Locality)
	assert.True(t, addresses[0].Params.HasType(vcard.TypeWork))
}

func TestContactToVCardFallbackName(t *testing.T) {
	obj := format.Object{"uid": "org", "name": format.Object{}, "organization": "Example Inc."}
	card, err := ContactToVCard(obj)
	require.NoError(t, err)
	assert.Equal(t, "Example Inc.", card.Value(vcard.FieldFormattedName))

	_, err = ContactToVCard(format.Object{})
	assert.ErrorIs(t, err, ErrMissingUID)
}
