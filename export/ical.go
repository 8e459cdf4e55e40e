// Package export converts Kolab objects to iCalendar and vCard.
package export

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/cyp0633/libkolab/format"
	"github.com/cyp0633/libkolab/recurrence"
)

// ProductID is written to the PRODID of exported calendars.
const ProductID = "-//libkolab-go//Kolab XML export//EN"

var ErrMissingUID = errors.New("object has no uid")

var attendeeStatus = map[string]string{
	"none":      "NEEDS-ACTION",
	"tentative": "TENTATIVE",
	"accepted":  "ACCEPTED",
	"declined":  "DECLINED",
	"delegated": "DELEGATED",
}

var attendeeRole = map[string]string{
	"required": "REQ-PARTICIPANT",
	"optional": "OPT-PARTICIPANT",
	"resource": "NON-PARTICIPANT",
}

var taskStatus = map[string]string{
	"not-started":             "NEEDS-ACTION",
	"in-progress":             "IN-PROCESS",
	"completed":               "COMPLETED",
	"waiting-on-someone-else": "NEEDS-ACTION",
	"deferred":                "NEEDS-ACTION",
}

// EventToICal converts a loaded event to a VEVENT.
func EventToICal(obj format.Object) (*ical.Component, error) {
	comp, err := newComponent(ical.CompEvent, obj)
	if err != nil {
		return nil, err
	}

	start, ok := obj["start-date"].(format.DateTime)
	if !ok {
		return nil, fmt.Errorf("event %s: missing start date", str(obj["uid"]))
	}
	setTime(comp.Props, ical.PropDateTimeStart, start)
	if end, ok := obj["end-date"].(format.DateTime); ok {
		if end.DateOnly {
			// DTEND is exclusive for all day events.
			end.Time = end.Time.AddDate(0, 0, 1)
		}
		setTime(comp.Props, ical.PropDateTimeEnd, end)
	}

	if str(obj["show-time-as"]) == "free" {
		comp.Props.SetText(ical.PropTransparency, "TRANSPARENT")
	} else {
		comp.Props.SetText(ical.PropTransparency, "OPAQUE")
	}

	if err := addCommon(comp, obj, start); err != nil {
		return nil, err
	}
	return comp, nil
}

// TaskToICal converts a loaded task to a VTODO.
func TaskToICal(obj format.Object) (*ical.Component, error) {
	comp, err := newComponent(ical.CompToDo, obj)
	if err != nil {
		return nil, err
	}

	start, hasStart := obj["start-date"].(format.DateTime)
	if hasStart {
		setTime(comp.Props, ical.PropDateTimeStart, start)
	}
	due, hasDue := obj["due-date"].(format.DateTime)
	if hasDue {
		setTime(comp.Props, ical.PropDue, due)
	}
	if !hasStart {
		start = due
	}

	if status, ok := taskStatus[str(obj["status"])]; ok {
		comp.Props.SetText(ical.PropStatus, status)
	}
	if priority, ok := obj["priority"].(int); ok && priority >= 1 && priority <= 5 {
		// Kolab priorities run from 1 to 5, iCalendar ones from 1 to 9.
		comp.Props.SetText(ical.PropPriority, strconv.Itoa(priority*2-1))
	}
	if completed, ok := obj["completed"].(int); ok {
		comp.Props.SetText(ical.PropPercentComplete, strconv.Itoa(completed))
	}
	if creator, ok := obj["creator"].(format.Object); ok && str(creator["smtp-address"]) != "" {
		comp.Props.SetText("X-KOLAB-CREATOR", "mailto:"+str(creator["smtp-address"]))
	}
	if parent := str(obj["parent"]); parent != "" {
		comp.Props.SetText(ical.PropRelatedTo, parent)
	}

	if err := addCommon(comp, obj, start); err != nil {
		return nil, err
	}
	return comp, nil
}

// NewCalendar wraps components in a VCALENDAR.
func NewCalendar(components ...*ical.Component) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, ProductID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Children = append(cal.Children, components...)
	return cal
}

// EncodeCalendar writes the components as one calendar.
func EncodeCalendar(w io.Writer, components ...*ical.Component) error {
	if err := ical.NewEncoder(w).Encode(NewCalendar(components...)); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

func newComponent(name string, obj format.Object) (*ical.Component, error) {
	uid := str(obj["uid"])
	if uid == "" {
		return nil, ErrMissingUID
	}
	comp := ical.NewComponent(name)
	comp.Props.SetText(ical.PropUID, uid)

	stamp := time.Now().UTC()
	if modified, ok := obj["last-modification-date"].(time.Time); ok {
		stamp = modified
	}
	comp.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	if created, ok := obj["creation-date"].(time.Time); ok {
		comp.Props.SetDateTime(ical.PropCreated, created.UTC())
	}
	if modified, ok := obj["last-modification-date"].(time.Time); ok {
		comp.Props.SetDateTime(ical.PropLastModified, modified.UTC())
	}
	return comp, nil
}

// addCommon writes the properties shared by events and tasks. start anchors
// the recurrence exceptions.
func addCommon(comp *ical.Component, obj format.Object, start format.DateTime) error {
	if v := str(obj["summary"]); v != "" {
		comp.Props.SetText(ical.PropSummary, v)
	}
	if v := str(obj["location"]); v != "" {
		comp.Props.SetText(ical.PropLocation, v)
	}
	if v := str(obj["body"]); v != "" {
		comp.Props.SetText(ical.PropDescription, v)
	}
	if v := str(obj["categories"]); v != "" {
		prop := ical.NewProp(ical.PropCategories)
		prop.Value = v
		comp.Props.Set(prop)
	}
	if v := str(obj["sensitivity"]); v != "" {
		comp.Props.SetText(ical.PropClass, strings.ToUpper(v))
	}

	if organizer, ok := obj["organizer"].(format.Object); ok {
		if prop := person(ical.PropOrganizer, organizer); prop != nil {
			comp.Props.Set(prop)
		}
	}
	for _, a := range list(obj["attendee"]) {
		attendee, ok := a.(format.Object)
		if !ok {
			continue
		}
		prop := person(ical.PropAttendee, attendee)
		if prop == nil {
			continue
		}
		if status, ok := attendeeStatus[str(attendee["status"])]; ok {
			prop.Params.Set(ical.ParamParticipationStatus, status)
		}
		if role, ok := attendeeRole[str(attendee["role"])]; ok {
			prop.Params.Set(ical.ParamRole, role)
		}
		if rsvp, ok := attendee["request-response"].(bool); ok {
			prop.Params.Set("RSVP", strings.ToUpper(strconv.FormatBool(rsvp)))
		}
		comp.Props.Add(prop)
	}

	if minutes, ok := obj["alarm"].(int); ok && minutes > 0 {
		alarm := ical.NewComponent(ical.CompAlarm)
		alarm.Props.SetText(ical.PropAction, "DISPLAY")
		alarm.Props.SetText(ical.PropDescription, "Reminder")
		trigger := ical.NewProp(ical.PropTrigger)
		trigger.Value = fmt.Sprintf("-PT%dM", minutes)
		alarm.Props.Set(trigger)
		comp.Children = append(comp.Children, alarm)
	}

	rec, ok := obj["recurrence"].(format.Object)
	if !ok {
		return nil
	}
	rule, err := recurrence.FromObject(rec)
	if err != nil {
		return err
	}
	rrule, err := rule.RRule()
	if err != nil {
		return err
	}
	prop := ical.NewProp(ical.PropRecurrenceRule)
	prop.Value = rrule
	comp.Props.Set(prop)

	for _, day := range rule.Exceptions {
		exdate := format.DateTime{DateOnly: start.DateOnly, Time: day}
		if !start.DateOnly {
			t := start.Time.UTC()
			exdate.Time = time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
		}
		setTime(comp.Props, ical.PropExceptionDates, exdate)
	}
	return nil
}

// setTime adds a DATE or DATE-TIME property. Exception dates accumulate.
func setTime(props ical.Props, name string, t format.DateTime) {
	prop := ical.NewProp(name)
	if t.DateOnly {
		prop.SetDate(t.Time)
	} else {
		prop.SetDateTime(t.Time.UTC())
	}
	if name == ical.PropExceptionDates {
		props.Add(prop)
		return
	}
	props.Set(prop)
}

func person(name string, p format.Object) *ical.Prop {
	address := str(p["smtp-address"])
	if address == "" {
		return nil
	}
	prop := ical.NewProp(name)
	prop.Value = "mailto:" + address
	if cn := str(p["display-name"]); cn != "" {
		prop.Params.Set(ical.ParamCommonName, cn)
	}
	return prop
}

func str(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	}
	return fmt.Sprint(v)
}

func list(v any) []any {
	l, _ := v.([]any)
	return l
}
