package format

func init() {
	registerKind(kind{
		name: "event",
		root: "event",
		fields: []Field{
			stringField("summary", ""),
			stringField("location", ""),
			simplePerson.named("organizer"),
			requiredField("start-date", TypeDateOrDateTime),
			optionalField("alarm", TypeInteger),
			optionalField("recurrence", TypeRecurrence),
			attendee.named("attendee"),
			stringField("show-time-as", "busy"),
			stringField("color-label", "none"),
			requiredField("end-date", TypeDateOrDateTime),
		},
	})
}
