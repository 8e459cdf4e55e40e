package format

func init() {
	registerKind(kind{
		name: "task",
		root: "task",
		fields: []Field{
			stringField("summary", ""),
			stringField("location", ""),
			simplePerson.named("creator"),
			simplePerson.named("organizer"),
			optionalField("start-date", TypeDateOrDateTime),
			optionalField("alarm", TypeInteger),
			optionalField("recurrence", TypeRecurrence),
			attendee.named("attendee"),
			{Name: "priority", Type: TypeInteger, Default: 3},
			{Name: "completed", Type: TypeInteger, Default: 0},
			stringField("status", "not-started"),
			optionalField("due-date", TypeDateOrDateTime),
			optionalField("parent", TypeString),
		},
	})
}
