package format

func init() {
	registerKind(kind{
		name: "note",
		root: "note",
		fields: []Field{
			stringField("summary", ""),
			{Name: "background-color", Type: TypeColor, Default: "#000000"},
			{Name: "foreground-color", Type: TypeColor, Default: "#ffff00"},
		},
	})
}
