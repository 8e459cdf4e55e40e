package format

func init() {
	registerKind(kind{
		name: "distribution-list",
		root: "distribution-list",
		fields: []Field{
			requiredField("display-name", TypeString),
			{
				Name:    "member",
				Type:    TypeMultiple,
				Default: []any{},
				Element: &simplePerson,
			},
		},
	})
}
