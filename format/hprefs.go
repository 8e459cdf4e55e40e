package format

// h-prefs objects store Horde application preferences.
func init() {
	registerKind(kind{
		name: "h-prefs",
		root: "h-prefs",
		fields: []Field{
			requiredField("application", TypeString),
			{
				Name:    "pref",
				Type:    TypeMultiple,
				Default: []any{},
				Element: &Field{Type: TypeString, Policy: PolicyMaybeMissing},
			},
		},
	})
}
