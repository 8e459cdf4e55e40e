package format

func init() {
	registerKind(kind{
		name:   "contact",
		root:   "contact",
		fields: contactFields,
	})
}

var contactFields = []Field{
	{
		Name: "name",
		Type: TypeComposite,
		Fields: []Field{
			stringField("given-name", ""),
			stringField("middle-names", ""),
			stringField("last-name", ""),
			stringField("full-name", ""),
			stringField("initials", ""),
			stringField("prefix", ""),
			stringField("suffix", ""),
		},
		Default: Object{},
	},
	stringField("free-text", ""),
	stringField("picture", ""),
	stringField("organization", ""),
	stringField("web-page", ""),
	stringField("im-address", ""),
	stringField("department", ""),
	stringField("office-location", ""),
	stringField("profession", ""),
	stringField("job-title", ""),
	stringField("manager-name", ""),
	stringField("assistant", ""),
	stringField("nick-name", ""),
	stringField("spouse-name", ""),
	optionalField("birthday", TypeDate),
	optionalField("anniversary", TypeDate),
	stringField("children", ""),
	stringField("gender", ""),
	stringField("language", ""),
	{
		Name:   "phone",
		Type:   TypeMultiple,
		Policy: PolicyMaybeMissing,
		Element: &Field{
			Type:   TypeComposite,
			Policy: PolicyMaybeMissing,
			Fields: []Field{
				stringField("type", ""),
				stringField("number", ""),
			},
		},
	},
	{
		Name:   "email",
		Type:   TypeMultiple,
		Policy: PolicyMaybeMissing,
		Element: &Field{
			Type:   TypeComposite,
			Policy: PolicyMaybeMissing,
			Fields: []Field{
				stringField("display-name", ""),
				stringField("smtp-address", ""),
			},
		},
	},
	{
		Name:   "address",
		Type:   TypeMultiple,
		Policy: PolicyMaybeMissing,
		Element: &Field{
			Type:   TypeComposite,
			Policy: PolicyMaybeMissing,
			Fields: []Field{
				stringField("type", "home"),
				stringField("street", ""),
				stringField("pobox", ""),
				stringField("locality", ""),
				stringField("region", ""),
				stringField("postal-code", ""),
				stringField("country", ""),
			},
		},
	},
	stringField("preferred-address", ""),
	optionalField("latitude", TypeString),
	optionalField("longitude", TypeString),
}
