package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-vcard"

	"github.com/cyp0633/libkolab/format"
)

// phoneTypes maps Kolab phone types to vCard TYPE parameters.
var phoneTypes = map[string][]string{
	"business1":   {vcard.TypeWork, vcard.TypeVoice},
	"business2":   {vcard.TypeWork, vcard.TypeVoice},
	"businessfax": {vcard.TypeWork, vcard.TypeFax},
	"home1":       {vcard.TypeHome, vcard.TypeVoice},
	"home2":       {vcard.TypeHome, vcard.TypeVoice},
	"homefax":     {vcard.TypeHome, vcard.TypeFax},
	"mobile":      {vcard.TypeCell},
	"pager":       {vcard.TypePager},
	"car":         {"car"},
	"isdn":        {"isdn"},
	"company":     {vcard.TypeWork},
	"assistant":   {"x-assistant"},
	"callback":    {"x-callback"},
	"radio":       {"x-radio"},
	"telex":       {"x-telex"},
	"ttytdd":      {vcard.TypeTextPhone},
}

// ContactToVCard converts a loaded contact.
func ContactToVCard(obj format.Object) (vcard.Card, error) {
	uid := str(obj["uid"])
	if uid == "" {
		return nil, ErrMissingUID
	}
	card := make(vcard.Card)
	card.SetValue(vcard.FieldVersion, "4.0")
	card.SetValue(vcard.FieldUID, uid)
	card.SetKind(vcard.KindIndividual)

	name, _ := obj["name"].(format.Object)
	card.SetName(&vcard.Name{
		GivenName:       str(name["given-name"]),
		AdditionalName:  str(name["middle-names"]),
		FamilyName:      str(name["last-name"]),
		HonorificPrefix: str(name["prefix"]),
		HonorificSuffix: str(name["suffix"]),
	})
	fullName := str(name["full-name"])
	if fullName == "" {
		fullName = strings.Join(strings.Fields(str(name["given-name"])+" "+str(name["last-name"])), " ")
	}
	if fullName == "" {
		fullName = str(obj["organization"])
	}
	card.SetValue(vcard.FieldFormattedName, fullName)

	setIf(card, vcard.FieldNickname, str(obj["nick-name"]))
	setIf(card, vcard.FieldTitle, str(obj["job-title"]))
	setIf(card, vcard.FieldRole, str(obj["profession"]))
	setIf(card, vcard.FieldURL, str(obj["web-page"]))
	setIf(card, vcard.FieldNote, str(obj["body"]))
	setIf(card, vcard.FieldCategories, str(obj["categories"]))
	setIf(card, vcard.FieldLanguage, str(obj["language"]))
	setIf(card, vcard.FieldIMPP, str(obj["im-address"]))
	switch str(obj["gender"]) {
	case "male":
		card.SetGender(vcard.SexMale, "")
	case "female":
		card.SetGender(vcard.SexFemale, "")
	}
	if org := str(obj["organization"]); org != "" {
		if dept := str(obj["department"]); dept != "" {
			org += ";" + dept
		}
		card.SetValue(vcard.FieldOrganization, org)
	}
	if birthday, ok := obj["birthday"].(time.Time); ok {
		card.SetValue(vcard.FieldBirthday, birthday.Format("20060102"))
	}
	if anniversary, ok := obj["anniversary"].(time.Time); ok {
		card.SetValue(vcard.FieldAnniversary, anniversary.Format("20060102"))
	}
	if lat, lon := str(obj["latitude"]), str(obj["longitude"]); lat != "" && lon != "" {
		card.SetValue(vcard.FieldGeolocation, fmt.Sprintf("geo:%s,%s", lat, lon))
	}
	if modified, ok := obj["last-modification-date"].(time.Time); ok {
		card.SetRevision(modified.UTC())
	}

	for _, p := range list(obj["phone"]) {
		phone, ok := p.(format.Object)
		if !ok || str(phone["number"]) == "" {
			continue
		}
		field := &vcard.Field{Value: str(phone["number"]), Params: vcard.Params{}}
		if types, ok := phoneTypes[str(phone["type"])]; ok {
			field.Params[vcard.ParamType] = types
		}
		card.Add(vcard.FieldTelephone, field)
	}
	for _, e := range list(obj["email"]) {
		email, ok := e.(format.Object)
		if !ok || str(email["smtp-address"]) == "" {
			continue
		}
		card.AddValue(vcard.FieldEmail, str(email["smtp-address"]))
	}
	preferred := str(obj["preferred-address"])
	for _, a := range list(obj["address"]) {
		address, ok := a.(format.Object)
		if !ok {
			continue
		}
		kind := str(address["type"])
		params := vcard.Params{}
		switch kind {
		case "home":
			params[vcard.ParamType] = []string{vcard.TypeHome}
		case "business":
			params[vcard.ParamType] = []string{vcard.TypeWork}
		}
		if kind != "" && kind == preferred {
			params[vcard.ParamPreferred] = []string{"1"}
		}
		card.AddAddress(&vcard.Address{
			Field:         &vcard.Field{Params: params},
			PostOfficeBox: str(address["pobox"]),
			StreetAddress: str(address["street"]),
			Locality:      str(address["locality"]),
			Region:        str(address["region"]),
			PostalCode:    str(address["postal-code"]),
			Country:       str(address["country"]),
		})
	}
	return card, nil
}

// EncodeCard writes the cards in vCard format.
func EncodeCard(w io.Writer, cards ...vcard.Card) error {
	enc := vcard.NewEncoder(w)
	for _, card := range cards {
		if err := enc.Encode(card); err != nil {
			return fmt.Errorf("failed to encode card: %w", err)
		}
	}
	return nil
}

func setIf(card vcard.Card, field, value string) {
	if value != "" {
		card.SetValue(field, value)
	}
}
