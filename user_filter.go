package ldevents

import (
	"sort"

	"github.com/launchdarkly/go-sdk-events/v3/ldvalue"
)

// filteredUser is the wire representation of a User after private-attribute redaction.
// Fields are pointers so that an unset attribute is omitted from the JSON entirely,
// rather than serialized as an empty string.
type filteredUser struct {
	Key          string              `json:"key"`
	Secondary    *string             `json:"secondary,omitempty"`
	IP           *string             `json:"ip,omitempty"`
	Country      *string             `json:"country,omitempty"`
	FirstName    *string             `json:"firstName,omitempty"`
	LastName     *string             `json:"lastName,omitempty"`
	Name         *string             `json:"name,omitempty"`
	Avatar       *string             `json:"avatar,omitempty"`
	Email        *string             `json:"email,omitempty"`
	Anonymous    *bool               `json:"anonymous,omitempty"`
	Custom       *ldvalue.Value      `json:"custom,omitempty"`
	PrivateAttrs []string            `json:"privateAttrs,omitempty"`
}

// scrubResult wraps the redacted output of scrubUser. The names of any redacted
// attributes are in filteredUser.PrivateAttrs.
type scrubResult struct {
	filteredUser filteredUser
}

// userFilter applies the redaction policy derived from one EventsConfiguration to every
// user it touches: an attribute is redacted if it's in the global private-attributes set,
// in the user's own private-attributes set, or if AllAttributesPrivate is set. The key is
// never redacted.
type userFilter struct {
	allAttributesPrivate bool
	globalPrivateAttrs   map[UserAttribute]struct{}
}

func newUserFilter(config EventsConfiguration) userFilter {
	globals := make(map[UserAttribute]struct{}, len(config.PrivateAttributeNames))
	for _, a := range config.PrivateAttributeNames {
		globals[a] = struct{}{}
	}
	return userFilter{
		allAttributesPrivate: config.AllAttributesPrivate,
		globalPrivateAttrs:   globals,
	}
}

func (f userFilter) isPrivate(attr UserAttribute, user User) bool {
	if f.allAttributesPrivate {
		return true
	}
	if _, ok := f.globalPrivateAttrs[attr]; ok {
		return true
	}
	return user.IsPrivateAttribute(attr)
}

func (f userFilter) scrubUser(user User) scrubResult {
	fu := filteredUser{Key: user.GetKey()}
	var redacted []string

	checkOptional := func(attr UserAttribute, value ldvalue.OptionalString, dest **string) {
		if !value.IsDefined() {
			return
		}
		if f.isPrivate(attr, user) {
			redacted = append(redacted, string(attr))
			return
		}
		*dest = value.AsPointer()
	}
	checkOptional(SecondaryKeyAttribute, user.GetSecondaryKey(), &fu.Secondary)
	checkOptional(IPAttribute, user.GetIP(), &fu.IP)
	checkOptional(CountryAttribute, user.GetCountry(), &fu.Country)
	checkOptional(FirstNameAttribute, user.GetFirstName(), &fu.FirstName)
	checkOptional(LastNameAttribute, user.GetLastName(), &fu.LastName)
	checkOptional(NameAttribute, user.GetName(), &fu.Name)
	checkOptional(AvatarAttribute, user.GetAvatar(), &fu.Avatar)
	checkOptional(EmailAttribute, user.GetEmail(), &fu.Email)

	if anon, has := user.GetAnonymousOptional(); has {
		a := anon
		fu.Anonymous = &a
	}

	if custom := user.CustomAttributes(); len(custom) > 0 {
		keptCustom := ldvalue.ObjectBuild()
		anyKept := false
		for name, value := range custom {
			if f.isPrivate(UserAttribute(name), user) {
				redacted = append(redacted, name)
				continue
			}
			keptCustom.Set(name, value)
			anyKept = true
		}
		if anyKept {
			built := keptCustom.Build()
			fu.Custom = built.AsPointer()
		}
	}

	if len(redacted) > 0 {
		sort.Strings(redacted)
		fu.PrivateAttrs = redacted
	}

	return scrubResult{filteredUser: fu}
}
