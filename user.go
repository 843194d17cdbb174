package ldevents

import "github.com/launchdarkly/go-sdk-events/v3/ldvalue"

// UserAttribute names one of the well-known optional user attributes that can be marked
// private, either globally (EventsConfiguration.PrivateAttributeNames) or per-user
// (UserBuilder.AsPrivateAttribute).
type UserAttribute string

const (
	KeyAttribute       UserAttribute = "key"
	SecondaryKeyAttribute UserAttribute = "secondary"
	IPAttribute        UserAttribute = "ip"
	CountryAttribute   UserAttribute = "country"
	FirstNameAttribute UserAttribute = "firstName"
	LastNameAttribute  UserAttribute = "lastName"
	NameAttribute      UserAttribute = "name"
	AvatarAttribute    UserAttribute = "avatar"
	EmailAttribute     UserAttribute = "email"
)

// User is the immutable subject of a flag evaluation or a Custom/Identify event. Build
// one with NewUserBuilder; once Build() is called, a User's fields never change.
type User struct {
	key                  string
	secondary            ldvalue.OptionalString
	ip                   ldvalue.OptionalString
	country              ldvalue.OptionalString
	firstName            ldvalue.OptionalString
	lastName             ldvalue.OptionalString
	name                 ldvalue.OptionalString
	avatar               ldvalue.OptionalString
	email                ldvalue.OptionalString
	anonymous            bool
	hasAnonymous         bool
	custom               map[string]ldvalue.Value
	privateAttributeNames map[UserAttribute]struct{}
}

// NewUser creates a User with only a key set - the minimal valid User.
func NewUser(key string) User {
	return User{key: key}
}

// GetKey returns the user's key.
func (u User) GetKey() string { return u.key }

// GetSecondaryKey, GetIP, ... return the corresponding optional attribute.
func (u User) GetSecondaryKey() ldvalue.OptionalString { return u.secondary }
func (u User) GetIP() ldvalue.OptionalString           { return u.ip }
func (u User) GetCountry() ldvalue.OptionalString      { return u.country }
func (u User) GetFirstName() ldvalue.OptionalString    { return u.firstName }
func (u User) GetLastName() ldvalue.OptionalString     { return u.lastName }
func (u User) GetName() ldvalue.OptionalString         { return u.name }
func (u User) GetAvatar() ldvalue.OptionalString       { return u.avatar }
func (u User) GetEmail() ldvalue.OptionalString        { return u.email }

// GetAnonymousOptional returns the anonymous flag and whether it was explicitly set.
func (u User) GetAnonymousOptional() (bool, bool) { return u.anonymous, u.hasAnonymous }

// GetAllCustom returns every custom attribute as an object Value, or a null Value if
// none were set.
func (u User) GetAllCustom() ldvalue.Value {
	if len(u.custom) == 0 {
		return ldvalue.Null()
	}
	b := ldvalue.ObjectBuild()
	for k, v := range u.custom {
		b.Set(k, v)
	}
	return b.Build()
}

// CustomAttributes returns a copy of the user's custom attribute map.
func (u User) CustomAttributes() map[string]ldvalue.Value {
	out := make(map[string]ldvalue.Value, len(u.custom))
	for k, v := range u.custom {
		out[k] = v
	}
	return out
}

// IsPrivateAttribute returns true if this user marked attr private for itself.
func (u User) IsPrivateAttribute(attr UserAttribute) bool {
	_, ok := u.privateAttributeNames[attr]
	return ok
}

// UserBuilder incrementally constructs an immutable User.
type UserBuilder struct {
	u User
}

// NewUserBuilder starts building a User with the given key.
func NewUserBuilder(key string) *UserBuilder {
	return &UserBuilder{u: User{key: key, custom: make(map[string]ldvalue.Value)}}
}

// UserBuilderCanMakeAttributePrivate is returned by optional-string setters so the
// immediately preceding attribute can be marked private with a trailing call, e.g.
// builder.Name("Red").AsPrivateAttribute().
type UserBuilderCanMakeAttributePrivate struct {
	b    *UserBuilder
	attr UserAttribute
}

// AsPrivateAttribute marks the attribute just set as private for this user only.
func (c UserBuilderCanMakeAttributePrivate) AsPrivateAttribute() *UserBuilder {
	if c.b.u.privateAttributeNames == nil {
		c.b.u.privateAttributeNames = make(map[UserAttribute]struct{})
	}
	c.b.u.privateAttributeNames[c.attr] = struct{}{}
	return c.b
}

func (b *UserBuilder) setOptionalString(attr UserAttribute, value string, dest *ldvalue.OptionalString) UserBuilderCanMakeAttributePrivate {
	*dest = ldvalue.NewOptionalString(value)
	return UserBuilderCanMakeAttributePrivate{b: b, attr: attr}
}

func (b *UserBuilder) Secondary(value string) UserBuilderCanMakeAttributePrivate {
	return b.setOptionalString(SecondaryKeyAttribute, value, &b.u.secondary)
}

func (b *UserBuilder) IP(value string) UserBuilderCanMakeAttributePrivate {
	return b.setOptionalString(IPAttribute, value, &b.u.ip)
}

func (b *UserBuilder) Country(value string) UserBuilderCanMakeAttributePrivate {
	return b.setOptionalString(CountryAttribute, value, &b.u.country)
}

func (b *UserBuilder) FirstName(value string) UserBuilderCanMakeAttributePrivate {
	return b.setOptionalString(FirstNameAttribute, value, &b.u.firstName)
}

func (b *UserBuilder) LastName(value string) UserBuilderCanMakeAttributePrivate {
	return b.setOptionalString(LastNameAttribute, value, &b.u.lastName)
}

func (b *UserBuilder) Name(value string) UserBuilderCanMakeAttributePrivate {
	return b.setOptionalString(NameAttribute, value, &b.u.name)
}

func (b *UserBuilder) Avatar(value string) UserBuilderCanMakeAttributePrivate {
	return b.setOptionalString(AvatarAttribute, value, &b.u.avatar)
}

func (b *UserBuilder) Email(value string) UserBuilderCanMakeAttributePrivate {
	return b.setOptionalString(EmailAttribute, value, &b.u.email)
}

// Anonymous sets whether this is an anonymous user, which is never omitted from the
// output once explicitly set (even to false).
func (b *UserBuilder) Anonymous(value bool) *UserBuilder {
	b.u.anonymous = value
	b.u.hasAnonymous = true
	return b
}

// Custom sets a custom attribute. Use CustomPrivate instead if the attribute should be
// redacted.
func (b *UserBuilder) Custom(name string, value ldvalue.Value) *UserBuilder {
	b.u.custom[name] = value
	return b
}

// CustomPrivate sets a custom attribute and marks it private for this user only.
func (b *UserBuilder) CustomPrivate(name string, value ldvalue.Value) *UserBuilder {
	b.Custom(name, value)
	if b.u.privateAttributeNames == nil {
		b.u.privateAttributeNames = make(map[UserAttribute]struct{})
	}
	b.u.privateAttributeNames[UserAttribute(name)] = struct{}{}
	return b
}

// Build finalizes the User. The builder may be reused after calling Build.
func (b *UserBuilder) Build() User {
	u := b.u
	custom := make(map[string]ldvalue.Value, len(b.u.custom))
	for k, v := range b.u.custom {
		custom[k] = v
	}
	u.custom = custom
	if b.u.privateAttributeNames != nil {
		names := make(map[UserAttribute]struct{}, len(b.u.privateAttributeNames))
		for k := range b.u.privateAttributeNames {
			names[k] = struct{}{}
		}
		u.privateAttributeNames = names
	}
	return u
}
