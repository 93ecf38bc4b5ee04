package audit

// ObjectType tags the kind of entity an event is about.
type ObjectType string

// Domain separates core entity tags from extension-contributed ones.
type Domain string

const (
	DomainCore      Domain = "core"
	DomainExtension Domain = "extension"
)

const (
	ObjectUser             ObjectType = "WPU"
	ObjectPost             ObjectType = "WPP"
	ObjectTerm             ObjectType = "WPT"
	ObjectComment          ObjectType = "WPC"
	ObjectMenu             ObjectType = "WPM"
	ObjectFile             ObjectType = "FILE"
	ObjectAuditSensor      ObjectType = "PLG_WADA_S"
	ObjectAuditNotification ObjectType = "PLG_WADA_N"
	ObjectTheme            ObjectType = "THEME"
	ObjectPlugin           ObjectType = "PLUGIN"

	ObjectWcProduct     ObjectType = "PLG_WC_P"
	ObjectWpfForm       ObjectType = "PLG_WPF_F"
	ObjectCf7Form       ObjectType = "PLG_CF7_F"
	ObjectRdnRedirect   ObjectType = "PLG_RDN_R"
	ObjectAcfField      ObjectType = "PLG_ACF_F"
	ObjectAcfFieldGroup ObjectType = "PLG_ACF_FG"
	ObjectAcfPostType   ObjectType = "PLG_ACF_PT"
	ObjectAcfTaxonomy   ObjectType = "PLG_ACF_TX"
	ObjectAcfOptionPage ObjectType = "PLG_ACF_OP"
	ObjectAcfCpt        ObjectType = "PLG_ACF_CPT"
)

var objectDomains = map[ObjectType]Domain{
	ObjectUser:             DomainCore,
	ObjectPost:             DomainCore,
	ObjectTerm:             DomainCore,
	ObjectComment:          DomainCore,
	ObjectMenu:             DomainCore,
	ObjectFile:             DomainCore,
	ObjectAuditSensor:      DomainCore,
	ObjectAuditNotification: DomainCore,
	ObjectTheme:            DomainCore,
	ObjectPlugin:           DomainCore,

	ObjectWcProduct:     DomainExtension,
	ObjectWpfForm:       DomainExtension,
	ObjectCf7Form:       DomainExtension,
	ObjectRdnRedirect:   DomainExtension,
	ObjectAcfField:      DomainExtension,
	ObjectAcfFieldGroup: DomainExtension,
	ObjectAcfPostType:   DomainExtension,
	ObjectAcfTaxonomy:   DomainExtension,
	ObjectAcfOptionPage: DomainExtension,
	ObjectAcfCpt:        DomainExtension,
}

// Domain returns the tag's domain, or "" for unknown tags.
func (o ObjectType) Domain() Domain {
	return objectDomains[o]
}

// Valid reports whether the tag is registered. The empty tag is valid and
// means the event is not about a specific entity.
func (o ObjectType) Valid() bool {
	if o == "" {
		return true
	}
	_, ok := objectDomains[o]
	return ok
}
