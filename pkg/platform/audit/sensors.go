package audit

import (
	"fmt"
	"sort"
	"strings"
)

// SensorID identifies the semantic type of an event. Ids are append-only:
// never reuse or renumber one, stored logs are interpreted through them.
type SensorID int

const (
	SensorUserRegistration                SensorID = 1
	SensorUserLogin                       SensorID = 2
	SensorUserLogout                      SensorID = 3
	SensorUserUpdate                      SensorID = 4
	SensorUserDelete                      SensorID = 5
	SensorPostCreate                      SensorID = 6
	SensorPostUpdate                      SensorID = 7
	SensorPostDelete                      SensorID = 8
	SensorWadaSensorUpdate                SensorID = 9
	SensorUserLoginFailed                 SensorID = 10
	SensorUserPasswordReset               SensorID = 11
	SensorPostTrashed                     SensorID = 12
	SensorPostPublished                   SensorID = 13
	SensorPostUnpublished                 SensorID = 14
	SensorWadaSettingsUpdate              SensorID = 15
	SensorPseudo                          SensorID = 16
	SensorWcProductCreate                 SensorID = 17
	SensorWcProductUpdate                 SensorID = 18
	SensorWcProductPublished              SensorID = 19
	SensorWcProductUnpublished            SensorID = 20
	SensorWcProductTrashed                SensorID = 21
	SensorWcProductDeleted                SensorID = 22
	SensorPluginInstall                   SensorID = 23
	SensorPluginDelete                    SensorID = 24
	SensorPluginActivate                  SensorID = 25
	SensorPluginDeactivate                SensorID = 26
	SensorThemeInstall                    SensorID = 27
	SensorThemeDelete                     SensorID = 28
	SensorThemeSwitch                     SensorID = 29
	SensorThemeUpdate                     SensorID = 30
	SensorPluginUpdate                    SensorID = 31
	SensorCoreUpdate                      SensorID = 32
	SensorMediaCreate                     SensorID = 33
	SensorMediaDelete                     SensorID = 34
	SensorMediaUpdate                     SensorID = 35
	SensorSettingGeneralUpdate            SensorID = 36
	SensorSettingWritingUpdate            SensorID = 37
	SensorSettingReadingUpdate            SensorID = 38
	SensorSettingDiscussionUpdate         SensorID = 39
	SensorSettingMediaUpdate              SensorID = 40
	SensorSettingPermalinkUpdate          SensorID = 41
	SensorSettingPrivacyUpdate            SensorID = 42
	SensorWadaNotificationCreate          SensorID = 43
	SensorWadaNotificationUpdate          SensorID = 44
	SensorWadaNotificationDelete          SensorID = 45
	SensorPostCategoryAssignUpdate        SensorID = 46
	SensorPostTagAssignUpdate             SensorID = 47
	SensorCategoryCreate                  SensorID = 48
	SensorCategoryUpdate                  SensorID = 49
	SensorCategoryDelete                  SensorID = 50
	SensorPostTagCreate                   SensorID = 51
	SensorPostTagUpdate                   SensorID = 52
	SensorPostTagDelete                   SensorID = 53
	SensorCommentCreate                   SensorID = 54
	SensorCommentUpdate                   SensorID = 55
	SensorCommentDelete                   SensorID = 56
	SensorCommentTrashed                  SensorID = 57
	SensorCommentUntrashed                SensorID = 58
	SensorCommentApproved                 SensorID = 59
	SensorCommentUnapproved               SensorID = 60
	SensorCommentSpammed                  SensorID = 61
	SensorMenuCreate                      SensorID = 62
	SensorMenuUpdate                      SensorID = 63
	SensorMenuDelete                      SensorID = 64
	SensorOptionCreate                    SensorID = 65
	SensorOptionUpdateCore                SensorID = 66
	SensorOptionUpdateOther               SensorID = 67
	SensorOptionDelete                    SensorID = 68
	SensorWpfFormSubmission               SensorID = 69
	SensorWpfFormCreate                   SensorID = 70
	SensorWpfFormUpdate                   SensorID = 71
	SensorWpfFormDelete                   SensorID = 72
	SensorWpfFormTrashed                  SensorID = 73
	SensorWpfFormUntrashed                SensorID = 74
	SensorWpfGeneralSettingsUpdate        SensorID = 75
	SensorCf7FormSubmission               SensorID = 76
	SensorCf7FormCreate                   SensorID = 77
	SensorCf7FormUpdate                   SensorID = 78
	SensorCf7FormDelete                   SensorID = 79
	SensorFileThemeFileEdit               SensorID = 80
	SensorFilePluginFileEdit              SensorID = 81
	SensorRdnRedirectCreate               SensorID = 82
	SensorRdnRedirectUpdate               SensorID = 83
	SensorRdnRedirectDelete               SensorID = 84
	SensorRdnRedirectEnable               SensorID = 85
	SensorRdnRedirectDisable              SensorID = 86
	SensorRdnSettingsUpdated              SensorID = 87
	SensorLocotTranslationCreate          SensorID = 88
	SensorLocotTranslationUpdate          SensorID = 89
	SensorLocotTranslationDelete          SensorID = 90
	SensorLocotSettingsUpdate             SensorID = 91
	SensorAcfFieldGroupCreate             SensorID = 92
	SensorAcfFieldGroupUpdate             SensorID = 93
	SensorAcfFieldGroupPublished          SensorID = 94
	SensorAcfFieldGroupUnpublished        SensorID = 95
	SensorAcfFieldGroupTrashed            SensorID = 96
	SensorAcfFieldGroupDeleted            SensorID = 97
	SensorAcfFieldCreate                  SensorID = 98
	SensorAcfFieldUpdate                  SensorID = 99
	SensorAcfFieldPublished               SensorID = 100
	SensorAcfFieldUnpublished             SensorID = 101
	SensorAcfFieldTrashed                 SensorID = 102
	SensorAcfFieldDeleted                 SensorID = 103
	SensorAcfPostTypeCreate               SensorID = 104
	SensorAcfPostTypeUpdate               SensorID = 105
	SensorAcfPostTypePublished            SensorID = 106
	SensorAcfPostTypeUnpublished          SensorID = 107
	SensorAcfPostTypeTrashed              SensorID = 108
	SensorAcfPostTypeDeleted              SensorID = 109
	SensorAcfTaxonomyCreate               SensorID = 110
	SensorAcfTaxonomyUpdate               SensorID = 111
	SensorAcfTaxonomyPublished            SensorID = 112
	SensorAcfTaxonomyUnpublished          SensorID = 113
	SensorAcfTaxonomyTrashed              SensorID = 114
	SensorAcfTaxonomyDeleted              SensorID = 115
	SensorAcfOptionsPageCreate            SensorID = 116
	SensorAcfOptionsPageUpdate            SensorID = 117
	SensorAcfOptionsPagePublished         SensorID = 118
	SensorAcfOptionsPageUnpublished       SensorID = 119
	SensorAcfOptionsPageTrashed           SensorID = 120
	SensorAcfOptionsPageDeleted           SensorID = 121
	SensorAcfToolsJSONExport              SensorID = 122
	SensorAcfToolsPHPExport               SensorID = 123
	SensorAcfToolsJSONImport              SensorID = 124
	SensorAcfOptionsPageSettingsUpdate    SensorID = 125
	SensorAcfCptPostCreate                SensorID = 126
	SensorAcfCptPostUpdate                SensorID = 127
	SensorAcfCptPostPublished             SensorID = 128
	SensorAcfCptPostUnpublished           SensorID = 129
	SensorAcfCptPostTrashed               SensorID = 130
	SensorAcfCptPostDeleted               SensorID = 131
	SensorRmseoGeneralSettingsUpdate      SensorID = 132
	SensorRmseoTitlesMetaSettingsUpdate   SensorID = 133
	SensorRmseoSitemapSettingsUpdate      SensorID = 134
	SensorRmseoInstantIndexingUpdate      SensorID = 135
	SensorRmseoRoleCapabilitiesUpdate     SensorID = 136
	SensorWpcronEventCreate               SensorID = 137
	SensorWpcronEventUpdate               SensorID = 138
	SensorWpcronEventDelete               SensorID = 139
	SensorWpcronEventPause                SensorID = 140
	SensorWpcronEventResume               SensorID = 141
	SensorWpcronScheduleCreate            SensorID = 142
	SensorWpcronScheduleDelete            SensorID = 143
)

// Group is a named collection of sensors toggled together.
type Group string

const (
	GroupCore        Group = "Core"
	GroupComment     Group = "Comment"
	GroupFile        Group = "File"
	GroupMedia       Group = "Media"
	GroupMenu        Group = "Menu"
	GroupOption      Group = "Option"
	GroupPost        Group = "Post"
	GroupSetting     Group = "Setting"
	GroupTaxonomy    Group = "Taxonomy"
	GroupTheme       Group = "Theme"
	GroupUser        Group = "User"
	GroupPlugin      Group = "Plugin"
	GroupWada        Group = "Wada"
	GroupWoocProduct Group = "Wooc_Product"
	GroupWpforms     Group = "Wpforms"
	GroupCf7         Group = "Cf7"
	GroupRedirection Group = "Redirection"
	GroupLoco        Group = "Loco"
	GroupAcf         Group = "Acf"
	GroupRankMath    Group = "RankMath"
	GroupCrontrol    Group = "Crontrol"
)

var knownGroups = []Group{
	GroupCore, GroupComment, GroupFile, GroupMedia, GroupMenu, GroupOption,
	GroupPost, GroupSetting, GroupTaxonomy, GroupTheme, GroupUser, GroupPlugin,
	GroupWada, GroupWoocProduct, GroupWpforms, GroupCf7, GroupRedirection,
	GroupLoco, GroupAcf, GroupRankMath, GroupCrontrol,
}

// NormalizeGroup maps a user supplied group name onto a known group,
// ignoring case and surrounding whitespace.
func NormalizeGroup(name string) (Group, bool) {
	name = strings.TrimSpace(name)
	for _, g := range knownGroups {
		if strings.EqualFold(string(g), name) {
			return g, true
		}
	}
	return "", false
}

// Category separates sensors shipped with the core from extension sensors.
type Category string

const (
	CategoryCore   Category = "Core"
	CategoryPlugin Category = "Plugin"
)

// Severity ranks sensors for reporting.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// ModuleCore owns every sensor that ships without an extension.
const ModuleCore = "core"

// SensorRegistration binds a sensor id to its descriptive metadata.
type SensorRegistration struct {
	ID            SensorID
	Label         string
	Group         Group
	Category      Category
	Module        string
	Severity      Severity
	DefaultActive bool
}

func core(id SensorID, label string, g Group, sev Severity) SensorRegistration {
	return SensorRegistration{ID: id, Label: label, Group: g, Category: CategoryCore, Module: ModuleCore, Severity: sev, DefaultActive: true}
}

// Extension sensors start inactive; activating the extension turns them on.
func ext(id SensorID, label string, g Group, module string, sev Severity) SensorRegistration {
	return SensorRegistration{ID: id, Label: label, Group: g, Category: CategoryPlugin, Module: module, Severity: sev}
}

var registrations = buildRegistry(
	core(SensorUserRegistration, "User registration", GroupUser, SeverityMedium),
	core(SensorUserLogin, "User login", GroupUser, SeverityLow),
	core(SensorUserLogout, "User logout", GroupUser, SeverityLow),
	core(SensorUserUpdate, "User update", GroupUser, SeverityMedium),
	core(SensorUserDelete, "User delete", GroupUser, SeverityHigh),
	core(SensorPostCreate, "Post create", GroupPost, SeverityLow),
	core(SensorPostUpdate, "Post update", GroupPost, SeverityLow),
	core(SensorPostDelete, "Post delete", GroupPost, SeverityMedium),
	core(SensorWadaSensorUpdate, "Audit sensor update", GroupWada, SeverityCritical),
	core(SensorUserLoginFailed, "User login failed", GroupUser, SeverityHigh),
	core(SensorUserPasswordReset, "User password reset", GroupUser, SeverityMedium),
	core(SensorPostTrashed, "Post trashed", GroupPost, SeverityLow),
	core(SensorPostPublished, "Post published", GroupPost, SeverityLow),
	core(SensorPostUnpublished, "Post unpublished", GroupPost, SeverityLow),
	core(SensorWadaSettingsUpdate, "Audit settings update", GroupWada, SeverityCritical),
	core(SensorPseudo, "Pseudo event", GroupWada, SeverityLow),
	ext(SensorWcProductCreate, "Product create", GroupWoocProduct, "wada-wc", SeverityLow),
	ext(SensorWcProductUpdate, "Product update", GroupWoocProduct, "wada-wc", SeverityLow),
	ext(SensorWcProductPublished, "Product published", GroupWoocProduct, "wada-wc", SeverityLow),
	ext(SensorWcProductUnpublished, "Product unpublished", GroupWoocProduct, "wada-wc", SeverityLow),
	ext(SensorWcProductTrashed, "Product trashed", GroupWoocProduct, "wada-wc", SeverityLow),
	ext(SensorWcProductDeleted, "Product deleted", GroupWoocProduct, "wada-wc", SeverityMedium),
	core(SensorPluginInstall, "Plugin install", GroupPlugin, SeverityHigh),
	core(SensorPluginDelete, "Plugin delete", GroupPlugin, SeverityHigh),
	core(SensorPluginActivate, "Plugin activate", GroupPlugin, SeverityHigh),
	core(SensorPluginDeactivate, "Plugin deactivate", GroupPlugin, SeverityHigh),
	core(SensorThemeInstall, "Theme install", GroupTheme, SeverityHigh),
	core(SensorThemeDelete, "Theme delete", GroupTheme, SeverityHigh),
	core(SensorThemeSwitch, "Theme switch", GroupTheme, SeverityMedium),
	core(SensorThemeUpdate, "Theme update", GroupTheme, SeverityMedium),
	core(SensorPluginUpdate, "Plugin update", GroupPlugin, SeverityMedium),
	core(SensorCoreUpdate, "Core update", GroupCore, SeverityHigh),
	core(SensorMediaCreate, "Media create", GroupMedia, SeverityLow),
	core(SensorMediaDelete, "Media delete", GroupMedia, SeverityMedium),
	core(SensorMediaUpdate, "Media update", GroupMedia, SeverityLow),
	core(SensorSettingGeneralUpdate, "General settings update", GroupSetting, SeverityHigh),
	core(SensorSettingWritingUpdate, "Writing settings update", GroupSetting, SeverityMedium),
	core(SensorSettingReadingUpdate, "Reading settings update", GroupSetting, SeverityMedium),
	core(SensorSettingDiscussionUpdate, "Discussion settings update", GroupSetting, SeverityMedium),
	core(SensorSettingMediaUpdate, "Media settings update", GroupSetting, SeverityMedium),
	core(SensorSettingPermalinkUpdate, "Permalink settings update", GroupSetting, SeverityMedium),
	core(SensorSettingPrivacyUpdate, "Privacy settings update", GroupSetting, SeverityHigh),
	core(SensorWadaNotificationCreate, "Audit notification create", GroupWada, SeverityMedium),
	core(SensorWadaNotificationUpdate, "Audit notification update", GroupWada, SeverityMedium),
	core(SensorWadaNotificationDelete, "Audit notification delete", GroupWada, SeverityHigh),
	core(SensorPostCategoryAssignUpdate, "Post category assignment update", GroupPost, SeverityLow),
	core(SensorPostTagAssignUpdate, "Post tag assignment update", GroupPost, SeverityLow),
	core(SensorCategoryCreate, "Category create", GroupTaxonomy, SeverityLow),
	core(SensorCategoryUpdate, "Category update", GroupTaxonomy, SeverityLow),
	core(SensorCategoryDelete, "Category delete", GroupTaxonomy, SeverityMedium),
	core(SensorPostTagCreate, "Post tag create", GroupTaxonomy, SeverityLow),
	core(SensorPostTagUpdate, "Post tag update", GroupTaxonomy, SeverityLow),
	core(SensorPostTagDelete, "Post tag delete", GroupTaxonomy, SeverityMedium),
	core(SensorCommentCreate, "Comment create", GroupComment, SeverityLow),
	core(SensorCommentUpdate, "Comment update", GroupComment, SeverityLow),
	core(SensorCommentDelete, "Comment delete", GroupComment, SeverityMedium),
	core(SensorCommentTrashed, "Comment trashed", GroupComment, SeverityLow),
	core(SensorCommentUntrashed, "Comment untrashed", GroupComment, SeverityLow),
	core(SensorCommentApproved, "Comment approved", GroupComment, SeverityLow),
	core(SensorCommentUnapproved, "Comment unapproved", GroupComment, SeverityLow),
	core(SensorCommentSpammed, "Comment marked as spam", GroupComment, SeverityLow),
	core(SensorMenuCreate, "Menu create", GroupMenu, SeverityLow),
	core(SensorMenuUpdate, "Menu update", GroupMenu, SeverityLow),
	core(SensorMenuDelete, "Menu delete", GroupMenu, SeverityMedium),
	core(SensorOptionCreate, "Option create", GroupOption, SeverityLow),
	core(SensorOptionUpdateCore, "Core option update", GroupOption, SeverityMedium),
	core(SensorOptionUpdateOther, "Other option update", GroupOption, SeverityLow),
	core(SensorOptionDelete, "Option delete", GroupOption, SeverityMedium),
	ext(SensorWpfFormSubmission, "Form submission", GroupWpforms, "wada-wpf", SeverityLow),
	ext(SensorWpfFormCreate, "Form create", GroupWpforms, "wada-wpf", SeverityLow),
	ext(SensorWpfFormUpdate, "Form update", GroupWpforms, "wada-wpf", SeverityLow),
	ext(SensorWpfFormDelete, "Form delete", GroupWpforms, "wada-wpf", SeverityMedium),
	ext(SensorWpfFormTrashed, "Form trashed", GroupWpforms, "wada-wpf", SeverityLow),
	ext(SensorWpfFormUntrashed, "Form untrashed", GroupWpforms, "wada-wpf", SeverityLow),
	ext(SensorWpfGeneralSettingsUpdate, "Forms settings update", GroupWpforms, "wada-wpf", SeverityMedium),
	ext(SensorCf7FormSubmission, "Contact form submission", GroupCf7, "wada-cf7", SeverityLow),
	ext(SensorCf7FormCreate, "Contact form create", GroupCf7, "wada-cf7", SeverityLow),
	ext(SensorCf7FormUpdate, "Contact form update", GroupCf7, "wada-cf7", SeverityLow),
	ext(SensorCf7FormDelete, "Contact form delete", GroupCf7, "wada-cf7", SeverityMedium),
	core(SensorFileThemeFileEdit, "Theme file edit", GroupFile, SeverityCritical),
	core(SensorFilePluginFileEdit, "Plugin file edit", GroupFile, SeverityCritical),
	ext(SensorRdnRedirectCreate, "Redirect create", GroupRedirection, "wada-rdn", SeverityLow),
	ext(SensorRdnRedirectUpdate, "Redirect update", GroupRedirection, "wada-rdn", SeverityLow),
	ext(SensorRdnRedirectDelete, "Redirect delete", GroupRedirection, "wada-rdn", SeverityMedium),
	ext(SensorRdnRedirectEnable, "Redirect enable", GroupRedirection, "wada-rdn", SeverityLow),
	ext(SensorRdnRedirectDisable, "Redirect disable", GroupRedirection, "wada-rdn", SeverityLow),
	ext(SensorRdnSettingsUpdated, "Redirection settings update", GroupRedirection, "wada-rdn", SeverityMedium),
	ext(SensorLocotTranslationCreate, "Translation create", GroupLoco, "wada-locot", SeverityLow),
	ext(SensorLocotTranslationUpdate, "Translation update", GroupLoco, "wada-locot", SeverityLow),
	ext(SensorLocotTranslationDelete, "Translation delete", GroupLoco, "wada-locot", SeverityMedium),
	ext(SensorLocotSettingsUpdate, "Translation settings update", GroupLoco, "wada-locot", SeverityMedium),
	ext(SensorAcfFieldGroupCreate, "Field group create", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfFieldGroupUpdate, "Field group update", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfFieldGroupPublished, "Field group published", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfFieldGroupUnpublished, "Field group unpublished", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfFieldGroupTrashed, "Field group trashed", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfFieldGroupDeleted, "Field group deleted", GroupAcf, "wada-acf", SeverityMedium),
	ext(SensorAcfFieldCreate, "Field create", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfFieldUpdate, "Field update", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfFieldPublished, "Field published", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfFieldUnpublished, "Field unpublished", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfFieldTrashed, "Field trashed", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfFieldDeleted, "Field deleted", GroupAcf, "wada-acf", SeverityMedium),
	ext(SensorAcfPostTypeCreate, "Post type create", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfPostTypeUpdate, "Post type update", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfPostTypePublished, "Post type published", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfPostTypeUnpublished, "Post type unpublished", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfPostTypeTrashed, "Post type trashed", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfPostTypeDeleted, "Post type deleted", GroupAcf, "wada-acf", SeverityMedium),
	ext(SensorAcfTaxonomyCreate, "Taxonomy create", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfTaxonomyUpdate, "Taxonomy update", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfTaxonomyPublished, "Taxonomy published", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfTaxonomyUnpublished, "Taxonomy unpublished", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfTaxonomyTrashed, "Taxonomy trashed", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfTaxonomyDeleted, "Taxonomy deleted", GroupAcf, "wada-acf", SeverityMedium),
	ext(SensorAcfOptionsPageCreate, "Options page create", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfOptionsPageUpdate, "Options page update", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfOptionsPagePublished, "Options page published", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfOptionsPageUnpublished, "Options page unpublished", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfOptionsPageTrashed, "Options page trashed", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfOptionsPageDeleted, "Options page deleted", GroupAcf, "wada-acf", SeverityMedium),
	ext(SensorAcfToolsJSONExport, "JSON export", GroupAcf, "wada-acf", SeverityMedium),
	ext(SensorAcfToolsPHPExport, "PHP export", GroupAcf, "wada-acf", SeverityMedium),
	ext(SensorAcfToolsJSONImport, "JSON import", GroupAcf, "wada-acf", SeverityHigh),
	ext(SensorAcfOptionsPageSettingsUpdate, "Options page settings update", GroupAcf, "wada-acf", SeverityMedium),
	ext(SensorAcfCptPostCreate, "Custom post create", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfCptPostUpdate, "Custom post update", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfCptPostPublished, "Custom post published", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfCptPostUnpublished, "Custom post unpublished", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfCptPostTrashed, "Custom post trashed", GroupAcf, "wada-acf", SeverityLow),
	ext(SensorAcfCptPostDeleted, "Custom post deleted", GroupAcf, "wada-acf", SeverityMedium),
	ext(SensorRmseoGeneralSettingsUpdate, "SEO general settings update", GroupRankMath, "wada-rank-math-seo", SeverityMedium),
	ext(SensorRmseoTitlesMetaSettingsUpdate, "SEO titles and meta settings update", GroupRankMath, "wada-rank-math-seo", SeverityMedium),
	ext(SensorRmseoSitemapSettingsUpdate, "SEO sitemap settings update", GroupRankMath, "wada-rank-math-seo", SeverityMedium),
	ext(SensorRmseoInstantIndexingUpdate, "SEO instant indexing settings update", GroupRankMath, "wada-rank-math-seo", SeverityMedium),
	ext(SensorRmseoRoleCapabilitiesUpdate, "SEO role capabilities update", GroupRankMath, "wada-rank-math-seo", SeverityHigh),
	ext(SensorWpcronEventCreate, "Cron event create", GroupCrontrol, "wada-wp-crontrol", SeverityMedium),
	ext(SensorWpcronEventUpdate, "Cron event update", GroupCrontrol, "wada-wp-crontrol", SeverityMedium),
	ext(SensorWpcronEventDelete, "Cron event delete", GroupCrontrol, "wada-wp-crontrol", SeverityMedium),
	ext(SensorWpcronEventPause, "Cron event pause", GroupCrontrol, "wada-wp-crontrol", SeverityMedium),
	ext(SensorWpcronEventResume, "Cron event resume", GroupCrontrol, "wada-wp-crontrol", SeverityMedium),
	ext(SensorWpcronScheduleCreate, "Cron schedule create", GroupCrontrol, "wada-wp-crontrol", SeverityMedium),
	ext(SensorWpcronScheduleDelete, "Cron schedule delete", GroupCrontrol, "wada-wp-crontrol", SeverityMedium),
)

func buildRegistry(regs ...SensorRegistration) map[SensorID]SensorRegistration {
	out := make(map[SensorID]SensorRegistration, len(regs))
	for _, r := range regs {
		if _, dup := out[r.ID]; dup {
			panic(fmt.Sprintf("audit: sensor %d registered twice", r.ID))
		}
		out[r.ID] = r
	}
	return out
}

// Lookup returns the registration for id.
func Lookup(id SensorID) (SensorRegistration, bool) {
	r, ok := registrations[id]
	return r, ok
}

// Valid reports whether id is part of the registry.
func (id SensorID) Valid() bool {
	_, ok := registrations[id]
	return ok
}

func (id SensorID) String() string {
	if r, ok := registrations[id]; ok {
		return r.Label
	}
	return fmt.Sprintf("sensor(%d)", int(id))
}

// Registrations returns every registration ordered by id.
func Registrations() []SensorRegistration {
	return filter(func(SensorRegistration) bool { return true })
}

// SensorsOfGroup returns the registrations of a group ordered by id.
func SensorsOfGroup(g Group) []SensorRegistration {
	return filter(func(r SensorRegistration) bool { return r.Group == g })
}

// SensorsOfModule returns the sensors an extension contributes. Used to
// switch them off together when the extension is deactivated.
func SensorsOfModule(module string) []SensorRegistration {
	return filter(func(r SensorRegistration) bool { return r.Module == module })
}

func filter(keep func(SensorRegistration) bool) []SensorRegistration {
	out := make([]SensorRegistration, 0)
	for _, r := range registrations {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
