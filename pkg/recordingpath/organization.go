package recordingpath

import "strings"

// OrganizationOther is used for topics that match no known keyword.
const OrganizationOther = "other"

// organizationKeywords is checked in order; the first keyword found in the
// topic decides the organization.
var organizationKeywords = []struct {
	keyword      string
	organization string
}{
	{"OLF", "OLF"},
	{"Foundation", "OLF"},
	{"FOLIO", "FOLIO"},
	{"ReShare", "ReShare"},
	{"VuFind", "VuFind"},
}

// ParseOrganization classifies a parent meeting topic.
func ParseOrganization(topic string) string {
	for _, k := range organizationKeywords {
		if strings.Contains(topic, k.keyword) {
			return k.organization
		}
	}
	return OrganizationOther
}
