package tui

import "cloudconsole/internal/model"

type fieldKind int

const (
	fieldText fieldKind = iota
	fieldInt
	fieldList
)

type fieldDef struct {
	name  string
	label string
	kind  fieldKind
}

// editableFields are the fields a detail card lets the user change, in
// display order. Everything else is shown read-only.
var editableFields = map[model.Kind][]fieldDef{
	model.KindInstance: {
		{name: "name", label: "Name", kind: fieldText},
		{name: "state", label: "State", kind: fieldText},
		{name: "memory", label: "Memory (MB)", kind: fieldInt},
		{name: "processors", label: "Processors", kind: fieldInt},
		{name: "network_roles", label: "Network roles", kind: fieldList},
	},
	model.KindBlock: {
		{name: "name", label: "Name", kind: fieldText},
		{name: "netmask", label: "Netmask", kind: fieldText},
		{name: "gateway", label: "Gateway", kind: fieldText},
		{name: "addresses", label: "Addresses", kind: fieldList},
		{name: "excludes", label: "Excludes", kind: fieldList},
	},
	model.KindOrganization: {
		{name: "name", label: "Name", kind: fieldText},
		{name: "roles", label: "Roles", kind: fieldList},
	},
}

var readOnlyFields = map[model.Kind][]fieldDef{
	model.KindInstance: {
		{name: "id", label: "ID"},
		{name: "status", label: "Status"},
		{name: "organization", label: "Organization"},
		{name: "zone", label: "Zone"},
		{name: "node", label: "Node"},
		{name: "image", label: "Image"},
		{name: "public_ip", label: "Public IPv4"},
		{name: "public_ip6", label: "Public IPv6"},
	},
	model.KindBlock: {
		{name: "id", label: "ID"},
	},
	model.KindOrganization: {
		{name: "id", label: "ID"},
	},
}
