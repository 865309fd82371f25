package model

import (
	"fmt"
	"strings"

	"cloudconsole/internal/netutil"
)

type Kind string

const (
	KindInstance     Kind = "instance"
	KindBlock        Kind = "block"
	KindOrganization Kind = "organization"
)

// Kinds lists every entity kind in display order.
var Kinds = []Kind{KindInstance, KindBlock, KindOrganization}

// Plural is the collection name used in API paths and CLI commands.
func (k Kind) Plural() string {
	return string(k) + "s"
}

// IDPrefix is the prefix of server-assigned ids of this kind.
func (k Kind) IDPrefix() string {
	switch k {
	case KindInstance:
		return "inst"
	case KindBlock:
		return "blk"
	case KindOrganization:
		return "org"
	default:
		return string(k)
	}
}

func (k Kind) Title() string {
	switch k {
	case KindInstance:
		return "Instances"
	case KindBlock:
		return "IP Blocks"
	case KindOrganization:
		return "Organizations"
	default:
		return string(k)
	}
}

func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if s == string(k) || s == k.Plural() {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown kind: %q", s)
}

// KindOfID resolves the kind of an id from its prefix.
func KindOfID(id string) (Kind, bool) {
	id = strings.TrimSpace(id)
	for _, k := range Kinds {
		p := k.IDPrefix() + "-"
		if strings.HasPrefix(id, p) && len(id) > len(p) {
			return k, true
		}
	}
	return "", false
}

// ValidationError mirrors the control plane's {error, message} payload.
type ValidationError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

const (
	InstanceRunning  = "running"
	InstanceStopped  = "stopped"
	InstanceUpdating = "updating"
	InstanceDeleting = "deleting"
	InstanceSnapshot = "snapshot"

	VMStarting         = "starting"
	VMRunning          = "running"
	VMStopped          = "stopped"
	VMFailed           = "failed"
	VMUpdating         = "updating"
	VMProvisioningDisk = "provisioning_disk"
)

type Instance struct {
	ID           string   `json:"id"`
	Organization string   `json:"organization"`
	Zone         string   `json:"zone"`
	Node         string   `json:"node"`
	Image        string   `json:"image"`
	Status       string   `json:"status"`
	State        string   `json:"state"`
	VMState      string   `json:"vm_state"`
	PublicIP     string   `json:"public_ip"`
	PublicIP6    string   `json:"public_ip6"`
	Name         string   `json:"name"`
	Memory       int      `json:"memory"`
	Processors   int      `json:"processors"`
	NetworkRoles []string `json:"network_roles"`
}

func (i Instance) EntityID() string { return i.ID }

// Validate fills defaults and reports the first missing required field.
func (i *Instance) Validate() error {
	if i.State == "" {
		i.State = InstanceRunning
	}
	if i.Memory < 256 {
		i.Memory = 256
	}
	if i.Processors < 1 {
		i.Processors = 1
	}
	if i.NetworkRoles == nil {
		i.NetworkRoles = []string{}
	}

	switch {
	case i.Organization == "":
		return &ValidationError{Code: "organization_required", Message: "Missing required organization"}
	case i.Zone == "":
		return &ValidationError{Code: "zone_required", Message: "Missing required zone"}
	case i.Node == "":
		return &ValidationError{Code: "node_required", Message: "Missing required node"}
	case i.Image == "":
		return &ValidationError{Code: "image_required", Message: "Missing required image"}
	}
	switch i.State {
	case InstanceRunning, InstanceStopped, InstanceUpdating, InstanceDeleting, InstanceSnapshot:
	default:
		return &ValidationError{Code: "state_invalid", Message: "Invalid instance state"}
	}
	return nil
}

// DeriveStatus sets Status from the requested state and the VM's actual state.
func (i *Instance) DeriveStatus() {
	switch i.State {
	case InstanceRunning:
		switch i.VMState {
		case VMRunning:
			i.Status = "Running"
		case VMStarting, VMStopped, VMFailed:
			i.Status = "Starting"
		case VMUpdating:
			i.Status = "Updating"
		case VMProvisioningDisk:
			i.Status = "Provisioning Disk"
		case "":
			i.Status = "Provisioning"
		}
	case InstanceStopped:
		switch i.VMState {
		case VMStarting, VMRunning:
			i.Status = "Stopping"
		case VMStopped, VMFailed:
			i.Status = "Stopped"
		case VMUpdating:
			i.Status = "Updating"
		case VMProvisioningDisk:
			i.Status = "Provisioning Disk"
		case "":
			i.Status = "Provisioning"
		}
	case InstanceUpdating:
		i.Status = "Updating"
	case InstanceDeleting:
		i.Status = "Deleting"
	case InstanceSnapshot:
		i.Status = "Snapshotting"
	}
}

type Block struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Netmask   string   `json:"netmask"`
	Gateway   string   `json:"gateway"`
	Addresses []string `json:"addresses"`
	Excludes  []string `json:"excludes"`
}

func (b Block) EntityID() string { return b.ID }

func (b *Block) Validate() error {
	if b.Addresses == nil {
		b.Addresses = []string{}
	}
	if b.Excludes == nil {
		b.Excludes = []string{}
	}
	if strings.TrimSpace(b.Name) == "" {
		return &ValidationError{Code: "name_required", Message: "Missing required name"}
	}
	if b.Netmask != "" {
		if _, err := netutil.ParseNetmask(b.Netmask); err != nil {
			return &ValidationError{Code: "netmask_invalid", Message: "Invalid netmask"}
		}
	}
	if b.Gateway != "" && !netutil.IsIP(b.Gateway) {
		return &ValidationError{Code: "gateway_invalid", Message: "Invalid gateway address"}
	}
	for _, a := range b.Addresses {
		if _, err := netutil.ParseAddress(a); err != nil {
			return &ValidationError{Code: "address_invalid", Message: fmt.Sprintf("Invalid address %q", a)}
		}
	}
	for _, a := range b.Excludes {
		if _, err := netutil.ParseAddress(a); err != nil {
			return &ValidationError{Code: "exclude_invalid", Message: fmt.Sprintf("Invalid exclude %q", a)}
		}
	}
	if b.Gateway != "" && b.Netmask != "" {
		subnet, err := netutil.GatewaySubnet(b.Gateway, b.Netmask)
		if err != nil {
			return nil
		}
		// IPv4 addresses must sit inside the gateway's subnet.
		network := []string{subnet.String()}
		for _, a := range b.Addresses {
			n, _ := netutil.ParseAddress(a)
			if n.IP.To4() == nil {
				continue
			}
			if !netutil.InNetworks(n.IP, network) || !netutil.InNetworks(netutil.LastIP(n), network) {
				return &ValidationError{Code: "address_outside_network", Message: fmt.Sprintf("Address %q is outside the gateway network %s", a, subnet)}
			}
		}
	}
	return nil
}

type Organization struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

func (o Organization) EntityID() string { return o.ID }

func (o *Organization) Validate() error {
	if o.Roles == nil {
		o.Roles = []string{}
	}
	if strings.TrimSpace(o.Name) == "" {
		return &ValidationError{Code: "name_required", Message: "Missing required name"}
	}
	return nil
}

// Normalize decodes d as an entity of kind k, applies its defaults and
// validation, and returns the resulting document.
func Normalize(k Kind, d Doc) (Doc, error) {
	switch k {
	case KindInstance:
		var v Instance
		if err := d.Decode(&v); err != nil {
			return Doc{}, &ValidationError{Code: "invalid_document", Message: err.Error()}
		}
		if err := v.Validate(); err != nil {
			return Doc{}, err
		}
		return DocOf(v)
	case KindBlock:
		var v Block
		if err := d.Decode(&v); err != nil {
			return Doc{}, &ValidationError{Code: "invalid_document", Message: err.Error()}
		}
		if err := v.Validate(); err != nil {
			return Doc{}, err
		}
		return DocOf(v)
	case KindOrganization:
		var v Organization
		if err := d.Decode(&v); err != nil {
			return Doc{}, &ValidationError{Code: "invalid_document", Message: err.Error()}
		}
		if err := v.Validate(); err != nil {
			return Doc{}, err
		}
		return DocOf(v)
	default:
		return Doc{}, fmt.Errorf("unknown kind: %q", k)
	}
}
