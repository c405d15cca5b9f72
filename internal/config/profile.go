package config

import (
	"regexp"
	"sort"
)

var profileIDPattern = regexp.MustCompile(`^[a-zA-Z0-9-.]+$`)

func validProfileID(id string) bool {
	return profileIDPattern.MatchString(id)
}

// ProfileConfig is one VPN network definition. Values are copied out of the
// configuration once and never mutated afterwards.
type ProfileConfig struct {
	ID                string
	ProfileNumber     int
	DisplayName       string
	Range             string
	Range6            string
	VPNProtoPorts     []string
	EnableACL         bool
	ACLPermissionList []string
	ManagementIP      string
}

// Profiles is the ordered, read-only view of every configured profile.
type Profiles struct {
	byID  map[string]ProfileConfig
	order []string
}

func NewProfiles(in map[string]ProfileConfig) *Profiles {
	p := &Profiles{
		byID:  make(map[string]ProfileConfig, len(in)),
		order: make([]string, 0, len(in)),
	}
	for id, profile := range in {
		profile.ID = id
		profile.VPNProtoPorts = append([]string(nil), profile.VPNProtoPorts...)
		profile.ACLPermissionList = append([]string(nil), profile.ACLPermissionList...)
		if profile.ManagementIP == "" {
			profile.ManagementIP = "127.0.0.1"
		}
		p.byID[id] = profile
		p.order = append(p.order, id)
	}
	sort.Slice(p.order, func(i, j int) bool {
		a, b := p.byID[p.order[i]], p.byID[p.order[j]]
		if a.ProfileNumber != b.ProfileNumber {
			return a.ProfileNumber < b.ProfileNumber
		}
		return a.ID < b.ID
	})
	return p
}

func (p *Profiles) Get(id string) (ProfileConfig, bool) {
	profile, ok := p.byID[id]
	return profile, ok
}

func (p *Profiles) Has(id string) bool {
	_, ok := p.byID[id]
	return ok
}

// IDs returns profile ids ordered by profile number.
func (p *Profiles) IDs() []string {
	return append([]string(nil), p.order...)
}

// List returns the profiles ordered by profile number.
func (p *Profiles) List() []ProfileConfig {
	out := make([]ProfileConfig, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.byID[id])
	}
	return out
}
