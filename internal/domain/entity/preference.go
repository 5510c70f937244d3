package entity

import "encoding/json"

// PreferenceVersion is the current schema version of PreferenceDocument.
const PreferenceVersion = 1

// LodgingPrefs constrains the lodging slot of the guide template.
type LodgingPrefs struct {
	BudgetMin *int     `json:"budget_min,omitempty"`
	BudgetMax *int     `json:"budget_max,omitempty"`
	Quiet     *bool    `json:"quiet,omitempty"`
	Styles    []string `json:"styles,omitempty"`
}

// DiningPrefs constrains the food slot.
type DiningPrefs struct {
	Tastes        []string `json:"tastes,omitempty"`
	Avoid         []string `json:"avoid,omitempty"`
	BudgetPerMeal *int     `json:"budget_per_meal,omitempty"`
}

// TransportPrefs constrains the transport slot.
type TransportPrefs struct {
	Preferred        []string `json:"preferred,omitempty"`
	AvoidNightTravel *bool    `json:"avoid_night_travel,omitempty"`
}

// SightseeingPrefs constrains the attractions slot.
type SightseeingPrefs struct {
	Pace        string   `json:"pace,omitempty"`
	Interests   []string `json:"interests,omitempty"`
	AvoidCrowds *bool    `json:"avoid_crowds,omitempty"`
}

// PreferenceDocument is the per-user preference blob stored as a JSON string
// in the users table. Known categories are typed; unknown top-level keys are
// preserved verbatim in Extra so a newer writer never loses them.
type PreferenceDocument struct {
	Version     int
	Lodging     *LodgingPrefs
	Dining      *DiningPrefs
	Transport   *TransportPrefs
	Sightseeing *SightseeingPrefs
	Extra       map[string]json.RawMessage
}

// IsEmpty reports whether the document carries no preferences at all.
func (p *PreferenceDocument) IsEmpty() bool {
	return p == nil || (p.Lodging == nil && p.Dining == nil && p.Transport == nil &&
		p.Sightseeing == nil && len(p.Extra) == 0)
}

type preferenceJSON struct {
	Version     int               `json:"version,omitempty"`
	Lodging     *LodgingPrefs     `json:"lodging,omitempty"`
	Dining      *DiningPrefs      `json:"dining,omitempty"`
	Transport   *TransportPrefs   `json:"transport,omitempty"`
	Sightseeing *SightseeingPrefs `json:"sightseeing,omitempty"`
}

var knownPreferenceKeys = map[string]bool{
	"version":     true,
	"lodging":     true,
	"dining":      true,
	"transport":   true,
	"sightseeing": true,
}

// MarshalJSON emits known categories plus any preserved overflow keys.
func (p *PreferenceDocument) MarshalJSON() ([]byte, error) {
	version := p.Version
	if version == 0 {
		version = PreferenceVersion
	}
	base, err := json.Marshal(preferenceJSON{
		Version:     version,
		Lodging:     p.Lodging,
		Dining:      p.Dining,
		Transport:   p.Transport,
		Sightseeing: p.Sightseeing,
	})
	if err != nil {
		return nil, err
	}
	if len(p.Extra) == 0 {
		return base, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range p.Extra {
		if !knownPreferenceKeys[k] {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// UnmarshalJSON parses known categories strictly and stores anything else in
// Extra. A type mismatch inside a known category fails the whole parse.
func (p *PreferenceDocument) UnmarshalJSON(data []byte) error {
	var typed preferenceJSON
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Version = typed.Version
	if p.Version == 0 {
		p.Version = PreferenceVersion
	}
	p.Lodging = typed.Lodging
	p.Dining = typed.Dining
	p.Transport = typed.Transport
	p.Sightseeing = typed.Sightseeing
	p.Extra = nil
	for k, v := range raw {
		if knownPreferenceKeys[k] {
			continue
		}
		if p.Extra == nil {
			p.Extra = map[string]json.RawMessage{}
		}
		p.Extra[k] = v
	}
	return nil
}
