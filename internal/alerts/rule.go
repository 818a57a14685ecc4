// Package alerts evaluates notification rules over flights and biodiversity
// violations and produces deduplicated, time-ordered alerts.
package alerts

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"jpx_compliance/internal/severity"
)

// Priority is the notification priority of a rule.
type Priority string

const (
	Info     Priority = "info"
	Warning  Priority = "warning"
	Critical Priority = "critical"
)

// Priorities lists priorities in ascending order.
var Priorities = []Priority{Info, Warning, Critical}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case Info, Warning, Critical:
		return true
	}
	return false
}

// TriggerType names a trigger variant on the wire.
type TriggerType string

const (
	TriggerCurfew         TriggerType = "curfew_violation"
	TriggerNoise          TriggerType = "noise_threshold"
	TriggerSpeciesImpact  TriggerType = "species_impact"
	TriggerHighVolume     TriggerType = "high_volume"
	TriggerRepeatOffender TriggerType = "repeat_offender"
)

// Trigger is the trigger condition of a rule. The set of implementations is
// closed: CurfewTrigger, NoiseTrigger, SpeciesImpactTrigger,
// HighVolumeTrigger and RepeatOffenderTrigger.
type Trigger interface {
	Type() TriggerType
	trigger()
}

// CurfewTrigger fires for every operation flagged as inside the curfew.
type CurfewTrigger struct{}

// NoiseTrigger fires for operations estimated at or above MinDB.
type NoiseTrigger struct {
	MinDB int `json:"minDb"`
}

// SpeciesImpactTrigger fires for violations at or above MinSeverity.
type SpeciesImpactTrigger struct {
	MinSeverity severity.Level `json:"minSeverity"`
}

// HighVolumeTrigger fires for local hours with more than MaxFlightsPerHour
// operations.
type HighVolumeTrigger struct {
	MaxFlightsPerHour int `json:"maxFlightsPerHour"`
}

// RepeatOffenderTrigger fires once per operator with at least MinViolations
// violations within PeriodDays days.
type RepeatOffenderTrigger struct {
	MinViolations int `json:"minViolations"`
	PeriodDays    int `json:"periodDays"`
}

func (CurfewTrigger) Type() TriggerType { return TriggerCurfew }
func (NoiseTrigger) Type() TriggerType { return TriggerNoise }
func (SpeciesImpactTrigger) Type() TriggerType { return TriggerSpeciesImpact }
func (HighVolumeTrigger) Type() TriggerType { return TriggerHighVolume }
func (RepeatOffenderTrigger) Type() TriggerType { return TriggerRepeatOffender }

func (CurfewTrigger) trigger() {}
func (NoiseTrigger) trigger() {}
func (SpeciesImpactTrigger) trigger() {}
func (HighVolumeTrigger) trigger() {}
func (RepeatOffenderTrigger) trigger() {}

// Rule is a user-managed alert rule.
type Rule struct {
	ID          string
	Name        string
	Description string
	Trigger     Trigger
	Priority    Priority
	Enabled     bool
	CreatedAt   string
}

// ruleJSON is the wire form of a Rule.
type ruleJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	TriggerType TriggerType     `json:"triggerType"`
	Params      json.RawMessage `json:"params"`
	Priority    Priority        `json:"priority"`
	Enabled     bool            `json:"enabled"`
	CreatedAt   string          `json:"createdAt"`
}

// MarshalJSON writes the rule as triggerType plus a params object.
func (r Rule) MarshalJSON() ([]byte, error) {
	if r.Trigger == nil {
		return nil, fmt.Errorf("rule %s: missing trigger", r.ID)
	}
	params, err := json.Marshal(r.Trigger)
	if err != nil {
		return nil, fmt.Errorf("rule %s params: %w", r.ID, err)
	}
	return json.Marshal(ruleJSON{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		TriggerType: r.Trigger.Type(),
		Params:      params,
		Priority:    r.Priority,
		Enabled:     r.Enabled,
		CreatedAt:   r.CreatedAt,
	})
}

// UnmarshalJSON decodes params into the variant named by triggerType.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var raw ruleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	trig, err := decodeTrigger(raw.TriggerType, raw.Params)
	if err != nil {
		return fmt.Errorf("rule %s: %w", raw.ID, err)
	}

	*r = Rule{
		ID:          raw.ID,
		Name:        raw.Name,
		Description: raw.Description,
		Trigger:     trig,
		Priority:    raw.Priority,
		Enabled:     raw.Enabled,
		CreatedAt:   raw.CreatedAt,
	}
	return nil
}

func decodeTrigger(tt TriggerType, params json.RawMessage) (Trigger, error) {
	if len(params) == 0 || string(params) == "null" {
		params = json.RawMessage("{}")
	}

	var (
		trig Trigger
		err  error
	)
	switch tt {
	case TriggerCurfew:
		trig = CurfewTrigger{}
	case TriggerNoise:
		var p NoiseTrigger
		err = json.Unmarshal(params, &p)
		trig = p
	case TriggerSpeciesImpact:
		var p SpeciesImpactTrigger
		err = json.Unmarshal(params, &p)
		trig = p
	case TriggerHighVolume:
		var p HighVolumeTrigger
		err = json.Unmarshal(params, &p)
		trig = p
	case TriggerRepeatOffender:
		var p RepeatOffenderTrigger
		err = json.Unmarshal(params, &p)
		trig = p
	default:
		return nil, fmt.Errorf("unknown trigger type %q", tt)
	}
	if err != nil {
		return nil, fmt.Errorf("%s params: %w", tt, err)
	}
	return trig, nil
}

// DefaultCreatedAt stamps the bundled rules.
const DefaultCreatedAt = "2025-01-01T00:00:00"

// DefaultRules is the bundled rule set used when no rules have been
// persisted.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:          "curfew-violations",
			Name:        "Curfew violations",
			Description: "Any operation during the 9 PM to 7 AM voluntary curfew.",
			Trigger:     CurfewTrigger{},
			Priority:    Warning,
			Enabled:     true,
			CreatedAt:   DefaultCreatedAt,
		},
		{
			ID:          "loud-operations",
			Name:        "Loud operations",
			Description: "Operations with an estimated noise level of 85 dB or more.",
			Trigger:     NoiseTrigger{MinDB: 85},
			Priority:    Warning,
			Enabled:     true,
			CreatedAt:   DefaultCreatedAt,
		},
		{
			ID:          "high-species-impact",
			Name:        "High species impact",
			Description: "Biodiversity violations rated high or critical.",
			Trigger:     SpeciesImpactTrigger{MinSeverity: severity.High},
			Priority:    Critical,
			Enabled:     true,
			CreatedAt:   DefaultCreatedAt,
		},
		{
			ID:          "hourly-volume",
			Name:        "High hourly volume",
			Description: "More than 8 operations in a single hour.",
			Trigger:     HighVolumeTrigger{MaxFlightsPerHour: 8},
			Priority:    Info,
			Enabled:     true,
			CreatedAt:   DefaultCreatedAt,
		},
		{
			ID:          "repeat-offenders",
			Name:        "Repeat offenders",
			Description: "Operators with 3 or more violations within 30 days.",
			Trigger:     RepeatOffenderTrigger{MinViolations: 3, PeriodDays: 30},
			Priority:    Critical,
			Enabled:     true,
			CreatedAt:   DefaultCreatedAt,
		},
	}
}

// LoadRules reads a rule list from YAML or JSON. The document may be a bare
// list or a mapping with a "rules" key.
func LoadRules(r io.Reader) ([]Rule, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parse rules: %w", err)
	}

	node := listNode(&doc, "rules")
	if node == nil {
		return nil, fmt.Errorf("parse rules: expected a list or a rules key")
	}

	var generic any
	if err := node.Decode(&generic); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	data, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}

	var rules []Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	return rules, nil
}

// listNode returns the sequence node of a document that is either a bare
// sequence or a mapping holding the sequence under key.
func listNode(doc *yaml.Node, key string) *yaml.Node {
	n := doc
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	switch n.Kind {
	case yaml.SequenceNode:
		return n
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Value == key && n.Content[i+1].Kind == yaml.SequenceNode {
				return n.Content[i+1]
			}
		}
	}
	return nil
}
