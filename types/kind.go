package types

import "strings"

// KindDefinition declares how one resource kind is listed, inspected and remediated.
type KindDefinition struct {
	Kind  ResourceKind
	Label string
	// CLI noun path, e.g. ["storage", "account"].
	Command []string
	// Resource Graph type used when identities are listed through the graph.
	ArmType   string
	FieldPath string
	// SkipDetail emits N/A for every identity without issuing a show call.
	SkipDetail         bool
	ExposedValues      []string
	RemediationCommand string
}

// IsExposed reports whether the raw exposure value is one of the kind's exposed values.
func (definition KindDefinition) IsExposed(exposureSetting string) bool {
	for _, value := range definition.ExposedValues {
		if strings.EqualFold(value, exposureSetting) {
			return true
		}
	}
	return false
}

func (definition KindDefinition) DisplayLabel() string {
	if definition.Label != "" {
		return definition.Label
	}
	return string(definition.Kind)
}

// KindOverride is the config-file form of a KindDefinition; nil fields keep the default.
type KindOverride struct {
	Kind               string
	Label              *string
	Command            []string
	ArmType            *string
	FieldPath          *string
	SkipDetail         *bool
	ExposedValues      []string
	RemediationCommand *string
}
