package collector

import (
	"fmt"
	"strings"

	"github.com/azure/exposure-reporter/types"
)

func DefaultKindDefinitions() []types.KindDefinition {
	return []types.KindDefinition{
		{
			Kind:               types.ResourceKindStorageAccount,
			Label:              "Storage Account",
			Command:            []string{"storage", "account"},
			ArmType:            "Microsoft.Storage/storageAccounts",
			FieldPath:          ".networkRuleSet.defaultAction",
			ExposedValues:      []string{"Allow"},
			RemediationCommand: "az storage account update --name {name} --resource-group {resourceGroup} --subscription {subscriptionId} --default-action Deny",
		},
		{
			Kind:               types.ResourceKindKeyVault,
			Label:              "Key Vault",
			Command:            []string{"keyvault"},
			ArmType:            "Microsoft.KeyVault/vaults",
			FieldPath:          ".properties.publicNetworkAccess",
			ExposedValues:      []string{"Enabled", "Allow"},
			RemediationCommand: "az keyvault update --name {name} --resource-group {resourceGroup} --subscription {subscriptionId} --public-network-access Disabled",
		},
		{
			Kind:               types.ResourceKindFunctionApp,
			Label:              "Function App",
			Command:            []string{"functionapp"},
			ArmType:            "Microsoft.Web/sites",
			FieldPath:          ".publicNetworkAccess",
			ExposedValues:      []string{"Enabled"},
			RemediationCommand: "az functionapp update --name {name} --resource-group {resourceGroup} --subscription {subscriptionId} --set publicNetworkAccess=Disabled",
		},
		{
			Kind:               types.ResourceKindCache,
			Label:              "Redis Cache",
			Command:            []string{"redis"},
			ArmType:            "Microsoft.Cache/Redis",
			FieldPath:          ".enableNonSslPort",
			ExposedValues:      []string{"true"},
			RemediationCommand: "az redis update --name {name} --resource-group {resourceGroup} --subscription {subscriptionId} --set enableNonSslPort=false",
		},
	}
}

// MergeKindDefinitions applies overrides on top of definitions. An override
// naming an unknown kind appends a new definition, which must then be complete.
func MergeKindDefinitions(definitions []types.KindDefinition, overrides []types.KindOverride) ([]types.KindDefinition, error) {
	merged := make([]types.KindDefinition, len(definitions))
	copy(merged, definitions)

	for _, override := range overrides {
		if override.Kind == "" {
			return nil, fmt.Errorf("kind override without a kind name")
		}
		index := indexOfKind(merged, override.Kind)
		if index < 0 {
			merged = append(merged, types.KindDefinition{Kind: types.ResourceKind(override.Kind)})
			index = len(merged) - 1
		}
		applyOverride(&merged[index], override)
	}

	for _, definition := range merged {
		if err := ValidateKindDefinition(definition); err != nil {
			return nil, err
		}
	}
	return merged, nil
}

// SelectKindDefinitions keeps the named kinds in the order they were first requested.
// No names selects every definition.
func SelectKindDefinitions(definitions []types.KindDefinition, kinds []string) ([]types.KindDefinition, error) {
	if len(kinds) == 0 {
		return definitions, nil
	}
	selected := []types.KindDefinition{}
	seen := map[int]bool{}
	for _, kind := range kinds {
		index := indexOfKind(definitions, kind)
		if index < 0 {
			return nil, fmt.Errorf("unknown resource kind %q", kind)
		}
		if seen[index] {
			continue
		}
		seen[index] = true
		selected = append(selected, definitions[index])
	}
	return selected, nil
}

func ValidateKindDefinition(definition types.KindDefinition) error {
	if len(definition.Command) == 0 {
		return fmt.Errorf("kind %s has no command", definition.Kind)
	}
	if !definition.SkipDetail {
		if _, err := NewFieldPath(definition.FieldPath); err != nil {
			return fmt.Errorf("kind %s: %w", definition.Kind, err)
		}
	}
	return nil
}

func indexOfKind(definitions []types.KindDefinition, kind string) int {
	for i, definition := range definitions {
		if strings.EqualFold(string(definition.Kind), kind) {
			return i
		}
	}
	return -1
}

func applyOverride(definition *types.KindDefinition, override types.KindOverride) {
	if override.Label != nil {
		definition.Label = *override.Label
	}
	if len(override.Command) > 0 {
		definition.Command = override.Command
	}
	if override.ArmType != nil {
		definition.ArmType = *override.ArmType
	}
	if override.FieldPath != nil {
		definition.FieldPath = *override.FieldPath
	}
	if override.SkipDetail != nil {
		definition.SkipDetail = *override.SkipDetail
	}
	if len(override.ExposedValues) > 0 {
		definition.ExposedValues = override.ExposedValues
	}
	if override.RemediationCommand != nil {
		definition.RemediationCommand = *override.RemediationCommand
	}
}
