package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/azure/exposure-reporter/collector"
	"github.com/azure/exposure-reporter/dispatch"
	"github.com/azure/exposure-reporter/filepathparser"
	"github.com/azure/exposure-reporter/types"
)

const kindDefinitionsKey = "kindDefinitions"

type runSettings struct {
	Subscription     types.SubscriptionContext
	Format           types.ReportFormat
	Definitions      []types.KindDefinition
	AzPath           string
	CommandTimeout   time.Duration
	Workers          int
	FailedItemPolicy types.FailedItemPolicy
	IdentitySource   types.IdentitySource
	Cloud            string
	WorkingFolder    string
	JsonOutput       string
	CsvOutput        string
	RemediationFile  string
	EmailEnabled     bool
	SendGridApiKey   string
	SenderEmail      string
	RecipientEmail   string
	Subject          string
}

// loadRunSettings reads and validates everything the run command needs.
// Any error here is an invalid invocation.
func loadRunSettings(v *viper.Viper) (*runSettings, error) {
	settings := &runSettings{
		Subscription:     types.SubscriptionContext{SubscriptionID: v.GetString("subscription-id")},
		AzPath:           v.GetString("az-path"),
		CommandTimeout:   v.GetDuration("command-timeout"),
		Workers:          v.GetInt("workers"),
		FailedItemPolicy: types.FailedItemPolicy(v.GetString("failed-item-policy")),
		IdentitySource:   types.IdentitySource(v.GetString("identity-source")),
		Cloud:            v.GetString("cloud"),
		JsonOutput:       v.GetString("json-output"),
		CsvOutput:        v.GetString("csv-output"),
		RemediationFile:  v.GetString("remediation-file"),
		SendGridApiKey:   v.GetString("sendgrid-api-key"),
		SenderEmail:      v.GetString("sender-email"),
		RecipientEmail:   v.GetString("recipient-email"),
		Subject:          v.GetString("subject"),
	}

	if settings.Subscription.SubscriptionID == "" {
		return nil, fmt.Errorf("--subscription-id is required")
	}
	if err := settings.Subscription.Validate(); err != nil {
		return nil, err
	}

	format, err := types.ParseReportFormat(v.GetString("format"))
	if err != nil {
		return nil, err
	}
	settings.Format = format

	if settings.Workers < 1 {
		return nil, fmt.Errorf("--workers must be at least 1, got %d", settings.Workers)
	}
	if settings.CommandTimeout < 0 {
		return nil, fmt.Errorf("--command-timeout must not be negative")
	}
	if !settings.FailedItemPolicy.IsValidFailedItemPolicy() {
		return nil, fmt.Errorf("--failed-item-policy must be omit or error, got %q", settings.FailedItemPolicy)
	}
	if !settings.IdentitySource.IsValidIdentitySource() {
		return nil, fmt.Errorf("--identity-source must be cli or graph, got %q", settings.IdentitySource)
	}

	settings.EmailEnabled = settings.SendGridApiKey != "" || settings.SenderEmail != "" || settings.RecipientEmail != ""
	if settings.EmailEnabled {
		if settings.SendGridApiKey == "" || settings.SenderEmail == "" || settings.RecipientEmail == "" {
			return nil, fmt.Errorf("--sendgrid-api-key, --sender-email and --recipient-email are all required to email the report")
		}
		if err := dispatch.ValidateAddress(settings.SenderEmail); err != nil {
			return nil, err
		}
		if err := dispatch.ValidateAddress(settings.RecipientEmail); err != nil {
			return nil, err
		}
	}

	workingFolder, err := filepathparser.ParsePath(v.GetString("working-folder-path"))
	if err != nil {
		return nil, fmt.Errorf("error getting working folder path: %w", err)
	}
	settings.WorkingFolder = workingFolder

	overrides := []types.KindOverride{}
	if v.IsSet(kindDefinitionsKey) {
		overrides, err = kindOverridesFromConfig(v.Get(kindDefinitionsKey))
		if err != nil {
			return nil, err
		}
	}
	definitions, err := collector.MergeKindDefinitions(collector.DefaultKindDefinitions(), overrides)
	if err != nil {
		return nil, err
	}
	settings.Definitions, err = collector.SelectKindDefinitions(definitions, selectedKinds(v.GetStringSlice("kinds")))
	if err != nil {
		return nil, err
	}

	return settings, nil
}

// selectedKinds accepts both repeated values and a comma-separated
// EXPOSURE_KINDS string.
func selectedKinds(values []string) []string {
	kinds := []string{}
	for _, value := range values {
		for _, kind := range strings.Split(value, ",") {
			if kind = strings.TrimSpace(kind); kind != "" {
				kinds = append(kinds, kind)
			}
		}
	}
	return kinds
}

// kindOverridesFromConfig decodes the kindDefinitions list of the config file.
// Keys are matched case-insensitively, so fieldPath and fieldpath are equivalent.
func kindOverridesFromConfig(raw any) ([]types.KindOverride, error) {
	rawKinds, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("kindDefinitions must be a list, got %T", raw)
	}

	overrides := []types.KindOverride{}
	for i, rawKind := range rawKinds {
		rawMap, ok := rawKind.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("kindDefinitions[%d] must be a map, got %T", i, rawKind)
		}
		kindMap := map[string]any{}
		for key, value := range rawMap {
			kindMap[strings.ToLower(key)] = value
		}

		override := types.KindOverride{}
		var err error
		if override.Kind, err = requiredString(kindMap, "kind", i); err != nil {
			return nil, err
		}
		if override.Label, err = optionalString(kindMap, "label", i); err != nil {
			return nil, err
		}
		if override.ArmType, err = optionalString(kindMap, "armtype", i); err != nil {
			return nil, err
		}
		if override.FieldPath, err = optionalString(kindMap, "fieldpath", i); err != nil {
			return nil, err
		}
		if override.RemediationCommand, err = optionalString(kindMap, "remediationcommand", i); err != nil {
			return nil, err
		}
		if override.Command, err = optionalStringList(kindMap, "command", i); err != nil {
			return nil, err
		}
		if override.ExposedValues, err = optionalStringList(kindMap, "exposedvalues", i); err != nil {
			return nil, err
		}
		if rawSkipDetail, ok := kindMap["skipdetail"]; ok {
			skipDetail, ok := rawSkipDetail.(bool)
			if !ok {
				return nil, fmt.Errorf("kindDefinitions[%d].skipDetail must be a boolean", i)
			}
			override.SkipDetail = &skipDetail
		}

		overrides = append(overrides, override)
	}
	return overrides, nil
}

func requiredString(kindMap map[string]any, key string, index int) (string, error) {
	value, err := optionalString(kindMap, key, index)
	if err != nil {
		return "", err
	}
	if value == nil || *value == "" {
		return "", fmt.Errorf("kindDefinitions[%d].%s is required", index, key)
	}
	return *value, nil
}

func optionalString(kindMap map[string]any, key string, index int) (*string, error) {
	rawValue, ok := kindMap[key]
	if !ok {
		return nil, nil
	}
	value, ok := rawValue.(string)
	if !ok {
		return nil, fmt.Errorf("kindDefinitions[%d].%s must be a string, got %T", index, key, rawValue)
	}
	return &value, nil
}

func optionalStringList(kindMap map[string]any, key string, index int) ([]string, error) {
	rawValue, ok := kindMap[key]
	if !ok {
		return nil, nil
	}
	rawList, ok := rawValue.([]any)
	if !ok {
		return nil, fmt.Errorf("kindDefinitions[%d].%s must be a list, got %T", index, key, rawValue)
	}
	values := []string{}
	for _, rawItem := range rawList {
		switch item := rawItem.(type) {
		case string:
			values = append(values, item)
		case bool, int, int64, float64:
			// exposedValues: [true] decodes as a YAML boolean
			values = append(values, fmt.Sprint(item))
		default:
			return nil, fmt.Errorf("kindDefinitions[%d].%s must only contain scalars, got %T", index, key, rawItem)
		}
	}
	return values, nil
}
