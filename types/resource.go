package types

import (
	"fmt"
	"regexp"
)

type ResourceKind string

const (
	ResourceKindStorageAccount ResourceKind = "StorageAccount"
	ResourceKindKeyVault       ResourceKind = "KeyVault"
	ResourceKindFunctionApp    ResourceKind = "FunctionApp"
	ResourceKindCache          ResourceKind = "Cache"
)

const (
	ExposureUnknown       = "Unknown"
	ExposureNotApplicable = "N/A"
	ExposureError         = "Error"
)

type ResourceIdentity struct {
	Name          string `json:"name"`
	ResourceGroup string `json:"resourceGroup"`
}

type ResourceStatusRow struct {
	Kind            ResourceKind `json:"kind"`
	Name            string       `json:"name"`
	ResourceGroup   string       `json:"resourceGroup"`
	ExposureSetting string       `json:"exposureSetting"`
}

type SubscriptionContext struct {
	SubscriptionID string
}

var guidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// Validate rejects anything that is not a non-empty subscription GUID.
func (subscription SubscriptionContext) Validate() error {
	if subscription.SubscriptionID == "00000000-0000-0000-0000-000000000000" || !guidRegex.MatchString(subscription.SubscriptionID) {
		return fmt.Errorf("invalid subscription ID: %q", subscription.SubscriptionID)
	}
	return nil
}
