package collector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/azure/exposure-reporter/azcli"
	"github.com/azure/exposure-reporter/types"
)

const identityProjection = "[].{name:name,resourceGroup:resourceGroup}"

type IIdentityLister interface {
	ListIdentities(ctx context.Context, definition types.KindDefinition, subscription types.SubscriptionContext) ([]types.ResourceIdentity, error)
}

// CliIdentityLister lists identities with `az <kind> list`.
type CliIdentityLister struct {
	CliClient azcli.ICliClient
	Logger    *logrus.Logger
}

func NewCliIdentityLister(cliClient azcli.ICliClient, logger *logrus.Logger) *CliIdentityLister {
	return &CliIdentityLister{
		CliClient: cliClient,
		Logger:    logger,
	}
}

func (lister *CliIdentityLister) ListIdentities(ctx context.Context, definition types.KindDefinition, subscription types.SubscriptionContext) ([]types.ResourceIdentity, error) {
	args := append([]string{}, definition.Command...)
	args = append(args, "list", "--query", identityProjection, "--subscription", subscription.SubscriptionID, "-o", "json")

	result, err := lister.CliClient.Execute(ctx, args)
	if err != nil {
		return nil, err
	}

	identities := []types.ResourceIdentity{}
	if err := json.Unmarshal(result.Output, &identities); err != nil {
		return nil, fmt.Errorf("decoding %s list: %w", definition.Kind, err)
	}
	if identities == nil {
		identities = []types.ResourceIdentity{}
	}
	return identities, nil
}
