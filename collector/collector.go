package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/azure/exposure-reporter/azcli"
	"github.com/azure/exposure-reporter/types"
)

const DefaultWorkers = 4

type ICollectorClient interface {
	Collect(ctx context.Context, definition types.KindDefinition, subscription types.SubscriptionContext) ([]types.ResourceStatusRow, error)
	CollectAll(ctx context.Context, definitions []types.KindDefinition, subscription types.SubscriptionContext) []types.ReportSection
}

type CollectorClient struct {
	CliClient        azcli.ICliClient
	IdentityLister   IIdentityLister
	Workers          int
	FailedItemPolicy types.FailedItemPolicy
	Logger           *logrus.Logger
}

func NewCollectorClient(cliClient azcli.ICliClient, identityLister IIdentityLister, workers int, failedItemPolicy types.FailedItemPolicy, logger *logrus.Logger) *CollectorClient {
	if workers < 1 {
		workers = DefaultWorkers
	}
	if failedItemPolicy == "" {
		failedItemPolicy = types.FailedItemPolicyOmit
	}
	return &CollectorClient{
		CliClient:        cliClient,
		IdentityLister:   identityLister,
		Workers:          workers,
		FailedItemPolicy: failedItemPolicy,
		Logger:           logger,
	}
}

// CollectAll collects every kind in order. Each kind always yields a section,
// a failed kind carries its failure message and no rows.
func (collectorClient *CollectorClient) CollectAll(ctx context.Context, definitions []types.KindDefinition, subscription types.SubscriptionContext) []types.ReportSection {
	sections := make([]types.ReportSection, 0, len(definitions))

	for _, definition := range definitions {
		section := types.ReportSection{
			Kind:  definition.Kind,
			Label: definition.DisplayLabel(),
			Rows:  []types.ResourceStatusRow{},
		}

		collectorClient.Logger.Infof("Collecting %s resources", section.Label)
		rows, err := collectorClient.Collect(ctx, definition, subscription)
		if rows != nil {
			section.Rows = rows
		}

		var collectionError *CollectionError
		if errors.As(err, &collectionError) && !collectionError.Partial() {
			collectorClient.Logger.Errorf("Error collecting %s resources: %v", section.Label, collectionError.Cause)
			section.Failure = collectionError.Cause.Error()
		} else if err != nil {
			collectorClient.Logger.Warn(err)
		}

		sections = append(sections, section)
	}

	return sections
}

func (collectorClient *CollectorClient) Collect(ctx context.Context, definition types.KindDefinition, subscription types.SubscriptionContext) ([]types.ResourceStatusRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, &CollectionError{Kind: definition.Kind, Cause: err}
	}

	var fieldPath *FieldPath
	if !definition.SkipDetail {
		var err error
		fieldPath, err = NewFieldPath(definition.FieldPath)
		if err != nil {
			return nil, &CollectionError{Kind: definition.Kind, Cause: err}
		}
	}

	identities, err := collectorClient.IdentityLister.ListIdentities(ctx, definition, subscription)
	if err != nil {
		return nil, &CollectionError{Kind: definition.Kind, Cause: err}
	}
	identities = collectorClient.validIdentities(definition, identities)
	collectorClient.Logger.Debugf("Found %d %s resources", len(identities), definition.DisplayLabel())

	rows := []types.ResourceStatusRow{}

	if definition.SkipDetail {
		for _, identity := range identities {
			rows = append(rows, newRow(definition, identity, types.ExposureNotApplicable))
		}
		return rows, nil
	}

	type itemResult struct {
		row types.ResourceStatusRow
		err error
	}
	results := make([]itemResult, len(identities))

	group := new(errgroup.Group)
	group.SetLimit(collectorClient.Workers)
	for i, identity := range identities {
		group.Go(func() error {
			row, err := collectorClient.collectItem(ctx, definition, fieldPath, identity, subscription)
			results[i] = itemResult{row: row, err: err}
			return nil
		})
	}
	_ = group.Wait()

	itemFailures := []ItemFailure{}
	for i, result := range results {
		if result.err == nil {
			rows = append(rows, result.row)
			continue
		}

		identity := identities[i]
		collectorClient.Logger.Warnf("Skipping %s %s in resource group %s: %v", definition.DisplayLabel(), identity.Name, identity.ResourceGroup, result.err)
		itemFailures = append(itemFailures, ItemFailure{Identity: identity, Err: result.err})
		if collectorClient.FailedItemPolicy == types.FailedItemPolicyError {
			rows = append(rows, newRow(definition, identity, types.ExposureError))
		}
	}

	// A kind cut short by cancellation is incomplete, not partial.
	if err := ctx.Err(); err != nil && len(itemFailures) > 0 {
		return rows, &CollectionError{Kind: definition.Kind, Cause: fmt.Errorf("collection interrupted: %w", err), ItemFailures: itemFailures}
	}
	if len(itemFailures) > 0 {
		return rows, &CollectionError{Kind: definition.Kind, ItemFailures: itemFailures}
	}
	return rows, nil
}

func (collectorClient *CollectorClient) collectItem(ctx context.Context, definition types.KindDefinition, fieldPath *FieldPath, identity types.ResourceIdentity, subscription types.SubscriptionContext) (types.ResourceStatusRow, error) {
	if err := ctx.Err(); err != nil {
		return types.ResourceStatusRow{}, err
	}

	args := append([]string{}, definition.Command...)
	args = append(args, "show", "--name", identity.Name, "--resource-group", identity.ResourceGroup, "--subscription", subscription.SubscriptionID, "-o", "json")

	result, err := collectorClient.CliClient.Execute(ctx, args)
	if err != nil {
		return types.ResourceStatusRow{}, err
	}

	var document any
	if err := json.Unmarshal(result.Output, &document); err != nil {
		return types.ResourceStatusRow{}, fmt.Errorf("decoding %s %s: %w", definition.Kind, identity.Name, err)
	}

	exposureSetting := fieldPath.Extract(ctx, document)
	collectorClient.Logger.Tracef("%s %s/%s %s = %s", definition.Kind, identity.ResourceGroup, identity.Name, fieldPath.Expression, exposureSetting)

	return newRow(definition, identity, exposureSetting), nil
}

func (collectorClient *CollectorClient) validIdentities(definition types.KindDefinition, identities []types.ResourceIdentity) []types.ResourceIdentity {
	valid := make([]types.ResourceIdentity, 0, len(identities))
	for _, identity := range identities {
		if identity.Name == "" || identity.ResourceGroup == "" {
			collectorClient.Logger.Warnf("Ignoring %s entry without a name or resource group: %+v", definition.DisplayLabel(), identity)
			continue
		}
		valid = append(valid, identity)
	}
	return valid
}

func newRow(definition types.KindDefinition, identity types.ResourceIdentity, exposureSetting string) types.ResourceStatusRow {
	return types.ResourceStatusRow{
		Kind:            definition.Kind,
		Name:            identity.Name,
		ResourceGroup:   identity.ResourceGroup,
		ExposureSetting: exposureSetting,
	}
}
