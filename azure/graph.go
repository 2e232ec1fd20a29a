package azure

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resourcegraph/armresourcegraph"
	"github.com/sirupsen/logrus"

	"github.com/azure/exposure-reporter/types"
)

type IResourcesClient interface {
	Resources(ctx context.Context, query armresourcegraph.QueryRequest, options *armresourcegraph.ClientResourcesOptions) (armresourcegraph.ClientResourcesResponse, error)
}

// ResourceGraphClient lists resource identities with Azure Resource Graph
// instead of one `az <kind> list` call per kind.
type ResourceGraphClient struct {
	Cloud           cloud.Configuration
	ResourcesClient IResourcesClient
	Logger          *logrus.Logger
}

var armTypeRegex = regexp.MustCompile(`^[A-Za-z0-9.]+(/[A-Za-z0-9.]+)+$`)

func NewResourceGraphClient(cloudName string, logger *logrus.Logger) (*ResourceGraphClient, error) {
	cloudConfiguration, err := ParseCloud(cloudName)
	if err != nil {
		return nil, err
	}
	return &ResourceGraphClient{
		Cloud:  cloudConfiguration,
		Logger: logger,
	}, nil
}

func ParseCloud(cloudName string) (cloud.Configuration, error) {
	switch strings.ToLower(cloudName) {
	case "", "azurepublic", "azurecloud":
		return cloud.AzurePublic, nil
	case "azurechina", "azurechinacloud":
		return cloud.AzureChina, nil
	case "azureusgovernment", "azuregovernment":
		return cloud.AzureGovernment, nil
	default:
		return cloud.Configuration{}, fmt.Errorf("unknown cloud %q", cloudName)
	}
}

func (graph *ResourceGraphClient) ListIdentities(ctx context.Context, definition types.KindDefinition, subscription types.SubscriptionContext) ([]types.ResourceIdentity, error) {
	if !armTypeRegex.MatchString(definition.ArmType) {
		return nil, fmt.Errorf("kind %s has no valid resource type for graph queries: %q", definition.Kind, definition.ArmType)
	}

	resourcesClient, err := graph.getResourcesClient()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("resources | where type =~ '%s' | project name, resourceGroup | order by resourceGroup asc, name asc", definition.ArmType)
	graph.Logger.Infof("Running Resource Graph Query for %s", definition.DisplayLabel())
	graph.Logger.Tracef("Query: %s", query)

	queryRequest := armresourcegraph.QueryRequest{
		Query: to.Ptr(query),
		Options: &armresourcegraph.QueryRequestOptions{
			ResultFormat: to.Ptr(armresourcegraph.ResultFormatObjectArray),
		},
		Subscriptions: []*string{to.Ptr(subscription.SubscriptionID)},
	}

	identities := []types.ResourceIdentity{}
	for {
		res, err := resourcesClient.Resources(ctx, queryRequest, nil)
		if err != nil {
			return nil, fmt.Errorf("resource graph query for %s: %w", definition.Kind, err)
		}

		results, ok := res.Data.([]any)
		if !ok && res.Data != nil {
			return nil, fmt.Errorf("resource graph query for %s returned %T, expected an array", definition.Kind, res.Data)
		}

		for _, result := range results {
			resource, ok := result.(map[string]any)
			if !ok {
				graph.Logger.Debugf("Skipping unexpected Resource Graph row: %v", result)
				continue
			}
			name, _ := resource["name"].(string)
			resourceGroup, _ := resource["resourceGroup"].(string)
			graph.Logger.Tracef("Adding Resource: %s/%s", resourceGroup, name)
			identities = append(identities, types.ResourceIdentity{Name: name, ResourceGroup: resourceGroup})
		}

		if res.SkipToken == nil || *res.SkipToken == "" {
			break
		}
		queryRequest.Options.SkipToken = res.SkipToken
	}

	return identities, nil
}

func (graph *ResourceGraphClient) getResourcesClient() (IResourcesClient, error) {
	if graph.ResourcesClient != nil {
		return graph.ResourcesClient, nil
	}

	clientOptions := azcore.ClientOptions{Cloud: graph.Cloud}
	cred, err := azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{ClientOptions: clientOptions})
	if err != nil {
		return nil, fmt.Errorf("creating azure credential: %w", err)
	}

	resourcesClient, err := armresourcegraph.NewClient(cred, &arm.ClientOptions{ClientOptions: clientOptions})
	if err != nil {
		return nil, fmt.Errorf("creating resource graph client: %w", err)
	}

	graph.ResourcesClient = resourcesClient
	return resourcesClient, nil
}
