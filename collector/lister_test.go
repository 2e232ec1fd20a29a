package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure/exposure-reporter/types"
)

func TestCliIdentityLister_ListsIdentities(t *testing.T) {
	cli := &mockCliClient{Outputs: map[string]string{
		"storage account list": `[{"name":"acct1","resourceGroup":"rg1"},{"name":"acct2","resourceGroup":"rg2"}]`,
	}}
	lister := NewCliIdentityLister(cli, newTestLogger())

	identities, err := lister.ListIdentities(context.Background(), definitionFor(types.ResourceKindStorageAccount), testSubscription)

	require.NoError(t, err)
	assert.Equal(t, []types.ResourceIdentity{{Name: "acct1", ResourceGroup: "rg1"}, {Name: "acct2", ResourceGroup: "rg2"}}, identities)
	assert.Equal(t, []string{
		"storage account list --query [].{name:name,resourceGroup:resourceGroup} --subscription d8eaebd9-e25f-48b1-b7fe-95d296133cfa -o json",
	}, cli.callsWithPrefix("storage account list"))
}

func TestCliIdentityLister_NullOutputIsEmpty(t *testing.T) {
	lister := NewCliIdentityLister(&mockCliClient{}, newTestLogger())

	identities, err := lister.ListIdentities(context.Background(), definitionFor(types.ResourceKindCache), testSubscription)

	require.NoError(t, err)
	assert.NotNil(t, identities)
	assert.Empty(t, identities)
}

func TestCliIdentityLister_Errors(t *testing.T) {
	lister := NewCliIdentityLister(&mockCliClient{Errors: map[string]error{"redis list": errors.New("exit 1")}}, newTestLogger())
	_, err := lister.ListIdentities(context.Background(), definitionFor(types.ResourceKindCache), testSubscription)
	assert.Error(t, err)

	lister = NewCliIdentityLister(&mockCliClient{Outputs: map[string]string{"redis list": `{"name":"not-a-list"}`}}, newTestLogger())
	_, err = lister.ListIdentities(context.Background(), definitionFor(types.ResourceKindCache), testSubscription)
	assert.Error(t, err)
}
