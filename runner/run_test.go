package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure/exposure-reporter/azcli"
	"github.com/azure/exposure-reporter/collector"
	"github.com/azure/exposure-reporter/dispatch"
	"github.com/azure/exposure-reporter/types"
)

type mockCliClient struct {
	Outputs          map[string]string
	SubscriptionErr  error
	SubscriptionSets int
}

func (m *mockCliClient) Execute(ctx context.Context, args []string) (*azcli.Result, error) {
	command := strings.Join(args, " ")
	for prefix, output := range m.Outputs {
		if strings.HasPrefix(command, prefix) {
			if output == "FAIL" {
				return nil, &azcli.ExecutionError{Args: args, Reason: azcli.ReasonExitStatus, ExitCode: 1, Stderr: "ResourceNotFound"}
			}
			return &azcli.Result{Output: json.RawMessage(output)}, nil
		}
	}
	return &azcli.Result{Output: json.RawMessage("null")}, nil
}

func (m *mockCliClient) SetSubscription(ctx context.Context, subscription types.SubscriptionContext) error {
	m.SubscriptionSets++
	return m.SubscriptionErr
}

type mockCollectorClient struct {
	Sections []types.ReportSection
	Called   bool
}

func (m *mockCollectorClient) Collect(ctx context.Context, definition types.KindDefinition, subscription types.SubscriptionContext) ([]types.ResourceStatusRow, error) {
	return nil, nil
}

func (m *mockCollectorClient) CollectAll(ctx context.Context, definitions []types.KindDefinition, subscription types.SubscriptionContext) []types.ReportSection {
	m.Called = true
	return m.Sections
}

type mockJsonClient struct {
	Value    any
	FileName string
	Err      error
}

func (m *mockJsonClient) Export(value any, fileName string) error {
	m.Value = value
	m.FileName = fileName
	return m.Err
}

type mockRowCsvClient struct {
	Called bool
}

func (m *mockRowCsvClient) Export(sections []types.ReportSection, fileName string) error {
	m.Called = true
	return nil
}

type mockRemediationClient struct {
	Called bool
}

func (m *mockRemediationClient) WriteRemediationBlocks(sections []types.ReportSection, definitions []types.KindDefinition, subscription types.SubscriptionContext, fileName string) (int, error) {
	m.Called = true
	return 0, nil
}

type mockDispatcher struct {
	Err       error
	Content   string
	Subject   string
	Recipient string
	Called    bool
}

func (m *mockDispatcher) Dispatch(ctx context.Context, content string, subject string, recipient string) error {
	m.Called = true
	m.Content = content
	m.Subject = subject
	m.Recipient = recipient
	return m.Err
}

var testSubscription = types.SubscriptionContext{SubscriptionID: "d8eaebd9-e25f-48b1-b7fe-95d296133cfa"}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testSections() []types.ReportSection {
	return []types.ReportSection{
		{Kind: types.ResourceKindStorageAccount, Label: "Storage Account", Rows: []types.ResourceStatusRow{
			{Kind: types.ResourceKindStorageAccount, Name: "acct1", ResourceGroup: "rg1", ExposureSetting: "Allow"},
		}},
		{Kind: types.ResourceKindKeyVault, Label: "Key Vault", Rows: []types.ResourceStatusRow{}},
	}
}

func newTestRunClient(cliClient azcli.ICliClient, collectorClient collector.ICollectorClient, outputs Outputs, email Email, output *bytes.Buffer) (*RunClient, *mockJsonClient, *mockRowCsvClient, *mockRemediationClient) {
	jsonClient := &mockJsonClient{}
	csvClient := &mockRowCsvClient{}
	remediationClient := &mockRemediationClient{}
	runClient := NewRunClient(testSubscription, collector.DefaultKindDefinitions(), types.ReportFormatText, outputs, email, cliClient, collectorClient, jsonClient, csvClient, remediationClient, output, newTestLogger())
	return runClient, jsonClient, csvClient, remediationClient
}

func TestRun_PrintsReportWithoutEmail(t *testing.T) {
	output := &bytes.Buffer{}
	cli := &mockCliClient{}
	collectorClient := &mockCollectorClient{Sections: testSections()}
	runClient, jsonClient, csvClient, remediationClient := newTestRunClient(cli, collectorClient, Outputs{}, Email{}, output)

	err := runClient.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, cli.SubscriptionSets)
	assert.True(t, collectorClient.Called)
	assert.Contains(t, output.String(), "Storage Account: acct1, Resource Group: rg1, Public Access: Allow")
	assert.Contains(t, output.String(), "No Key Vault resources found.")
	assert.Nil(t, jsonClient.Value)
	assert.False(t, csvClient.Called)
	assert.False(t, remediationClient.Called)
}

func TestRun_SubscriptionFailureIsNotFatal(t *testing.T) {
	output := &bytes.Buffer{}
	cli := &mockCliClient{SubscriptionErr: errors.New("subscription not found")}
	collectorClient := &mockCollectorClient{Sections: testSections()}
	runClient, _, _, _ := newTestRunClient(cli, collectorClient, Outputs{}, Email{}, output)

	err := runClient.Run(context.Background())

	require.NoError(t, err)
	assert.True(t, collectorClient.Called)
	assert.NotEmpty(t, output.String())
}

func TestRun_DispatchesReport(t *testing.T) {
	output := &bytes.Buffer{}
	dispatcher := &mockDispatcher{}
	email := Email{Dispatcher: dispatcher, Subject: "Azure Public Access Report", Recipient: "ops@example.com"}
	runClient, _, _, _ := newTestRunClient(&mockCliClient{}, &mockCollectorClient{Sections: testSections()}, Outputs{}, email, output)

	err := runClient.Run(context.Background())

	require.NoError(t, err)
	assert.True(t, dispatcher.Called)
	assert.Equal(t, "ops@example.com", dispatcher.Recipient)
	assert.Equal(t, "Azure Public Access Report", dispatcher.Subject)
	assert.Contains(t, dispatcher.Content, "acct1")
	assert.Empty(t, output.String())
}

func TestRun_DispatchFailurePrintsReport(t *testing.T) {
	output := &bytes.Buffer{}
	dispatcher := &mockDispatcher{Err: &dispatch.DispatchError{Recipient: "ops@example.com", StatusCode: 401, Message: "unauthorized"}}
	email := Email{Dispatcher: dispatcher, Subject: "subject", Recipient: "ops@example.com"}
	runClient, _, _, _ := newTestRunClient(&mockCliClient{}, &mockCollectorClient{Sections: testSections()}, Outputs{}, email, output)

	err := runClient.Run(context.Background())

	require.NoError(t, err)
	assert.True(t, dispatcher.Called)
	assert.Equal(t, dispatcher.Content, output.String())
	assert.Contains(t, output.String(), "acct1")
}

func TestRun_WritesRequestedOutputs(t *testing.T) {
	output := &bytes.Buffer{}
	outputs := Outputs{JsonFileName: "rows.json", CsvFileName: "rows.csv", RemediationFileName: "remediation.tf"}
	runClient, jsonClient, csvClient, remediationClient := newTestRunClient(&mockCliClient{}, &mockCollectorClient{Sections: testSections()}, outputs, Email{}, output)
	jsonClient.Err = errors.New("disk full")

	err := runClient.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "rows.json", jsonClient.FileName)
	assert.Equal(t, []types.ResourceStatusRow{
		{Kind: types.ResourceKindStorageAccount, Name: "acct1", ResourceGroup: "rg1", ExposureSetting: "Allow"},
	}, jsonClient.Value)
	assert.True(t, csvClient.Called)
	assert.True(t, remediationClient.Called)
	assert.NotEmpty(t, output.String())
}

func TestRun_PartialFailureEndToEnd(t *testing.T) {
	cli := &mockCliClient{Outputs: map[string]string{
		"storage account list":             `[{"name":"acct1","resourceGroup":"rg1"},{"name":"acct2","resourceGroup":"rg1"},{"name":"acct3","resourceGroup":"rg2"}]`,
		"storage account show --name acct1": `{"networkRuleSet":{"defaultAction":"Allow"}}`,
		"storage account show --name acct2": "FAIL",
		"storage account show --name acct3": `{"networkRuleSet":{"defaultAction":"Deny"}}`,
		"keyvault list":                     "FAIL",
	}}
	logger := newTestLogger()
	collectorClient := collector.NewCollectorClient(cli, collector.NewCliIdentityLister(cli, logger), 4, types.FailedItemPolicyOmit, logger)
	output := &bytes.Buffer{}
	runClient, _, _, _ := newTestRunClient(cli, collectorClient, Outputs{}, Email{}, output)

	err := runClient.Run(context.Background())

	require.NoError(t, err)
	report := output.String()
	assert.Contains(t, report, "Storage Account: acct1, Resource Group: rg1, Public Access: Allow")
	assert.Contains(t, report, "Storage Account: acct3, Resource Group: rg2, Public Access: Deny")
	assert.NotContains(t, report, "acct2")
	assert.Contains(t, report, "No Key Vault resources found.")
	assert.Contains(t, report, "No Function App resources found.")
	assert.Contains(t, report, "No Redis Cache resources found.")
}
