package runner

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/azure/exposure-reporter/azcli"
	"github.com/azure/exposure-reporter/collector"
	"github.com/azure/exposure-reporter/csv"
	"github.com/azure/exposure-reporter/dispatch"
	"github.com/azure/exposure-reporter/hcl"
	"github.com/azure/exposure-reporter/json"
	"github.com/azure/exposure-reporter/report"
	"github.com/azure/exposure-reporter/types"
)

// Outputs names the optional files written to the working folder. Empty names are skipped.
type Outputs struct {
	JsonFileName        string
	CsvFileName         string
	RemediationFileName string
}

// Email holds delivery settings; a nil Dispatcher prints the report instead.
type Email struct {
	Dispatcher dispatch.IReportDispatcher
	Subject    string
	Recipient  string
}

type RunClient struct {
	Subscription      types.SubscriptionContext
	Definitions       []types.KindDefinition
	Format            types.ReportFormat
	Outputs           Outputs
	Email             Email
	CliClient         azcli.ICliClient
	CollectorClient   collector.ICollectorClient
	JsonClient        json.IJsonClient
	RowCsvClient      csv.IRowCsvClient
	RemediationClient hcl.IRemediationClient
	Output            io.Writer
	Logger            *logrus.Logger
}

func NewRunClient(subscription types.SubscriptionContext, definitions []types.KindDefinition, format types.ReportFormat, outputs Outputs, email Email, cliClient azcli.ICliClient, collectorClient collector.ICollectorClient, jsonClient json.IJsonClient, rowCsvClient csv.IRowCsvClient, remediationClient hcl.IRemediationClient, output io.Writer, logger *logrus.Logger) *RunClient {
	return &RunClient{
		Subscription:      subscription,
		Definitions:       definitions,
		Format:            format,
		Outputs:           outputs,
		Email:             email,
		CliClient:         cliClient,
		CollectorClient:   collectorClient,
		JsonClient:        jsonClient,
		RowCsvClient:      rowCsvClient,
		RemediationClient: remediationClient,
		Output:            output,
		Logger:            logger,
	}
}

// Run collects, renders and delivers one report. Collection, export and
// delivery failures are logged and degrade the result; the returned error is
// reserved for a report that could not be rendered at all.
func (runClient *RunClient) Run(ctx context.Context) error {
	if err := runClient.CliClient.SetSubscription(ctx, runClient.Subscription); err != nil {
		runClient.Logger.Errorf("Error selecting subscription %s, continuing with explicit --subscription on every call: %v", runClient.Subscription.SubscriptionID, err)
	}

	sections := runClient.CollectorClient.CollectAll(ctx, runClient.Definitions, runClient.Subscription)
	runClient.logSummary(sections)

	content, err := report.Assemble(types.Report{Sections: sections, Format: runClient.Format})
	if err != nil {
		return fmt.Errorf("assembling report: %w", err)
	}

	runClient.writeOutputs(sections)

	if runClient.Email.Dispatcher == nil {
		fmt.Fprint(runClient.Output, content)
		return nil
	}

	if err := runClient.Email.Dispatcher.Dispatch(ctx, content, runClient.Email.Subject, runClient.Email.Recipient); err != nil {
		runClient.Logger.Errorf("Error sending report, printing it instead: %v", err)
		fmt.Fprint(runClient.Output, content)
		return nil
	}

	runClient.Logger.Infof("Report sent to %s", runClient.Email.Recipient)
	return nil
}

func (runClient *RunClient) writeOutputs(sections []types.ReportSection) {
	if runClient.Outputs.JsonFileName != "" {
		if err := runClient.JsonClient.Export(flattenRows(sections), runClient.Outputs.JsonFileName); err != nil {
			runClient.Logger.Warnf("Error writing JSON output: %v", err)
		}
	}

	if runClient.Outputs.CsvFileName != "" {
		if err := runClient.RowCsvClient.Export(sections, runClient.Outputs.CsvFileName); err != nil {
			runClient.Logger.Warnf("Error writing CSV output: %v", err)
		}
	}

	if runClient.Outputs.RemediationFileName != "" {
		if _, err := runClient.RemediationClient.WriteRemediationBlocks(sections, runClient.Definitions, runClient.Subscription, runClient.Outputs.RemediationFileName); err != nil {
			runClient.Logger.Warnf("Error writing remediation file: %v", err)
		}
	}
}

func (runClient *RunClient) logSummary(sections []types.ReportSection) {
	definitionsByKind := map[types.ResourceKind]types.KindDefinition{}
	for _, definition := range runClient.Definitions {
		definitionsByKind[definition.Kind] = definition
	}

	for _, section := range sections {
		exposed := 0
		for _, row := range section.Rows {
			if definitionsByKind[section.Kind].IsExposed(row.ExposureSetting) {
				exposed++
			}
		}
		if exposed > 0 {
			runClient.Logger.Warnf("%s: %d of %d resources allow public access", section.Label, exposed, len(section.Rows))
		} else {
			runClient.Logger.Infof("%s: %d resources inspected", section.Label, len(section.Rows))
		}
	}
}

func flattenRows(sections []types.ReportSection) []types.ResourceStatusRow {
	rows := []types.ResourceStatusRow{}
	for _, section := range sections {
		rows = append(rows, section.Rows...)
	}
	return rows
}
