/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/azure/exposure-reporter/azcli"
	"github.com/azure/exposure-reporter/azure"
	"github.com/azure/exposure-reporter/collector"
	"github.com/azure/exposure-reporter/csv"
	"github.com/azure/exposure-reporter/dispatch"
	"github.com/azure/exposure-reporter/hcl"
	"github.com/azure/exposure-reporter/json"
	"github.com/azure/exposure-reporter/runner"
	"github.com/azure/exposure-reporter/types"
)

var log = logrus.New()

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect public access settings and print or email the report",
	Long: `The run command performs the reporting workflow:

1. Selects the subscription on the Azure CLI
2. Lists every resource of each kind and reads its exposure setting
3. Assembles one report section per kind (text, table or html)
4. Emails the report through SendGrid, or prints it when email is not configured
5. (Optional) Writes JSON and CSV snapshots and an HCL remediation file

Examples:
  # Print a text report
  exposure-reporter run --subscription-id 00000000-0000-0000-0000-000000000001

  # Email an HTML report for key vaults and caches only
  exposure-reporter run --subscription-id <id> --format html --kinds KeyVault,Cache \
    --sendgrid-api-key <key> --sender-email reports@contoso.com --recipient-email secops@contoso.com

  # Write remediation commands for every exposed resource
  exposure-reporter run --subscription-id <id> --remediation-file remediate.tf`,
	Run: func(cmd *cobra.Command, args []string) {
		logVerbosity := viper.GetString("verbosity")
		logLevel, err := logrus.ParseLevel(logVerbosity)
		if err != nil {
			log.Fatalf("Invalid log level: %s", logVerbosity)
		}
		log.SetLevel(logLevel)
		log.SetFormatter(&logrus.TextFormatter{})
		if viper.GetBool("structured-logs") {
			log.SetFormatter(&logrus.JSONFormatter{})
		}

		for key, value := range viper.GetViper().AllSettings() {
			if key == "sendgrid-api-key" {
				continue
			}
			log.Debugf("Command Flag: %s = %v", key, value)
		}

		settings, err := loadRunSettings(viper.GetViper())
		if err != nil {
			log.Fatalf("Invalid invocation: %v", err)
		}

		cliClient := azcli.NewCliClient(settings.AzPath, settings.CommandTimeout, log)
		if _, err := cliClient.CheckAvailable(); err != nil {
			log.Fatalf("Azure CLI is not available: %v", err)
		}

		var identityLister collector.IIdentityLister = collector.NewCliIdentityLister(cliClient, log)
		if settings.IdentitySource == types.IdentitySourceGraph {
			resourceGraphClient, err := azure.NewResourceGraphClient(settings.Cloud, log)
			if err != nil {
				log.Fatalf("Invalid cloud: %v", err)
			}
			identityLister = resourceGraphClient
		}

		collectorClient := collector.NewCollectorClient(
			cliClient,
			identityLister,
			settings.Workers,
			settings.FailedItemPolicy,
			log,
		)

		email := runner.Email{}
		if settings.EmailEnabled {
			email = runner.Email{
				Dispatcher: dispatch.NewSendGridDispatcher(
					settings.SendGridApiKey,
					settings.SenderEmail,
					settings.Format == types.ReportFormatHtml,
					log,
				),
				Subject:   settings.Subject,
				Recipient: settings.RecipientEmail,
			}
		}

		runClient := runner.NewRunClient(
			settings.Subscription,
			settings.Definitions,
			settings.Format,
			runner.Outputs{
				JsonFileName:        settings.JsonOutput,
				CsvFileName:         settings.CsvOutput,
				RemediationFileName: settings.RemediationFile,
			},
			email,
			cliClient,
			collectorClient,
			json.NewJsonClient(settings.WorkingFolder, log),
			csv.NewRowCsvClient(settings.WorkingFolder, log),
			hcl.NewRemediationClient(settings.WorkingFolder, log),
			os.Stdout,
			log,
		)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := runClient.Run(ctx); err != nil {
			log.Fatalf("Error running report: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.PersistentFlags().StringP("subscription-id", "s", "", "Subscription ID to report on")
	viper.BindPFlag("subscription-id", runCmd.PersistentFlags().Lookup("subscription-id"))
	runCmd.PersistentFlags().String("sendgrid-api-key", "", "SendGrid API key used to email the report")
	viper.BindPFlag("sendgrid-api-key", runCmd.PersistentFlags().Lookup("sendgrid-api-key"))
	runCmd.PersistentFlags().String("sender-email", "", "Sender address of the report email")
	viper.BindPFlag("sender-email", runCmd.PersistentFlags().Lookup("sender-email"))
	runCmd.PersistentFlags().String("recipient-email", "", "Recipient address of the report email")
	viper.BindPFlag("recipient-email", runCmd.PersistentFlags().Lookup("recipient-email"))
	runCmd.PersistentFlags().String("subject", "Azure Public Access Report", "Subject of the report email")
	viper.BindPFlag("subject", runCmd.PersistentFlags().Lookup("subject"))
	runCmd.PersistentFlags().StringP("format", "f", string(types.ReportFormatText), "Report format (text, table, html)")
	viper.BindPFlag("format", runCmd.PersistentFlags().Lookup("format"))
	runCmd.PersistentFlags().StringSliceP("kinds", "k", []string{}, "Resource kinds to report on (default all)")
	viper.BindPFlag("kinds", runCmd.PersistentFlags().Lookup("kinds"))
	runCmd.PersistentFlags().String("az-path", "az", "Azure CLI executable")
	viper.BindPFlag("az-path", runCmd.PersistentFlags().Lookup("az-path"))
	runCmd.PersistentFlags().Duration("command-timeout", azcli.DefaultCommandTimeout, "Timeout of a single Azure CLI call")
	viper.BindPFlag("command-timeout", runCmd.PersistentFlags().Lookup("command-timeout"))
	runCmd.PersistentFlags().Int("workers", collector.DefaultWorkers, "Concurrent detail calls per kind")
	viper.BindPFlag("workers", runCmd.PersistentFlags().Lookup("workers"))
	runCmd.PersistentFlags().String("failed-item-policy", string(types.FailedItemPolicyOmit), "What to do with a resource whose detail call failed (omit, error)")
	viper.BindPFlag("failed-item-policy", runCmd.PersistentFlags().Lookup("failed-item-policy"))
	runCmd.PersistentFlags().String("identity-source", string(types.IdentitySourceCli), "Where resource names come from (cli, graph)")
	viper.BindPFlag("identity-source", runCmd.PersistentFlags().Lookup("identity-source"))
	runCmd.PersistentFlags().String("cloud", "AzurePublic", "Azure cloud used by the graph identity source")
	viper.BindPFlag("cloud", runCmd.PersistentFlags().Lookup("cloud"))
	runCmd.PersistentFlags().StringP("working-folder-path", "w", ".", "Working folder path to use")
	viper.BindPFlag("working-folder-path", runCmd.PersistentFlags().Lookup("working-folder-path"))
	runCmd.PersistentFlags().String("json-output", "", "JSON file name for the collected rows")
	viper.BindPFlag("json-output", runCmd.PersistentFlags().Lookup("json-output"))
	runCmd.PersistentFlags().String("csv-output", "", "CSV file name for the collected rows")
	viper.BindPFlag("csv-output", runCmd.PersistentFlags().Lookup("csv-output"))
	runCmd.PersistentFlags().String("remediation-file", "", "HCL file name for remediation commands of exposed resources")
	viper.BindPFlag("remediation-file", runCmd.PersistentFlags().Lookup("remediation-file"))
}
