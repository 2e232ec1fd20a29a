package hcl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/kballard/go-shellquote"
	"github.com/sirupsen/logrus"
	"github.com/zclconf/go-cty/cty"

	"github.com/azure/exposure-reporter/types"
)

type IRemediationClient interface {
	WriteRemediationBlocks(sections []types.ReportSection, definitions []types.KindDefinition, subscription types.SubscriptionContext, fileName string) (int, error)
}

// RemediationClient writes a Terraform file with one terraform_data resource
// per exposed row; applying it runs the kind's remediation command.
type RemediationClient struct {
	WorkingFolderPath string
	Logger            *logrus.Logger
}

func NewRemediationClient(workingFolderPath string, logger *logrus.Logger) *RemediationClient {
	return &RemediationClient{
		WorkingFolderPath: workingFolderPath,
		Logger:            logger,
	}
}

func (remediationClient *RemediationClient) WriteRemediationBlocks(sections []types.ReportSection, definitions []types.KindDefinition, subscription types.SubscriptionContext, fileName string) (int, error) {
	definitionsByKind := map[types.ResourceKind]types.KindDefinition{}
	for _, definition := range definitions {
		definitionsByKind[definition.Kind] = definition
	}

	hclFile := hclwrite.NewEmptyFile()
	count := 0

	for _, section := range sections {
		definition, ok := definitionsByKind[section.Kind]
		if !ok || definition.RemediationCommand == "" {
			remediationClient.Logger.Debugf("No remediation command for %s", section.Kind)
			continue
		}

		for _, row := range section.Rows {
			if !definition.IsExposed(row.ExposureSetting) {
				continue
			}
			count++

			command := RemediationCommand(definition.RemediationCommand, row, subscription)
			resourceBlock := hclFile.Body().AppendNewBlock("resource", []string{"terraform_data", fmt.Sprintf("remediate_%03d", count)})
			resourceBlock.Body().SetAttributeValue("triggers_replace", cty.ObjectVal(map[string]cty.Value{
				"kind":            cty.StringVal(string(row.Kind)),
				"name":            cty.StringVal(row.Name),
				"resource_group":  cty.StringVal(row.ResourceGroup),
				"exposure_before": cty.StringVal(row.ExposureSetting),
			}))
			provisionerBlock := resourceBlock.Body().AppendNewBlock("provisioner", []string{"local-exec"})
			provisionerBlock.Body().SetAttributeValue("command", cty.StringVal(command))
			hclFile.Body().AppendNewline()

			remediationClient.Logger.Tracef("Remediation for %s %s/%s: %s", row.Kind, row.ResourceGroup, row.Name, command)
		}
	}

	hclFilePath := filepath.Join(remediationClient.WorkingFolderPath, fileName)
	if err := os.WriteFile(hclFilePath, hclFile.Bytes(), 0644); err != nil {
		return count, fmt.Errorf("writing %s: %w", hclFilePath, err)
	}

	remediationClient.Logger.Infof("HCL remediation file %s written with %d resource(s) to: %s", fileName, count, hclFilePath)
	return count, nil
}

// RemediationCommand fills the {name}, {resourceGroup} and {subscriptionId}
// placeholders with shell-quoted values.
func RemediationCommand(template string, row types.ResourceStatusRow, subscription types.SubscriptionContext) string {
	replacer := strings.NewReplacer(
		"{name}", shellquote.Join(row.Name),
		"{resourceGroup}", shellquote.Join(row.ResourceGroup),
		"{subscriptionId}", shellquote.Join(subscription.SubscriptionID),
	)
	return replacer.Replace(template)
}
