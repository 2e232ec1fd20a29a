package csv

import (
	csvwriter "encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/azure/exposure-reporter/types"
)

type IRowCsvClient interface {
	Export(sections []types.ReportSection, fileName string) error
}

type RowCsvClient struct {
	WorkingFolderPath string
	Header            []string
	Logger            *logrus.Logger
}

func NewRowCsvClient(workingFolderPath string, logger *logrus.Logger) *RowCsvClient {
	return &RowCsvClient{
		WorkingFolderPath: workingFolderPath,
		Header:            []string{"Kind", "Name", "Resource Group", "Exposure Setting"},
		Logger:            logger,
	}
}

// Export writes one line per row, in report order.
func (csvClient *RowCsvClient) Export(sections []types.ReportSection, fileName string) error {
	csvData := [][]string{csvClient.Header}
	for _, section := range sections {
		for _, row := range section.Rows {
			csvData = append(csvData, []string{
				string(row.Kind),
				row.Name,
				row.ResourceGroup,
				row.ExposureSetting,
			})
		}
	}

	csvFilePath := filepath.Join(csvClient.WorkingFolderPath, fileName)
	csvFile, err := os.Create(csvFilePath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", csvFilePath, err)
	}
	defer csvFile.Close()

	csvWriter := csvwriter.NewWriter(csvFile)
	if err := csvWriter.WriteAll(csvData); err != nil {
		return fmt.Errorf("writing %s: %w", csvFilePath, err)
	}
	csvClient.Logger.Infof("Rows written to %s", csvFilePath)
	return nil
}
