package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

type IJsonClient interface {
	Export(value any, fileName string) error
}

type JsonClient struct {
	WorkingFolderPath string
	Logger            *logrus.Logger
}

func NewJsonClient(workingFolderPath string, logger *logrus.Logger) *JsonClient {
	return &JsonClient{
		WorkingFolderPath: workingFolderPath,
		Logger:            logger,
	}
}

func (jsonClient *JsonClient) Export(value any, fileName string) error {
	content, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling %s: %w", fileName, err)
	}
	jsonFilePath := filepath.Join(jsonClient.WorkingFolderPath, fileName)
	if err := os.WriteFile(jsonFilePath, content, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", jsonFilePath, err)
	}
	jsonClient.Logger.Infof("Rows written to %s", jsonFilePath)
	return nil
}
