package types

import (
	"fmt"
	"strings"
)

type ReportFormat string

const (
	ReportFormatText  ReportFormat = "text"
	ReportFormatTable ReportFormat = "table"
	ReportFormatHtml  ReportFormat = "html"
)

func ParseReportFormat(format string) (ReportFormat, error) {
	reportFormat := ReportFormat(strings.ToLower(strings.TrimSpace(format)))
	switch reportFormat {
	case ReportFormatText, ReportFormatTable, ReportFormatHtml:
		return reportFormat, nil
	default:
		return "", fmt.Errorf("unknown report format %q, expected one of text, table, html", format)
	}
}

type ReportSection struct {
	Kind  ResourceKind
	Label string
	Rows  []ResourceStatusRow
	// Failure is set when the kind could not be listed.
	Failure string
}

type Report struct {
	Sections []ReportSection
	Format   ReportFormat
}

type FailedItemPolicy string

const (
	FailedItemPolicyOmit  FailedItemPolicy = "omit"
	FailedItemPolicyError FailedItemPolicy = "error"
)

func (policy FailedItemPolicy) IsValidFailedItemPolicy() bool {
	switch policy {
	case FailedItemPolicyOmit, FailedItemPolicyError:
		return true
	default:
		return false
	}
}

type IdentitySource string

const (
	IdentitySourceCli   IdentitySource = "cli"
	IdentitySourceGraph IdentitySource = "graph"
)

func (source IdentitySource) IsValidIdentitySource() bool {
	switch source {
	case IdentitySourceCli, IdentitySourceGraph:
		return true
	default:
		return false
	}
}
