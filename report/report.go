// Package report renders collected sections into text, table or HTML.
// Rendering is pure: the same report always produces the same bytes.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/gosuri/uitable"

	"github.com/azure/exposure-reporter/types"
)

func Assemble(report types.Report) (string, error) {
	switch report.Format {
	case types.ReportFormatText, "":
		return assembleText(report.Sections), nil
	case types.ReportFormatTable:
		return assembleTable(report.Sections), nil
	case types.ReportFormatHtml:
		return assembleHtml(report.Sections)
	default:
		return "", fmt.Errorf("unknown report format %q", report.Format)
	}
}

func noneFound(section types.ReportSection) string {
	return fmt.Sprintf("No %s resources found.", section.Label)
}

func failureNote(section types.ReportSection) string {
	return fmt.Sprintf("Collection failed: %s", section.Failure)
}

func assembleText(sections []types.ReportSection) string {
	var builder strings.Builder
	for _, section := range sections {
		fmt.Fprintf(&builder, "\n%s Public Access Report:\n", section.Label)
		if section.Failure != "" {
			builder.WriteString(neutralize(failureNote(section)) + "\n")
		}
		if len(section.Rows) == 0 {
			builder.WriteString(noneFound(section) + "\n")
			continue
		}
		for _, row := range section.Rows {
			fmt.Fprintf(&builder, "%s: %s, Resource Group: %s, Public Access: %s\n",
				section.Label,
				neutralize(row.Name),
				neutralize(row.ResourceGroup),
				neutralize(row.ExposureSetting),
			)
		}
	}
	return builder.String()
}

func assembleTable(sections []types.ReportSection) string {
	var builder strings.Builder
	for i, section := range sections {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(strings.ToUpper(section.Label) + "\n")
		if section.Failure != "" {
			builder.WriteString(neutralize(failureNote(section)) + "\n")
		}
		if len(section.Rows) == 0 {
			builder.WriteString(noneFound(section) + "\n")
			continue
		}

		table := uitable.New()
		table.AddRow("NAME", "RESOURCE GROUP", "EXPOSURE")
		for _, row := range section.Rows {
			table.AddRow(neutralize(row.Name), neutralize(row.ResourceGroup), neutralize(row.ExposureSetting))
		}
		builder.WriteString(table.String() + "\n")
	}
	return builder.String()
}

var htmlTemplate = template.Must(template.New("report").Parse(`<html>
<body>
<h1>Azure Public Access Report</h1>
{{- range .}}
<h2>{{.Label}}</h2>
{{- if .Failure}}
<p class="failure">Collection failed: {{.Failure}}</p>
{{- end}}
{{- if .Rows}}
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Name</th><th>Resource Group</th><th>Public Access</th></tr>
{{- range .Rows}}
<tr><td>{{.Name}}</td><td>{{.ResourceGroup}}</td><td>{{.ExposureSetting}}</td></tr>
{{- end}}
</table>
{{- else}}
<p>No {{.Label}} resources found.</p>
{{- end}}
{{- end}}
</body>
</html>
`))

func assembleHtml(sections []types.ReportSection) (string, error) {
	var out bytes.Buffer
	if err := htmlTemplate.Execute(&out, sections); err != nil {
		return "", fmt.Errorf("rendering html report: %w", err)
	}
	return out.String(), nil
}

// neutralize keeps one value on one line so it cannot break the layout.
func neutralize(value string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\n', '\r', '\v', '\f':
			return ' '
		}
		return r
	}, value)
}
