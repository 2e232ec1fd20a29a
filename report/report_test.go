package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azure/exposure-reporter/types"
)

func testSections() []types.ReportSection {
	return []types.ReportSection{
		{
			Kind:  types.ResourceKindStorageAccount,
			Label: "Storage Account",
			Rows: []types.ResourceStatusRow{
				{Kind: types.ResourceKindStorageAccount, Name: "zacct", ResourceGroup: "rg-b", ExposureSetting: "Allow"},
				{Kind: types.ResourceKindStorageAccount, Name: "aacct", ResourceGroup: "rg-a", ExposureSetting: "Deny"},
			},
		},
		{Kind: types.ResourceKindKeyVault, Label: "Key Vault", Rows: []types.ResourceStatusRow{}},
		{Kind: types.ResourceKindCache, Label: "Redis Cache", Failure: "az redis list exited with code 1"},
	}
}

var allFormats = []types.ReportFormat{types.ReportFormatText, types.ReportFormatTable, types.ReportFormatHtml}

func TestAssemble_Text(t *testing.T) {
	out, err := Assemble(types.Report{Sections: testSections(), Format: types.ReportFormatText})

	require.NoError(t, err)
	assert.Equal(t, `
Storage Account Public Access Report:
Storage Account: zacct, Resource Group: rg-b, Public Access: Allow
Storage Account: aacct, Resource Group: rg-a, Public Access: Deny

Key Vault Public Access Report:
No Key Vault resources found.

Redis Cache Public Access Report:
Collection failed: az redis list exited with code 1
No Redis Cache resources found.
`, out)
}

func TestAssemble_Deterministic(t *testing.T) {
	for _, format := range allFormats {
		first, err := Assemble(types.Report{Sections: testSections(), Format: format})
		require.NoError(t, err)
		second, err := Assemble(types.Report{Sections: testSections(), Format: format})
		require.NoError(t, err)
		assert.Equal(t, first, second, "format %s", format)
	}
}

func TestAssemble_NeverOmitsAKind(t *testing.T) {
	for _, format := range allFormats {
		out, err := Assemble(types.Report{Sections: testSections(), Format: format})
		require.NoError(t, err)
		assert.Contains(t, out, "No Key Vault resources found.", "format %s", format)
		assert.Contains(t, out, "No Redis Cache resources found.", "format %s", format)
	}
}

func TestAssemble_KeepsInputOrderAndFullValues(t *testing.T) {
	longName := strings.Repeat("storageaccount", 8)
	sections := []types.ReportSection{{
		Kind:  types.ResourceKindStorageAccount,
		Label: "Storage Account",
		Rows: []types.ResourceStatusRow{
			{Name: "zacct", ResourceGroup: "rg-b", ExposureSetting: "Allow"},
			{Name: longName, ResourceGroup: "rg-with-a-rather-long-resource-group-name", ExposureSetting: "Unknown"},
			{Name: "aacct", ResourceGroup: "rg-a", ExposureSetting: "Deny"},
		},
	}}

	for _, format := range allFormats {
		out, err := Assemble(types.Report{Sections: sections, Format: format})
		require.NoError(t, err)

		for _, row := range sections[0].Rows {
			assert.Contains(t, out, row.Name, "format %s", format)
			assert.Contains(t, out, row.ResourceGroup, "format %s", format)
		}
		assert.Less(t, strings.Index(out, "zacct"), strings.Index(out, longName), "format %s", format)
		assert.Less(t, strings.Index(out, longName), strings.Index(out, "aacct"), "format %s", format)
	}
}

func TestAssemble_TableHasHeader(t *testing.T) {
	out, err := Assemble(types.Report{Sections: testSections(), Format: types.ReportFormatTable})

	require.NoError(t, err)
	assert.Contains(t, out, "STORAGE ACCOUNT\n")
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "RESOURCE GROUP")
	assert.Contains(t, out, "EXPOSURE")
	assert.Contains(t, out, "Collection failed: az redis list exited with code 1")
}

func TestAssemble_HtmlEscapesValues(t *testing.T) {
	sections := []types.ReportSection{{
		Kind:  types.ResourceKindFunctionApp,
		Label: "Function App",
		Rows:  []types.ResourceStatusRow{{Name: "<script>alert(1)</script>", ResourceGroup: "rg&1", ExposureSetting: "Enabled"}},
	}}

	out, err := Assemble(types.Report{Sections: sections, Format: types.ReportFormatHtml})

	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.Contains(t, out, "rg&amp;1")
	assert.Contains(t, out, "<h2>Function App</h2>")
}

func TestAssemble_NeutralizesLayoutCharacters(t *testing.T) {
	sections := []types.ReportSection{{
		Kind:  types.ResourceKindCache,
		Label: "Redis Cache",
		Rows:  []types.ResourceStatusRow{{Name: "cache\nInjected: line", ResourceGroup: "rg\t1", ExposureSetting: "true"}},
	}}

	for _, format := range []types.ReportFormat{types.ReportFormatText, types.ReportFormatTable} {
		out, err := Assemble(types.Report{Sections: sections, Format: format})
		require.NoError(t, err)
		assert.Contains(t, out, "cache Injected: line")
		assert.Contains(t, out, "rg 1")
	}
}

func TestAssemble_UnknownFormat(t *testing.T) {
	_, err := Assemble(types.Report{Sections: testSections(), Format: "pdf"})
	assert.Error(t, err)
}
