package fetch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCIKAccession(t *testing.T) {
	cik, accession, ok := ParseCIKAccession("https://www.sec.gov/Archives/edgar/data/320193/000032019324000006/aapl-20231230.htm")
	require.True(t, ok)
	require.Equal(t, "320193", cik)
	require.Equal(t, "000032019324000006", accession)

	_, _, ok = ParseCIKAccession("https://www.sec.gov/cgi-bin/browse-edgar?action=getcompany")
	require.False(t, ok)
}

func TestParseExhibitName(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{filename: "a10-kexhibit31109282024.htm", want: "EX-31.1"},
		{filename: "exhibit21.htm", want: "EX-21"},
		{filename: "ex-99.htm", want: "EX-99"},
		{filename: "ex_101.htm", want: "EX-10.1"},
		{filename: "ex4.htm", want: "EX-4"},
		{filename: "somefile.htm", want: "SOMEFILE"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			require.Equal(t, tt.want, ParseExhibitName(tt.filename))
		})
	}
}

func TestExhibitDescription(t *testing.T) {
	require.Equal(t, "Subsidiaries of the Registrant", exhibitDescription("21"))
	require.Equal(t, "Material Contracts", exhibitDescription("10.1"))
	require.Equal(t, "Rule 13a-14(a) Certification", exhibitDescription("31"))
	require.Empty(t, exhibitDescription("77"))
}

func TestFilingID_StableAndShort(t *testing.T) {
	id := FilingID("https://www.sec.gov/Archives/edgar/data/320193/000032019324000006/aapl-20231230.htm")
	require.Len(t, id, 12)
	require.Equal(t, id, FilingID("https://www.sec.gov/Archives/edgar/data/320193/000032019324000006/aapl-20231230.htm"))
	require.NotEqual(t, id, FilingID("https://www.sec.gov/other.htm"))
}

func TestValidateURL(t *testing.T) {
	require.NoError(t, ValidateURL("https://www.sec.gov/Archives/edgar/data/320193/file.htm"))
	require.NoError(t, ValidateURL("https://sec.gov/Archives/file.htm"))
	require.Error(t, ValidateURL("https://example.com/fake-filing.htm"))
	require.Error(t, ValidateURL("https://evil-sec.gov/file.htm"))
	require.Error(t, ValidateURL("not a url"))
	require.Error(t, ValidateURL(""))
}
