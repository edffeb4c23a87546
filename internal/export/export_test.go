package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type row struct {
	id    int64
	name  string
	price *float64
	cap   float64
}

func (r row) Fields() []string { return []string{"pointid", "name", "kwhprice", "cap"} }
func (r row) Values() []any    { return []any{r.id, r.name, r.price, r.cap} }

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]string{"": FormatJSON, "json": FormatJSON, "CSV": FormatCSV, "xlsx": FormatXLSX, "pdf": FormatJSON} {
		require.Equal(t, want, ParseFormat(in), in)
	}
}

func TestCSVNoEscaping(t *testing.T) {
	price := 0.35
	out := CSV([]row{
		{id: 1, name: "Main, Street", price: &price, cap: 22},
		{id: 2, name: "Depot", cap: 7.4},
	})
	require.Equal(t, "pointid,name,kwhprice,cap\n1,Main, Street,0.35,22\n2,Depot,,7.4", string(out))
	require.Nil(t, CSV([]row{}))
}

func TestXLSXRoundTrip(t *testing.T) {
	price := 0.5
	data, err := XLSX("points", []row{{id: 10, name: "A", price: &price, cap: 50}})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("points")
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"pointid", "name", "kwhprice", "cap"},
		{"10", "A", "0.5", "50"},
	}, rows)
}
