package record_test

import (
	"testing"
	"time"

	"db-check/internal/record"
	"db-check/internal/schema"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"
)

var (
	idCol    = &schema.Column{Name: "id", DataType: "bigint", IsPK: true}
	nameCol  = &schema.Column{Name: "name", DataType: "varchar"}
	priceCol = &schema.Column{Name: "price", DataType: "decimal"}
)

func TestKey(t *testing.T) {
	r := record.New("app", "users").AddPrimaryKey(idCol, int64(7)).AddColumn(nameCol, "alice")
	assert.Equal(t, "7", r.Key())

	composite := record.New("app", "items").
		AddPrimaryKey(idCol, int64(1)).
		AddPrimaryKey(&schema.Column{Name: "line", DataType: "int", IsPK: true}, int64(2))
	assert.Equal(t, "1\x002", composite.Key())
}

func TestKey_TimeIgnoresZone(t *testing.T) {
	tsCol := &schema.Column{Name: "ts", DataType: "datetime", IsPK: true}
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	utc := record.New("app", "events").AddPrimaryKey(tsCol, ts)
	kst := record.New("app", "events").AddPrimaryKey(tsCol, ts.In(time.FixedZone("KST", 9*3600)))

	assert.Equal(t, "2024-01-01T00:00:00Z", utc.Key())
	assert.Equal(t, utc.Key(), kst.Key())
}

func TestKey_NoPrimaryKeyUsesAllColumns(t *testing.T) {
	r := record.New("", "log").AddColumn(nameCol, "login").AddColumn(priceCol, decimal.RequireFromString("1.50"))
	assert.Equal(t, "login\x001.5", r.Key())
}

func TestGetIgnoresCase(t *testing.T) {
	r := record.New("", "users").AddPrimaryKey(idCol, int64(1)).AddColumn(nameCol, "bob")

	cv, ok := r.Get("NAME")
	require.True(t, ok)
	assert.Equal(t, "bob", cv.Value)

	_, ok = r.Get("email")
	assert.False(t, ok)
}

func TestString(t *testing.T) {
	r := record.New("app", "users").AddPrimaryKey(idCol, int64(1)).AddColumn(nameCol, nil)
	assert.Equal(t, "app.users{id=1, name=NULL}", r.String())
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		col  *schema.Column
		raw  any
		want any
	}{
		{"int from bytes", idCol, []byte("42"), int64(42)},
		{"int passthrough", idCol, int64(42), int64(42)},
		{"decimal from bytes", priceCol, []byte("10.50"), decimal.RequireFromString("10.5")},
		{"decimal from float", priceCol, 2.25, decimal.RequireFromString("2.25")},
		{"text from bytes", nameCol, []byte("hi"), "hi"},
		{"bit", &schema.Column{Name: "b", DataType: "bit"}, []byte{1}, true},
		{"bool from int", &schema.Column{Name: "b", DataType: "boolean"}, int64(0), false},
		{"float", &schema.Column{Name: "f", DataType: "double"}, "1.25", 1.25},
		{"binary", &schema.Column{Name: "blob", DataType: "blob"}, []byte{0xde, 0xad}, []byte{0xde, 0xad}},
		{"null", nameCol, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv, err := record.Decode(tt.raw, tt.col, nil)
			require.NoError(t, err)
			if d, ok := tt.want.(decimal.Decimal); ok {
				assert.True(t, d.Equal(cv.Value.(decimal.Decimal)))
				return
			}
			assert.Equal(t, tt.want, cv.Value)
			assert.Same(t, tt.col, cv.Column)
		})
	}
}

func TestDecode_Time(t *testing.T) {
	col := &schema.Column{Name: "created_at", DataType: "datetime"}

	cv, err := record.Decode([]byte("2024-03-01 10:20:30"), col, nil)
	require.NoError(t, err)
	want := time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)
	assert.True(t, want.Equal(cv.Value.(time.Time)))
}

func TestDecode_InvalidInteger(t *testing.T) {
	_, err := record.Decode("abc", idCol, nil)
	assert.ErrorContains(t, err, "decode column id")
}

func TestDecode_TargetEncoding(t *testing.T) {
	enc, err := record.LookupEncoding("euc-kr")
	require.NoError(t, err)

	raw, err := korean.EUCKR.NewEncoder().Bytes([]byte("한글"))
	require.NoError(t, err)

	cv, err := record.Decode(raw, nameCol, enc)
	require.NoError(t, err)
	assert.Equal(t, "한글", cv.Value)
}

func TestLookupEncoding(t *testing.T) {
	enc, err := record.LookupEncoding("")
	assert.NoError(t, err)
	assert.Nil(t, enc)

	_, err = record.LookupEncoding("no-such-charset")
	assert.Error(t, err)
}

func TestText(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 600, time.UTC)

	assert.Equal(t, "", record.Text(nil))
	assert.Equal(t, "abc", record.Text([]byte("abc")))
	assert.Equal(t, "2024-01-02T03:04:05.0000006Z", record.Text(ts))
	assert.Equal(t, "3.14", record.Text(decimal.RequireFromString("3.140")))
	assert.Equal(t, "12", record.Text(int64(12)))
	assert.Equal(t, "true", record.Text(true))
}
