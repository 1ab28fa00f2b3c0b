package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestReadRaw_HeaderStyles(t *testing.T) {
	data := []byte(" Customer ID ,Loyalty Points\n1,5\n")
	path := writeFile(t, "raw.csv", data)

	tests := []struct {
		style HeaderStyle
		want  []string
	}{
		{HeaderTrim, []string{"Customer ID", "Loyalty Points"}},
		{HeaderSnake, []string{"customer_id", "loyalty_points"}},
	}

	for _, tt := range tests {
		tbl, err := ReadRaw(path, tt.style)
		if err != nil {
			t.Fatalf("ReadRaw() error = %v", err)
		}
		for i, want := range tt.want {
			if tbl.Columns[i] != want {
				t.Errorf("Columns[%d] = %q, want %q", i, tbl.Columns[i], want)
			}
		}
	}
}

func TestReadRaw_BOMAndNulls(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("id,name\n1,NA\n2,\n3,bob\n")...)
	tbl, err := ReadRaw(writeFile(t, "bom.csv", data), HeaderTrim)
	if err != nil {
		t.Fatalf("ReadRaw() error = %v", err)
	}
	if tbl.Columns[0] != "id" {
		t.Errorf("Columns[0] = %q, want id without BOM", tbl.Columns[0])
	}
	if tbl.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tbl.Len())
	}
	if tbl.NullCounts()["name"] != 2 {
		t.Errorf("name nulls = %d, want 2", tbl.NullCounts()["name"])
	}
}

func TestReadRaw_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		path     string
		wantCode string
	}{
		{
			name:     "missing file",
			path:     filepath.Join(dir, "absent.csv"),
			wantCode: CodeReadOpen,
		},
		{
			name:     "empty file",
			path:     writeFile(t, "empty.csv", nil),
			wantCode: CodeReadParse,
		},
		{
			name:     "field count mismatch",
			path:     writeFile(t, "short.csv", []byte("a,b\n1,2\n3\n")),
			wantCode: CodeReadParse,
		},
		{
			name:     "bad quoting",
			path:     writeFile(t, "quote.csv", []byte("a,b\n1,\"unterminated\n")),
			wantCode: CodeReadParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRaw(tt.path, HeaderTrim)
			var re *ReadError
			if !errors.As(err, &re) {
				t.Fatalf("ReadRaw() error = %v, want *ReadError", err)
			}
			if re.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", re.Code, tt.wantCode)
			}
		})
	}
}

func TestReadEntity_MissingColumn(t *testing.T) {
	def := TableDefinition{
		Info:       TableInfo{Key: "t", HeaderStyle: HeaderSnake},
		FieldSpecs: []FieldSpec{{Name: "transactionid", Required: true}},
	}
	_, err := ReadEntity(writeFile(t, "s.csv", []byte("SaleAmount\n1\n")), def)

	if got := ErrorCode(err); got != CodeReadColumns {
		t.Errorf("ErrorCode() = %q, want %q", got, CodeReadColumns)
	}
}

func TestWritePrepared_RoundTrip(t *testing.T) {
	orig := table([]string{"id", "name", "note"},
		[]string{"1", "Alice, Jr.", ""},
		[]string{"2", `say "hi"`, "x"},
		[]string{"3", "Zoë", ""},
	)

	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	if err := WritePrepared(path, orig); err != nil {
		t.Fatalf("WritePrepared() error = %v", err)
	}

	back, err := ReadRaw(path, HeaderTrim)
	if err != nil {
		t.Fatalf("ReadRaw() error = %v", err)
	}
	if !back.Equal(orig) {
		t.Errorf("round trip = %v, want %v", back.Strings(), orig.Strings())
	}
}

func TestWritePrepared_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	big := table([]string{"id"}, []string{"1"}, []string{"2"}, []string{"3"})
	small := table([]string{"id"}, []string{"9"})

	if err := WritePrepared(path, big); err != nil {
		t.Fatalf("WritePrepared() error = %v", err)
	}
	if err := WritePrepared(path, small); err != nil {
		t.Fatalf("WritePrepared() error = %v", err)
	}

	back, err := ReadRaw(path, HeaderTrim)
	if err != nil {
		t.Fatalf("ReadRaw() error = %v", err)
	}
	if !back.Equal(small) {
		t.Errorf("file = %v, want %v", back.Strings(), small.Strings())
	}
}

func TestWritePrepared_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := WritePrepared(path, NewTable([]string{"a", "b"})); err != nil {
		t.Fatalf("WritePrepared() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a,b\n" {
		t.Errorf("file = %q, want header only", data)
	}
}
