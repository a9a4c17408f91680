package migrations

import (
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedFiles(t *testing.T) {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 {
		t.Fatalf("embedded migrations = %v, want one up and one down", names)
	}

	up, err := fs.ReadFile(files, "000001_create_campaign_data.up.sql")
	if err != nil {
		t.Fatal(err)
	}
	for _, col := range []string{"BIGSERIAL PRIMARY KEY", `"default"`, "day_of_week", "nr_employed", "DEFAULT -1"} {
		if !strings.Contains(string(up), col) {
			t.Errorf("up migration missing %q", col)
		}
	}
}
