package migrate

import (
	"strings"
	"testing"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups := upMigrations()
	if len(ups) == 0 {
		t.Fatalf("no embedded up migrations")
	}
	for i := 1; i < len(ups); i++ {
		if ups[i-1] >= ups[i] {
			t.Fatalf("migrations out of order: %s before %s", ups[i-1], ups[i])
		}
	}
	for _, name := range ups {
		down := strings.TrimSuffix(name, upSuffix) + ".down.sql"
		if _, err := migrationFS.ReadFile("sql/" + down); err != nil {
			t.Fatalf("missing down migration for %s", name)
		}
	}
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("create table a (id text);\n\ncreate index b on a (id);\n")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if len(splitStatements(" \n;\n ")) != 0 {
		t.Fatalf("blank script must yield no statements")
	}
}
