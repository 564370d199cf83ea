package querybuilder

import (
	"reflect"
	"testing"
)

func TestSelect_WhereOrderLimit(t *testing.T) {
	t.Parallel()

	query, args, err := Select("*").From("team_choices").
		Where(
			Eq("collection_public_id", "col-1"),
			Eq("username", "alice"),
			IsNull("deleted_at"),
		).
		OrderBy("updated_at DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL error: %v", err)
	}

	want := "SELECT * FROM team_choices WHERE collection_public_id = $1 AND username = $2 AND deleted_at IS NULL ORDER BY updated_at DESC LIMIT 1"
	if query != want {
		t.Fatalf("unexpected query:\n got: %s\nwant: %s", query, want)
	}
	if !reflect.DeepEqual(args, []any{"col-1", "alice"}) {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestInsertModel_UsesDBTags(t *testing.T) {
	t.Parallel()

	type row struct {
		CollectionID string `db:"collection_public_id"`
		Username     string `db:"username"`
		Skipped      string `db:"-"`
	}

	query, args, err := InsertModel("participation_records", row{
		CollectionID: "col-1",
		Username:     "bob",
		Skipped:      "never",
	}, "ON CONFLICT DO NOTHING")
	if err != nil {
		t.Fatalf("InsertModel error: %v", err)
	}

	want := "INSERT INTO participation_records (collection_public_id, username) VALUES ($1, $2) ON CONFLICT DO NOTHING"
	if query != want {
		t.Fatalf("unexpected query:\n got: %s\nwant: %s", query, want)
	}
	if !reflect.DeepEqual(args, []any{"col-1", "bob"}) {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestUpdate_SetExprRewritesPlaceholders(t *testing.T) {
	t.Parallel()

	query, args, err := Update("finalized_teams").
		Set("team_title", "renamed").
		SetExpr("updated_at", "NOW()").
		Where(Eq("public_id", "team-9"), IsNull("deleted_at")).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL error: %v", err)
	}

	want := "UPDATE finalized_teams SET team_title = $1, updated_at = NOW() WHERE public_id = $2 AND deleted_at IS NULL"
	if query != want {
		t.Fatalf("unexpected query:\n got: %s\nwant: %s", query, want)
	}
	if !reflect.DeepEqual(args, []any{"renamed", "team-9"}) {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestIn_EmptyValuesNeverMatch(t *testing.T) {
	t.Parallel()

	query, args, err := Select("username").From("participation_records").
		Where(In("username", nil)).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL error: %v", err)
	}

	want := "SELECT username FROM participation_records WHERE 1=0"
	if query != want {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 0 {
		t.Fatalf("expected no args, got %v", args)
	}
}
