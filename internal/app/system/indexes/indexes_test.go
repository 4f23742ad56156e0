// internal/app/system/indexes/indexes_test.go
package indexes_test

import (
	"testing"

	"github.com/dalemusser/eventhub/internal/app/system/indexes"
	"github.com/dalemusser/eventhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

// SetupTestDB already runs EnsureAll once, so a fresh database arrives here
// fully indexed; a second pass must be a clean no-op.
func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll on an indexed database: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll repeat: %v", err)
	}
}

func TestEnsureAll_CreatesNamedIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	want := map[string]string{
		"users":         "uniq_users_email",
		"projects":      "uniq_projects_nameci",
		"registrations": "uniq_reg_event_user",
		"speakers":      "uniq_speakers_email",
		"gifts":         "uniq_gifts_nameci",
		"invitations":   "uniq_inv_token",
	}
	for coll, name := range want {
		cur, err := db.Collection(coll).Indexes().List(ctx)
		if err != nil {
			t.Fatalf("list %s indexes: %v", coll, err)
		}
		var specs []bson.M
		if err := cur.All(ctx, &specs); err != nil {
			t.Fatalf("read %s indexes: %v", coll, err)
		}
		found := false
		for _, spec := range specs {
			if spec["name"] == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("collection %s is missing index %s", coll, name)
		}
	}
}
