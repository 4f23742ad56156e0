// internal/app/store/projects/projectstore_test.go
package projectstore_test

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	projectstore "github.com/dalemusser/eventhub/internal/app/store/projects"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"github.com/dalemusser/eventhub/internal/testutil"
)

func TestCreate_DuplicateNameCaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	s := projectstore.New(db)

	owner := primitive.NewObjectID()
	if _, err := s.Create(ctx, models.Project{Name: "Launch Plan", OwnerID: owner}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := s.Create(ctx, models.Project{Name: "launch plan", OwnerID: owner})
	if !errors.Is(err, projectstore.ErrDuplicateName) {
		t.Errorf("err = %v, want ErrDuplicateName", err)
	}
}

func TestDelete_GeneralProjectRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	s := projectstore.New(db)

	if err := s.EnsureGeneralProject(ctx, primitive.NewObjectID()); err != nil {
		t.Fatalf("ensure general: %v", err)
	}

	_, err := s.Delete(ctx, models.GeneralProjectID)
	if !errors.Is(err, projectstore.ErrGeneralProject) {
		t.Errorf("err = %v, want ErrGeneralProject", err)
	}
	if _, err := s.GetByID(ctx, models.GeneralProjectID); err != nil {
		t.Errorf("general project gone after rejected delete: %v", err)
	}
}

func TestMembership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	s := projectstore.New(db)

	owner := primitive.NewObjectID()
	member := primitive.NewObjectID()
	p, err := s.Create(ctx, models.Project{Name: "Shared", OwnerID: owner})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.AddMember(ctx, p.ID, member); err != nil {
		t.Fatalf("add member: %v", err)
	}
	// Adding twice must not duplicate.
	if err := s.AddMember(ctx, p.ID, member); err != nil {
		t.Fatalf("re-add member: %v", err)
	}
	got, err := s.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(got.MemberIDs) != 1 || got.MemberIDs[0] != member {
		t.Fatalf("member_ids = %v, want [%s]", got.MemberIDs, member.Hex())
	}

	ids, err := s.MemberProjectIDs(ctx, member, 10)
	if err != nil {
		t.Fatalf("member project ids: %v", err)
	}
	if len(ids) != 1 || ids[0] != p.ID {
		t.Errorf("member project ids = %v, want [%s]", ids, p.ID.Hex())
	}

	if err := s.RemoveMember(ctx, p.ID, member); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	got, err = s.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(got.MemberIDs) != 0 {
		t.Errorf("member_ids = %v, want empty", got.MemberIDs)
	}
}

func TestReplaceMemberID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	s := projectstore.New(db)

	owner := primitive.NewObjectID()
	placeholder := primitive.NewObjectID()
	account := primitive.NewObjectID()

	a, err := s.Create(ctx, models.Project{Name: "Alpha", OwnerID: owner, MemberIDs: []primitive.ObjectID{placeholder}})
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	b, err := s.Create(ctx, models.Project{Name: "Beta", OwnerID: owner, MemberIDs: []primitive.ObjectID{placeholder}})
	if err != nil {
		t.Fatalf("create b: %v", err)
	}

	if err := s.ReplaceMemberID(ctx, placeholder, account); err != nil {
		t.Fatalf("replace: %v", err)
	}

	for _, id := range []primitive.ObjectID{a.ID, b.ID} {
		got, err := s.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("reload %s: %v", id.Hex(), err)
		}
		if len(got.MemberIDs) != 1 || got.MemberIDs[0] != account {
			t.Errorf("project %s member_ids = %v, want [%s]", got.Name, got.MemberIDs, account.Hex())
		}
	}
}

func TestListForUser_ScopesToOwnershipAndMembership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	s := projectstore.New(db)

	me := primitive.NewObjectID()
	other := primitive.NewObjectID()

	if _, err := s.Create(ctx, models.Project{Name: "Mine", OwnerID: me}); err != nil {
		t.Fatalf("create mine: %v", err)
	}
	if _, err := s.Create(ctx, models.Project{Name: "Joined", OwnerID: other, MemberIDs: []primitive.ObjectID{me}}); err != nil {
		t.Fatalf("create joined: %v", err)
	}
	if _, err := s.Create(ctx, models.Project{Name: "Foreign", OwnerID: other}); err != nil {
		t.Fatalf("create foreign: %v", err)
	}

	list, err := s.ListForUser(ctx, me, 50, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d projects, want 2: %v", len(list), list)
	}
	for _, p := range list {
		if p.Name == "Foreign" {
			t.Error("foreign project leaked into scoped listing")
		}
	}
}
