package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"jobboard-backend/internal/users"
)

type fakeOwners map[string]users.User

func (f fakeOwners) GetByID(_ context.Context, userID string) (users.User, error) {
	u, ok := f[userID]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func engineerInput() Input {
	return Input{
		Title:          "Engineer",
		Role:           "Backend",
		Description:    "Build services",
		Company:        "Acme",
		Location:       "Remote",
		RequiredSkills: []string{" Go ", "SQL", "", "Go"},
	}
}

func TestCreateAndViewWithOwner(t *testing.T) {
	owners := fakeOwners{"admin-1": {ID: "admin-1", Name: "Root", Username: "root", PasswordHash: "secret", Role: users.RoleAdmin}}
	svc := NewService(NewMemoryRepo(), owners)
	ctx := context.Background()

	job, err := svc.Create(ctx, "admin-1", engineerInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	want := []string{"Go", "SQL", "Go"}
	if len(job.RequiredSkills) != len(want) {
		t.Fatalf("expected skills %v, got %v", want, job.RequiredSkills)
	}
	for i := range want {
		if job.RequiredSkills[i] != want[i] {
			t.Fatalf("expected skills %v, got %v", want, job.RequiredSkills)
		}
	}

	view, err := svc.GetView(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetView: %v", err)
	}
	if view.Owner == nil || view.Owner.Username != "root" {
		t.Fatalf("expected owner embedded, got %+v", view.Owner)
	}

	if _, err := svc.Create(ctx, "admin-1", Input{Title: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateAppliesOnlyProvidedFields(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	ctx := context.Background()
	job, err := svc.Create(ctx, "admin-1", engineerInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	title := "Senior Engineer"
	certs := []string{"CKA"}
	updated, err := svc.Update(ctx, job.ID, Patch{Title: &title, RequiredCertifications: &certs})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != title || updated.Company != "Acme" || len(updated.RequiredCertifications) != 1 {
		t.Fatalf("unexpected update result %+v", updated)
	}

	blank := "  "
	if _, err := svc.Update(ctx, job.ID, Patch{Company: &blank}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank company, got %v", err)
	}
	if _, err := svc.Update(ctx, "missing", Patch{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRestrictedByApplications(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	ctx := context.Background()
	job, err := svc.Create(ctx, "admin-1", engineerInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	count := 1
	svc.Applications = func(context.Context, string) (int, error) { return count, nil }
	if err := svc.Delete(ctx, job.ID); !errors.Is(err, ErrHasApplications) {
		t.Fatalf("expected ErrHasApplications, got %v", err)
	}

	count = 0
	if err := svc.Delete(ctx, job.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, job.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	ctx := context.Background()
	base := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"first", "second", "third"} {
		at := base.Add(time.Duration(i) * time.Hour)
		svc.Now = func() time.Time { return at }
		in := engineerInput()
		in.Title = title
		if _, err := svc.Create(ctx, "admin-1", in); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	list, err := svc.List(ctx, 0, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Title != "third" || list[1].Title != "second" {
		t.Fatalf("unexpected order %+v", list)
	}
	if n, _ := svc.CountByOwner(ctx, "admin-1"); n != 3 {
		t.Fatalf("expected 3 jobs for owner, got %d", n)
	}
}
