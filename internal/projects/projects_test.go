package projects

import "testing"

func TestInmemCreateAndGetProject(t *testing.T) {
	s := NewInmemStore()
	ctx := t.Context()

	p, err := s.CreateProject(ctx, "demo", "/repos/demo")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	got, err := s.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got.Name != "demo" || got.RepoPath != "/repos/demo" {
		t.Fatalf("got %+v", got)
	}
}

func TestInmemTaskLifecycle(t *testing.T) {
	s := NewInmemStore()
	ctx := t.Context()

	p, _ := s.CreateProject(ctx, "demo", "/repos/demo")
	task, err := s.CreateTask(ctx, p.ID, "Add dark mode", "plan")
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.Status != "draft" {
		t.Fatalf("want draft status, got %q", task.Status)
	}

	if err := s.SetTaskStatus(ctx, task.ID, "active"); err != nil {
		t.Fatalf("SetTaskStatus: %v", err)
	}
	got, err := s.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Status != "active" {
		t.Fatalf("want active, got %q", got.Status)
	}

	tasks, err := s.ListTasks(ctx, p.ID)
	if err != nil || len(tasks) != 1 {
		t.Fatalf("ListTasks: %v %d", err, len(tasks))
	}
}
