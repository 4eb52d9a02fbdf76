package sandbox

import "taskboard-cli/internal/model"

// SeedDemo fills projectID (and the legacy board) with a small sample board.
func (s *Server) SeedDemo(projectID string) {
	owner := int64(1)
	dev := int64(2)
	due := "2030-01-15"

	members := []model.Member{
		{UserID: owner, Name: "Ada", Email: "ada@example.com", Role: model.RoleOwner},
		{UserID: dev, Name: "Linus", Email: "linus@example.com", Role: model.RoleMember},
	}
	tasks := []model.Task{
		{
			ID: 1, Content: "Write the launch checklist", Status: model.StatusTodo,
			Priority: model.PriorityHigh, DueDate: &due, AssigneeID: &owner,
			Subtasks: []model.Subtask{
				{Content: "Collect feedback", IsComplete: true, CreatedBy: owner},
				{Content: "Draft announcement", CreatedBy: owner},
			},
		},
		{ID: 2, Content: "Fix login redirect", Status: model.StatusInProgress, AssigneeID: &dev},
		{ID: 3, Content: "Set up CI", Status: model.StatusDone, Priority: model.PriorityLow},
	}
	s.Seed(projectID, tasks, members)
	if projectID != LegacyProject {
		s.Seed(LegacyProject, tasks, members)
	}
}
