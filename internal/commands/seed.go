package commands

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/taskdeck/internal/config"
	"github.com/balkashynov/taskdeck/internal/db"
	"github.com/balkashynov/taskdeck/internal/models"
)

var seedDB string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the database with sample projects and tasks",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedDB, "db", "", "SQLite database path (overrides config)")
}

type seedTask struct {
	title    string
	priority models.TaskPriority
	status   models.TaskStatus
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if seedDB != "" {
		cfg.DBPath = seedDB
	}

	if err := db.Initialize(cfg.DBPath); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	projects := []struct {
		name        string
		description string
		archived    bool
		tasks       []seedTask
	}{
		{
			name:        "Website Redesign",
			description: "Marketing wants a fresh look before Q2. New homepage + about page, keep the blog as is for now.",
			tasks: []seedTask{
				{"fix mobile nav not closing", models.PriorityHigh, models.StatusDone},
				{"new hero section from figma", models.PriorityHigh, models.StatusDone},
				{"contact form keeps timing out", models.PriorityHigh, models.StatusInProgress},
				{"add team page photos", models.PriorityMedium, models.StatusTodo},
				{"footer links are broken on /about", models.PriorityLow, models.StatusTodo},
			},
		},
		{
			name:        "Mobile App v2",
			description: "Bug fixes mostly, plus dark mode that everyone keeps asking for.",
			tasks: []seedTask{
				{"push notifs not working on android", models.PriorityHigh, models.StatusInProgress},
				{"dark mode toggle", models.PriorityMedium, models.StatusDone},
				{"profile pic upload crashes on ios", models.PriorityHigh, models.StatusTodo},
				{"remember me checkbox", models.PriorityLow, models.StatusDone},
				{"loading spinner looks weird", models.PriorityLow, models.StatusInProgress},
			},
		},
		{
			name:        "Legacy System Migration",
			description: "Moved everything from the old inventory system. Done.",
			archived:    true,
			tasks: []seedTask{
				{"export old inventory data", models.PriorityHigh, models.StatusDone},
				{"map fields to new schema", models.PriorityHigh, models.StatusDone},
				{"test import script on staging", models.PriorityMedium, models.StatusDone},
				{"verify counts match after migration", models.PriorityHigh, models.StatusDone},
				{"cleanup old db backups", models.PriorityLow, models.StatusDone},
			},
		},
	}

	created := 0
	for _, p := range projects {
		project, err := db.CreateProject(db.CreateProjectRequest{
			Name:        p.name,
			Description: p.description,
		})
		if err != nil {
			return err
		}
		if p.archived {
			if _, err := db.SetProjectStatus(project.ID, models.ProjectArchived); err != nil {
				return err
			}
		}

		for _, t := range p.tasks {
			req := db.CreateTaskRequest{
				Title:    t.title,
				Priority: t.priority,
				Status:   t.status,
			}
			// Roughly 70% of tasks get a due date within three months.
			if rand.Intn(10) < 7 {
				due := models.Date{Time: time.Now().AddDate(0, 0, 1+rand.Intn(90))}
				req.DueDate = &due
			}
			if _, err := db.CreateTask(project.ID, req); err != nil {
				return err
			}
			created++
		}
	}

	fmt.Printf("Seeded %d projects and %d tasks\n", len(projects), created)
	return nil
}
