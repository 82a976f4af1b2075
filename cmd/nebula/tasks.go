package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/nebulaboard/pkg/tasks"
)

var (
	taskStatusFilter   string
	taskPriorityFilter string
	taskTitle          string
	taskStatus         string
	taskPriority       string
	taskTags           []string
	taskDeadline       string
	taskEstimate       int
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks, newest first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		list, err := app.Tasks.ListTasks(ctx, tasks.Filter{Status: taskStatusFilter, Priority: taskPriorityFilter})
		if err != nil {
			fatal("Failed to list tasks", err)
		}
		if jsonOut {
			printJSON(list)
			return
		}
		for _, t := range list {
			line := fmt.Sprintf("%s  %-12s %-7s %s", t.ID, tasks.FormatStatus(string(t.Status)), t.Priority, t.Title)
			if t.Deadline != nil {
				line += "  due " + formatMillis(*t.Deadline)
			}
			if len(t.Tags) > 0 {
				line += "  [" + strings.Join(t.Tags, ", ") + "]"
			}
			fmt.Println(line)
		}
	},
}

func parseDeadline(s string) (*int64, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			ms := t.UnixMilli()
			return &ms, nil
		}
	}
	return nil, fmt.Errorf("invalid deadline %q (want RFC3339 or YYYY-MM-DD)", s)
}

var tasksAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a task",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		in := tasks.TaskInput{
			Title:    taskTitle,
			Status:   tasks.Status(taskStatus),
			Priority: tasks.Priority(taskPriority),
			Tags:     taskTags,
		}
		if taskDeadline != "" {
			d, err := parseDeadline(taskDeadline)
			if err != nil {
				fatal("Invalid flag", err)
			}
			in.Deadline = d
		}
		if cmd.Flags().Changed("estimate") {
			in.EstimatedTime = &taskEstimate
		}

		id, err := app.Tasks.AddTask(ctx, in)
		if err != nil {
			fatal("Failed to add task", err)
		}
		fmt.Println(id)
	},
}

var tasksEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Update the given fields of a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		var patch tasks.TaskPatch
		flags := cmd.Flags()
		if flags.Changed("title") {
			patch.Title = &taskTitle
		}
		if flags.Changed("status") {
			s := tasks.Status(taskStatus)
			patch.Status = &s
		}
		if flags.Changed("priority") {
			p := tasks.Priority(taskPriority)
			patch.Priority = &p
		}
		if flags.Changed("tag") {
			patch.Tags = append([]string{}, taskTags...)
		}
		if flags.Changed("deadline") {
			d, err := parseDeadline(taskDeadline)
			if err != nil {
				fatal("Invalid flag", err)
			}
			patch.Deadline = d
		}
		if flags.Changed("estimate") {
			patch.EstimatedTime = &taskEstimate
		}

		if err := app.Tasks.UpdateTask(ctx, args[0], patch); err != nil {
			fatal("Failed to update task", err)
		}
		fmt.Printf("Task updated: %s\n", args[0])
	},
}

var tasksStatusCmd = &cobra.Command{
	Use:   "status [id] [status]",
	Short: "Move a task to another status",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		if err := app.Tasks.SetStatus(ctx, args[0], tasks.Status(args[1])); err != nil {
			fatal("Failed to set status", err)
		}
		fmt.Printf("Task %s is now %s\n", args[0], tasks.FormatStatus(args[1]))
	},
}

var tasksDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		if err := app.Tasks.DeleteTask(ctx, args[0]); err != nil {
			fatal("Failed to delete task", err)
		}
		fmt.Printf("Task deleted: %s\n", args[0])
	},
}

var tasksClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every done task",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		n, err := app.Tasks.ClearCompleted(ctx)
		if err != nil {
			fatal("Failed to clear completed tasks", err)
		}
		fmt.Printf("%d completed task(s) removed\n", n)
	},
}

var tasksOptionsCmd = &cobra.Command{
	Use:   "options",
	Short: "List the accepted statuses and priorities",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if jsonOut {
			printJSON(map[string][]tasks.Choice{
				"status":   tasks.StatusOptions(),
				"priority": tasks.PriorityOptions(),
			})
			return
		}
		fmt.Println("Status:")
		for _, c := range tasks.StatusOptions() {
			fmt.Printf("  %-12s %s\n", c.Value, c.Label)
		}
		fmt.Println("Priority:")
		for _, c := range tasks.PriorityOptions() {
			fmt.Printf("  %-12s %s\n", c.Value, c.Label)
		}
	},
}

func init() {
	rootCmd.AddCommand(tasksCmd)
	tasksCmd.AddCommand(tasksListCmd, tasksAddCmd, tasksEditCmd, tasksStatusCmd, tasksDeleteCmd, tasksClearCmd, tasksOptionsCmd)

	tasksListCmd.Flags().StringVar(&taskStatusFilter, "status", tasks.FilterAll, "Only tasks with this status")
	tasksListCmd.Flags().StringVar(&taskPriorityFilter, "priority", tasks.FilterAll, "Only tasks with this priority")

	for _, c := range []*cobra.Command{tasksAddCmd, tasksEditCmd} {
		c.Flags().StringVarP(&taskTitle, "title", "t", "", "Title")
		c.Flags().StringVar(&taskStatus, "status", "", "Status (todo, in_progress, done)")
		c.Flags().StringVar(&taskPriority, "priority", "", "Priority (low, medium, high)")
		c.Flags().StringSliceVar(&taskTags, "tag", nil, "Tag (repeatable)")
		c.Flags().StringVar(&taskDeadline, "deadline", "", "Deadline (RFC3339 or YYYY-MM-DD)")
		c.Flags().IntVar(&taskEstimate, "estimate", 0, "Estimated time in minutes")
	}
}
