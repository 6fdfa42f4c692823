package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskgrid/taskgrid-go/internal/utils"
	"github.com/taskgrid/taskgrid-go/routes"
	"github.com/taskgrid/taskgrid-go/session"
	"github.com/taskgrid/taskgrid-go/taskapi"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskgrid",
		Short:         "Command-line client for the TaskGrid task management backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			displayAppname("TaskGrid")
			_ = cmd.Help()
		},
	}
	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newRoutesCmd(),
		newPasswdCmd(),
		newTasksCmd(),
	)
	return root
}

func newLoginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and store the session locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.ctrl.Login(cmd.Context(), email, password); err != nil {
				a.hub.Error("Login failed: " + err.Error())
				return err
			}
			snap := a.ctrl.Snapshot()
			who := email
			if snap.User != nil && snap.User.Email != "" {
				who = snap.User.Email
			}
			a.hub.Success("Logged in as " + who)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the refresh token and clear local state",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			a.ctrl.Logout(cmd.Context())
			a.hub.Info("Logged out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			a.ctrl.Initialize(cmd.Context())
			snap := a.ctrl.Snapshot()
			if !snap.IsAuthenticated {
				fmt.Println("Not logged in")
				return nil
			}
			if snap.User != nil {
				fmt.Printf("User:  %s %s <%s>\n", snap.User.FirstName, snap.User.LastName, snap.User.Email)
			}
			fmt.Printf("Roles: %v\n", snap.Roles)
			fmt.Printf("Permissions granted: %d\n", countGranted(snap.Permissions))
			if claims, err := session.AccessTokenClaims(snap.AccessToken); err == nil {
				if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
					fmt.Printf("Access token expires: %s\n", exp.Format(time.RFC3339))
				}
			}
			return nil
		},
	}
}

func countGranted(perms map[string]bool) int {
	n := 0
	for _, granted := range perms {
		if granted {
			n++
		}
	}
	return n
}

func newRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Resolve the route table and evaluate it against the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			resolved, err := routes.Flatten(routeTable())
			if err != nil {
				return err
			}
			a.ctrl.Initialize(cmd.Context())
			snap := a.ctrl.Snapshot()

			w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tTARGET\tACCESS")
			for _, r := range resolved {
				target := string(r.Page)
				if r.RedirectTo != "" {
					target = "-> " + r.RedirectTo
				}
				decision := routes.Evaluate(r.Protection, snap)
				access := "allow"
				if !decision.Allowed {
					access = "deny"
					if decision.RedirectTo != "" {
						access += " -> " + decision.RedirectTo
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Path, target, access)
			}
			return w.Flush()
		},
	}
}

func newPasswdCmd() *cobra.Command {
	var current, newPassword string
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the current user's password",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.svc.ChangePassword(cmd.Context(), current, newPassword); err != nil {
				a.hub.Error("Password change failed: " + err.Error())
				return err
			}
			a.hub.Success("Password changed")
			return nil
		},
	}
	cmd.Flags().StringVar(&current, "current", "", "current password")
	cmd.Flags().StringVar(&newPassword, "new", "", "new password")
	_ = cmd.MarkFlagRequired("current")
	_ = cmd.MarkFlagRequired("new")
	return cmd
}

func newTasksCmd() *cobra.Command {
	var projectID, status string
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			list, err := a.api.Tasks(cmd.Context(), taskapi.TaskFilter{
				ProjectID: projectID,
				Status:    taskapi.TaskStatus(status),
			})
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tTITLE")
			for _, t := range list.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Status, t.Title)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "filter by project id")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.AddCommand(newTasksRenameCmd(), newTasksStatusCmd())
	return cmd
}

func newTasksRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <task-id> <title>",
		Short: "Rename a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			task, err := a.api.UpdateTask(cmd.Context(), args[0], taskapi.TaskInput{
				Title: utils.Ptr(args[1]),
			})
			if err != nil {
				return err
			}
			a.hub.Success("Task renamed: " + task.Title)
			return nil
		},
	}
}

func newTasksStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <task-id> <open|in_progress|done>",
		Short: "Move a task to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			task, err := a.api.UpdateTaskStatus(cmd.Context(), args[0], taskapi.TaskStatus(args[1]))
			if err != nil {
				return err
			}
			a.hub.Success(fmt.Sprintf("Task %s is now %s", task.ID, task.Status))
			return nil
		},
	}
}
