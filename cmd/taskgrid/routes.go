package main

import "github.com/taskgrid/taskgrid-go/routes"

// routeTable is the application's declarative route configuration. It is
// resolved once per invocation; the flattened result is immutable.
func routeTable() []routes.RouteDefinition {
	return []routes.RouteDefinition{
		{Route: "/", RedirectTo: routes.DefaultLandingPath},
		{
			Route:      "auth",
			Layout:     "AuthLayout",
			Protection: &routes.ProtectionRules{RequireGuest: true},
			Children: []routes.RouteDefinition{
				{Route: "login", Page: "LoginPage"},
				{Route: "reset-password", Page: "ResetPasswordPage"},
			},
		},
		{
			Route:  "app",
			Layout: "AppLayout",
			Protection: &routes.ProtectionRules{
				RequireAuth:    true,
				DeniedRedirect: routes.DefaultLoginPath,
			},
			Children: []routes.RouteDefinition{
				{Route: "dashboard", Page: "DashboardPage"},
				{
					Route: "team",
					Page:  "TeamBoardPage",
					Protection: &routes.ProtectionRules{
						Permissions:    routes.Requirement{AnyOf: []string{routes.PermReadAllTasks}},
						DeniedRedirect: routes.DefaultLandingPath,
					},
				},
				{
					Route: "projects",
					Page:  "ProjectListPage",
					Children: []routes.RouteDefinition{
						{Route: ":id", Page: "ProjectDetailPage"},
						{
							Route: ":id/edit",
							Page:  "ProjectEditPage",
							Protection: &routes.ProtectionRules{
								Permissions: routes.Requirement{AllOf: []string{"perm_can_update_projects"}},
							},
						},
					},
				},
				{
					Route: "tasks",
					Page:  "TaskListPage",
					Children: []routes.RouteDefinition{
						{Route: ":id", Page: "TaskDetailPage"},
					},
				},
				{
					Route: "users",
					Page:  "UserListPage",
					Protection: &routes.ProtectionRules{
						Permissions:    routes.Requirement{AllOf: []string{"perm_can_manage_users"}},
						DeniedRedirect: routes.DefaultLandingPath,
					},
					Children: []routes.RouteDefinition{
						{Route: ":id", Page: "UserDetailPage"},
					},
				},
				{
					Route: "admin",
					Page:  "AdminHubPage",
					Protection: &routes.ProtectionRules{
						Roles:          routes.Requirement{AnyOf: []string{routes.RoleAdmin}},
						DeniedRedirect: routes.DefaultLandingPath,
					},
					Children: []routes.RouteDefinition{
						{Route: "roles", Page: "RoleListPage"},
						{Route: "audit-log", Page: "AuditLogPage"},
					},
				},
			},
		},
		{Route: "*", RedirectTo: routes.DefaultLandingPath},
	}
}
