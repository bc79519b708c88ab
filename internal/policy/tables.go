package policy

import "taskflow/internal/model"

// The policy sets below mirror internal/migrations/sql/000003_policies.up.sql.

var Profiles = &Table{
	Name:        "profiles",
	OwnerColumn: "id",
	Policies: []Policy{
		{Name: "Users can view their own profile", For: Select, Using: Owner()},
		{Name: "Users can update their own profile", For: Update, Using: Owner()},
		{Name: "Users can insert their own profile", For: Insert, Check: Owner()},
		{Name: "Admins can view all profiles", For: Select, Using: HasRole(model.RoleAdmin)},
	},
}

var UserRoles = &Table{
	Name:        "user_roles",
	OwnerColumn: "user_id",
	Policies: []Policy{
		{Name: "Users can view their own roles", For: Select, Using: Owner()},
		{Name: "Admins can view all roles", For: Select, Using: HasRole(model.RoleAdmin)},
		{Name: "Admins can insert roles", For: Insert, Check: HasRole(model.RoleAdmin)},
		{Name: "Admins can delete roles", For: Delete, Using: HasRole(model.RoleAdmin)},
	},
}

var Categories = ownedWithAdminRead("categories")

var Tasks = ownedWithAdminRead("tasks")

var Subtasks = owned("subtasks")

var Reminders = owned("reminders")

var Notifications = &Table{
	Name:        "notifications",
	OwnerColumn: "user_id",
	Policies: []Policy{
		{Name: "Users can view their own notifications", For: Select, Using: Owner()},
		{Name: "Users can update their own notifications", For: Update, Using: Owner()},
		{Name: "Users can delete their own notifications", For: Delete, Using: Owner()},
		{Name: "Users can insert their own notifications", For: Insert, Check: Owner()},
	},
}

var Analytics = ownedWithAdminRead("analytics")

func owned(name string) *Table {
	return &Table{
		Name:        name,
		OwnerColumn: "user_id",
		Policies: []Policy{
			{Name: "Users can manage their own " + name, For: All, Using: Owner()},
			{Name: "Users can insert their own " + name, For: Insert, Check: Owner()},
		},
	}
}

func ownedWithAdminRead(name string) *Table {
	t := owned(name)
	t.Policies = append(t.Policies,
		Policy{Name: "Admins can view all " + name, For: Select, Using: HasRole(model.RoleAdmin)},
	)
	return t
}
