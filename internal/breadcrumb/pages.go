package breadcrumb

// Trails for the standard pages.

func Dashboard() []Item {
	return []Item{{Label: Home.Label, Icon: Home.Icon}}
}

func Project(id, name string) []Item {
	return []Item{
		Home,
		{Label: "Projects", Icon: "📁", Href: "/dashboard"},
		{Label: name, Icon: "📋", Href: "/projects/" + id},
	}
}

// Bug falls back to "Project" when the API did not populate the project name.
func Bug(projectID, projectName, bugID, title string) []Item {
	if projectName == "" {
		projectName = "Project"
	}
	return []Item{
		Home,
		{Label: "Projects", Icon: "📁", Href: "/dashboard"},
		{Label: projectName, Icon: "📋", Href: "/projects/" + projectID},
		{Label: title, Icon: "🐛", Href: "/projects/" + projectID + "/bugs/" + bugID},
	}
}

func MyBugs() []Item {
	return []Item{Home, {Label: "My Bugs", Icon: "🐛", Href: "/my-bugs"}}
}

func Profile() []Item {
	return []Item{Home, {Label: "Profile Settings", Icon: "👤", Href: "/profile"}}
}
