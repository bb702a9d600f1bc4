package views

import "net/url"

// Route paths shared by the pages and the shell.
const (
	PathLogin       = "/"
	PathRegister    = "/register"
	PathDashboard   = "/dashboard"
	PathAadhaar     = "/aadhaar"
	PathStudents    = "/students"
	PathAddStudent  = "/add-student"
	PathEditStudent = "/edit-student/"
	PathBackground  = "/change-background"
	PathLogout      = "/logout"
)

// EditStudentPath returns the edit page for the student identified by id.
func EditStudentPath(id string) string {
	return PathEditStudent + url.PathEscape(id)
}

// Card is a dashboard entry.
type Card struct {
	Title       string
	Description string
	Path        string
}

// DashboardCards lists the dashboard entries.
func DashboardCards() []Card {
	return []Card{
		{Title: "Aadhaar Extraction", Description: "Scan and extract details from Aadhaar.", Path: PathAadhaar},
		{Title: "Add Student", Description: "Manually register a new student into the system.", Path: PathAddStudent},
		{Title: "Students", Description: "Browse, edit and remove student records.", Path: PathStudents},
		{Title: "Change Background", Description: "Remove or replace the background of a photo.", Path: PathBackground},
	}
}

// NavItem is an entry of the navigation bar.
type NavItem struct {
	Name string
	Path string
}

// NavItems lists the navigation bar entries.
func NavItems() []NavItem {
	return []NavItem{
		{Name: "Dashboard", Path: PathDashboard},
		{Name: "Aadhaar", Path: PathAadhaar},
		{Name: "Students", Path: PathStudents},
		{Name: "Background", Path: PathBackground},
	}
}

// ShowNavbar reports whether the navigation bar is shown on path. It is
// hidden on the two unauthenticated entry pages.
func ShowNavbar(path string) bool {
	return path != PathLogin && path != PathRegister
}
