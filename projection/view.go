package projection

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kevinaaaquil/library/models"
)

type NavItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Badge int    `json:"badge,omitempty"`
}

var menus = map[models.Role][]NavItem{
	models.RoleStudent: {
		{Title: "Dashboard", URL: "/dashboard"},
		{Title: "Browse Books", URL: "/browse"},
		{Title: "Search", URL: "/search"},
		{Title: "My Books", URL: "/my-books"},
		{Title: "Due Dates", URL: "/due-dates"},
	},
	models.RoleLibrarian: {
		{Title: "Dashboard", URL: "/dashboard"},
		{Title: "Inventory", URL: "/inventory"},
		{Title: "Issue/Return", URL: "/issue-return"},
		{Title: "Overdue Books", URL: "/overdue"},
		{Title: "Reports", URL: "/reports"},
	},
	models.RoleAdmin: {
		{Title: "Dashboard", URL: "/dashboard"},
		{Title: "User Management", URL: "/users"},
		{Title: "Analytics", URL: "/analytics"},
		{Title: "System Settings", URL: "/settings"},
		{Title: "Reports", URL: "/reports"},
	},
}

// Navigation returns the role's menu with notification badges filled from stats.
// Unknown roles get the student menu.
func Navigation(role models.Role, stats Stats) []NavItem {
	items, ok := menus[role]
	if !ok {
		items = menus[models.RoleStudent]
		role = models.RoleStudent
	}
	out := make([]NavItem, len(items))
	copy(out, items)
	for i := range out {
		switch {
		case role == models.RoleStudent && out[i].URL == "/due-dates":
			out[i].Badge = stats.Notifications
		case role == models.RoleLibrarian && out[i].URL == "/overdue":
			out[i].Badge = stats.Overdue
		}
	}
	return out
}

type HeaderView struct {
	Title         string `json:"title"`
	Welcome       string `json:"welcome"`
	Role          string `json:"role"`
	Notifications int    `json:"notifications"`
}

var portalTitles = map[models.Role]string{
	models.RoleStudent:   "Student Portal",
	models.RoleLibrarian: "Librarian Dashboard",
	models.RoleAdmin:     "Admin Console",
}

func Header(viewer Viewer, stats Stats) HeaderView {
	title, ok := portalTitles[viewer.Role]
	if !ok {
		title = portalTitles[models.RoleStudent]
	}
	name := viewer.Name
	if name == "" {
		name = "User"
	}
	return HeaderView{
		Title:         title,
		Welcome:       "Welcome back, " + name,
		Role:          string(viewer.Role),
		Notifications: stats.Notifications,
	}
}

// DisplayName picks what to greet a user by: the full name, else the e-mail's
// local part with its first letter capitalised, else "User".
func DisplayName(fullName, email string) string {
	if n := strings.TrimSpace(fullName); n != "" {
		return n
	}
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	if local == "" {
		return "User"
	}
	r, size := utf8.DecodeRuneInString(local)
	return string(unicode.ToUpper(r)) + local[size:]
}

type RoleShare struct {
	Role       models.Role `json:"role"`
	Count      int         `json:"count"`
	Percentage float64     `json:"percentage"`
}

// UserDistribution counts users per role, in ValidRoles order.
func UserDistribution(users []models.User) []RoleShare {
	counts := make(map[models.Role]int, len(models.ValidRoles))
	for _, u := range users {
		counts[u.Role]++
	}
	out := make([]RoleShare, 0, len(models.ValidRoles))
	for _, r := range models.ValidRoles {
		out = append(out, RoleShare{Role: r, Count: counts[r], Percentage: percentage(counts[r], len(users))})
	}
	return out
}

type AlertKind string

const (
	AlertWarning AlertKind = "warning"
	AlertInfo    AlertKind = "info"
	AlertSuccess AlertKind = "success"
)

type Alert struct {
	Kind    AlertKind `json:"kind"`
	Message string    `json:"message"`
}

// SystemAlerts derives the admin console's alert list from the circulation stats:
// overdue loans warn, reservations waiting for pickup inform, and a catalog with
// nothing overdue reports success.
func SystemAlerts(stats Stats) []Alert {
	var out []Alert
	if stats.Overdue > 0 {
		out = append(out, Alert{Kind: AlertWarning, Message: plural(stats.Overdue, "overdue book")})
	}
	if stats.Reserved > 0 {
		out = append(out, Alert{Kind: AlertInfo, Message: plural(stats.Reserved, "reserved book") + " awaiting pickup"})
	}
	if stats.Overdue == 0 {
		out = append(out, Alert{Kind: AlertSuccess, Message: "No overdue books"})
	}
	return out
}

// Warnings counts the warning alerts, the console's badge.
func Warnings(alerts []Alert) int {
	n := 0
	for _, a := range alerts {
		if a.Kind == AlertWarning {
			n++
		}
	}
	return n
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
