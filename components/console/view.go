package console

import (
	"net/url"
	"strings"
)

// View selects which subset of users is displayed.
type View string

const (
	ViewAll     View = "all"
	ViewActive  View = "active"
	ViewBlocked View = "blocked"
	ViewPending View = "pending"
)

// ViewQueryParam is the query string key carrying the selector.
const ViewQueryParam = "view"

// ParseView maps any selector to a View. Unknown or empty values mean ViewAll.
func ParseView(selector string) View {
	switch View(strings.ToLower(strings.TrimSpace(selector))) {
	case ViewActive:
		return ViewActive
	case ViewBlocked:
		return ViewBlocked
	case ViewPending:
		return ViewPending
	default:
		return ViewAll
	}
}

// ViewFromQuery reads the selector from a raw query string such as
// "view=pending" or "?view=active".
func ViewFromQuery(rawQuery string) View {
	values, _ := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	return ParseView(values.Get(ViewQueryParam))
}

// Query returns the query string that selects v.
func (v View) Query() string {
	if v == ViewAll || v == "" {
		return ""
	}
	return url.Values{ViewQueryParam: []string{string(v)}}.Encode()
}

// Matches reports whether u belongs to the view.
func (v View) Matches(u User) bool {
	switch v {
	case ViewActive:
		return u.Allowed
	case ViewBlocked:
		return !u.Allowed
	case ViewPending:
		return !u.Allowed && u.HasInteracted()
	default:
		return true
	}
}

// ViewResult is the display-ready output of ResolveView.
type ViewResult struct {
	View     View
	Users    []User
	Title    string
	Subtitle string
	Empty    string
}

// ResolveView filters users for the selector and builds the localized
// headings. Input order is preserved and the input slice is not modified.
func ResolveView(users []User, selector string, loc *Localizer) ViewResult {
	view := ParseView(selector)
	filtered := make([]User, 0, len(users))
	for _, u := range users {
		if view.Matches(u) {
			filtered = append(filtered, u)
		}
	}
	result := ViewResult{
		View:  view,
		Users: filtered,
		Title: loc.T(viewTitleKey(view), nil),
		Empty: loc.T(KeyViewEmpty, nil),
	}
	if view == ViewAll {
		result.Subtitle = loc.T(KeyViewSubtitleAll, nil)
	} else {
		result.Subtitle = loc.T(KeyViewSubtitleFiltered, map[string]any{"count": len(filtered)})
	}
	return result
}

func viewTitleKey(view View) string {
	switch view {
	case ViewActive:
		return KeyViewTitleActive
	case ViewBlocked:
		return KeyViewTitleBlocked
	case ViewPending:
		return KeyViewTitlePending
	default:
		return KeyViewTitleAll
	}
}
