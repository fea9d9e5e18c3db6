package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hazyhaar/domselect/picker/internal/store"
	"github.com/hazyhaar/domselect/selector"
)

// Pick renders p as a bordered block: the locators and their provenance,
// then the ancestry tree with the target highlighted.
func Pick(p *store.Pick) string {
	r := p.Result
	var rows []string
	if p.PageURL != "" {
		rows = append(rows, TitleStyle.Render(p.PageURL))
	}
	rows = append(rows,
		row("primary", LocatorStyle.Render(r.Primary)),
	)
	if r.Alternate != "" {
		rows = append(rows, row("alternate", ValueStyle.Render(r.Alternate)))
	}
	rows = append(rows,
		row("strategy", ValueStyle.Render(r.Strategy.String()+" ("+r.Rationale+")")),
		row("unique", confidence(r)),
	)
	if len(r.Shadow.Hosts) > 0 {
		hosts := strings.Join(r.Shadow.Hosts, " > ")
		if r.Shadow.AnyClosed {
			hosts += " (closed)"
		}
		rows = append(rows, row("shadow", ValueStyle.Render(hosts)))
	}
	if len(p.Ancestry) > 0 {
		rows = append(rows, "", tree(p.Ancestry))
	}
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render(label), value)
}

func confidence(r selector.Result) string {
	switch {
	case r.LightOnly || (r.Path != nil && r.Path.LightOnly):
		return LightOnlyStyle.Render("light DOM only")
	case r.Confirmed || r.Strategy == selector.KindStructural:
		return ConfirmedStyle.Render("verified")
	default:
		return UnconfirmedStyle.Render("not verified")
	}
}

// tree styles the last line, which is always the target.
func tree(crumbs []selector.Crumb) string {
	lines := strings.Split(strings.TrimSuffix(selector.Tree(crumbs), "\n"), "\n")
	for i, l := range lines {
		if i == len(lines)-1 {
			lines[i] = TargetStyle.Render(l)
		} else {
			lines[i] = TreeStyle.Render(l)
		}
	}
	return strings.Join(lines, "\n")
}
