package index

// SidebarItem is a link in the sidebar.
type SidebarItem struct {
	Title  string `json:"title"`
	Slug   string `json:"slug"`
	Active bool   `json:"active,omitempty"`
}

// SidebarSection is a group of links in the sidebar. Active sections contain the current article.
type SidebarSection struct {
	Title  string        `json:"title"`
	Active bool          `json:"active,omitempty"`
	Items  []SidebarItem `json:"items"`
}

// Sidebar returns the navigation for the article identified by active.
func (ix Index) Sidebar(active string) []SidebarSection {
	sections := make([]SidebarSection, 0, len(ix))
	for _, s := range ix {
		sec := SidebarSection{Title: s.Section, Items: make([]SidebarItem, 0, len(s.Children))}
		for _, e := range s.Children {
			item := SidebarItem{Title: e.Label(), Slug: e.Slug, Active: e.Slug == active}
			if item.Active {
				sec.Active = true
			}
			sec.Items = append(sec.Items, item)
		}
		sections = append(sections, sec)
	}
	return sections
}
