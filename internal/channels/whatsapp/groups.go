package whatsapp

import "strings"

// groupsFromChats keeps group chats only, preserving backend order.
func groupsFromChats(chats []Chat) []Group {
	groups := make([]Group, 0, len(chats))
	for _, chat := range chats {
		if !chat.IsGroup {
			continue
		}
		groups = append(groups, Group{ID: chat.ID, Name: chat.Name})
	}
	return groups
}

// MatchGroup returns the first group whose name contains query,
// case-insensitively. Ties resolve to source order; there is no
// most-specific-match preference. A blank query matches nothing.
func MatchGroup(groups []Group, query string) (Group, bool) {
	needle := strings.ToLower(query)
	if strings.TrimSpace(needle) == "" {
		return Group{}, false
	}
	for _, group := range groups {
		if strings.Contains(strings.ToLower(group.Name), needle) {
			return group, true
		}
	}
	return Group{}, false
}

func groupNames(groups []Group) []string {
	names := make([]string, 0, len(groups))
	for _, group := range groups {
		names = append(names, group.Name)
	}
	return names
}
