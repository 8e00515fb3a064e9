package viewer

// CategorySelection is the set of selected taxonomy paths, iterated in the
// order they were selected.
type CategorySelection struct {
	order   []string
	members map[string]struct{}
}

func NewCategorySelection() *CategorySelection {
	return &CategorySelection{members: make(map[string]struct{})}
}

func (c *CategorySelection) Has(path string) bool {
	_, ok := c.members[path]
	return ok
}

func (c *CategorySelection) Toggle(path string) bool {
	selected := !c.Has(path)
	c.Set(path, selected)
	return selected
}

func (c *CategorySelection) Set(path string, selected bool) {
	switch {
	case selected && !c.Has(path):
		c.members[path] = struct{}{}
		c.order = append(c.order, path)
	case !selected && c.Has(path):
		delete(c.members, path)
		for i, current := range c.order {
			if current == path {
				c.order = append(c.order[:i:i], c.order[i+1:]...)
				break
			}
		}
	}
}

func (c *CategorySelection) Paths() []string {
	return append([]string(nil), c.order...)
}
