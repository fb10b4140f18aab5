package fancy

import (
	"github.com/charmbracelet/lipgloss/tree"
)

// ComponentTree creates a component-specific styled tree
type ComponentTree struct {
	tree *tree.Tree
}

// NewComponentTree creates a new component tree with appropriate styling
func NewComponentTree(title string) *ComponentTree {
	t := tree.New()
	t.EnumeratorStyle(BranchStyle)
	t.Enumerator(tree.RoundedEnumerator)
	t.Root(title)

	return &ComponentTree{
		tree: t,
	}
}

// Tree returns the underlying tree
func (c *ComponentTree) Tree() *tree.Tree {
	return c.tree
}

// AddBranch adds a new branch with the given text
func (c *ComponentTree) AddBranch(text string) *tree.Tree {
	return c.tree.Child(text)
}

// AddChild adds a child node to the root branch
func (c *ComponentTree) AddChild(child any) *tree.Tree {
	return c.tree.Child(child)
}

// ListenerTree creates a tree for listener visualization
func ListenerTree(id string) *ComponentTree {
	return NewComponentTree(ListenerStyle.Render(id))
}

// RouteTree creates a tree branch for route visualization
func RouteTree(routeInfo string) *ComponentTree {
	return NewComponentTree(RouteStyle.Render(routeInfo))
}

// GuardTree creates a tree branch for guard visualization
func GuardTree(guardInfo string) *ComponentTree {
	return NewComponentTree(GuardStyle.Render(guardInfo))
}

// AppTree creates a tree branch for app visualization
func AppTree(appInfo string) *ComponentTree {
	return NewComponentTree(AppStyle.Render(appInfo))
}

// CatcherTree creates a tree branch for catcher visualization
func CatcherTree(catcherInfo string) *ComponentTree {
	return NewComponentTree(CatcherStyle.Render(catcherInfo))
}
